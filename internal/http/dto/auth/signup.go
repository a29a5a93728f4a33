// Package auth contiene DTOs para los endpoints de cuentas.
package auth

// SignupRequest representa la solicitud de POST /v1/auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// SignupResponse confirma la creación. No revela si el email de verificación
// llegó; una falla del gateway se reporta como error genérico.
type SignupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyEmailResponse entrega el material de enrolamiento MFA. Es la única
// oportunidad en la que el usuario ve el secreto y el código de respaldo.
type VerifyEmailResponse struct {
	Success      bool   `json:"success"`
	SecretBase32 string `json:"secret_base32"`
	OTPAuthURL   string `json:"otpauth_url"`
	BackupCode   string `json:"backup_code"`
}
