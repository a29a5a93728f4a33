package auth

// SendMFACodeRequest es la solicitud de POST /v1/auth/send-mfa-code.
type SendMFACodeRequest struct {
	Email string `json:"email"`
}

// SendMFACodeResponse confirma el envío del código temporal.
type SendMFACodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyMFARequest es la solicitud de POST /v1/auth/verify-mfa.
// Token puede ser un TOTP del autenticador o el código enviado por email.
type VerifyMFARequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// VerifyMFAResponse es la respuesta del paso final de autenticación.
type VerifyMFAResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"` // "Bearer"
	ExpiresIn   int64  `json:"expires_in,omitempty"` // segundos
	SessionID   string `json:"session_id,omitempty"`
}

// RecoverMFARequest es la solicitud de POST /v1/auth/recover-mfa.
type RecoverMFARequest struct {
	Email      string `json:"email"`
	BackupCode string `json:"backup_code"`
}

// RecoverMFAResponse solo acusa recibo; no muta estado.
type RecoverMFAResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
