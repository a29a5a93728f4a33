package auth

// ForgotPasswordRequest es la solicitud de POST /v1/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordResponse confirma el envío del link de reset.
type ForgotPasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ResetPasswordRequest es la solicitud de POST /v1/auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPasswordResponse confirma el cambio de password.
type ResetPasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
