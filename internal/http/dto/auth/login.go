package auth

// LoginRequest representa la solicitud de login por password (paso 1).
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse indica al front que falta el segundo factor.
// El paso 1 no emite ningún artefacto de sesión.
type LoginResponse struct {
	Success      bool   `json:"success"`
	RequireToken bool   `json:"require_token"`
	Email        string `json:"email"`
	Message      string `json:"message"`
}
