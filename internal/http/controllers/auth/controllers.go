// Package auth contiene los controllers HTTP de los flujos de cuenta.
//
// Cada controller traduce request/response JSON y mapea los errores sentinel
// del service a la taxonomía HTTP; la lógica de negocio vive en services.
package auth

import (
	svc "github.com/dropDatabas3/conecta-accounts/internal/http/services/auth"
)

// Controllers agrupa los controllers del dominio auth.
type Controllers struct {
	Signup      *SignupController
	VerifyEmail *VerifyEmailController
	Login       *LoginController
	MFA         *MFAController
	Reset       *PasswordResetController
}

// NewControllers construye el agregado a partir de los services.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Signup:      NewSignupController(s.Register),
		VerifyEmail: NewVerifyEmailController(s.Verify),
		Login:       NewLoginController(s.Login),
		MFA:         NewMFAController(s.MFA),
		Reset:       NewPasswordResetController(s.Reset),
	}
}
