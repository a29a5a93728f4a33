// Package auth implementa la máquina de estados de cuentas: signup,
// verificación de email, login en dos pasos, MFA y recuperación.
//
// Cada service valida la entrada y el estado actual del registro, consulta
// los colaboradores (hash, TOTP, tokens) y persiste via AccountRepository.
// La mutación siempre se commitea antes de intentar la notificación: una
// falla del gateway de email nunca revierte el estado que está reportando.
package auth

import (
	"time"

	"github.com/dropDatabas3/conecta-accounts/internal/cache"
	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
	"github.com/dropDatabas3/conecta-accounts/internal/email"
	jwtx "github.com/dropDatabas3/conecta-accounts/internal/jwt"
	"github.com/dropDatabas3/conecta-accounts/internal/security/password"
	"github.com/dropDatabas3/conecta-accounts/internal/security/secretbox"
)

// Deps contiene las dependencias compartidas de los services de auth.
// Todas se construyen una vez en main y se inyectan; no hay estado ambiente.
type Deps struct {
	Accounts repository.AccountRepository
	Notifier *email.Notifier
	Cache    cache.Client
	Issuer   *jwtx.Issuer
	Box      *secretbox.Box // cifrado at-rest del secreto TOTP; nil => claro (solo dev)

	HashParams password.Params
	Policy     password.Policy

	TOTPIssuer string // nombre del servicio en el otpauth://

	MFACodeTTL time.Duration // default 5m
	ResetTTL   time.Duration // default 10m
	SessionTTL time.Duration // default 12h

	Now func() time.Time // reloj inyectable (tests)
}

func (d *Deps) applyDefaults() {
	if d.MFACodeTTL <= 0 {
		d.MFACodeTTL = 5 * time.Minute
	}
	if d.ResetTTL <= 0 {
		d.ResetTTL = 10 * time.Minute
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = 12 * time.Hour
	}
	if d.TOTPIssuer == "" {
		d.TOTPIssuer = "ConectaAccounts"
	}
	if d.HashParams == (password.Params{}) {
		d.HashParams = password.Default
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// Services agrupa los services del dominio auth.
type Services struct {
	Register RegisterService
	Verify   VerifyEmailService
	Login    LoginService
	MFA      MFAService
	Reset    PasswordResetService
}

// NewServices construye el agregado con las dependencias dadas.
func NewServices(deps Deps) Services {
	deps.applyDefaults()
	return Services{
		Register: &registerService{deps: deps},
		Verify:   &verifyEmailService{deps: deps},
		Login:    &loginService{deps: deps},
		MFA:      &mfaService{deps: deps},
		Reset:    &resetService{deps: deps},
	}
}

// encryptSecret cifra el secreto TOTP si hay Box configurado.
func encryptSecret(box *secretbox.Box, b32 string) (string, error) {
	if box == nil {
		return b32, nil
	}
	return box.Encrypt(b32)
}

// decryptSecret descifra el secreto TOTP si hay Box configurado.
func decryptSecret(box *secretbox.Box, stored string) (string, error) {
	if box == nil {
		return stored, nil
	}
	return box.Decrypt(stored)
}
