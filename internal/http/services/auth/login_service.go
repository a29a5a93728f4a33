package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/conecta-accounts/internal/audit"
	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
	dto "github.com/dropDatabas3/conecta-accounts/internal/http/dto/auth"
	"github.com/dropDatabas3/conecta-accounts/internal/metrics"
	"github.com/dropDatabas3/conecta-accounts/internal/observability/logger"
	"github.com/dropDatabas3/conecta-accounts/internal/security/password"
	"github.com/dropDatabas3/conecta-accounts/internal/validation"
)

// LoginService valida el paso 1 (password). El éxito solo habilita el paso 2;
// acá no se emite ningún artefacto de sesión.
type LoginService interface {
	Login(ctx context.Context, in dto.LoginRequest) (*StepTwoRequired, error)
}

// StepTwoRequired es el acuse del paso 1: falta el segundo factor.
type StepTwoRequired struct {
	Email string
}

// Login errors (sentinel)
var (
	ErrLoginMissingFields = errors.New("missing email or password")
	// ErrLoginNotFound revela existencia de la cuenta; tradeoff aceptado y
	// documentado, heredado del contrato original.
	ErrLoginNotFound         = errors.New("account not found")
	ErrLoginUnverified       = errors.New("email not verified")
	ErrLoginInvalidPassword  = errors.New("invalid credentials")
	ErrLoginMFANotConfigured = errors.New("mfa not configured")
	ErrLoginFailed           = errors.New("login failed")
)

type loginService struct {
	deps Deps
}

func (s *loginService) Login(ctx context.Context, in dto.LoginRequest) (*StepTwoRequired, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	email := validation.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		metrics.Inc(metrics.FlowLogin, metrics.OutcomeRejected)
		return nil, ErrLoginMissingFields
	}

	acc, err := s.deps.Accounts.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.Inc(metrics.FlowLogin, metrics.OutcomeRejected)
			return nil, ErrLoginNotFound
		}
		log.Error("account lookup failed", logger.Err(err))
		metrics.Inc(metrics.FlowLogin, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	log = log.With(logger.AccountID(acc.ID))

	// El password solo puede validar sobre una cuenta verificada y con MFA
	// enrolado; el orden de los checks define el error que ve el caller.
	if !acc.IsVerified {
		metrics.Inc(metrics.FlowLogin, metrics.OutcomeRejected)
		return nil, ErrLoginUnverified
	}
	if !password.Verify(in.Password, acc.PasswordHash) {
		log.Debug("password mismatch")
		metrics.Inc(metrics.FlowLogin, metrics.OutcomeRejected)
		return nil, ErrLoginInvalidPassword
	}
	if acc.MFASecretEnc == nil || !acc.IsMFAEnabled {
		metrics.Inc(metrics.FlowLogin, metrics.OutcomeRejected)
		return nil, ErrLoginMFANotConfigured
	}

	log.Info("login step-1 ok, mfa required")
	audit.Event(ctx, "login.password_ok", logger.AccountID(acc.ID))
	metrics.Inc(metrics.FlowLogin, metrics.OutcomeOK)
	return &StepTwoRequired{Email: acc.Email}, nil
}
