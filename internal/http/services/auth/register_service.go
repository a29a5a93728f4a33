package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/conecta-accounts/internal/audit"
	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
	dto "github.com/dropDatabas3/conecta-accounts/internal/http/dto/auth"
	"github.com/dropDatabas3/conecta-accounts/internal/metrics"
	"github.com/dropDatabas3/conecta-accounts/internal/observability/logger"
	"github.com/dropDatabas3/conecta-accounts/internal/security/password"
	tokens "github.com/dropDatabas3/conecta-accounts/internal/security/token"
	"github.com/dropDatabas3/conecta-accounts/internal/util"
	"github.com/dropDatabas3/conecta-accounts/internal/validation"
)

// RegisterService crea cuentas nuevas y dispara el email de verificación.
type RegisterService interface {
	Register(ctx context.Context, in dto.SignupRequest) error
}

// Register errors (sentinel)
var (
	ErrRegisterMissingFields = errors.New("missing required fields")
	ErrRegisterInvalidEmail  = errors.New("invalid email format")
	ErrRegisterWeakPassword  = errors.New("password does not meet policy")
	ErrRegisterEmailTaken    = errors.New("email already registered")
	ErrRegisterHashFailed    = errors.New("failed to hash password")
	ErrRegisterCreateFailed  = errors.New("failed to create account")
	ErrRegisterSendFailed    = errors.New("failed to send verification email")
)

type registerService struct {
	deps Deps
}

func (s *registerService) Register(ctx context.Context, in dto.SignupRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	// Normalizar y validar entrada
	in.Name = strings.TrimSpace(in.Name)
	in.Email = validation.NormalizeEmail(in.Email)
	in.Role = strings.TrimSpace(in.Role)

	if in.Name == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		metrics.Inc(metrics.FlowRegister, metrics.OutcomeRejected)
		return ErrRegisterMissingFields
	}
	if !validation.IsEmail(in.Email) {
		metrics.Inc(metrics.FlowRegister, metrics.OutcomeRejected)
		return ErrRegisterInvalidEmail
	}
	if ok, reasons := s.deps.Policy.Validate(in.Password); !ok {
		log.Debug("password policy violation", logger.String("reasons", strings.Join(reasons, ",")))
		metrics.Inc(metrics.FlowRegister, metrics.OutcomeRejected)
		return fmt.Errorf("%w: %s", ErrRegisterWeakPassword, strings.Join(reasons, ","))
	}

	// Hash del password
	phc, err := password.Hash(s.deps.HashParams, in.Password)
	if err != nil {
		log.Error("password hash failed", logger.Err(err))
		metrics.Inc(metrics.FlowRegister, metrics.OutcomeError)
		return ErrRegisterHashFailed
	}

	// Token de verificación: el valor crudo viaja en el link, se persiste el digest
	rawToken, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		metrics.Inc(metrics.FlowRegister, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrRegisterCreateFailed, err)
	}

	acc, err := s.deps.Accounts.Create(ctx, repository.CreateAccountInput{
		Name:                  in.Name,
		Email:                 in.Email,
		PasswordHash:          phc,
		Role:                  in.Role,
		VerificationTokenHash: tokens.SHA256Base64URL(rawToken),
	})
	if err != nil {
		if repository.IsConflict(err) {
			log.Debug("email already exists")
			metrics.Inc(metrics.FlowRegister, metrics.OutcomeRejected)
			return ErrRegisterEmailTaken
		}
		log.Error("account creation failed", logger.Err(err))
		metrics.Inc(metrics.FlowRegister, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrRegisterCreateFailed, err)
	}

	log = log.With(logger.AccountID(acc.ID))

	// La cuenta ya está commiteada; la falla de envío se reporta sin rollback
	if err := s.deps.Notifier.SendVerification(ctx, acc.Name, acc.Email, rawToken); err != nil {
		log.Warn("verification email failed", logger.Err(err))
		metrics.Inc(metrics.FlowRegister, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrRegisterSendFailed, err)
	}

	log.Info("account registered, verification pending")
	audit.Event(ctx, "account.created",
		logger.AccountID(acc.ID), logger.String("email", util.MaskEmail(acc.Email)))
	metrics.Inc(metrics.FlowRegister, metrics.OutcomeOK)
	return nil
}
