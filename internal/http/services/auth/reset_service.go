package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/conecta-accounts/internal/audit"
	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
	"github.com/dropDatabas3/conecta-accounts/internal/metrics"
	"github.com/dropDatabas3/conecta-accounts/internal/observability/logger"
	"github.com/dropDatabas3/conecta-accounts/internal/security/password"
	tokens "github.com/dropDatabas3/conecta-accounts/internal/security/token"
	"github.com/dropDatabas3/conecta-accounts/internal/validation"
)

// PasswordResetService maneja el olvido y reemplazo de contraseña.
type PasswordResetService interface {
	// Forgot emite un token de reset con vigencia corta y lo envía por email.
	// Pedidos repetidos pisan el token anterior, que queda invalidado.
	Forgot(ctx context.Context, emailAddr string) error

	// Reset consume el token vigente y reemplaza la contraseña. El token y su
	// expiry se limpian en la misma actualización que escribe el hash nuevo.
	Reset(ctx context.Context, rawToken, newPassword string) error
}

// Password reset errors (sentinel)
var (
	ErrResetMissingFields = errors.New("missing required fields")
	ErrResetNotFound      = errors.New("account not found")
	ErrResetInvalidToken  = errors.New("invalid or expired reset token")
	ErrResetWeakPassword  = errors.New("password does not meet policy")
	ErrResetSendFailed    = errors.New("failed to send reset email")
	ErrResetFailed        = errors.New("password reset failed")
)

type resetService struct {
	deps Deps
}

func (s *resetService) Forgot(ctx context.Context, emailAddr string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.reset"),
		logger.Op("Forgot"),
	)

	emailAddr = validation.NormalizeEmail(emailAddr)
	if emailAddr == "" {
		metrics.Inc(metrics.FlowForgot, metrics.OutcomeRejected)
		return ErrResetMissingFields
	}

	acc, err := s.deps.Accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.Inc(metrics.FlowForgot, metrics.OutcomeRejected)
			return ErrResetNotFound
		}
		metrics.Inc(metrics.FlowForgot, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}

	log = log.With(logger.AccountID(acc.ID))

	rawToken, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		metrics.Inc(metrics.FlowForgot, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}
	digest := tokens.SHA256Base64URL(rawToken)
	expiry := s.deps.Now().UTC().Add(s.deps.ResetTTL)

	acc, err = s.deps.Accounts.UpdateAtomic(ctx, acc.ID, func(a *repository.Account) error {
		a.ResetTokenHash = &digest
		a.ResetTokenExpires = &expiry
		return nil
	})
	if err != nil {
		log.Error("reset token update failed", logger.Err(err))
		metrics.Inc(metrics.FlowForgot, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}

	if err := s.deps.Notifier.SendResetLink(ctx, acc.Name, acc.Email, rawToken, s.deps.ResetTTL); err != nil {
		log.Warn("reset email failed", logger.Err(err))
		metrics.Inc(metrics.FlowForgot, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrResetSendFailed, err)
	}

	log.Info("reset link sent")
	metrics.Inc(metrics.FlowForgot, metrics.OutcomeOK)
	return nil
}

func (s *resetService) Reset(ctx context.Context, rawToken, newPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.reset"),
		logger.Op("Reset"),
	)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" || newPassword == "" {
		metrics.Inc(metrics.FlowReset, metrics.OutcomeRejected)
		return ErrResetMissingFields
	}

	now := s.deps.Now().UTC()
	digest := tokens.SHA256Base64URL(rawToken)
	acc, err := s.deps.Accounts.GetByResetToken(ctx, digest, now)
	if err != nil {
		if repository.IsNotFound(err) || errors.Is(err, repository.ErrTokenExpired) {
			metrics.Inc(metrics.FlowReset, metrics.OutcomeRejected)
			return ErrResetInvalidToken
		}
		metrics.Inc(metrics.FlowReset, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}

	log = log.With(logger.AccountID(acc.ID))

	if ok, reasons := s.deps.Policy.Validate(newPassword); !ok {
		log.Debug("weak password", logger.String("reasons", strings.Join(reasons, ",")))
		metrics.Inc(metrics.FlowReset, metrics.OutcomeRejected)
		return fmt.Errorf("%w: %s", ErrResetWeakPassword, strings.Join(reasons, ", "))
	}

	hash, err := password.Hash(s.deps.HashParams, newPassword)
	if err != nil {
		metrics.Inc(metrics.FlowReset, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}

	// hash nuevo y limpieza del token en la misma actualización: el token
	// queda de un solo uso aunque lleguen dos POST con el mismo valor.
	_, err = s.deps.Accounts.UpdateAtomic(ctx, acc.ID, func(a *repository.Account) error {
		// tiene que seguir vigente el mismo token presentado: otro request
		// pudo consumirlo, o un Forgot concurrente reemplazarlo
		if a.ResetTokenHash == nil || *a.ResetTokenHash != digest {
			return ErrResetInvalidToken
		}
		a.PasswordHash = hash
		a.ResetTokenHash = nil
		a.ResetTokenExpires = nil
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrResetInvalidToken) {
			metrics.Inc(metrics.FlowReset, metrics.OutcomeRejected)
			return ErrResetInvalidToken
		}
		log.Error("password update failed", logger.Err(err))
		metrics.Inc(metrics.FlowReset, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}

	log.Info("password reset completed")
	audit.Event(ctx, "password.reset", logger.AccountID(acc.ID))
	metrics.Inc(metrics.FlowReset, metrics.OutcomeOK)
	return nil
}
