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
	tokens "github.com/dropDatabas3/conecta-accounts/internal/security/token"
	"github.com/dropDatabas3/conecta-accounts/internal/security/totp"
)

// VerifyEmailService consume el token de verificación y enrola MFA.
// Verificación y enrolamiento son atómicos: no existe el estado
// "verificado sin MFA".
type VerifyEmailService interface {
	VerifyEmail(ctx context.Context, rawToken string) (*EnrollmentResult, error)
}

// EnrollmentResult es el material que el usuario ve una única vez.
type EnrollmentResult struct {
	SecretBase32 string
	OTPAuthURL   string
	BackupCode   string
}

// VerifyEmail errors (sentinel)
var (
	ErrVerifyMissingToken = errors.New("missing token")
	ErrVerifyInvalidToken = errors.New("invalid verification token")
	ErrVerifyFailed       = errors.New("failed to verify email")
)

type verifyEmailService struct {
	deps Deps
}

func (s *verifyEmailService) VerifyEmail(ctx context.Context, rawToken string) (*EnrollmentResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.verify"),
		logger.Op("VerifyEmail"),
	)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		metrics.Inc(metrics.FlowVerifyEmail, metrics.OutcomeRejected)
		return nil, ErrVerifyMissingToken
	}

	acc, err := s.deps.Accounts.GetByVerificationToken(ctx, tokens.SHA256Base64URL(rawToken))
	if err != nil {
		if repository.IsNotFound(err) {
			// token ya consumido o nunca emitido
			metrics.Inc(metrics.FlowVerifyEmail, metrics.OutcomeRejected)
			return nil, ErrVerifyInvalidToken
		}
		log.Error("verification lookup failed", logger.Err(err))
		metrics.Inc(metrics.FlowVerifyEmail, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrVerifyFailed, err)
	}

	log = log.With(logger.AccountID(acc.ID))

	// Material de enrolamiento
	_, secretB32, err := totp.GenerateSecret()
	if err != nil {
		metrics.Inc(metrics.FlowVerifyEmail, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrVerifyFailed, err)
	}
	backupCode, err := tokens.GenerateBackupCode()
	if err != nil {
		metrics.Inc(metrics.FlowVerifyEmail, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrVerifyFailed, err)
	}
	secretStored, err := encryptSecret(s.deps.Box, secretB32)
	if err != nil {
		log.Error("secret encryption failed", logger.Err(err))
		metrics.Inc(metrics.FlowVerifyEmail, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrVerifyFailed, err)
	}
	backupHash := tokens.SHA256Base64URL(tokens.NormalizeBackupCode(backupCode))

	// Consumo del token + enrolamiento en una sola actualización persistida
	acc, err = s.deps.Accounts.UpdateAtomic(ctx, acc.ID, func(a *repository.Account) error {
		if a.VerificationTokenHash == nil {
			// otro request lo consumió entre el lookup y el lock
			return ErrVerifyInvalidToken
		}
		a.VerificationTokenHash = nil
		a.IsVerified = true
		a.MFASecretEnc = &secretStored
		a.IsMFAEnabled = true
		a.BackupCodeHash = &backupHash
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrVerifyInvalidToken) {
			metrics.Inc(metrics.FlowVerifyEmail, metrics.OutcomeRejected)
			return nil, ErrVerifyInvalidToken
		}
		log.Error("verification update failed", logger.Err(err))
		metrics.Inc(metrics.FlowVerifyEmail, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrVerifyFailed, err)
	}

	log.Info("email verified, mfa enrolled")
	audit.Event(ctx, "account.verified", logger.AccountID(acc.ID))
	metrics.Inc(metrics.FlowVerifyEmail, metrics.OutcomeOK)
	return &EnrollmentResult{
		SecretBase32: secretB32,
		OTPAuthURL:   totp.OTPAuthURL(s.deps.TOTPIssuer, acc.Email, secretB32),
		BackupCode:   backupCode,
	}, nil
}
