package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/conecta-accounts/internal/audit"
	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
	"github.com/dropDatabas3/conecta-accounts/internal/metrics"
	"github.com/dropDatabas3/conecta-accounts/internal/observability/logger"
	tokens "github.com/dropDatabas3/conecta-accounts/internal/security/token"
	"github.com/dropDatabas3/conecta-accounts/internal/security/totp"
	"github.com/dropDatabas3/conecta-accounts/internal/validation"
)

// MFAService maneja el segundo factor: emisión del código por email,
// verificación (TOTP o código temporal) y recuperación por backup code.
type MFAService interface {
	// RequestEmailCode genera y envía un código de 6 dígitos con expiry corto.
	// Sobrescribe idempotentemente cualquier código pendiente anterior.
	RequestEmailCode(ctx context.Context, emailAddr string) error

	// VerifyMFA acepta un TOTP del autenticador (ventana estándar) o el código
	// temporal vigente. Al aceptar limpia el par pendiente y emite la sesión.
	VerifyMFA(ctx context.Context, emailAddr, code string) (*SessionResult, error)

	// Recover valida el par exacto (email, backup code). Solo acusa recibo:
	// no muta estado (la re-inscripción efectiva queda fuera de alcance).
	Recover(ctx context.Context, emailAddr, backupCode string) (string, error)
}

// SessionResult es el artefacto emitido al completar el segundo factor.
type SessionResult struct {
	AccessToken string
	ExpiresIn   int64 // segundos
	SessionID   string
}

// sessionRecord es lo que se guarda en cache bajo session:<id>.
type sessionRecord struct {
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
}

// MFA errors (sentinel)
var (
	ErrMFAMissingFields    = errors.New("missing required fields")
	ErrMFANotFound         = errors.New("account not found")
	ErrMFAInvalidOrExpired = errors.New("invalid or expired mfa code")
	ErrMFASendFailed       = errors.New("failed to send mfa code")
	ErrMFAInvalidRecovery  = errors.New("invalid recovery code")
	ErrMFAFailed           = errors.New("mfa verification failed")
)

type mfaService struct {
	deps Deps
}

func (s *mfaService) RequestEmailCode(ctx context.Context, emailAddr string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.mfa"),
		logger.Op("RequestEmailCode"),
	)

	emailAddr = validation.NormalizeEmail(emailAddr)
	if emailAddr == "" {
		metrics.Inc(metrics.FlowMFACode, metrics.OutcomeRejected)
		return ErrMFAMissingFields
	}

	acc, err := s.deps.Accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.Inc(metrics.FlowMFACode, metrics.OutcomeRejected)
			return ErrMFANotFound
		}
		metrics.Inc(metrics.FlowMFACode, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrMFAFailed, err)
	}

	log = log.With(logger.AccountID(acc.ID))

	code, err := tokens.GenerateNumericCode(6)
	if err != nil {
		metrics.Inc(metrics.FlowMFACode, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrMFAFailed, err)
	}
	expiry := s.deps.Now().UTC().Add(s.deps.MFACodeTTL)

	// código y expiry se persisten juntos, pisando cualquier par anterior
	acc, err = s.deps.Accounts.UpdateAtomic(ctx, acc.ID, func(a *repository.Account) error {
		a.PendingMFACode = &code
		a.PendingMFAExpiresAt = &expiry
		return nil
	})
	if err != nil {
		log.Error("pending code update failed", logger.Err(err))
		metrics.Inc(metrics.FlowMFACode, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrMFAFailed, err)
	}

	if err := s.deps.Notifier.SendMFACode(ctx, acc.Name, acc.Email, code, s.deps.MFACodeTTL); err != nil {
		log.Warn("mfa code email failed", logger.Err(err))
		metrics.Inc(metrics.FlowMFACode, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrMFASendFailed, err)
	}

	log.Info("mfa code sent")
	metrics.Inc(metrics.FlowMFACode, metrics.OutcomeOK)
	return nil
}

func (s *mfaService) VerifyMFA(ctx context.Context, emailAddr, code string) (*SessionResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.mfa"),
		logger.Op("VerifyMFA"),
	)

	emailAddr = validation.NormalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" || code == "" {
		metrics.Inc(metrics.FlowVerifyMFA, metrics.OutcomeRejected)
		return nil, ErrMFAMissingFields
	}

	acc, err := s.deps.Accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.Inc(metrics.FlowVerifyMFA, metrics.OutcomeRejected)
			return nil, ErrMFANotFound
		}
		metrics.Inc(metrics.FlowVerifyMFA, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrMFAFailed, err)
	}

	log = log.With(logger.AccountID(acc.ID))
	now := s.deps.Now().UTC()

	// La aceptación corre adentro de la actualización: el estado pendiente se
	// relee bajo el lock del repo, así el código emailado vale exactamente un
	// consumo aunque lleguen dos verificaciones en paralelo. Al aceptar, el
	// par pendiente se limpia en la misma actualización; el código emailado
	// queda consumido aunque el match haya sido por TOTP.
	acc, err = s.deps.Accounts.UpdateAtomic(ctx, acc.ID, func(a *repository.Account) error {
		accepted := false

		// Camino 1: TOTP del autenticador, ventana ±1 paso
		if a.MFASecretEnc != nil {
			secretB32, err := decryptSecret(s.deps.Box, *a.MFASecretEnc)
			if err != nil {
				return fmt.Errorf("decrypt secret: %w", err)
			}
			secretRaw, err := totp.DecodeSecret(secretB32)
			if err != nil {
				return fmt.Errorf("decode secret: %w", err)
			}
			accepted = totp.Verify(secretRaw, code, now, 1)
		}

		// Camino 2: código temporal por email, ahora estrictamente antes
		// del expiry. Si otro request ya lo consumió, acá está en nil.
		if !accepted && a.PendingMFACode != nil && a.PendingMFAExpiresAt != nil {
			if code == *a.PendingMFACode && now.Before(*a.PendingMFAExpiresAt) {
				accepted = true
			}
		}

		if !accepted {
			return ErrMFAInvalidOrExpired
		}
		a.PendingMFACode = nil
		a.PendingMFAExpiresAt = nil
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMFAInvalidOrExpired) {
			log.Debug("mfa rejected")
			metrics.Inc(metrics.FlowVerifyMFA, metrics.OutcomeRejected)
			return nil, ErrMFAInvalidOrExpired
		}
		log.Error("mfa verification failed", logger.Err(err))
		metrics.Inc(metrics.FlowVerifyMFA, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrMFAFailed, err)
	}

	result, err := s.mintSession(ctx, acc, now)
	if err != nil {
		log.Error("session mint failed", logger.Err(err))
		metrics.Inc(metrics.FlowVerifyMFA, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrMFAFailed, err)
	}

	log.Info("mfa verified, session issued")
	audit.Event(ctx, "login.mfa_ok",
		logger.AccountID(acc.ID), logger.String("session_id", result.SessionID))
	metrics.Inc(metrics.FlowVerifyMFA, metrics.OutcomeOK)
	return result, nil
}

// mintSession emite el access token y registra la sesión en cache.
func (s *mfaService) mintSession(ctx context.Context, acc *repository.Account, now time.Time) (*SessionResult, error) {
	access, err := s.deps.Issuer.Issue(acc.ID, acc.Email, acc.Role, now)
	if err != nil {
		return nil, err
	}

	sid := uuid.NewString()
	rec, err := json.Marshal(sessionRecord{
		AccountID: acc.ID,
		Email:     acc.Email,
		Role:      acc.Role,
		IssuedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.deps.Cache.Set(ctx, "session:"+sid, string(rec), s.deps.SessionTTL); err != nil {
		return nil, err
	}

	return &SessionResult{
		AccessToken: access,
		ExpiresIn:   int64(s.deps.Issuer.TTL() / time.Second),
		SessionID:   sid,
	}, nil
}

func (s *mfaService) Recover(ctx context.Context, emailAddr, backupCode string) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.mfa"),
		logger.Op("Recover"),
	)

	emailAddr = validation.NormalizeEmail(emailAddr)
	backupCode = tokens.NormalizeBackupCode(backupCode)
	if emailAddr == "" || backupCode == "" {
		metrics.Inc(metrics.FlowRecover, metrics.OutcomeRejected)
		return "", ErrMFAMissingFields
	}

	acc, err := s.deps.Accounts.GetByEmailAndBackupCode(ctx, emailAddr, tokens.SHA256Base64URL(backupCode))
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.Inc(metrics.FlowRecover, metrics.OutcomeRejected)
			return "", ErrMFAInvalidRecovery
		}
		metrics.Inc(metrics.FlowRecover, metrics.OutcomeError)
		return "", fmt.Errorf("%w: %w", ErrMFAFailed, err)
	}

	// Solo mensaje consultivo: el backup code no se consume ni se rota acá.
	log.Info("backup code accepted", logger.AccountID(acc.ID))
	audit.Event(ctx, "mfa.recovery_used", logger.AccountID(acc.ID))
	metrics.Inc(metrics.FlowRecover, metrics.OutcomeOK)
	return "Código de respaldo válido. Iniciá sesión nuevamente para reconfigurar tu autenticador.", nil
}
