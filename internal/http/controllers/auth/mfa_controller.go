package auth

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/conecta-accounts/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/conecta-accounts/internal/http/errors"
	"github.com/dropDatabas3/conecta-accounts/internal/http/helpers"
	svc "github.com/dropDatabas3/conecta-accounts/internal/http/services/auth"
	"github.com/dropDatabas3/conecta-accounts/internal/observability/logger"
	"github.com/dropDatabas3/conecta-accounts/internal/util"
	"go.uber.org/zap"
)

// MFAController maneja el segundo factor: envío de código, verificación
// y recuperación por backup code.
type MFAController struct {
	service svc.MFAService
}

// NewMFAController crea el controller.
func NewMFAController(s svc.MFAService) *MFAController {
	return &MFAController{service: s}
}

// SendCode maneja POST /v1/auth/send-mfa-code
func (c *MFAController) SendCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.send_mfa_code"))

	var req dto.SendMFACodeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	log = log.With(logger.String("email", util.MaskEmail(req.Email)))

	if err := c.service.RequestEmailCode(ctx, req.Email); err != nil {
		c.handleServiceError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.SendMFACodeResponse{
		Success: true,
		Message: "Código enviado. Revisá tu email.",
	})
}

// Verify maneja POST /v1/auth/verify-mfa
func (c *MFAController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.verify_mfa"))

	var req dto.VerifyMFARequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	log = log.With(logger.String("email", util.MaskEmail(req.Email)))

	session, err := c.service.VerifyMFA(ctx, req.Email, req.Token)
	if err != nil {
		c.handleServiceError(w, err, log)
		return
	}

	// la respuesta contiene el access token: nunca cachear
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.VerifyMFAResponse{
		Success:     true,
		Message:     "Autenticación completada.",
		AccessToken: session.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   session.ExpiresIn,
		SessionID:   session.SessionID,
	})
}

// Recover maneja POST /v1/auth/recover-mfa
func (c *MFAController) Recover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.recover_mfa"))

	var req dto.RecoverMFARequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	log = log.With(logger.String("email", util.MaskEmail(req.Email)))

	msg, err := c.service.Recover(ctx, req.Email, req.BackupCode)
	if err != nil {
		c.handleServiceError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.RecoverMFAResponse{
		Success: true,
		Message: msg,
	})
}

func (c *MFAController) handleServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrMFAMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrMFANotFound):
		httperrors.WriteError(w, httperrors.ErrAccountNotFound)
	case errors.Is(err, svc.ErrMFAInvalidOrExpired):
		httperrors.WriteError(w, httperrors.ErrInvalidMFACode)
	case errors.Is(err, svc.ErrMFAInvalidRecovery):
		httperrors.WriteError(w, httperrors.ErrInvalidRecoveryCode)
	case errors.Is(err, svc.ErrMFASendFailed):
		log.Warn("mfa email delivery failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrEmailDelivery)
	default:
		log.Error("mfa operation failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
