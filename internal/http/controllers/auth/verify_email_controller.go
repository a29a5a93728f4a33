package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/conecta-accounts/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/conecta-accounts/internal/http/errors"
	"github.com/dropDatabas3/conecta-accounts/internal/http/helpers"
	svc "github.com/dropDatabas3/conecta-accounts/internal/http/services/auth"
	"github.com/dropDatabas3/conecta-accounts/internal/observability/logger"
)

// VerifyEmailController maneja la verificación del email y entrega el
// material de enrolamiento MFA.
type VerifyEmailController struct {
	service svc.VerifyEmailService
}

// NewVerifyEmailController crea el controller.
func NewVerifyEmailController(s svc.VerifyEmailService) *VerifyEmailController {
	return &VerifyEmailController{service: s}
}

// VerifyEmail maneja GET /v1/auth/verify-email/{token}
func (c *VerifyEmailController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.verify_email"))

	rawToken := chi.URLParam(r, "token")

	result, err := c.service.VerifyEmail(ctx, rawToken)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrVerifyMissingToken):
			httperrors.WriteError(w, httperrors.ErrMissingFields)
		case errors.Is(err, svc.ErrVerifyInvalidToken):
			httperrors.WriteError(w, httperrors.ErrInvalidToken)
		default:
			log.Error("email verification failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	// la respuesta contiene el secreto: nunca cachear
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	helpers.WriteJSON(w, http.StatusOK, dto.VerifyEmailResponse{
		Success:      true,
		SecretBase32: result.SecretBase32,
		OTPAuthURL:   result.OTPAuthURL,
		BackupCode:   result.BackupCode,
	})
}
