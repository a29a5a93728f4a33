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

// PasswordResetController maneja el olvido y reemplazo de contraseña.
type PasswordResetController struct {
	service svc.PasswordResetService
}

// NewPasswordResetController crea el controller.
func NewPasswordResetController(s svc.PasswordResetService) *PasswordResetController {
	return &PasswordResetController{service: s}
}

// Forgot maneja POST /v1/auth/forgot-password
func (c *PasswordResetController) Forgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.forgot_password"))

	var req dto.ForgotPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	log = log.With(logger.String("email", util.MaskEmail(req.Email)))

	if err := c.service.Forgot(ctx, req.Email); err != nil {
		c.handleServiceError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ForgotPasswordResponse{
		Success: true,
		Message: "Te enviamos un link para restablecer tu contraseña.",
	})
}

// Reset maneja POST /v1/auth/reset-password
func (c *PasswordResetController) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.reset_password"))

	var req dto.ResetPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.Reset(ctx, req.Token, req.NewPassword); err != nil {
		c.handleServiceError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ResetPasswordResponse{
		Success: true,
		Message: "Contraseña actualizada. Ya podés iniciar sesión.",
	})
}

func (c *PasswordResetController) handleServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrResetMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrResetNotFound):
		httperrors.WriteError(w, httperrors.ErrAccountNotFound)
	case errors.Is(err, svc.ErrResetInvalidToken):
		httperrors.WriteError(w, httperrors.ErrInvalidToken)
	case errors.Is(err, svc.ErrResetWeakPassword):
		httperrors.WriteError(w, httperrors.ErrWeakPassword.WithDetail(err.Error()))
	case errors.Is(err, svc.ErrResetSendFailed):
		log.Warn("reset email delivery failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrEmailDelivery)
	default:
		log.Error("password reset failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
