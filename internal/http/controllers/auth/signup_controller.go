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

// SignupController maneja el alta de cuentas.
type SignupController struct {
	service svc.RegisterService
}

// NewSignupController crea el controller.
func NewSignupController(s svc.RegisterService) *SignupController {
	return &SignupController{service: s}
}

// Signup maneja POST /v1/auth/signup
func (c *SignupController) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.signup"))

	var req dto.SignupRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	log = log.With(logger.String("email", util.MaskEmail(req.Email)))

	if err := c.service.Register(ctx, req); err != nil {
		c.handleServiceError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.SignupResponse{
		Success: true,
		Message: "Cuenta creada. Revisá tu email para verificarla.",
	})
}

func (c *SignupController) handleServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrRegisterMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrRegisterInvalidEmail):
		httperrors.WriteError(w, httperrors.ErrInvalidEmail)
	case errors.Is(err, svc.ErrRegisterWeakPassword):
		httperrors.WriteError(w, httperrors.ErrWeakPassword.WithDetail(err.Error()))
	case errors.Is(err, svc.ErrRegisterEmailTaken):
		httperrors.WriteError(w, httperrors.ErrEmailTaken)
	case errors.Is(err, svc.ErrRegisterSendFailed):
		// la cuenta quedó creada; el cliente puede reintentar la verificación
		log.Warn("signup created but email failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrEmailDelivery)
	default:
		log.Error("signup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
