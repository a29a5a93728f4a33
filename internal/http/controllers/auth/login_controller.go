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
)

// LoginController maneja el paso 1 del login (email + password).
type LoginController struct {
	service svc.LoginService
}

// NewLoginController crea el controller.
func NewLoginController(s svc.LoginService) *LoginController {
	return &LoginController{service: s}
}

// Login maneja POST /v1/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	log = log.With(logger.String("email", util.MaskEmail(req.Email)))

	step, err := c.service.Login(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrLoginMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields)
		case errors.Is(err, svc.ErrLoginNotFound):
			httperrors.WriteError(w, httperrors.ErrAccountNotFound)
		case errors.Is(err, svc.ErrLoginUnverified):
			httperrors.WriteError(w, httperrors.ErrAccountNotVerified)
		case errors.Is(err, svc.ErrLoginInvalidPassword):
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		case errors.Is(err, svc.ErrLoginMFANotConfigured):
			httperrors.WriteError(w, httperrors.ErrMFANotConfigured)
		default:
			log.Error("login failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.LoginResponse{
		Success:      true,
		RequireToken: true,
		Email:        step.Email,
		Message:      "Credenciales válidas. Ingresá tu código de verificación.",
	})
}
