// Package router define las rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/conecta-accounts/internal/cache"
	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
	authctrl "github.com/dropDatabas3/conecta-accounts/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/conecta-accounts/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/conecta-accounts/internal/http/errors"
	mw "github.com/dropDatabas3/conecta-accounts/internal/http/middlewares"
	"github.com/dropDatabas3/conecta-accounts/internal/rate"
)

// Deps contiene las dependencias para armar el router.
type Deps struct {
	Controllers *authctrl.Controllers
	Accounts    repository.AccountRepository
	Cache       cache.Client
	Registry    *prometheus.Registry
	Limiter     rate.Limiter // opcional; si es nil no se throttlea
	Version     string
}

// New arma el router completo del servicio: flujos de auth bajo /v1/auth,
// más /healthz y /metrics operativos.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	c := deps.Controllers
	health := &healthctrl.HealthController{
		Accounts: deps.Accounts,
		Cache:    deps.Cache,
		Version:  deps.Version,
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	r.Route("/v1/auth", func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(mw.WithRateLimit(deps.Limiter))
		}
		r.Post("/signup", c.Signup.Signup)
		r.Get("/verify-email/{token}", c.VerifyEmail.VerifyEmail)
		r.Post("/login", c.Login.Login)
		r.Post("/send-mfa-code", c.MFA.SendCode)
		r.Post("/verify-mfa", c.MFA.Verify)
		r.Post("/recover-mfa", c.MFA.Recover)
		r.Post("/forgot-password", c.Reset.Forgot)
		r.Post("/reset-password", c.Reset.Reset)
	})

	r.Get("/healthz", health.Healthz)

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// recover por fuera de todo; logging después del request id para que
	// cada línea salga con su request_id
	return mw.Chain(r,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
	)
}
