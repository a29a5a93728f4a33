// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/conecta-accounts/internal/cache"
	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
	"github.com/dropDatabas3/conecta-accounts/internal/http/helpers"
	"github.com/dropDatabas3/conecta-accounts/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	Accounts repository.AccountRepository
	Cache    cache.Client
	Version  string
}

// componentStatus es el estado de un colaborador individual.
type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// healthResponse es el cuerpo de /healthz.
type healthResponse struct {
	Status     string                     `json:"status"` // ready | degraded | unavailable
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components"`
}

// Healthz maneja GET /healthz
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("health.healthz"))

	components := map[string]componentStatus{}
	overall := "ready"

	if err := c.Accounts.Ping(ctx); err != nil {
		components["store"] = componentStatus{Status: "down", Error: err.Error()}
		overall = "unavailable" // sin store no hay servicio
	} else {
		components["store"] = componentStatus{Status: "up"}
	}

	if c.Cache != nil {
		if err := c.Cache.Ping(ctx); err != nil {
			components["cache"] = componentStatus{Status: "down", Error: err.Error()}
			if overall == "ready" {
				overall = "degraded"
			}
		} else {
			components["cache"] = componentStatus{Status: "up"}
		}
	}

	if c.Version != "" {
		w.Header().Set("X-Service-Version", c.Version)
	}

	statusCode := http.StatusOK
	if overall == "unavailable" {
		statusCode = http.StatusServiceUnavailable
	}

	log.Debug("health check completed", logger.String("status", overall))

	helpers.WriteJSON(w, statusCode, healthResponse{
		Status:     overall,
		Version:    c.Version,
		Components: components,
	})
}
