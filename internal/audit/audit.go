// Package audit emite el trail de eventos de seguridad (altas, logins,
// segundos factores, resets) como líneas estructuradas del logger. Hoy el
// sink es el mismo zap del servicio; un sink externo entraría acá.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/conecta-accounts/internal/observability/logger"
)

// Event registra un evento de seguridad. El nombre usa la forma
// "recurso.acción" (ej: "login.mfa_ok") y los fields nunca llevan
// credenciales ni emails sin enmascarar.
func Event(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).With(logger.Component("audit")).Info(event, fields...)
}
