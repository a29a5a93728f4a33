// Package logger provee un logger Zap singleton con scoping por contexto.
//
//   - Singleton: una sola instancia global inicializada con Init() en main.
//   - Context scoping: cada request puede llevar un logger con campos
//     adicionales (request_id, email, etc.) sin crear un core nuevo.
//   - Entornos: "dev" usa consola con colores, "prod" usa JSON.
//
// Uso típico en services/controllers:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Login"))
//	log.Info("login step-1 ok", logger.Email(email))
package logger
