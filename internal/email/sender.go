// Package email implementa el Notification Gateway: render de mensajes y
// envío por SMTP. Desde el punto de vista de los services es fire-and-forget,
// salvo que una falla de envío se propaga como error visible al caller.
package email

import "errors"

// Sender es la interfaz para enviar emails. Implementada por SMTPSender.
type Sender interface {
	// Send envía un email con contenido HTML y texto plano.
	// El destinatario recibe ambas versiones como multipart/alternative.
	Send(to string, subject string, htmlBody string, textBody string) error
}

var (
	// ErrDelivery indica que el gateway de notificaciones falló el envío.
	ErrDelivery = errors.New("email delivery failed")

	// ErrSendTimeout indica que el envío excedió el timeout configurado.
	ErrSendTimeout = errors.New("email send timed out")
)
