package email

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dropDatabas3/conecta-accounts/internal/metrics"
	"github.com/dropDatabas3/conecta-accounts/internal/observability/logger"
)

// Notifier renderiza y envía los mensajes de los tres flujos. Cada envío se
// acota con SendTimeout: el request nunca queda colgado esperando al SMTP.
// La mutación de la cuenta ya fue commiteada antes de llamar acá, así que una
// falla de envío no revierte nada; solo se reporta al caller.
type Notifier struct {
	Sender      Sender
	Templates   *Templates
	BaseURL     string        // base pública para armar links (ej: https://app.example.com)
	SendTimeout time.Duration // 0 => 10s
}

// NewNotifier construye un Notifier con defaults.
func NewNotifier(sender Sender, tpls *Templates, baseURL string, timeout time.Duration) *Notifier {
	if tpls == nil {
		tpls = DefaultTemplates()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{Sender: sender, Templates: tpls, BaseURL: baseURL, SendTimeout: timeout}
}

// SendVerification envía el link de verificación con el token crudo embebido.
func (n *Notifier) SendVerification(ctx context.Context, name, to, rawToken string) error {
	v := Vars{
		Name: name,
		Link: fmt.Sprintf("%s/v1/auth/verify-email/%s", n.BaseURL, url.PathEscape(rawToken)),
	}
	html, err := renderHTML(n.Templates.VerifyHTML, v)
	if err != nil {
		return fmt.Errorf("render verify html: %w", err)
	}
	text, err := renderText(n.Templates.VerifyTXT, v)
	if err != nil {
		return fmt.Errorf("render verify txt: %w", err)
	}
	return n.send(ctx, to, "Confirmá tu email", html, text)
}

// SendResetLink envía el link de reset de password.
func (n *Notifier) SendResetLink(ctx context.Context, name, to, rawToken string, ttl time.Duration) error {
	v := Vars{
		Name: name,
		Link: fmt.Sprintf("%s/reset-password?token=%s", n.BaseURL, url.QueryEscape(rawToken)),
		TTL:  ttl.String(),
	}
	html, err := renderHTML(n.Templates.ResetHTML, v)
	if err != nil {
		return fmt.Errorf("render reset html: %w", err)
	}
	text, err := renderText(n.Templates.ResetTXT, v)
	if err != nil {
		return fmt.Errorf("render reset txt: %w", err)
	}
	return n.send(ctx, to, "Restablecer contraseña", html, text)
}

// SendMFACode envía el código MFA temporal.
func (n *Notifier) SendMFACode(ctx context.Context, name, to, code string, ttl time.Duration) error {
	v := Vars{Name: name, Code: code, TTL: ttl.String()}
	html, err := renderHTML(n.Templates.MFAHTML, v)
	if err != nil {
		return fmt.Errorf("render mfa html: %w", err)
	}
	text, err := renderText(n.Templates.MFATXT, v)
	if err != nil {
		return fmt.Errorf("render mfa txt: %w", err)
	}
	return n.send(ctx, to, "Tu código de acceso", html, text)
}

// send ejecuta Sender.Send acotado por SendTimeout y por ctx.
// go-mail no acepta contexto, así que el envío corre en una goroutine y acá
// se espera el primer evento: resultado, timeout o cancelación.
func (n *Notifier) send(ctx context.Context, to, subject, html, text string) error {
	ctx, cancel := context.WithTimeout(ctx, n.SendTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- n.Sender.Send(to, subject, html, text)
	}()

	select {
	case err := <-done:
		metrics.EmailSendLatency.Observe(float64(time.Since(start).Milliseconds()))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDelivery, err)
		}
		return nil
	case <-ctx.Done():
		logger.From(ctx).Warn("email send exceeded deadline",
			logger.String("to", to), logger.String("subject", subject))
		if ctx.Err() == context.DeadlineExceeded {
			return ErrSendTimeout
		}
		return fmt.Errorf("%w: %w", ErrDelivery, ctx.Err())
	}
}
