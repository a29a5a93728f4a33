package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu    sync.Mutex
	to    string
	html  string
	text  string
	fail  error
	block chan struct{} // si no es nil, Send espera acá
}

func (s *captureSender) Send(to, subject, html, text string) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.to, s.html, s.text = to, html, text
	return s.fail
}

func TestSendVerificationBuildsPathLink(t *testing.T) {
	s := &captureSender{}
	n := NewNotifier(s, nil, "https://app.example.com", time.Second)

	err := n.SendVerification(context.Background(), "Ana", "ana@example.com", "tok/raw+x")
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", s.to)
	// el token va escapado como segmento de path
	assert.Contains(t, s.text, "https://app.example.com/v1/auth/verify-email/tok%2Fraw+x")
	assert.Contains(t, s.html, "Ana")
}

func TestSendResetLinkBuildsQueryLink(t *testing.T) {
	s := &captureSender{}
	n := NewNotifier(s, nil, "https://app.example.com", time.Second)

	err := n.SendResetLink(context.Background(), "Ana", "ana@example.com", "a+b/c", 10*time.Minute)
	require.NoError(t, err)

	assert.Contains(t, s.text, "https://app.example.com/reset-password?token=a%2Bb%2Fc")
	assert.Contains(t, s.text, "10m0s")
}

func TestSendMFACodeIncludesCodeAndTTL(t *testing.T) {
	s := &captureSender{}
	n := NewNotifier(s, nil, "https://app.example.com", time.Second)

	err := n.SendMFACode(context.Background(), "Ana", "ana@example.com", "493021", 5*time.Minute)
	require.NoError(t, err)

	assert.Contains(t, s.html, "493021")
	assert.Contains(t, s.text, "5m0s")
}

func TestSendFailureWrapsErrDelivery(t *testing.T) {
	s := &captureSender{fail: errors.New("smtp: 451 boom")}
	n := NewNotifier(s, nil, "https://app.example.com", time.Second)

	err := n.SendVerification(context.Background(), "Ana", "ana@example.com", "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDelivery))
	assert.Contains(t, err.Error(), "451")
}

func TestSendTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	s := &captureSender{block: block}
	n := NewNotifier(s, nil, "https://app.example.com", 30*time.Millisecond)

	err := n.SendMFACode(context.Background(), "Ana", "ana@example.com", "111111", time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSendTimeout))
}

func TestSendContextCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	s := &captureSender{block: block}
	n := NewNotifier(s, nil, "https://app.example.com", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.SendVerification(ctx, "Ana", "ana@example.com", "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDelivery))
}

func TestLoadTemplatesOverridesAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	custom := "Custom verify for {{.Name}}: {{.Link}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "verify_email.txt"), []byte(custom), 0o644))

	tpls, err := LoadTemplates(dir)
	require.NoError(t, err)

	s := &captureSender{}
	n := NewNotifier(s, tpls, "https://x", time.Second)
	require.NoError(t, n.SendVerification(context.Background(), "Ana", "a@b.com", "t"))
	assert.True(t, strings.HasPrefix(s.text, "Custom verify for Ana"))

	// los flujos sin override siguen usando el embebido
	require.NoError(t, n.SendMFACode(context.Background(), "Ana", "a@b.com", "123456", time.Minute))
	assert.Contains(t, s.text, "tu código de acceso es 123456")
}

func TestLoadTemplatesRejectsBadTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mfa_code.html"), []byte("{{.Oops"), 0o644))

	_, err := LoadTemplates(dir)
	require.Error(t, err)
}
