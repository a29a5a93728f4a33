package jwt

import (
	"strings"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	i, err := NewIssuer([]byte(strings.Repeat("s", 32)), "test-issuer", time.Minute)
	if err != nil {
		t.Fatalf("NewIssuer err: %v", err)
	}
	return i
}

func TestNewIssuer_RejectsShortKey(t *testing.T) {
	if _, err := NewIssuer([]byte("corta"), "iss", time.Minute); err == nil {
		t.Fatalf("clave corta aceptada")
	}
}

func TestIssueParse_RoundTrip(t *testing.T) {
	i := newTestIssuer(t)
	now := time.Now().UTC()

	tok, err := i.Issue("acc-1", "ana@example.com", "user", now)
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}

	claims, err := i.Parse(tok)
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if claims.Subject != "acc-1" || claims.Email != "ana@example.com" || claims.Role != "user" {
		t.Fatalf("claims inesperados: %+v", claims)
	}
	if claims.AMR != "mfa" {
		t.Fatalf("amr = %q, esperaba mfa", claims.AMR)
	}
	if claims.Issuer != "test-issuer" {
		t.Fatalf("iss = %q", claims.Issuer)
	}
}

func TestParse_RejectsWrongKey(t *testing.T) {
	i := newTestIssuer(t)
	tok, err := i.Issue("acc-1", "ana@example.com", "user", time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}

	other, err := NewIssuer([]byte(strings.Repeat("x", 32)), "test-issuer", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Parse(tok); err == nil {
		t.Fatalf("token con otra clave aceptado")
	}
}

func TestParse_RejectsExpired(t *testing.T) {
	i := newTestIssuer(t)
	// emitido hace una hora con ttl de 1 minuto
	tok, err := i.Issue("acc-1", "ana@example.com", "user", time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := i.Parse(tok); err == nil {
		t.Fatalf("token vencido aceptado")
	}
}
