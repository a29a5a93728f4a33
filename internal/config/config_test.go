package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr default: %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "memory" || cfg.Cache.Driver != "memory" {
		t.Fatalf("drivers default: %q/%q", cfg.Storage.Driver, cfg.Cache.Driver)
	}
	if cfg.Auth.MFACodeTTL != 5*time.Minute {
		t.Fatalf("mfa_code_ttl default: %v", cfg.Auth.MFACodeTTL)
	}
	if cfg.Auth.ResetTTL != 10*time.Minute {
		t.Fatalf("reset_ttl default: %v", cfg.Auth.ResetTTL)
	}
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Fatalf("session_ttl default: %v", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.RateLimitMax != 20 || cfg.Auth.RateLimitWindow != time.Minute {
		t.Fatalf("rate limit default: %d/%v", cfg.Auth.RateLimitMax, cfg.Auth.RateLimitWindow)
	}
	pp := cfg.Security.PasswordPolicy
	if pp.MinLength != 10 {
		t.Fatalf("min_length default: %d", pp.MinLength)
	}
	// sin bloque configurado la política pide las tres clases, no solo largo
	if !pp.RequireUpper || !pp.RequireLower || !pp.RequireDigit || pp.RequireSymbol {
		t.Fatalf("clases default: %+v", pp)
	}
}

func TestLoad_YAMLValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  addr: ":9999"
storage:
  driver: postgres
  dsn: postgres://localhost/test
auth:
  mfa_code_ttl: 2m
  reset_ttl: 30m
security:
  password_policy:
    min_length: 12
    require_upper: true
`))
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("addr: %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Fatalf("driver: %q", cfg.Storage.Driver)
	}
	if cfg.Auth.MFACodeTTL != 2*time.Minute || cfg.Auth.ResetTTL != 30*time.Minute {
		t.Fatalf("ttls: %v %v", cfg.Auth.MFACodeTTL, cfg.Auth.ResetTTL)
	}
	if cfg.Security.PasswordPolicy.MinLength != 12 || !cfg.Security.PasswordPolicy.RequireUpper {
		t.Fatalf("policy: %+v", cfg.Security.PasswordPolicy)
	}
	// bloque configurado a mano: no se le fuerzan las clases default
	if cfg.Security.PasswordPolicy.RequireLower || cfg.Security.PasswordPolicy.RequireDigit {
		t.Fatalf("policy explicita pisada por defaults: %+v", cfg.Security.PasswordPolicy)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("STORAGE_DSN", "postgres://env/db")
	t.Setenv("AUTH_MFA_CODE_TTL", "90s")

	cfg, err := Load(writeConfig(t, `server: {addr: ":1111"}`))
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Fatalf("env no piso el yaml: %q", cfg.Server.Addr)
	}
	if cfg.Storage.DSN != "postgres://env/db" {
		t.Fatalf("dsn: %q", cfg.Storage.DSN)
	}
	if cfg.Auth.MFACodeTTL != 90*time.Second {
		t.Fatalf("ttl: %v", cfg.Auth.MFACodeTTL)
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-existe.yaml"))
	if err != nil {
		t.Fatalf("Load de archivo inexistente deberia caer a defaults: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("defaults no aplicados")
	}
}

func TestValidate_Rejections(t *testing.T) {
	if _, err := Load(writeConfig(t, `storage: {driver: mongo}`)); err == nil {
		t.Fatalf("driver desconocido aceptado")
	}
	if _, err := Load(writeConfig(t, `storage: {driver: postgres}`)); err == nil {
		t.Fatalf("postgres sin dsn aceptado")
	}
	if _, err := Load(writeConfig(t, `cache: {driver: redis}`)); err == nil {
		t.Fatalf("redis sin addr aceptado")
	}
	// prod exige jwt.secret largo y master key
	if _, err := Load(writeConfig(t, `app: {env: prod}`)); err == nil {
		t.Fatalf("prod sin secretos aceptado")
	}
}
