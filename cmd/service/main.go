package main

import (
	"context"
	"crypto/rand"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/conecta-accounts/internal/cache"
	"github.com/dropDatabas3/conecta-accounts/internal/config"
	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
	"github.com/dropDatabas3/conecta-accounts/internal/email"
	authctrl "github.com/dropDatabas3/conecta-accounts/internal/http/controllers/auth"
	"github.com/dropDatabas3/conecta-accounts/internal/http/router"
	authsvc "github.com/dropDatabas3/conecta-accounts/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/conecta-accounts/internal/jwt"
	"github.com/dropDatabas3/conecta-accounts/internal/metrics"
	"github.com/dropDatabas3/conecta-accounts/internal/observability/logger"
	"github.com/dropDatabas3/conecta-accounts/internal/rate"
	"github.com/dropDatabas3/conecta-accounts/internal/security/password"
	"github.com/dropDatabas3/conecta-accounts/internal/security/secretbox"
	"github.com/dropDatabas3/conecta-accounts/internal/store/memory"
	"github.com/dropDatabas3/conecta-accounts/internal/store/pg"
)

var version = "dev" // seteado en build con -ldflags

func main() {
	// .env si existe; las env del sistema tienen prioridad en config
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("CONFIG_PATH", "config.yaml"), "ruta del config YAML")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// logger todavía no inicializado
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       envOr("LOG_LEVEL", "info"),
		ServiceName: "conecta-accounts",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Store ──
	var accounts repository.AccountRepository
	switch cfg.Storage.Driver {
	case "postgres":
		st, err := pg.New(ctx, cfg.Storage.DSN, pg.PoolConfig{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			log.Fatal("postgres init failed", logger.Err(err))
		}
		accounts = st
	default:
		accounts = memory.New()
	}
	defer func() { _ = accounts.Close() }()
	log.Info("store ready", logger.String("driver", cfg.Storage.Driver))

	// ── Cache ──
	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		log.Fatal("cache init failed", logger.Err(err))
	}
	defer func() { _ = cacheClient.Close() }()
	log.Info("cache ready", logger.String("driver", cfg.Cache.Driver))

	// ── Email ──
	tpls := email.DefaultTemplates()
	if cfg.Email.TemplatesDir != "" {
		if t, err := email.LoadTemplates(cfg.Email.TemplatesDir); err != nil {
			log.Warn("templates dir unreadable, using defaults", logger.Err(err))
		} else {
			tpls = t
		}
	}
	sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	sender.TLSMode = cfg.SMTP.TLS
	sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
	notifier := email.NewNotifier(sender, tpls, cfg.Email.BaseURL, cfg.Email.SendTimeout)

	// ── JWT / secretbox ──
	jwtSecret := []byte(cfg.JWT.Secret)
	if len(jwtSecret) < 32 {
		// clave efímera: las sesiones no sobreviven reinicios (solo dev,
		// Validate lo rechaza en prod)
		jwtSecret = make([]byte, 32)
		if _, err := rand.Read(jwtSecret); err != nil {
			log.Fatal("jwt key generation failed", logger.Err(err))
		}
		log.Warn("jwt.secret ausente o corto: usando clave efímera (solo dev)")
	}
	issuer, err := jwtx.NewIssuer(jwtSecret, cfg.JWT.Issuer, cfg.JWT.AccessTTL)
	if err != nil {
		log.Fatal("jwt issuer init failed", logger.Err(err))
	}

	var box *secretbox.Box
	if cfg.Security.SecretBoxMasterKey != "" {
		box, err = secretbox.New(cfg.Security.SecretBoxMasterKey)
		if err != nil {
			log.Fatal("secretbox init failed", logger.Err(err))
		}
	} else {
		log.Warn("secretbox master key ausente: secretos TOTP en claro (solo dev)")
	}

	// ── Rate limiting ──
	var limiter rate.Limiter
	if cfg.Auth.RateLimitMax > 0 {
		if cfg.Cache.Driver == "redis" {
			prefix := "rl:"
			if cfg.Cache.Redis.Prefix != "" {
				prefix = cfg.Cache.Redis.Prefix + ":rl:"
			}
			limiter = rate.NewRedisLimiter(rdb.NewClient(&rdb.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			}), prefix, cfg.Auth.RateLimitMax, cfg.Auth.RateLimitWindow)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Auth.RateLimitMax, cfg.Auth.RateLimitWindow)
		}
		log.Info("rate limiting enabled",
			logger.Int("max", cfg.Auth.RateLimitMax),
			logger.String("window", cfg.Auth.RateLimitWindow.String()))
	}

	// ── Metrics ──
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		log.Fatal("metrics registration failed", logger.Err(err))
	}

	// ── Wiring ──
	services := authsvc.NewServices(authsvc.Deps{
		Accounts:   accounts,
		Notifier:   notifier,
		Cache:      cacheClient,
		Issuer:     issuer,
		Box:        box,
		HashParams: password.Default,
		Policy: password.Policy{
			MinLength:     cfg.Security.PasswordPolicy.MinLength,
			RequireUpper:  cfg.Security.PasswordPolicy.RequireUpper,
			RequireLower:  cfg.Security.PasswordPolicy.RequireLower,
			RequireDigit:  cfg.Security.PasswordPolicy.RequireDigit,
			RequireSymbol: cfg.Security.PasswordPolicy.RequireSymbol,
		},
		TOTPIssuer: cfg.Auth.TOTPIssuer,
		MFACodeTTL: cfg.Auth.MFACodeTTL,
		ResetTTL:   cfg.Auth.ResetTTL,
		SessionTTL: cfg.Auth.SessionTTL,
	})

	handler := router.New(router.Deps{
		Controllers: authctrl.NewControllers(services),
		Accounts:    accounts,
		Cache:       cacheClient,
		Registry:    registry,
		Limiter:     limiter,
		Version:     version,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", logger.Err(err))
	}
	log.Info("bye")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
