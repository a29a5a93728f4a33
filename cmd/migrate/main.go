package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/conecta-accounts/internal/config"
	migrations "github.com/dropDatabas3/conecta-accounts/migrations/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "ruta del config YAML")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.Storage.DSN == "" {
		log.Fatal("storage.dsn requerido (o env STORAGE_DSN)")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	entries, err := migrations.SchemaFS.ReadDir(migrations.SchemaDir)
	if err != nil {
		log.Fatalf("read embedded migrations: %v", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names) // orden ascendente por prefijo numérico

	log.Printf("Applying %d migration(s)...", len(names))
	for _, name := range names {
		if err := execEmbedded(ctx, pool, name); err != nil {
			log.Fatalf("exec %s: %v", name, err)
		}
	}
	log.Println("Migrations completed.")
}

func execEmbedded(ctx context.Context, pool *pgxpool.Pool, name string) error {
	b, err := migrations.SchemaFS.ReadFile(migrations.SchemaDir + "/" + name)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	start := time.Now()
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	log.Printf("OK %s (%s)", name, time.Since(start).Truncate(time.Millisecond))
	return nil
}
