// Package pg implementa AccountRepository sobre Postgres (pgx).
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
)

// Store implementa repository.AccountRepository.
type Store struct{ pool *pgxpool.Pool }

// Tuning opcional del pool.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// New abre el pool y verifica la conexión.
func New(ctx context.Context, dsn string, cfg PoolConfig) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (migraciones, métricas).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

const accountCols = `id, name, email, password_hash, role,
	is_verified, verification_token_hash,
	mfa_secret_enc, is_mfa_enabled, backup_code_hash,
	pending_mfa_code, pending_mfa_expires_at,
	reset_token_hash, reset_token_expires_at,
	created_at, updated_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanAccount(row rowScanner) (*repository.Account, error) {
	var a repository.Account
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role,
		&a.IsVerified, &a.VerificationTokenHash,
		&a.MFASecretEnc, &a.IsMFAEnabled, &a.BackupCodeHash,
		&a.PendingMFACode, &a.PendingMFAExpiresAt,
		&a.ResetTokenHash, &a.ResetTokenExpires,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*repository.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM account WHERE email = lower($1)`, email)
	return scanAccount(row)
}

func (s *Store) GetByVerificationToken(ctx context.Context, tokenHash string) (*repository.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM account WHERE verification_token_hash = $1`, tokenHash)
	return scanAccount(row)
}

func (s *Store) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*repository.Account, error) {
	// válido solo si now es estrictamente anterior al vencimiento
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM account
		 WHERE reset_token_hash = $1 AND reset_token_expires_at > $2`, tokenHash, now)
	return scanAccount(row)
}

func (s *Store) GetByEmailAndBackupCode(ctx context.Context, email, codeHash string) (*repository.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM account
		 WHERE email = lower($1) AND backup_code_hash = $2`, email, codeHash)
	return scanAccount(row)
}

func (s *Store) Create(ctx context.Context, input repository.CreateAccountInput) (*repository.Account, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO account (name, email, password_hash, role, verification_token_hash)
		 VALUES ($1, lower($2), $3, $4, $5)
		 RETURNING `+accountCols, input.Name, input.Email, input.PasswordHash, input.Role, input.VerificationTokenHash)
	a, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return a, nil
}

// UpdateAtomic relee la fila con FOR UPDATE dentro de una transacción, aplica
// mutate y persiste. El row lock serializa los read-modify-write concurrentes
// sobre la misma cuenta.
func (s *Store) UpdateAtomic(ctx context.Context, id string, mutate func(*repository.Account) error) (*repository.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+accountCols+` FROM account WHERE id = $1 FOR UPDATE`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, err
	}

	if err := mutate(a); err != nil {
		return nil, err
	}

	row = tx.QueryRow(ctx,
		`UPDATE account SET
			name = $2, password_hash = $3, role = $4,
			is_verified = $5, verification_token_hash = $6,
			mfa_secret_enc = $7, is_mfa_enabled = $8, backup_code_hash = $9,
			pending_mfa_code = $10, pending_mfa_expires_at = $11,
			reset_token_hash = $12, reset_token_expires_at = $13,
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+accountCols,
		id, a.Name, a.PasswordHash, a.Role,
		a.IsVerified, a.VerificationTokenHash,
		a.MFASecretEnc, a.IsMFAEnabled, a.BackupCodeHash,
		a.PendingMFACode, a.PendingMFAExpiresAt,
		a.ResetTokenHash, a.ResetTokenExpires,
	)
	updated, err := scanAccount(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}
