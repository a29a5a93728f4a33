package repository

import (
	"context"
	"time"
)

// Account representa la única entidad persistente del servicio.
//
// Los tokens de un solo uso (verificación de email, reset de password, código
// de respaldo) se guardan como digest sha256 del valor crudo; el valor crudo
// solo viaja en el email al usuario. El código MFA temporal se guarda en claro
// porque se compara por igualdad y vive 5 minutos.
type Account struct {
	ID           string
	Name         string
	Email        string // normalizado a minúsculas al escribir
	PasswordHash string // PHC argon2id
	Role         string

	IsVerified            bool
	VerificationTokenHash *string // presente solo mientras la verificación está pendiente

	MFASecretEnc   *string // secreto TOTP base32, cifrado at-rest (AES-GCM)
	IsMFAEnabled   bool
	BackupCodeHash *string

	PendingMFACode      *string
	PendingMFAExpiresAt *time.Time

	ResetTokenHash    *string
	ResetTokenExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateAccountInput contiene los datos para crear una cuenta.
type CreateAccountInput struct {
	Name                  string
	Email                 string
	PasswordHash          string
	Role                  string
	VerificationTokenHash string
}

// AccountRepository define el contrato del Account Store.
//
// UpdateAtomic debe ser linealizable por id: la secuencia lookup-mutate-persist
// de dos operaciones concurrentes sobre la misma cuenta nunca puede perder
// escrituras de pares token/expiry.
type AccountRepository interface {
	// GetByEmail busca una cuenta por email (ya normalizado).
	// Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByVerificationToken busca por digest del token de verificación.
	// Retorna ErrNotFound si no existe.
	GetByVerificationToken(ctx context.Context, tokenHash string) (*Account, error)

	// GetByResetToken busca por digest del token de reset, solo si no expiró
	// (ahora estrictamente antes del vencimiento).
	// Retorna ErrNotFound si no existe o ya venció.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*Account, error)

	// GetByEmailAndBackupCode busca por el par exacto (email, digest del código).
	// Retorna ErrNotFound si no matchea.
	GetByEmailAndBackupCode(ctx context.Context, email, codeHash string) (*Account, error)

	// Create inserta una cuenta nueva.
	// Retorna ErrConflict si el email ya existe.
	Create(ctx context.Context, input CreateAccountInput) (*Account, error)

	// UpdateAtomic aplica mutate sobre la cuenta identificada por id y persiste
	// el resultado en una sola actualización. Retorna ErrNotFound si id no existe.
	UpdateAtomic(ctx context.Context, id string, mutate func(*Account) error) (*Account, error)

	// Ping verifica la conexión al backend.
	Ping(ctx context.Context) error

	// Close libera recursos del backend.
	Close() error
}
