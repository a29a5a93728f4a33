// Package memory implementa AccountRepository en memoria.
// Útil para desarrollo, testing y el modo sin base de datos.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
)

// Store guarda las cuentas bajo un RWMutex global. Todas las mutaciones pasan
// por UpdateAtomic bajo lock de escritura, por lo que el read-modify-write por
// cuenta es linealizable.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*repository.Account
	byEmail map[string]string // email normalizado -> id
	nowFn   func() time.Time
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		byID:    make(map[string]*repository.Account),
		byEmail: make(map[string]string),
		nowFn:   time.Now,
	}
}

// SetNowFunc reemplaza el reloj (solo tests).
func (s *Store) SetNowFunc(fn func() time.Time) { s.nowFn = fn }

func clone(a *repository.Account) *repository.Account {
	cp := *a
	cp.VerificationTokenHash = cloneStr(a.VerificationTokenHash)
	cp.MFASecretEnc = cloneStr(a.MFASecretEnc)
	cp.BackupCodeHash = cloneStr(a.BackupCodeHash)
	cp.PendingMFACode = cloneStr(a.PendingMFACode)
	cp.PendingMFAExpiresAt = cloneTime(a.PendingMFAExpiresAt)
	cp.ResetTokenHash = cloneStr(a.ResetTokenHash)
	cp.ResetTokenExpires = cloneTime(a.ResetTokenExpires)
	return &cp
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s *Store) GetByEmail(_ context.Context, email string) (*repository.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) GetByVerificationToken(_ context.Context, tokenHash string) (*repository.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.byID {
		if a.VerificationTokenHash != nil && *a.VerificationTokenHash == tokenHash {
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*repository.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.byID {
		if a.ResetTokenHash == nil || *a.ResetTokenHash != tokenHash {
			continue
		}
		// válido solo si ahora es estrictamente anterior al vencimiento
		if a.ResetTokenExpires == nil || !now.Before(*a.ResetTokenExpires) {
			return nil, repository.ErrNotFound
		}
		return clone(a), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetByEmailAndBackupCode(_ context.Context, email, codeHash string) (*repository.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a := s.byID[id]
	if a.BackupCodeHash == nil || *a.BackupCodeHash != codeHash {
		return nil, repository.ErrNotFound
	}
	return clone(a), nil
}

func (s *Store) Create(_ context.Context, input repository.CreateAccountInput) (*repository.Account, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return nil, repository.ErrConflict
	}
	now := s.nowFn().UTC()
	vth := input.VerificationTokenHash
	a := &repository.Account{
		ID:                    uuid.NewString(),
		Name:                  input.Name,
		Email:                 email,
		PasswordHash:          input.PasswordHash,
		Role:                  input.Role,
		VerificationTokenHash: &vth,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	s.byID[a.ID] = a
	s.byEmail[email] = a.ID
	return clone(a), nil
}

func (s *Store) UpdateAtomic(_ context.Context, id string, mutate func(*repository.Account) error) (*repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// mutate trabaja sobre una copia; recién al no fallar se publica
	cp := clone(a)
	if err := mutate(cp); err != nil {
		return nil, err
	}
	cp.ID = a.ID
	cp.Email = a.Email // email inmutable a nivel store
	cp.CreatedAt = a.CreatedAt
	cp.UpdatedAt = s.nowFn().UTC()
	s.byID[id] = cp
	return clone(cp), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
