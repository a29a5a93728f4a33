package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
)

func mustCreate(t *testing.T, s *Store, email string) *repository.Account {
	t.Helper()
	a, err := s.Create(context.Background(), repository.CreateAccountInput{
		Name:                  "Ana",
		Email:                 email,
		PasswordHash:          "$argon2id$...",
		Role:                  "user",
		VerificationTokenHash: "vth-" + email,
	})
	if err != nil {
		t.Fatalf("Create(%s) err: %v", email, err)
	}
	return a
}

func TestCreate_NormalizesAndConflicts(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := mustCreate(t, s, "Ana@Example.COM")
	if a.Email != "ana@example.com" {
		t.Fatalf("email no normalizado: %q", a.Email)
	}
	if a.ID == "" || a.IsVerified {
		t.Fatalf("estado inicial inesperado: %+v", a)
	}

	// mismo email con otra capitalizacion: conflicto
	_, err := s.Create(ctx, repository.CreateAccountInput{
		Name: "Otra", Email: "ANA@example.com", PasswordHash: "h", Role: "user", VerificationTokenHash: "x",
	})
	if !repository.IsConflict(err) {
		t.Fatalf("esperaba ErrConflict, obtuve %v", err)
	}

	// lookup case-insensitive
	got, err := s.GetByEmail(ctx, "  ANA@EXAMPLE.com ")
	if err != nil {
		t.Fatalf("GetByEmail err: %v", err)
	}
	if got.ID != a.ID {
		t.Fatalf("lookup devolvio otra cuenta")
	}
}

func TestGetByVerificationToken(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustCreate(t, s, "ana@example.com")

	got, err := s.GetByVerificationToken(ctx, "vth-ana@example.com")
	if err != nil {
		t.Fatalf("GetByVerificationToken err: %v", err)
	}
	if got.ID != a.ID {
		t.Fatalf("cuenta equivocada")
	}

	if _, err := s.GetByVerificationToken(ctx, "inexistente"); !repository.IsNotFound(err) {
		t.Fatalf("esperaba ErrNotFound, obtuve %v", err)
	}
}

func TestGetByResetToken_Expiry(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustCreate(t, s, "ana@example.com")

	now := time.Now().UTC()
	expiry := now.Add(10 * time.Minute)
	hash := "reset-hash"
	if _, err := s.UpdateAtomic(ctx, a.ID, func(acc *repository.Account) error {
		acc.ResetTokenHash = &hash
		acc.ResetTokenExpires = &expiry
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	// vigente
	if _, err := s.GetByResetToken(ctx, hash, now); err != nil {
		t.Fatalf("token vigente rechazado: %v", err)
	}
	// exactamente al vencimiento: rechazado (estrictamente anterior)
	if _, err := s.GetByResetToken(ctx, hash, expiry); !repository.IsNotFound(err) {
		t.Fatalf("token al limite aceptado: %v", err)
	}
	// despues del vencimiento
	if _, err := s.GetByResetToken(ctx, hash, expiry.Add(time.Second)); !repository.IsNotFound(err) {
		t.Fatalf("token vencido aceptado: %v", err)
	}
	// hash equivocado
	if _, err := s.GetByResetToken(ctx, "otro", now); !repository.IsNotFound(err) {
		t.Fatalf("hash equivocado aceptado: %v", err)
	}
}

func TestGetByEmailAndBackupCode(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustCreate(t, s, "ana@example.com")

	hash := "backup-hash"
	if _, err := s.UpdateAtomic(ctx, a.ID, func(acc *repository.Account) error {
		acc.BackupCodeHash = &hash
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetByEmailAndBackupCode(ctx, "ANA@example.com", hash); err != nil {
		t.Fatalf("par valido rechazado: %v", err)
	}
	if _, err := s.GetByEmailAndBackupCode(ctx, "ana@example.com", "otro"); !repository.IsNotFound(err) {
		t.Fatalf("codigo equivocado aceptado")
	}
	if _, err := s.GetByEmailAndBackupCode(ctx, "nadie@example.com", hash); !repository.IsNotFound(err) {
		t.Fatalf("email inexistente aceptado")
	}
}

func TestUpdateAtomic_MutateFailureDoesNotPublish(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustCreate(t, s, "ana@example.com")

	boom := errors.New("boom")
	_, err := s.UpdateAtomic(ctx, a.ID, func(acc *repository.Account) error {
		acc.IsVerified = true
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("esperaba boom, obtuve %v", err)
	}

	got, err := s.GetByEmail(ctx, a.Email)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsVerified {
		t.Fatalf("mutacion fallida quedo publicada")
	}
}

func TestUpdateAtomic_PreservesImmutableFields(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustCreate(t, s, "ana@example.com")

	got, err := s.UpdateAtomic(ctx, a.ID, func(acc *repository.Account) error {
		acc.Email = "hack@example.com"
		acc.ID = "otro-id"
		acc.IsVerified = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != a.ID || got.Email != a.Email {
		t.Fatalf("campos inmutables modificados: %+v", got)
	}
	if !got.IsVerified {
		t.Fatalf("mutacion legitima perdida")
	}
}

func TestUpdateAtomic_Linearizable(t *testing.T) {
	// N goroutines incrementan un contador embebido en Name; si el
	// read-modify-write no fuera atomico habria updates perdidos.
	s := New()
	ctx := context.Background()
	a := mustCreate(t, s, "ana@example.com")

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = s.UpdateAtomic(ctx, a.ID, func(acc *repository.Account) error {
				acc.Name = acc.Name + "."
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := s.GetByEmail(ctx, a.Email)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Name) != len("Ana")+n {
		t.Fatalf("updates perdidos: Name=%q (largo %d, esperaba %d)", got.Name, len(got.Name), len("Ana")+n)
	}
}

func TestGetReturnsClones(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := mustCreate(t, s, "ana@example.com")

	got, _ := s.GetByEmail(ctx, a.Email)
	got.Name = "mutada"
	if got2, _ := s.GetByEmail(ctx, a.Email); got2.Name == "mutada" {
		t.Fatalf("el store devolvio una referencia interna")
	}
}
