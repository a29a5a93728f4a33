package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/conecta-accounts/internal/cache"
	"github.com/dropDatabas3/conecta-accounts/internal/domain/repository"
	"github.com/dropDatabas3/conecta-accounts/internal/email"
	dto "github.com/dropDatabas3/conecta-accounts/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/conecta-accounts/internal/jwt"
	"github.com/dropDatabas3/conecta-accounts/internal/security/password"
	"github.com/dropDatabas3/conecta-accounts/internal/security/secretbox"
	"github.com/dropDatabas3/conecta-accounts/internal/security/totp"
	"github.com/dropDatabas3/conecta-accounts/internal/store/memory"
)

// ───────────────────────── helpers ─────────────────────────

// fakeSender captura mails en memoria; fail inyecta fallas de gateway.
type fakeSender struct {
	mu   sync.Mutex
	sent []capturedMail
	fail error
}

type capturedMail struct {
	To      string
	Subject string
	Text    string
}

func (f *fakeSender) Send(to, subject, _ string, textBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, capturedMail{To: to, Subject: subject, Text: textBody})
	return nil
}

func (f *fakeSender) last(t *testing.T) capturedMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no se envio ningun mail")
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// clock es un reloj controlable para los tests de expiry.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type env struct {
	svcs   Services
	store  *memory.Store
	sender *fakeSender
	cache  cache.Client
	issuer *jwtx.Issuer
	clock  *clock
}

func newEnv(t *testing.T) *env {
	return newEnvWithRepo(t, nil)
}

// newEnvWithRepo permite interponer un repo instrumentado entre los services
// y el store, para los tests de carreras.
func newEnvWithRepo(t *testing.T, wrap func(repository.AccountRepository) repository.AccountRepository) *env {
	t.Helper()

	store := memory.New()
	sender := &fakeSender{}
	cacheClient, err := cache.New(cache.Config{Driver: "memory", Prefix: "test"})
	require.NoError(t, err)

	issuer, err := jwtx.NewIssuer([]byte(strings.Repeat("k", 32)), "test-issuer", 15*time.Minute)
	require.NoError(t, err)

	boxKey := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("b", 32)))
	box, err := secretbox.New(boxKey)
	require.NoError(t, err)

	// reloj controlable arrancando del tiempo real: los tokens emitidos
	// deben sobrevivir la validacion de exp del parser
	clk := &clock{t: time.Now().UTC().Truncate(time.Second)}
	notifier := email.NewNotifier(sender, nil, "http://test", 5*time.Second)

	var accounts repository.AccountRepository = store
	if wrap != nil {
		accounts = wrap(store)
	}

	svcs := NewServices(Deps{
		Accounts:   accounts,
		Notifier:   notifier,
		Cache:      cacheClient,
		Issuer:     issuer,
		Box:        box,
		HashParams: password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32},
		Policy:     password.Policy{MinLength: 8, RequireUpper: true, RequireDigit: true},
		TOTPIssuer: "TestIssuer",
		Now:        clk.now,
	})

	return &env{svcs: svcs, store: store, sender: sender, cache: cacheClient, issuer: issuer, clock: clk}
}

func validSignup() dto.SignupRequest {
	return dto.SignupRequest{Name: "Ana", Email: "ana@example.com", Password: "Passw0rd!x", Role: "user"}
}

// extractToken saca el token crudo del link del ultimo mail.
func extractVerifyToken(t *testing.T, m capturedMail) string {
	t.Helper()
	idx := strings.LastIndex(m.Text, "/verify-email/")
	require.NotEqual(t, -1, idx, "mail sin link de verificacion: %q", m.Text)
	return strings.TrimSpace(m.Text[idx+len("/verify-email/"):])
}

func extractResetToken(t *testing.T, m capturedMail) string {
	t.Helper()
	re := regexp.MustCompile(`token=([A-Za-z0-9_\-]+)`)
	match := re.FindStringSubmatch(m.Text)
	require.Len(t, match, 2, "mail sin token de reset: %q", m.Text)
	return match[1]
}

func extractMFACode(t *testing.T, m capturedMail) string {
	t.Helper()
	re := regexp.MustCompile(`\b(\d{6})\b`)
	match := re.FindStringSubmatch(m.Text)
	require.Len(t, match, 2, "mail sin codigo de 6 digitos: %q", m.Text)
	return match[1]
}

// registerAndVerify deja una cuenta lista para login y devuelve el material MFA.
func registerAndVerify(t *testing.T, e *env) *EnrollmentResult {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.svcs.Register.Register(ctx, validSignup()))
	token := extractVerifyToken(t, e.sender.last(t))
	res, err := e.svcs.Verify.VerifyEmail(ctx, token)
	require.NoError(t, err)
	return res
}

// ───────────────────────── register ─────────────────────────

func TestRegister_HappyPath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.svcs.Register.Register(ctx, validSignup()))

	acc, err := e.store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.False(t, acc.IsVerified)
	require.NotNil(t, acc.VerificationTokenHash)
	require.True(t, password.Verify("Passw0rd!x", acc.PasswordHash))

	m := e.sender.last(t)
	require.Equal(t, "ana@example.com", m.To)
	token := extractVerifyToken(t, m)
	require.NotEmpty(t, token)
	// el token crudo del mail nunca se persiste tal cual
	require.NotEqual(t, token, *acc.VerificationTokenHash)
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svcs.Register.Register(ctx, validSignup()))

	dup := validSignup()
	dup.Email = "ANA@Example.com"
	err := e.svcs.Register.Register(ctx, dup)
	require.ErrorIs(t, err, ErrRegisterEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	missing := validSignup()
	missing.Name = ""
	require.ErrorIs(t, e.svcs.Register.Register(ctx, missing), ErrRegisterMissingFields)

	badEmail := validSignup()
	badEmail.Email = "no-es-email"
	require.ErrorIs(t, e.svcs.Register.Register(ctx, badEmail), ErrRegisterInvalidEmail)

	weak := validSignup()
	weak.Password = "corta"
	require.ErrorIs(t, e.svcs.Register.Register(ctx, weak), ErrRegisterWeakPassword)
}

func TestRegister_SendFailureDoesNotRollback(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.sender.fail = errors.New("smtp down")

	err := e.svcs.Register.Register(ctx, validSignup())
	require.ErrorIs(t, err, ErrRegisterSendFailed)

	// la cuenta quedo creada igual
	_, err = e.store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
}

// ───────────────────────── verify email ─────────────────────────

func TestVerifyEmail_EnrollsMFA(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := registerAndVerify(t, e)

	require.NotEmpty(t, res.SecretBase32)
	require.Contains(t, res.OTPAuthURL, "otpauth://totp/")
	require.Contains(t, res.OTPAuthURL, "TestIssuer")
	require.Contains(t, res.BackupCode, "-")

	acc, err := e.store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.True(t, acc.IsVerified)
	require.True(t, acc.IsMFAEnabled)
	require.Nil(t, acc.VerificationTokenHash, "token no consumido")
	require.NotNil(t, acc.MFASecretEnc)
	require.NotNil(t, acc.BackupCodeHash)
	// el secreto se guarda cifrado, no en claro
	require.NotEqual(t, res.SecretBase32, *acc.MFASecretEnc)
}

func TestVerifyEmail_TokenSingleUse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svcs.Register.Register(ctx, validSignup()))
	token := extractVerifyToken(t, e.sender.last(t))

	_, err := e.svcs.Verify.VerifyEmail(ctx, token)
	require.NoError(t, err)

	// segundo consumo del mismo token: rechazado
	_, err = e.svcs.Verify.VerifyEmail(ctx, token)
	require.ErrorIs(t, err, ErrVerifyInvalidToken)
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svcs.Verify.VerifyEmail(ctx, "token-inventado")
	require.ErrorIs(t, err, ErrVerifyInvalidToken)

	_, err = e.svcs.Verify.VerifyEmail(ctx, "   ")
	require.ErrorIs(t, err, ErrVerifyMissingToken)
}

// ───────────────────────── login ─────────────────────────

func TestLogin_RequiresSecondFactor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registerAndVerify(t, e)

	step, err := e.svcs.Login.Login(ctx, dto.LoginRequest{Email: "Ana@Example.com", Password: "Passw0rd!x"})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", step.Email)
}

func TestLogin_UnverifiedAccountGate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svcs.Register.Register(ctx, validSignup()))

	// password correcta pero cuenta sin verificar
	_, err := e.svcs.Login.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "Passw0rd!x"})
	require.ErrorIs(t, err, ErrLoginUnverified)
}

func TestLogin_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registerAndVerify(t, e)

	_, err := e.svcs.Login.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "x"})
	require.ErrorIs(t, err, ErrLoginNotFound)

	_, err = e.svcs.Login.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "equivocada"})
	require.ErrorIs(t, err, ErrLoginInvalidPassword)

	_, err = e.svcs.Login.Login(ctx, dto.LoginRequest{Email: "", Password: ""})
	require.ErrorIs(t, err, ErrLoginMissingFields)
}

// ───────────────────────── mfa ────────────────────────────

func TestVerifyMFA_TOTPPath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := registerAndVerify(t, e)

	secret, err := totp.DecodeSecret(res.SecretBase32)
	require.NoError(t, err)
	code := totp.Code(secret, e.clock.now())

	session, err := e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.SessionID)
	require.Equal(t, int64(15*60), session.ExpiresIn)

	// el access token es verificable y lleva amr=mfa
	claims, err := e.issuer.Parse(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", claims.Email)
	require.Equal(t, "mfa", claims.AMR)

	// la sesion quedo en cache
	raw, err := e.cache.Get(ctx, "session:"+session.SessionID)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	require.Equal(t, "ana@example.com", rec["email"])
}

func TestVerifyMFA_TOTPWindowDrift(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := registerAndVerify(t, e)

	secret, err := totp.DecodeSecret(res.SecretBase32)
	require.NoError(t, err)

	// codigo del paso anterior: aceptado (ventana ±1)
	stale := totp.Code(secret, e.clock.now().Add(-totp.Period))
	_, err = e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", stale)
	require.NoError(t, err)

	// codigo de tres pasos atras: rechazado
	old := totp.Code(secret, e.clock.now().Add(-3*totp.Period))
	_, err = e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", old)
	require.ErrorIs(t, err, ErrMFAInvalidOrExpired)
}

func TestVerifyMFA_EmailCodePath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registerAndVerify(t, e)

	require.NoError(t, e.svcs.MFA.RequestEmailCode(ctx, "ana@example.com"))
	code := extractMFACode(t, e.sender.last(t))

	session, err := e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)

	// replay del mismo codigo: ya fue consumido
	_, err = e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", code)
	require.ErrorIs(t, err, ErrMFAInvalidOrExpired)
}

func TestVerifyMFA_EmailCodeExpiry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registerAndVerify(t, e)

	require.NoError(t, e.svcs.MFA.RequestEmailCode(ctx, "ana@example.com"))
	code := extractMFACode(t, e.sender.last(t))

	// exactamente al vencimiento: rechazado (estrictamente anterior)
	e.clock.advance(5 * time.Minute)
	_, err := e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", code)
	require.ErrorIs(t, err, ErrMFAInvalidOrExpired)
}

// gateRepo frena los lookups por email hasta que lleguen los n armados, para
// que varias verificaciones arranquen del mismo estado pendiente.
type gateRepo struct {
	repository.AccountRepository
	mu      sync.Mutex
	barrier *sync.WaitGroup
}

func (g *gateRepo) arm(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.barrier = &sync.WaitGroup{}
	g.barrier.Add(n)
}

func (g *gateRepo) GetByEmail(ctx context.Context, email string) (*repository.Account, error) {
	acc, err := g.AccountRepository.GetByEmail(ctx, email)
	g.mu.Lock()
	barrier := g.barrier
	g.mu.Unlock()
	if barrier != nil {
		barrier.Done()
		barrier.Wait()
	}
	return acc, err
}

func TestVerifyMFA_EmailCodeConcurrentSingleUse(t *testing.T) {
	gate := &gateRepo{}
	e := newEnvWithRepo(t, func(r repository.AccountRepository) repository.AccountRepository {
		gate.AccountRepository = r
		return gate
	})
	ctx := context.Background()
	registerAndVerify(t, e)

	require.NoError(t, e.svcs.MFA.RequestEmailCode(ctx, "ana@example.com"))
	code := extractMFACode(t, e.sender.last(t))

	// dos verificaciones con el mismo codigo, ambas pasan el lookup antes
	// de que alguna consuma: exactamente una tiene que ganar
	gate.arm(2)
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", code)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var accepted, rejected int
	for err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrMFAInvalidOrExpired):
			rejected++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	require.Equal(t, 1, accepted, "el codigo emailado vale un solo consumo")
	require.Equal(t, 1, rejected)

	// el par pendiente quedo limpio
	acc, err := e.store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Nil(t, acc.PendingMFACode)
	require.Nil(t, acc.PendingMFAExpiresAt)
}

func TestRequestEmailCode_OverwritesPrevious(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registerAndVerify(t, e)

	require.NoError(t, e.svcs.MFA.RequestEmailCode(ctx, "ana@example.com"))
	first := extractMFACode(t, e.sender.last(t))

	require.NoError(t, e.svcs.MFA.RequestEmailCode(ctx, "ana@example.com"))
	second := extractMFACode(t, e.sender.last(t))

	if first != second {
		// el primero quedo invalidado por el segundo
		_, err := e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", first)
		require.ErrorIs(t, err, ErrMFAInvalidOrExpired)
	}

	_, err := e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", second)
	require.NoError(t, err)
}

func TestRequestEmailCode_UnknownAccount(t *testing.T) {
	e := newEnv(t)
	err := e.svcs.MFA.RequestEmailCode(context.Background(), "nadie@example.com")
	require.ErrorIs(t, err, ErrMFANotFound)
}

func TestRecover_BackupCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := registerAndVerify(t, e)

	// acepta el codigo con otra capitalizacion y sin guiones
	msg, err := e.svcs.MFA.Recover(ctx, "ana@example.com", strings.ToLower(res.BackupCode))
	require.NoError(t, err)
	require.NotEmpty(t, msg)

	// no es de un solo uso: no muta estado
	_, err = e.svcs.MFA.Recover(ctx, "ana@example.com", res.BackupCode)
	require.NoError(t, err)

	_, err = e.svcs.MFA.Recover(ctx, "ana@example.com", "AAAA-BBBB-CCCC-DDDD")
	require.ErrorIs(t, err, ErrMFAInvalidRecovery)
}

// ───────────────────────── password reset ─────────────────────────

func TestPasswordReset_FullFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registerAndVerify(t, e)

	require.NoError(t, e.svcs.Reset.Forgot(ctx, "ana@example.com"))
	token := extractResetToken(t, e.sender.last(t))

	require.NoError(t, e.svcs.Reset.Reset(ctx, token, "NuevaPass1!"))

	// password vieja ya no sirve, la nueva si
	_, err := e.svcs.Login.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "Passw0rd!x"})
	require.ErrorIs(t, err, ErrLoginInvalidPassword)
	_, err = e.svcs.Login.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "NuevaPass1!"})
	require.NoError(t, err)

	// el token es de un solo uso
	err = e.svcs.Reset.Reset(ctx, token, "OtraPass1!x")
	require.ErrorIs(t, err, ErrResetInvalidToken)
}

func TestPasswordReset_Expiry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registerAndVerify(t, e)

	require.NoError(t, e.svcs.Reset.Forgot(ctx, "ana@example.com"))
	token := extractResetToken(t, e.sender.last(t))

	// default ResetTTL = 10m; al limite exacto ya no vale
	e.clock.advance(10 * time.Minute)
	err := e.svcs.Reset.Reset(ctx, token, "NuevaPass1!")
	require.ErrorIs(t, err, ErrResetInvalidToken)
}

func TestPasswordReset_RepeatedForgotInvalidatesPrevious(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registerAndVerify(t, e)

	require.NoError(t, e.svcs.Reset.Forgot(ctx, "ana@example.com"))
	first := extractResetToken(t, e.sender.last(t))

	require.NoError(t, e.svcs.Reset.Forgot(ctx, "ana@example.com"))
	second := extractResetToken(t, e.sender.last(t))

	err := e.svcs.Reset.Reset(ctx, first, "NuevaPass1!")
	require.ErrorIs(t, err, ErrResetInvalidToken)
	require.NoError(t, e.svcs.Reset.Reset(ctx, second, "NuevaPass1!"))
}

// swapResetRepo corre un hook una sola vez despues de un lookup exitoso por
// token de reset, simulando una escritura que se cuela antes del update.
type swapResetRepo struct {
	repository.AccountRepository
	mu   sync.Mutex
	hook func()
}

func (r *swapResetRepo) set(hook func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hook = hook
}

func (r *swapResetRepo) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*repository.Account, error) {
	acc, err := r.AccountRepository.GetByResetToken(ctx, tokenHash, now)
	if err == nil {
		r.mu.Lock()
		hook := r.hook
		r.hook = nil
		r.mu.Unlock()
		if hook != nil {
			hook()
		}
	}
	return acc, err
}

func TestPasswordReset_ForgotRacingResetKeepsReplacementToken(t *testing.T) {
	swapper := &swapResetRepo{}
	e := newEnvWithRepo(t, func(r repository.AccountRepository) repository.AccountRepository {
		swapper.AccountRepository = r
		return swapper
	})
	ctx := context.Background()
	registerAndVerify(t, e)

	require.NoError(t, e.svcs.Reset.Forgot(ctx, "ana@example.com"))
	first := extractResetToken(t, e.sender.last(t))

	// un Forgot que entra entre el lookup y el update reemplaza el token:
	// el reset con el token viejo no puede consumir el nuevo
	swapper.set(func() {
		require.NoError(t, e.svcs.Reset.Forgot(ctx, "ana@example.com"))
	})
	err := e.svcs.Reset.Reset(ctx, first, "NuevaPass1!")
	require.ErrorIs(t, err, ErrResetInvalidToken)

	// la password no cambio y el token de reemplazo sigue vigente
	_, err = e.svcs.Login.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "Passw0rd!x"})
	require.NoError(t, err)
	second := extractResetToken(t, e.sender.last(t))
	require.NoError(t, e.svcs.Reset.Reset(ctx, second, "NuevaPass1!"))
}

func TestPasswordReset_WrongToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registerAndVerify(t, e)
	require.NoError(t, e.svcs.Reset.Forgot(ctx, "ana@example.com"))

	err := e.svcs.Reset.Reset(ctx, "token-equivocado", "NuevaPass1!")
	require.ErrorIs(t, err, ErrResetInvalidToken)
}

func TestPasswordReset_WeakNewPassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registerAndVerify(t, e)
	require.NoError(t, e.svcs.Reset.Forgot(ctx, "ana@example.com"))
	token := extractResetToken(t, e.sender.last(t))

	err := e.svcs.Reset.Reset(ctx, token, "corta")
	require.ErrorIs(t, err, ErrResetWeakPassword)

	// la password debil no consumio el token
	require.NoError(t, e.svcs.Reset.Reset(ctx, token, "NuevaPass1!"))
}

func TestForgot_UnknownAccount(t *testing.T) {
	e := newEnv(t)
	err := e.svcs.Reset.Forgot(context.Background(), "nadie@example.com")
	require.ErrorIs(t, err, ErrResetNotFound)
}

// ───────────────────────── escenario completo ─────────────────────────

func TestFullLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// signup -> verify -> login -> codigo por email -> verify-mfa
	require.NoError(t, e.svcs.Register.Register(ctx, validSignup()))
	token := extractVerifyToken(t, e.sender.last(t))
	res, err := e.svcs.Verify.VerifyEmail(ctx, token)
	require.NoError(t, err)

	_, err = e.svcs.Login.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "Passw0rd!x"})
	require.NoError(t, err)

	require.NoError(t, e.svcs.MFA.RequestEmailCode(ctx, "ana@example.com"))
	code := extractMFACode(t, e.sender.last(t))
	session, err := e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)

	// reset de password y re-login con TOTP
	require.NoError(t, e.svcs.Reset.Forgot(ctx, "ana@example.com"))
	resetToken := extractResetToken(t, e.sender.last(t))
	require.NoError(t, e.svcs.Reset.Reset(ctx, resetToken, "NuevaPass1!"))

	_, err = e.svcs.Login.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "NuevaPass1!"})
	require.NoError(t, err)

	secret, err := totp.DecodeSecret(res.SecretBase32)
	require.NoError(t, err)
	session2, err := e.svcs.MFA.VerifyMFA(ctx, "ana@example.com", totp.Code(secret, e.clock.now()))
	require.NoError(t, err)
	require.NotEqual(t, session.SessionID, session2.SessionID)

	require.Equal(t, 3, e.sender.count(), "verificacion + codigo mfa + link de reset")
}
