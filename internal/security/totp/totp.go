package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

const (
	// Period es el paso de tiempo estándar (RFC 6238).
	Period = 30 * time.Second
	// Digits es el largo del código generado.
	Digits = 6
)

// GenerateSecret retorna 20 bytes (160 bits) base32 sin padding (RFC 3548).
func GenerateSecret() (raw []byte, b32 string, err error) {
	raw = make([]byte, 20)
	_, err = rand.Read(raw)
	if err != nil {
		return nil, "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return raw, enc, nil
}

// DecodeSecret decodifica un secreto base32 sin padding.
func DecodeSecret(b32 string) ([]byte, error) {
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(strings.TrimSpace(b32)))
}

// OTPAuthURL construye otpauth:// para QR.
func OTPAuthURL(issuer, accountName, secretB32 string) string {
	// otpauth://totp/{issuer}:{account}?secret=...&issuer=...&algorithm=SHA1&digits=6&period=30
	label := url.PathEscape(fmt.Sprintf("%s:%s", issuer, accountName))
	q := url.Values{}
	q.Set("secret", secretB32)
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", "6")
	q.Set("period", "30")
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// Verify valida un TOTP en ventana +/- windowSteps (default 1) alrededor del
// paso actual, para absorber drift de reloj.
func Verify(secretRaw []byte, code string, t time.Time, windowSteps int) bool {
	code = strings.TrimSpace(code)
	if len(code) != Digits {
		return false
	}
	if windowSteps < 0 {
		windowSteps = 1
	}
	counter := t.Unix() / int64(Period/time.Second)
	for c := counter - int64(windowSteps); c <= counter+int64(windowSteps); c++ {
		if gen(secretRaw, c) == code {
			return true
		}
	}
	return false
}

// Code genera el código del paso que contiene a t. Usado por tests y tooling.
func Code(secretRaw []byte, t time.Time) string {
	return gen(secretRaw, t.Unix()/int64(Period/time.Second))
}

func gen(secretRaw []byte, counter int64) string {
	// HOTP(K, C) con HMAC-SHA1 (RFC 4226 / 6238)
	var msg [8]byte
	for i := 7; i >= 0; i-- {
		msg[i] = byte(counter & 0xff)
		counter >>= 8
	}
	m := hmac.New(sha1.New, secretRaw)
	_, _ = m.Write(msg[:])
	sum := m.Sum(nil)
	offset := int(sum[len(sum)-1] & 0x0f)
	bin := (int(sum[offset])&0x7f)<<24 | int(sum[offset+1])<<16 | int(sum[offset+2])<<8 | int(sum[offset+3])
	otp := bin % int(math.Pow10(Digits))
	return fmt.Sprintf("%0*d", Digits, otp)
}
