package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
// Usado para links de verificación de email y reset de password.
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateNumericCode genera un código decimal de n dígitos, uniforme.
// Usado para el código MFA por email (la resistencia a adivinación viene
// del expiry corto y de ser un segundo factor).
func GenerateNumericCode(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

// GenerateBackupCode genera un código de respaldo transcribible a mano:
// 10 bytes aleatorios en base32 agrupados de a 4 (ej: A2QX-9PLM-ZZ7K-Q4RT).
func GenerateBackupCode() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)
	var parts []string
	for i := 0; i < len(s); i += 4 {
		end := i + 4
		if end > len(s) {
			end = len(s)
		}
		parts = append(parts, s[i:end])
	}
	return strings.Join(parts, "-"), nil
}

// NormalizeBackupCode normaliza un código de respaldo tipeado por el usuario
// (mayúsculas, sin guiones ni espacios) antes de hashearlo.
func NormalizeBackupCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, " ", "")
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding.
// Es el digest con el que se persisten los tokens de un solo uso.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
