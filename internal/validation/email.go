// Package validation contiene validaciones sintácticas explícitas, invocadas
// antes de construir entidades (sin hooks implícitos de framework).
package validation

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail recorta espacios y pasa a minúsculas.
// Los emails se normalizan al escribir; las búsquedas son case-insensitive
// porque siempre se busca la forma normalizada.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsEmail valida la sintaxis del email (ya normalizado o no).
func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 {
		return false
	}
	return emailRe.MatchString(s)
}
