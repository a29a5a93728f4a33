// Package jwt emite los access tokens que se entregan al completar MFA.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Issuer firma access tokens HS256 de corta vida. Se construye una vez en
// main y se inyecta al service de MFA.
type Issuer struct {
	secret []byte
	iss    string
	ttl    time.Duration
}

// Claims son los claims propios incluidos en el access token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	AMR   string `json:"amr"` // siempre "mfa": el token solo se emite tras el paso 2
	jwtv5.RegisteredClaims
}

// NewIssuer valida la clave y construye el emisor.
func NewIssuer(secret []byte, issuer string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt: la clave HS256 debe tener al menos 32 bytes")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{secret: secret, iss: issuer, ttl: ttl}, nil
}

// TTL expone la vida del token (para reportar expires_in).
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue firma un token para la cuenta dada.
func (i *Issuer) Issue(accountID, email, role string, now time.Time) (string, error) {
	claims := Claims{
		Email: email,
		Role:  role,
		AMR:   "mfa",
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.iss,
			Subject:   accountID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(i.ttl)),
		},
	}
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("jwt sign: %w", err)
	}
	return signed, nil
}

// Parse valida firma y expiración, y retorna los claims.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	var claims Claims
	tok, err := jwtv5.ParseWithClaims(tokenStr, &claims, func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwt: método de firma inesperado %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwtv5.WithIssuer(i.iss), jwtv5.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("jwt: token inválido")
	}
	return &claims, nil
}
