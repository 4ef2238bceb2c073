package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for signing and parsing session cookies
)

// ErrInvalidToken is returned by ParseToken for any unusable cookie value.
var ErrInvalidToken = errors.New("invalid session token")

// Token is a signed session cookie value along with its expiry.
type Token struct {
	Value string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewToken builds and signs an HS256 JWT naming the UI session id.  The
// claims are the subject (sub), expiration (exp) and issued-at (iat).
func NewToken(secret, sessionID string, ttl time.Duration) (Token, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, Exp: exp}, nil
}

// ParseToken verifies raw and returns the session id it carries.  Tokens
// signed with another algorithm or secret, expired tokens and tokens without
// a subject are all rejected with ErrInvalidToken.
func ParseToken(secret, raw string) (string, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject anything that is not HMAC-signed.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
