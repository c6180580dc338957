// Package auth issues and checks the signed cookie that pins a browser to
// its conversation session, so session ids cannot be guessed across users.
package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenManager signs and verifies session tokens with a single HS256
// secret.
type SessionTokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewSessionTokenManagerFromEnv reads the secret and issuer from the
// environment.
//
// - WEB_SESSION_SECRET: HS256 signing secret (required)
// - WEB_SESSION_ISSUER: iss claim (optional, default "evidenze-chat")
func NewSessionTokenManagerFromEnv() (*SessionTokenManager, error) {
	secret := os.Getenv("WEB_SESSION_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("WEB_SESSION_SECRET is required")
	}

	issuer := os.Getenv("WEB_SESSION_ISSUER")
	if issuer == "" {
		issuer = "evidenze-chat"
	}

	return &SessionTokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    12 * time.Hour,
	}, nil
}

func (m *SessionTokenManager) Sign(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": sessionID,
		"iss": m.issuer,
		"exp": time.Now().Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *SessionTokenManager) Parse(tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("token missing sub claim")
	}

	return sub, nil
}
