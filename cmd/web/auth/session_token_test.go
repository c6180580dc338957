package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionTokenManagerFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("WEB_SESSION_SECRET", "")

	_, err := NewSessionTokenManagerFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEB_SESSION_SECRET")
}

func TestNewSessionTokenManagerFromEnvDefaults(t *testing.T) {
	t.Setenv("WEB_SESSION_SECRET", "test-secret")
	t.Setenv("WEB_SESSION_ISSUER", "")

	manager, err := NewSessionTokenManagerFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "evidenze-chat", manager.issuer)
}

func TestSignParseRoundtrip(t *testing.T) {
	t.Setenv("WEB_SESSION_SECRET", "test-secret")

	manager, err := NewSessionTokenManagerFromEnv()
	require.NoError(t, err)

	token, err := manager.Sign("session-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sessionID, err := manager.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "session-123", sessionID)
}

func TestParseRejectsForgedSignature(t *testing.T) {
	signer := &SessionTokenManager{secret: []byte("real-secret"), issuer: "evidenze-chat", ttl: time.Hour}
	verifier := &SessionTokenManager{secret: []byte("other-secret"), issuer: "evidenze-chat", ttl: time.Hour}

	token, err := signer.Sign("session-123")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	manager := &SessionTokenManager{secret: []byte("test-secret"), issuer: "evidenze-chat", ttl: -time.Minute}

	token, err := manager.Sign("session-123")
	require.NoError(t, err)

	_, err = manager.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsMissingSubject(t *testing.T) {
	manager := &SessionTokenManager{secret: []byte("test-secret"), issuer: "evidenze-chat", ttl: time.Hour}

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "evidenze-chat",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString(manager.secret)
	require.NoError(t, err)

	_, err = manager.Parse(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sub")
}

func TestParseRejectsUnsignedAlg(t *testing.T) {
	manager := &SessionTokenManager{secret: []byte("test-secret"), issuer: "evidenze-chat", ttl: time.Hour}

	raw := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "session-123"})
	token, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = manager.Parse(token)
	assert.Error(t, err)
}
