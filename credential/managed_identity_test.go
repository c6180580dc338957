package credential

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManagedIdentity(serverURL string) *ManagedIdentity {
	return &ManagedIdentity{
		endpoint:   serverURL,
		resource:   "https://cognitiveservices.azure.com/",
		clientID:   "mi-client",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestManagedIdentityAcquire(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.Header.Get("Metadata"))
		assert.Equal(t, "https://cognitiveservices.azure.com/", r.URL.Query().Get("resource"))
		assert.Equal(t, "mi-client", r.URL.Query().Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"imds-token","expires_on":"1790000000"}`))
	}))
	defer server.Close()

	cred, err := newTestManagedIdentity(server.URL).Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "imds-token", cred.Token)
	assert.Equal(t, time.Unix(1790000000, 0), cred.Expiry)
}

func TestManagedIdentityAcquireDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestManagedIdentity(server.URL).Acquire(context.Background())
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestManagedIdentityEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"","expires_on":"0"}`))
	}))
	defer server.Close()

	_, err := newTestManagedIdentity(server.URL).Acquire(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}
