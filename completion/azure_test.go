package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evidenze-chat/chat"
	"evidenze-chat/credential"
)

func testMessages() []chat.Message {
	return []chat.Message{
		chat.SystemMessage("Eres un asistente de prueba."),
		chat.UserMessage("¿Cuál es el horario de soporte?"),
	}
}

func newTestAzureClient(serverURL string, useAPIKey bool) *AzureClient {
	return NewAzureClient(AzureOptions{
		Endpoint:   serverURL,
		Deployment: "gpt-4o",
		APIVersion: "2024-02-15-preview",
		Provider:   credential.NewStaticKey("test-key"),
		UseAPIKey:  useAPIKey,
		Timeout:    5 * time.Second,
	})
}

func TestAzureCompleteSuccess(t *testing.T) {
	var gotReq azureChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-02-15-preview", r.URL.Query().Get("api-version"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"content": "El soporte está disponible de 9 a 18h."}}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 13, "total_tokens": 55}
		}`))
	}))
	defer server.Close()

	client := newTestAzureClient(server.URL, true)
	result, err := client.Complete(context.Background(), testMessages(), Params{MaxTokens: 500, Temperature: 0.7})
	require.NoError(t, err)

	assert.Equal(t, "El soporte está disponible de 9 a 18h.", result.Text)
	assert.Equal(t, 42, result.Usage.PromptTokens)
	assert.Equal(t, 13, result.Usage.CompletionTokens)
	assert.Equal(t, 55, result.Usage.TotalTokens)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, chat.RoleSystem, gotReq.Messages[0].Role)
	assert.Equal(t, chat.RoleUser, gotReq.Messages[1].Role)
	assert.Equal(t, 500, gotReq.MaxTokens)
	assert.Equal(t, 0.7, gotReq.Temperature)
}

func TestAzureCompleteBearerAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("api-key"))
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer server.Close()

	client := newTestAzureClient(server.URL, false)
	result, err := client.Complete(context.Background(), testMessages(), Params{MaxTokens: 500, Temperature: 0.7})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
}

func TestAzureCompleteStatusClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		kind   Kind
	}{
		{"unauthorized", http.StatusUnauthorized, KindAuth},
		{"forbidden", http.StatusForbidden, KindAuth},
		{"throttled", http.StatusTooManyRequests, KindRateLimit},
		{"server error", http.StatusInternalServerError, KindNetwork},
		{"bad gateway", http.StatusBadGateway, KindNetwork},
		{"bad request", http.StatusBadRequest, KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := newTestAzureClient(server.URL, true)
			_, err := client.Complete(context.Background(), testMessages(), Params{})
			requireKind(t, err, tc.kind)
		})
	}
}

func TestAzureCompleteMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [`))
	}))
	defer server.Close()

	client := newTestAzureClient(server.URL, true)
	_, err := client.Complete(context.Background(), testMessages(), Params{})
	requireKind(t, err, KindMalformed)
}

func TestAzureCompleteEmptyCompletion(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no choices", `{"choices": []}`},
		{"blank content", `{"choices": [{"message": {"content": "   "}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := newTestAzureClient(server.URL, true)
			_, err := client.Complete(context.Background(), testMessages(), Params{})
			requireKind(t, err, KindEmpty)
		})
	}
}

func TestAzureCompleteTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestAzureClient(server.URL, true)
	_, err := client.Complete(context.Background(), testMessages(), Params{})
	requireKind(t, err, KindNetwork)
}

func TestAzureCompleteCredentialFailure(t *testing.T) {
	client := NewAzureClient(AzureOptions{
		Endpoint:   "http://unreachable.invalid",
		Deployment: "gpt-4o",
		APIVersion: "2024-02-15-preview",
		Provider:   credential.NewStaticKey(""),
		UseAPIKey:  true,
	})

	_, err := client.Complete(context.Background(), testMessages(), Params{})
	requireKind(t, err, KindAuth)
}

func requireKind(t *testing.T, err error, want Kind) {
	t.Helper()
	var compErr *Error
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, want, compErr.Kind)
}
