package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evidenze-chat/chat"
	"evidenze-chat/cmd/web/auth"
	"evidenze-chat/completion"
	"evidenze-chat/config"
	"evidenze-chat/eventbus"
	"evidenze-chat/relay"
	"evidenze-chat/session"
)

type fixedClient struct {
	text string
	err  error
}

func (c *fixedClient) Complete(context.Context, []chat.Message, completion.Params) (completion.Result, error) {
	if c.err != nil {
		return completion.Result{}, c.err
	}
	return completion.Result{Text: c.text}, nil
}

func newTestRouter(t *testing.T, client completion.Client) (*gin.Engine, session.Store) {
	t.Helper()
	t.Setenv("WEB_SESSION_SECRET", "test-secret")

	tokens, err := auth.NewSessionTokenManagerFromEnv()
	require.NoError(t, err)

	store := session.NewMemoryStore("Eres el asistente IA de Evidenze.")
	responder := relay.NewResponder(relay.Options{
		Store:  store,
		Client: client,
		Bus:    eventbus.NewLogBus(),
		Phrases: config.PhrasesConfig{
			Greetings:     []string{"hola"},
			GreetingReply: "¡Hola %s! 👋",
			Apology:       "😔 No pude procesar tu consulta. Intenta de nuevo.",
			Welcome:       "¡Bienvenido %s! 👋",
		},
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/chat", ChatHandler(responder, tokens))
	router.POST("/api/v1/chat/reset", ResetHandler(responder, tokens))
	return router, store
}

func postJSON(router *gin.Engine, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == sessionCookie {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestChatHandlerAnswersAndSetsCookie(t *testing.T) {
	router, _ := newTestRouter(t, &fixedClient{text: "El soporte está disponible de 9 a 18h."})

	w := postJSON(router, "/api/v1/chat", `{"message": "¿Cuál es el horario de soporte?"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "El soporte está disponible de 9 a 18h.", resp["response"])

	cookie := sessionCookieFrom(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
}

func TestChatHandlerKeepsSessionAcrossRequests(t *testing.T) {
	router, store := newTestRouter(t, &fixedClient{text: "respuesta"})

	first := postJSON(router, "/api/v1/chat", `{"message": "primera"}`, nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookie := sessionCookieFrom(t, first)

	second := postJSON(router, "/api/v1/chat", `{"message": "segunda"}`, []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Result().Cookies(), "an existing valid cookie must be reused")

	tokens, err := auth.NewSessionTokenManagerFromEnv()
	require.NoError(t, err)
	sid, err := tokens.Parse(cookie.Value)
	require.NoError(t, err)

	// seed + two user turns + two assistant replies
	assert.Equal(t, 5, store.GetOrCreate(sid).Len())
}

func TestChatHandlerRejectsTamperedCookie(t *testing.T) {
	router, _ := newTestRouter(t, &fixedClient{text: "respuesta"})

	forged := &http.Cookie{Name: sessionCookie, Value: "not-a-token"}
	w := postJSON(router, "/api/v1/chat", `{"message": "hola mundo"}`, []*http.Cookie{forged})
	assert.Equal(t, http.StatusOK, w.Code)

	cookie := sessionCookieFrom(t, w)
	assert.NotEqual(t, "not-a-token", cookie.Value, "an invalid cookie must be replaced")
}

func TestChatHandlerEmptyMessage(t *testing.T) {
	router, _ := newTestRouter(t, &fixedClient{text: "nunca"})

	w := postJSON(router, "/api/v1/chat", `{"message": "   "}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "empty_message")
}

func TestChatHandlerMalformedBody(t *testing.T) {
	router, _ := newTestRouter(t, &fixedClient{})

	w := postJSON(router, "/api/v1/chat", `{broken`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")
}

func TestChatHandlerModelFailureStillAnswers(t *testing.T) {
	router, _ := newTestRouter(t, &fixedClient{err: &completion.Error{Kind: completion.KindAuth}})

	w := postJSON(router, "/api/v1/chat", `{"message": "¿horario?"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No pude procesar tu consulta")
}

func TestResetHandlerClearsHistory(t *testing.T) {
	router, store := newTestRouter(t, &fixedClient{text: "respuesta"})

	first := postJSON(router, "/api/v1/chat", `{"message": "primera"}`, nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookie := sessionCookieFrom(t, first)

	tokens, err := auth.NewSessionTokenManagerFromEnv()
	require.NoError(t, err)
	sid, err := tokens.Parse(cookie.Value)
	require.NoError(t, err)
	require.Equal(t, 3, store.GetOrCreate(sid).Len())

	w := postJSON(router, "/api/v1/chat/reset", "", []*http.Cookie{cookie})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "history cleared")
	assert.Equal(t, 1, store.GetOrCreate(sid).Len())
}
