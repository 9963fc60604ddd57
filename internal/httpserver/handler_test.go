package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"kirana-agent/internal/agent/model"
)

type fakeRunner struct {
	reply string
	err   error
	last  model.TurnInput
}

func (f *fakeRunner) ProcessTurn(_ context.Context, in model.TurnInput) (string, error) {
	f.last = in
	return f.reply, f.err
}

func newTestServer(t *testing.T, runner *fakeRunner) *HTTPServer {
	t.Helper()
	srv, err := New(Config{Port: 8080, Mode: "test", Environment: "testing", Runner: runner})
	require.NoError(t, err)
	return srv
}

func postChat(srv *HTTPServer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.gin.ServeHTTP(w, req)
	return w
}

func TestChatHandlerHappyPath(t *testing.T) {
	runner := &fakeRunner{reply: "Namaste! 🙏"}
	srv := newTestServer(t, runner)

	w := postChat(srv, `{"session_id":"s1","message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "s1", resp.SessionID)
	require.Equal(t, "Namaste! 🙏", resp.Reply)
	require.Equal(t, "hi", runner.last.Utterance)
}

func TestChatHandlerGeneratesSessionID(t *testing.T) {
	runner := &fakeRunner{reply: "ok"}
	srv := newTestServer(t, runner)

	w := postChat(srv, `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	require.Equal(t, resp.SessionID, runner.last.SessionID)
}

func TestChatHandlerRejectsEmptyMessage(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})

	require.Equal(t, http.StatusBadRequest, postChat(srv, `{"session_id":"s1"}`).Code)
	require.Equal(t, http.StatusBadRequest, postChat(srv, `{"message":"   "}`).Code)
	require.Equal(t, http.StatusBadRequest, postChat(srv, `not json`).Code)
}

func TestChatHandlerRunnerError(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{err: fmt.Errorf("boom")})

	w := postChat(srv, `{"session_id":"s1","message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.gin.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "healthy")
}
