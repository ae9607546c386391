// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gossip-ai/gossip/internal/backend"
	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/ollama"
)

// ============================================================================
// MOCK BACKEND
// ============================================================================

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) ListModels(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

func (m *MockBackend) Chat(ctx context.Context, call backend.ChatCall) (string, error) {
	args := m.Called(ctx, call)
	return args.String(0), args.Error(1)
}

// PingingBackend adds a health check to MockBackend.
type PingingBackend struct {
	MockBackend
}

func (m *PingingBackend) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestServer(b backend.Backend) *Server {
	return New(b, Options{DefaultModel: "tinyllama:latest"}, nil)
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func chatURL(params map[string]string) string {
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	return "/api/chat?" + v.Encode()
}

// ============================================================================
// HEALTH / MODELS
// ============================================================================

func TestHealth(t *testing.T) {
	s := newTestServer(new(MockBackend))

	rec := do(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestModels_Passthrough(t *testing.T) {
	const doc = `{"models":[{"name":"tinyllama:latest","size":637700138,"digest":"abc"}]}`
	b := new(MockBackend)
	b.On("ListModels", mock.Anything).Return([]byte(doc), nil)
	s := newTestServer(b)

	rec := do(t, s, http.MethodGet, "/api/models")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, doc, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	b.AssertExpectations(t)
}

func TestModels_RuntimeDown(t *testing.T) {
	b := new(MockBackend)
	b.On("ListModels", mock.Anything).Return(nil, errors.New("connect ECONNREFUSED"))
	s := newTestServer(b)

	rec := do(t, s, http.MethodGet, "/api/models")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to fetch models", body["error"])
	assert.Equal(t, "connect ECONNREFUSED", body["details"])
}

// ============================================================================
// CHAT
// ============================================================================

func TestChat_NoQuestion(t *testing.T) {
	b := new(MockBackend)
	s := newTestServer(b)

	for _, target := range []string{"/api/chat", "/api/chat?question=", "/api/chat?personality=garbage"} {
		rec := do(t, s, http.MethodGet, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "Server is running", rec.Body.String(), target)
	}
	b.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestChat_DefaultModelAndSingleUserMessage(t *testing.T) {
	b := new(MockBackend)
	b.On("Chat", mock.Anything, mock.MatchedBy(func(c backend.ChatCall) bool {
		msgs := c.Messages()
		return c.Model == "tinyllama:latest" &&
			c.Params == nil &&
			len(msgs) == 1 && msgs[0].Role == "user" && msgs[0].Content == "Hello"
	})).Return("Hi there", nil)
	s := newTestServer(b)

	rec := do(t, s, http.MethodGet, chatURL(map[string]string{"question": "Hello", "sessionId": "s-1"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hi there", rec.Body.String())
	b.AssertExpectations(t)
}

func TestChat_PersonaAndParams(t *testing.T) {
	var got backend.ChatCall
	b := new(MockBackend)
	b.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(backend.ChatCall) }).
		Return("ok", nil)
	s := newTestServer(b)

	rec := do(t, s, http.MethodGet, chatURL(map[string]string{
		"question":    "Hello",
		"model":       "llama3.1:8b",
		"personality": `{"name":"Ada","role":"I am a coding mentor."}`,
		"params":      `{"temperature":1.2,"top_k":40}`,
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "llama3.1:8b", got.Model)
	msgs := got.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "Your name is Ada. I am a coding mentor.", msgs[0].Content)
	assert.Equal(t, "user", msgs[1].Role)

	require.NotNil(t, got.Params)
	assert.Equal(t, 1.2, got.Params.Temperature)
	assert.Equal(t, 40.0, got.Params.TopK)
	assert.Equal(t, model.DefaultParams().MirostatTau, got.Params.MirostatTau)
}

func TestChat_EmptyPersonaAddsNoSystemMessage(t *testing.T) {
	var got backend.ChatCall
	b := new(MockBackend)
	b.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(backend.ChatCall) }).
		Return("ok", nil)
	s := newTestServer(b)

	rec := do(t, s, http.MethodGet, chatURL(map[string]string{
		"question":    "Hello",
		"personality": `{"name":"","role":""}`,
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, got.Messages(), 1)
}

func TestChat_MalformedQuery(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		prefix string
	}{
		{"bad persona json", map[string]string{"question": "q", "personality": "{nope"}, "invalid personality: "},
		{"persona unknown field", map[string]string{"question": "q", "personality": `{"nick":"x"}`}, "invalid personality: "},
		{"bad params json", map[string]string{"question": "q", "params": "[1,2]"}, "invalid params: "},
		{"params out of range", map[string]string{"question": "q", "params": `{"temperature":5}`}, "invalid params: "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := new(MockBackend)
			s := newTestServer(b)

			rec := do(t, s, http.MethodGet, chatURL(tc.params))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.prefix)
			b.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
		})
	}
}

func TestChat_RuntimeFailure(t *testing.T) {
	b := new(MockBackend)
	b.On("Chat", mock.Anything, mock.Anything).Return("", errors.New("model 'x' not found"))
	s := newTestServer(b)

	rec := do(t, s, http.MethodGet, chatURL(map[string]string{"question": "Hello", "model": "x"}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error processing request: model 'x' not found", rec.Body.String())

	snap := s.Stats().Snapshot()
	assert.Equal(t, int64(1), snap.ChatRequests)
	assert.Equal(t, int64(1), snap.ChatFailures)
	assert.Equal(t, int64(1), snap.Errors)
}

func TestChat_RuntimeFailureIsClassified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"runtime down", &ollama.ClientError{Type: ollama.ErrTypeNotRunning, Message: "Ollama is not running"}, "not_running"},
		{"missing model", &ollama.ClientError{Type: ollama.ErrTypeModelNotFound, Message: "model 'x' not found"}, "model_not_found"},
		{"slow runtime", ollama.ErrTimeout, "timeout"},
		{"other", errors.New("boom"), "runtime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.ErrorLevel)
			b := new(MockBackend)
			b.On("Chat", mock.Anything, mock.Anything).Return("", tt.err)
			s := New(b, Options{}, zap.New(core))

			rec := do(t, s, http.MethodGet, chatURL(map[string]string{"question": "Hello"}))
			require.Equal(t, http.StatusInternalServerError, rec.Code)

			entries := logs.FilterMessage("chat failed").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].ContextMap()["error_class"])
		})
	}
}

func TestChat_PanicRecovered(t *testing.T) {
	b := new(MockBackend)
	b.On("Chat", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("boom") })
	s := newTestServer(b)

	rec := do(t, s, http.MethodGet, chatURL(map[string]string{"question": "Hello"}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int64(1), s.Stats().Snapshot().Errors, "the 500 is logged and counted")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetDefaultModel(t *testing.T) {
	b := new(MockBackend)
	b.On("Chat", mock.Anything, mock.MatchedBy(func(c backend.ChatCall) bool {
		return c.Model == "phi3"
	})).Return("ok", nil)
	s := newTestServer(b)

	s.SetDefaultModel("phi3")
	rec := do(t, s, http.MethodGet, chatURL(map[string]string{"question": "Hello"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	s.SetDefaultModel("")
	assert.Equal(t, "tinyllama:latest", s.DefaultModel())
}

// ============================================================================
// CLEAR / STATS / CORS
// ============================================================================

func TestCheckRuntime(t *testing.T) {
	assert.NoError(t, newTestServer(new(MockBackend)).CheckRuntime(context.Background()),
		"backends without a ping are assumed up")

	b := new(PingingBackend)
	b.On("Ping", mock.Anything).Return(ollama.ErrNotRunning).Once()
	b.On("Ping", mock.Anything).Return(nil).Once()
	s := newTestServer(b)

	err := s.CheckRuntime(context.Background())
	assert.True(t, ollama.IsNotRunning(err))
	assert.NoError(t, s.CheckRuntime(context.Background()))
	b.AssertExpectations(t)
}

func TestClearEndpoints(t *testing.T) {
	s := newTestServer(new(MockBackend))

	rec := do(t, s, http.MethodDelete, "/api/chat/history?sessionId=abc")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/clear?sessionId=abc")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(new(MockBackend))
	do(t, s, http.MethodGet, "/health")
	do(t, s, http.MethodGet, "/health")

	rec := do(t, s, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap StatsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(2), snap.TotalRequests, "the stats request itself is counted after it is served")
	assert.Equal(t, "tinyllama:latest", snap.DefaultModel)
	assert.Equal(t, "mock", snap.Runtime)
}

func TestCORS(t *testing.T) {
	s := newTestServer(new(MockBackend))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://phone.local")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	rec = do(t, s, http.MethodGet, "/health")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	cfg := &CORSConfig{AllowedOrigins: []string{"http://app.local", "*.lan"}, AllowedMethods: []string{"GET"}}

	assert.Equal(t, "http://app.local", cfg.allowOrigin("http://app.local"))
	assert.Equal(t, "http://pi.lan", cfg.allowOrigin("http://pi.lan"))
	assert.Empty(t, cfg.allowOrigin("http://evil.example"))
	assert.Empty(t, cfg.allowOrigin(""))
}

func TestDecodeChatQuery(t *testing.T) {
	q, err := DecodeChatQuery(url.Values{"question": {"hi"}, "sessionId": {"s"}})
	require.NoError(t, err)
	assert.Nil(t, q.Persona)
	assert.Nil(t, q.Params)
	assert.Equal(t, "s", q.SessionID)

	_, err = DecodeChatQuery(url.Values{"params": {"{"}})
	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "params", qerr.Param)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := newTestServer(new(MockBackend))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
