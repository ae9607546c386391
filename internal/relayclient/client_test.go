// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relayclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gossip-ai/gossip/internal/backend"
	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/server"
)

// echoBackend answers with the prompt it would send.
type echoBackend struct{}

func (echoBackend) Name() string { return "echo" }

func (echoBackend) ListModels(context.Context) ([]byte, error) {
	return []byte(`{"models":[{"name":"tinyllama:latest","size":637700138}]}`), nil
}

func (echoBackend) Chat(_ context.Context, call backend.ChatCall) (string, error) {
	msgs := call.Messages()
	out := call.Model + "|"
	for _, m := range msgs {
		out += m.Role + ":" + m.Content + "|"
	}
	return out, nil
}

func TestNew_NormalizesAddress(t *testing.T) {
	assert.Equal(t, "http://10.0.0.101:3000", New(Config{BaseURL: "10.0.0.101:3000/"}).BaseURL())
}

func TestAskRequest_Query(t *testing.T) {
	req := AskRequest{
		Question:  "Hi",
		Model:     "phi3",
		SessionID: "s-1",
		Params:    model.DefaultParams(),
	}
	q, err := req.Query()
	require.NoError(t, err)
	assert.Equal(t, "Hi", q.Get("question"))
	assert.Equal(t, "phi3", q.Get("model"))
	assert.Equal(t, "s-1", q.Get("sessionId"))
	assert.JSONEq(t, `{"name":"","role":""}`, q.Get("personality"))

	var params map[string]float64
	require.NoError(t, json.Unmarshal([]byte(q.Get("params")), &params))
	assert.Len(t, params, 9)
	assert.Equal(t, 2.0, params["mirostat"])
}

// =============================================================================
// AGAINST A REAL RELAY
// =============================================================================

func newRelay(t *testing.T) *httptest.Server {
	t.Helper()
	srv := server.New(echoBackend{}, server.Options{DefaultModel: "tinyllama:latest"}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestAsk_ThroughRelay(t *testing.T) {
	ts := newRelay(t)
	c := New(Config{BaseURL: ts.URL})

	answer, err := c.Ask(context.Background(), AskRequest{
		Question: "Hello",
		Persona:  model.Persona{Name: "Ada"},
		Params:   model.DefaultParams(),
	})
	require.NoError(t, err)
	assert.Equal(t, "tinyllama:latest|system:Your name is Ada.|user:Hello|", answer)
}

func TestListModels_ThroughRelay(t *testing.T) {
	ts := newRelay(t)
	c := New(Config{BaseURL: ts.URL})

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "tinyllama:latest", models[0].Name)
	assert.Equal(t, "608 MB", model.FormatSize(models[0].Size))
}

func TestHealthAndClear_ThroughRelay(t *testing.T) {
	ts := newRelay(t)
	c := New(Config{BaseURL: ts.URL})

	assert.True(t, c.Health(context.Background()))
	assert.NoError(t, c.ClearHistory(context.Background(), "s-1"))
}

// =============================================================================
// FAILURE MODES
// =============================================================================

func TestAsk_Non2xxIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Error processing request: boom"))
	}))
	defer ts.Close()

	_, err := New(Config{BaseURL: ts.URL}).Ask(context.Background(), AskRequest{Question: "x"})
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
	assert.Contains(t, serr.Error(), "boom")
}

func TestListModels_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, ModelsTimeout: 50 * time.Millisecond})
	_, err := c.ListModels(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestListModels_ErrorField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"ollama unreachable"}`))
	}))
	defer ts.Close()

	_, err := New(Config{BaseURL: ts.URL}).ListModels(context.Background())
	assert.EqualError(t, err, "ollama unreachable")
}

func TestListModels_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to fetch models","details":"refused"}`))
	}))
	defer ts.Close()

	_, err := New(Config{BaseURL: ts.URL}).ListModels(context.Background())
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 500, serr.StatusCode)
}

func TestHealth_Down(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	assert.False(t, New(Config{BaseURL: url}).Health(context.Background()))
}
