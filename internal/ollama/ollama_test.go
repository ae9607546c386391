// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		msg  Message
		role string
	}{
		{NewUserMessage("Hello"), "user"},
		{NewAssistantMessage("Response"), "assistant"},
		{NewSystemMessage("You are terse"), "system"},
	}
	for _, tc := range tests {
		if tc.msg.Role != tc.role {
			t.Errorf("Role = %q, want %q", tc.msg.Role, tc.role)
		}
	}
}

// =============================================================================
// CLIENT CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{BaseURL: "http://example:11434/"})

	if c.BaseURL() != "http://example:11434" {
		t.Errorf("BaseURL() = %q, want trailing slash trimmed", c.BaseURL())
	}
	if c.DefaultModel() != DefaultModel {
		t.Errorf("DefaultModel() = %q, want %q", c.DefaultModel(), DefaultModel)
	}
	if c.httpClient.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0 (no timeout)", c.httpClient.Timeout)
	}
}

// =============================================================================
// MODEL LIST TESTS
// =============================================================================

func TestListModelsRaw_Passthrough(t *testing.T) {
	const doc = `{"models":[{"name":"tinyllama:latest","size":637700138,"extra":"kept"}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		w.Write([]byte(doc))
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	raw, err := c.ListModelsRaw(context.Background())
	if err != nil {
		t.Fatalf("ListModelsRaw() error = %v", err)
	}
	if string(raw) != doc {
		t.Errorf("ListModelsRaw() = %s, want %s", raw, doc)
	}
}

func TestListModels_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := c.ListModelsRaw(context.Background())
	if !IsNotRunning(err) {
		t.Errorf("ListModelsRaw() error = %v, want not running", err)
	}
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChat_SendsRequest(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Errorf("got %s %s, want POST /api/chat", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Model:   got.Model,
			Message: NewAssistantMessage("Hi"),
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	resp, err := c.Chat(context.Background(), ChatRequest{
		Messages: []Message{NewUserMessage("Hello")},
		Stream:   true,
		Options:  &Options{Temperature: 0.85, Mirostat: 0},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Message.Content != "Hi" {
		t.Errorf("Content = %q, want %q", resp.Message.Content, "Hi")
	}
	if got.Model != DefaultModel {
		t.Errorf("Model = %q, want default %q", got.Model, DefaultModel)
	}
	if got.Stream {
		t.Error("Stream = true, want false")
	}
	if got.Options == nil || got.Options.Temperature != 0.85 {
		t.Errorf("Options = %+v, want temperature forwarded", got.Options)
	}
}

func TestChat_OptionsKeepZeroKnobs(t *testing.T) {
	data, err := json.Marshal(Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"mirostat", "presence_penalty", "mirostat_tau"} {
		if !strings.Contains(string(data), `"`+key+`":0`) {
			t.Errorf("Options JSON %s missing %q", data, key)
		}
	}
	if strings.Contains(string(data), "num_ctx") {
		t.Errorf("Options JSON %s should omit num_ctx", data)
	}
}

func TestChat_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	_, err := c.Chat(context.Background(), ChatRequest{Model: "nope", Messages: []Message{NewUserMessage("x")}})
	if !IsModelNotFound(err) {
		t.Fatalf("Chat() error = %v, want model not found", err)
	}
	if !strings.Contains(err.Error(), "model 'nope' not found") {
		t.Errorf("error = %q, want runtime message", err.Error())
	}
}

func TestChat_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Chat(context.Background(), ChatRequest{Messages: []Message{NewUserMessage("x")}})
	if !IsTimeout(err) {
		t.Errorf("Chat() error = %v, want timeout", err)
	}
}

func TestChat_ServerErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	_, err := c.Chat(context.Background(), ChatRequest{Messages: []Message{NewUserMessage("x")}})

	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %T, want *ClientError", err)
	}
	if ce.Type != ErrTypeInvalidResponse {
		t.Errorf("Type = %v, want %v", ce.Type, ErrTypeInvalidResponse)
	}
}

func TestCheckRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	if err := c.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning() error = %v", err)
	}
}

func TestChatResponse_TokensPerSecond(t *testing.T) {
	r := &ChatResponse{EvalCount: 50, EvalDuration: int64(2 * time.Second)}
	if got := r.TokensPerSecond(); got != 25 {
		t.Errorf("TokensPerSecond() = %v, want 25", got)
	}
	if got := (&ChatResponse{}).TokensPerSecond(); got != 0 {
		t.Errorf("TokensPerSecond() = %v, want 0", got)
	}
}
