// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gossip-ai/gossip/internal/config"
	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/relayclient"
	"github.com/gossip-ai/gossip/internal/session"
	"github.com/gossip-ai/gossip/internal/storage"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type stubRelay struct {
	mu        sync.Mutex
	answer    string
	askErr    error
	asked     []relayclient.AskRequest
	models    []model.ModelDescriptor
	modelsErr error
	healthy   bool
	cleared   []string
}

func (r *stubRelay) Ask(_ context.Context, req relayclient.AskRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asked = append(r.asked, req)
	return r.answer, r.askErr
}

func (r *stubRelay) ListModels(context.Context) ([]model.ModelDescriptor, error) {
	return r.models, r.modelsErr
}

func (r *stubRelay) ClearHistory(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, sessionID)
	return nil
}

func (r *stubRelay) Health(context.Context) bool {
	return r.healthy
}

type testEnv struct {
	*Env
	relay   *stubRelay
	servers []string
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	te := &testEnv{
		relay:  &stubRelay{answer: "**hello** there", healthy: true},
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
	te.Env = &Env{
		Config:     config.Default(),
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Stdin:      strings.NewReader(""),
		Stdout:     te.out,
		Stderr:     te.errOut,
		Store:      storage.NewMemoryStore(),
		NewRelay: func(addr string) session.Relay {
			te.servers = append(te.servers, addr)
			return te.relay
		},
	}
	return te
}

// =============================================================================
// SESSION TESTS (env.go)
// =============================================================================

func TestSession_FirstRunUsesClientServer(t *testing.T) {
	te := newTestEnv(t)
	te.Config.Client.Server = "http://10.0.0.9:3000"

	mgr, err := te.Session(Args{})
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.9:3000", mgr.Config().ServerAddress)

	again, err := te.Session(Args{})
	require.NoError(t, err)
	assert.Same(t, mgr, again)
}

func TestSession_StoredServerWins(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, te.Store.Set(storage.KeyServerIP, "http://192.168.0.101:3000"))
	te.Config.Client.Server = "http://10.0.0.9:3000"

	mgr, err := te.Session(Args{})
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.0.101:3000", mgr.Config().ServerAddress)
}

func TestSession_FlagsAreSaved(t *testing.T) {
	te := newTestEnv(t)

	mgr, err := te.Session(Args{Server: "10.0.0.5:3000", Model: "llama3:8b"})
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:3000", mgr.Config().ServerAddress)
	assert.Equal(t, "llama3:8b", mgr.Config().ModelName)
	require.NotEmpty(t, te.servers)
	assert.Equal(t, "http://10.0.0.5:3000", te.servers[len(te.servers)-1])

	stored, err := te.Store.Get(storage.KeyModelName)
	require.NoError(t, err)
	assert.Equal(t, "llama3:8b", stored)
}

// =============================================================================
// SERVE TESTS (serve.go)
// =============================================================================

func TestServe_WarnsWhenRuntimeDown(t *testing.T) {
	runtime := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	runtime.Close()

	te := newTestEnv(t)
	core, logs := observer.New(zapcore.WarnLevel)
	te.Logger = zap.New(core)
	te.Config.Runtime.URL = runtime.URL

	srv, err := NewRelay(te.Config, te.Logger)
	require.NoError(t, err)
	warnIfRuntimeDown(context.Background(), te.Env, Args{}, srv)

	entries := logs.FilterMessage("model runtime unreachable").All()
	require.Len(t, entries, 1)
	assert.Equal(t, runtime.URL, entries[0].ContextMap()["url"])
	assert.Contains(t, te.errOut.String(), "is not answering")
}

func TestServe_QuietWhenRuntimeUp(t *testing.T) {
	runtime := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	}))
	defer runtime.Close()

	te := newTestEnv(t)
	core, logs := observer.New(zapcore.WarnLevel)
	te.Logger = zap.New(core)
	te.Config.Runtime.URL = runtime.URL

	srv, err := NewRelay(te.Config, te.Logger)
	require.NoError(t, err)
	warnIfRuntimeDown(context.Background(), te.Env, Args{}, srv)

	assert.Zero(t, logs.Len())
	assert.Empty(t, te.errOut.String())
}

// =============================================================================
// ASK TESTS (ask.go)
// =============================================================================

func TestAsk_PrintsPlainAnswer(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, HandleAsk(context.Background(), te.Env, Args{Positional: []string{"say", "hi"}}))
	assert.Equal(t, "**hello** there\n", te.out.String(), "no markdown rendering off a terminal")

	require.Len(t, te.relay.asked, 1)
	assert.Equal(t, "say hi", te.relay.asked[0].Question)

	mgr, _ := te.Session(Args{})
	assert.Len(t, mgr.Messages(), 2, "the exchange joins the stored conversation")
}

func TestAsk_AppendsStdin(t *testing.T) {
	te := newTestEnv(t)
	te.Stdin = strings.NewReader("line one\nline two\n")

	require.NoError(t, HandleAsk(context.Background(), te.Env, Args{Positional: []string{"Summarize:"}}))
	require.Len(t, te.relay.asked, 1)
	assert.Equal(t, "Summarize:\n\nline one\nline two", te.relay.asked[0].Question)
}

func TestAsk_PipedInputTooLarge(t *testing.T) {
	te := newTestEnv(t)
	te.Stdin = strings.NewReader(strings.Repeat("x", 300*1024) + "TAIL")

	err := HandleAsk(context.Background(), te.Env, Args{Positional: []string{"Summarize:"}})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, err.Error(), "piped input exceeds 256 KiB")
	assert.Empty(t, te.relay.asked, "nothing is sent when the input was cut")
}

func TestAsk_PipedInputAtLimit(t *testing.T) {
	te := newTestEnv(t)
	te.Stdin = strings.NewReader(strings.Repeat("x", maxStdinQuestion))

	require.NoError(t, HandleAsk(context.Background(), te.Env, Args{}))
	require.Len(t, te.relay.asked, 1)
	assert.Len(t, te.relay.asked[0].Question, maxStdinQuestion)
}

func TestAsk_MissingQuestion(t *testing.T) {
	te := newTestEnv(t)
	err := HandleAsk(context.Background(), te.Env, Args{})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Empty(t, te.relay.asked)
}

func TestAsk_JSON(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, HandleAsk(context.Background(), te.Env, Args{Positional: []string{"hi"}, JSON: true}))

	var resp struct {
		Success bool      `json:"success"`
		Data    AskResult `json:"data"`
		Command string    `json:"command"`
	}
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ask", resp.Command)
	assert.Equal(t, "hi", resp.Data.Question)
	assert.Equal(t, "**hello** there", resp.Data.Answer)
	assert.Equal(t, model.DefaultModelName, resp.Data.Model)
	assert.NotEmpty(t, resp.Data.SessionID)
}

func TestAsk_RelayFailure(t *testing.T) {
	te := newTestEnv(t)
	te.relay.askErr = errors.New("connection refused")

	err := HandleAsk(context.Background(), te.Env, Args{Positional: []string{"hi"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, te.relay.askErr)

	mgr, _ := te.Session(Args{})
	msgs := mgr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, session.ApologyText, msgs[1].Content)
}

// =============================================================================
// RELAY TESTS (relay.go)
// =============================================================================

func TestModels(t *testing.T) {
	te := newTestEnv(t)
	te.relay.models = []model.ModelDescriptor{
		{Name: model.DefaultModelName, Size: 637700138},
		{Name: "llama3:8b", Size: 4661224676},
	}

	require.NoError(t, HandleModels(context.Background(), te.Env, Args{}))
	out := te.out.String()
	assert.Contains(t, out, "* "+model.DefaultModelName)
	assert.Contains(t, out, "608 MB")
	assert.Contains(t, out, "4.3 GB")
}

func TestModels_Failure(t *testing.T) {
	te := newTestEnv(t)
	te.relay.modelsErr = relayclient.ErrTimeout

	err := HandleModels(context.Background(), te.Env, Args{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Connection timed out")
	assert.Equal(t, ExitNetworkError, GetExitCode(err))
}

func TestHealth(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, HandleHealth(context.Background(), te.Env, Args{}))
	assert.Contains(t, te.out.String(), "Connected to server")

	down := newTestEnv(t)
	down.relay.healthy = false
	err := HandleHealth(context.Background(), down.Env, Args{})
	assert.ErrorIs(t, err, ErrRelayUnreachable)
	assert.Equal(t, ExitNetworkError, GetExitCode(err))
	assert.Contains(t, down.out.String(), "Server disconnected")
}

// =============================================================================
// HISTORY TESTS (history.go)
// =============================================================================

func seedConversation(t *testing.T, te *testEnv) *session.Manager {
	t.Helper()
	mgr, err := te.Session(Args{})
	require.NoError(t, err)
	_, err = mgr.SubmitQuestion(context.Background(), "first question")
	require.NoError(t, err)
	_, err = mgr.SubmitQuestion(context.Background(), "second question")
	require.NoError(t, err)
	return mgr
}

func TestHistory_Show(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, HandleHistory(context.Background(), te.Env, Args{}))
	assert.Contains(t, te.out.String(), "No conversation yet")

	seedConversation(t, te)
	te.out.Reset()
	require.NoError(t, HandleHistory(context.Background(), te.Env, Args{Subcommand: "show", Limit: 2}))
	out := te.out.String()
	assert.NotContains(t, out, "first question")
	assert.Contains(t, out, "second question")
	assert.Contains(t, out, "Assistant")
}

func TestHistory_Clear(t *testing.T) {
	te := newTestEnv(t)
	mgr := seedConversation(t, te)

	require.NoError(t, HandleHistory(context.Background(), te.Env, Args{Subcommand: "clear"}))
	assert.Empty(t, mgr.Messages())
	assert.Equal(t, []string{mgr.Config().SessionID}, te.relay.cleared)
	assert.Contains(t, te.out.String(), "Cleared 4 messages")
}

func TestHistory_ExportMarkdownFile(t *testing.T) {
	te := newTestEnv(t)
	mgr := seedConversation(t, te)
	require.NoError(t, mgr.SavePersona(model.Persona{Name: "Ada", Role: "A mathematician."}))

	path := filepath.Join(t.TempDir(), "chat.md")
	require.NoError(t, HandleHistory(context.Background(), te.Env, Args{Subcommand: "export", Output: path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(data)
	assert.True(t, strings.HasPrefix(doc, "# Gossip AI conversation"))
	assert.Contains(t, doc, "- Persona: Ada")
	assert.Contains(t, doc, "## You (")
	assert.Contains(t, doc, "## Ada (")
	assert.Contains(t, te.errOut.String(), "Exported 4 messages")
}

func TestHistory_ExportJSON(t *testing.T) {
	te := newTestEnv(t)
	seedConversation(t, te)

	require.NoError(t, HandleHistory(context.Background(), te.Env, Args{Subcommand: "export", Format: "json"}))
	var msgs []model.Message
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &msgs))
	require.Len(t, msgs, 4)
	assert.Equal(t, "first question", msgs[0].Content)
}

func TestHistory_BadInput(t *testing.T) {
	te := newTestEnv(t)
	assert.Equal(t, ExitUsageError, GetExitCode(HandleHistory(context.Background(), te.Env, Args{Subcommand: "rewind"})))
	assert.Equal(t, ExitUsageError, GetExitCode(HandleHistory(context.Background(), te.Env, Args{Subcommand: "export", Format: "pdf"})))
}

// =============================================================================
// CONFIG TESTS (config.go)
// =============================================================================

func TestConfig_SetWritesFile(t *testing.T) {
	te := newTestEnv(t)

	args := Args{Subcommand: "set", Positional: []string{"set", "relay.default_model", "llama3:8b"}}
	require.NoError(t, HandleConfig(te.Env, args))
	assert.Equal(t, "llama3:8b", te.Config.Relay.DefaultModel)

	loaded, err := config.Load(te.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "llama3:8b", loaded.Relay.DefaultModel)
	assert.Equal(t, model.DefaultRelayPort, loaded.Relay.Port)
}

func TestConfig_SetRejectsInvalid(t *testing.T) {
	te := newTestEnv(t)

	err := HandleConfig(te.Env, Args{Subcommand: "set", Positional: []string{"set", "relay.port", "99999"}})
	assert.Equal(t, ExitConfigError, GetExitCode(err))
	_, statErr := os.Stat(te.ConfigPath)
	assert.True(t, os.IsNotExist(statErr), "nothing is written for an invalid value")

	err = HandleConfig(te.Env, Args{Subcommand: "set", Positional: []string{"set", "relay.nope", "1"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestConfig_Get(t *testing.T) {
	te := newTestEnv(t)
	te.Config.Runtime.APIKey = "sk-1234567890abcdef"

	require.NoError(t, HandleConfig(te.Env, Args{Subcommand: "get", Positional: []string{"get", "relay.port"}}))
	require.NoError(t, HandleConfig(te.Env, Args{Subcommand: "get", Positional: []string{"get", "client.models_timeout"}}))
	require.NoError(t, HandleConfig(te.Env, Args{Subcommand: "get", Positional: []string{"get", "runtime.api_key"}}))
	assert.Equal(t, "3000\n5s\nsk-1...cdef\n", te.out.String())
}

func TestConfig_ShowMasksKey(t *testing.T) {
	te := newTestEnv(t)
	te.Config.Runtime.APIKey = "sk-1234567890abcdef"

	require.NoError(t, HandleConfig(te.Env, Args{}))
	out := te.out.String()
	assert.Contains(t, out, "[relay]")
	assert.Contains(t, out, "sk-1...cdef")
	assert.NotContains(t, out, "567890")
	assert.Equal(t, "sk-1234567890abcdef", te.Config.Runtime.APIKey, "the live config is untouched")
}

func TestConfig_IPs(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, HandleConfig(te.Env, Args{Subcommand: "ips", JSON: true}))

	var resp struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &resp))
	assert.Equal(t, model.CommonRelayAddresses(), resp.Data)
}

// =============================================================================
// REPL TESTS (repl.go)
// =============================================================================

type scriptedInput struct {
	lines []string
}

func (s *scriptedInput) ReadInput(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedInput) Close() {}

func TestRepl_Conversation(t *testing.T) {
	te := newTestEnv(t)
	mgr, err := te.Session(Args{})
	require.NoError(t, err)

	in := &scriptedInput{lines: []string{"/model llama3:8b", "", "hello", "/bogus", "/history", "/quit", "never read"}}
	require.NoError(t, (&Repl{env: te.Env, mgr: mgr, in: in}).Run(context.Background()))

	out := te.out.String()
	assert.Contains(t, out, "Model set to llama3:8b")
	assert.Contains(t, out, "**hello** there")
	assert.Contains(t, te.errOut.String(), "unknown command /bogus")
	assert.Equal(t, []string{"never read"}, in.lines)

	require.Len(t, te.relay.asked, 1)
	assert.Equal(t, "llama3:8b", te.relay.asked[0].Model)
}

func TestRepl_EOFEnds(t *testing.T) {
	te := newTestEnv(t)
	te.relay.healthy = false
	mgr, err := te.Session(Args{})
	require.NoError(t, err)

	require.NoError(t, (&Repl{env: te.Env, mgr: mgr, in: &scriptedInput{}}).Run(context.Background()))
	assert.Contains(t, te.out.String(), "not answering")
}
