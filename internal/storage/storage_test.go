// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gossip-ai/gossip/internal/model"
)

// eachStore runs fn against every Store implementation.
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	openers := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			s, err := Open(filepath.Join(t.TempDir(), "gossip.db"))
			require.NoError(t, err)
			return s
		},
		"file": func(t *testing.T) Store {
			s, err := Open(filepath.Join(t.TempDir(), "gossip.json"))
			require.NoError(t, err)
			return s
		},
	}
	for name, open := range openers {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			fn(t, s)
		})
	}
}

// =============================================================================
// STORE TESTS
// =============================================================================

func TestStore_GetSetDelete(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		_, err := s.Get("missing")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.Set("k", "v1"))
		require.NoError(t, s.Set("k", "v2"))
		v, err := s.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v2", v)

		require.NoError(t, s.Delete("k"))
		_, err = s.Get("k")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, s.Delete("never-set"))
	})
}

func TestOpen_PicksImplementation(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(filepath.Join(dir, "state.JSON"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	s.Close()

	s, err = Open(filepath.Join(dir, "nested", "state.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	s.Close()
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gossip.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyModelName, "phi3"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(KeyModelName)
	require.NoError(t, err)
	assert.Equal(t, "phi3", v)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gossip.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyServerIP, "http://10.0.0.101:3000"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	s, err = NewFileStore(path)
	require.NoError(t, err)
	v, err := s.Get(KeyServerIP)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.101:3000", v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gossip.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

// =============================================================================
// TRANSCRIPT REPOSITORY TESTS
// =============================================================================

func TestTranscriptRepository_RoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		repo := NewTranscriptRepository(s)

		msgs, err := repo.Load()
		require.NoError(t, err)
		assert.Empty(t, msgs)
		assert.NotNil(t, msgs)

		reply := model.NewAssistantMessage("```go\nfmt.Println(1)\n```")
		reply.Latest = true
		want := []model.Message{
			model.NewUserMessage("first"),
			reply,
			model.NewUserMessage("second"),
		}
		require.NoError(t, repo.Save(want))

		got, err := repo.Load()
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.Equal(t, want[i].Role, got[i].Role)
			assert.Equal(t, want[i].Content, got[i].Content)
			assert.False(t, got[i].Latest, "rehydrated messages are never latest")
		}

		require.NoError(t, repo.Clear())
		got, err = repo.Load()
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestTranscriptRepository_Corrupt(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(KeyChatMessages, "[{"))

	_, err := NewTranscriptRepository(s).Load()
	var cerr *CorruptError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KeyChatMessages, cerr.Key)
}

func TestTranscriptRepository_UnknownRole(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(KeyChatMessages,
		`[{"id":1,"role":"user","content":"hi"},{"id":2,"role":"system","content":"x"}]`))

	_, err := NewTranscriptRepository(s).Load()
	var cerr *CorruptError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Error(), `message 1 has role "system"`)
}

// =============================================================================
// CONFIG REPOSITORY TESTS
// =============================================================================

func TestConfigRepository_FirstLoad(t *testing.T) {
	s := NewMemoryStore()
	repo := NewConfigRepository(s)

	cfg, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultServerAddress, cfg.ServerAddress)
	assert.Equal(t, model.DefaultModelName, cfg.ModelName)
	assert.Equal(t, model.DefaultParams(), cfg.Params)
	assert.True(t, cfg.Persona.IsEmpty())
	require.NotEmpty(t, cfg.SessionID)

	stored, err := s.Get(KeyChatSessionID)
	require.NoError(t, err)
	assert.Equal(t, cfg.SessionID, stored, "generated session id is persisted")

	again, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.SessionID, again.SessionID)
}

func TestConfigRepository_RoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		repo := NewConfigRepository(s)

		cfg := model.DefaultSessionConfig()
		cfg.ServerAddress = "http://192.168.0.101:3000"
		cfg.ModelName = "llama3.1:8b"
		cfg.Persona = model.Persona{Name: "Ada", Role: "I am a coding mentor."}
		require.NoError(t, cfg.Params.Set("temperature", 1.2))
		require.NoError(t, repo.Save(cfg))

		got, err := repo.Load()
		require.NoError(t, err)
		assert.Equal(t, cfg, got)
	})
}

func TestConfigRepository_CorruptFieldsFallBack(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(KeyModelName, "phi3"))
	require.NoError(t, s.Set(KeyAIPersonality, "not json"))
	require.NoError(t, s.Set(KeyModelParams, `{"temperature": 9}`))

	cfg, err := NewConfigRepository(s).Load()
	require.Error(t, err)

	var cerr *CorruptError
	assert.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), KeyAIPersonality)
	assert.Contains(t, err.Error(), KeyModelParams)

	assert.Equal(t, "phi3", cfg.ModelName, "valid fields still load")
	assert.True(t, cfg.Persona.IsEmpty())
	assert.Equal(t, model.DefaultParams(), cfg.Params)
}

func TestConfigRepository_PartialParamsFilled(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(KeyModelParams, `{"top_k": 10}`))

	cfg, err := NewConfigRepository(s).Load()
	require.NoError(t, err)

	want := model.DefaultParams()
	want.TopK = 10
	assert.Equal(t, want, cfg.Params)
}
