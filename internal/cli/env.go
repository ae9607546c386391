// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/gossip-ai/gossip/internal/config"
	"github.com/gossip-ai/gossip/internal/session"
	"github.com/gossip-ai/gossip/internal/storage"
)

// =============================================================================
// COMMAND ENVIRONMENT
// =============================================================================

// Env is what a command handler runs against. Zero fields pick the real
// process defaults; tests substitute buffers, a memory store and a stub relay.
type Env struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// TTY enables markdown rendering and colors on Stdout.
	TTY bool

	// Store defaults to storage.Open(Config.Client.Database).
	Store storage.Store

	// NewRelay defaults to an HTTP relay bounded by client.models_timeout.
	NewRelay session.RelayFactory

	mgr       *session.Manager
	ownsStore bool
}

// NewEnv returns an Env on the process's standard streams.
func NewEnv(cfg *config.Config, configPath string, logger *zap.Logger) *Env {
	return &Env{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		TTY:        IsStdoutTTY() && ColorsEnabled(),
	}
}

// Session opens the local store and the session manager on first use.
// Server and model overrides from args are saved like the chat's /server
// and /model commands. A store that has never recorded a relay address
// starts from client.server.
func (e *Env) Session(args Args) (*session.Manager, error) {
	if e.mgr != nil {
		return e.mgr, nil
	}
	if e.Logger == nil {
		e.Logger = zap.NewNop()
	}

	if e.Store == nil {
		store, err := storage.Open(e.Config.Client.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		e.Store = store
		e.ownsStore = true
	}

	newRelay := e.NewRelay
	if newRelay == nil {
		newRelay = session.HTTPRelay(e.Config.Client.ModelsTimeout.Duration)
	}

	mgr, err := session.NewManager(session.Options{
		Transcripts: storage.NewTranscriptRepository(e.Store),
		Configs:     storage.NewConfigRepository(e.Store),
		NewRelay:    newRelay,
		Logger:      e.Logger,
	})
	if err != nil {
		return nil, err
	}

	server := args.Server
	if server == "" {
		if _, err := e.Store.Get(storage.KeyServerIP); errors.Is(err, storage.ErrNotFound) {
			server = e.Config.Client.Server
		}
	}
	if server != "" {
		if err := mgr.SaveConfiguration(session.ConfigUpdate{ServerAddress: server}); err != nil {
			return nil, err
		}
	}
	if args.Model != "" {
		if err := mgr.SetModel(args.Model); err != nil {
			return nil, err
		}
	}

	e.mgr = mgr
	return mgr, nil
}

// Close releases the store if Session opened it.
func (e *Env) Close() error {
	if e.ownsStore && e.Store != nil {
		return e.Store.Close()
	}
	return nil
}
