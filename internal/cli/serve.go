// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Relay command.
//
// Command: serve
//
// Examples:
//   gossip serve
//   GOSSIP_PORT=8080 gossip serve
//   OLLAMA_HOST=10.0.0.7 gossip serve --model llama3:8b
//
// Runs until SIGINT/SIGTERM, then drains in-flight requests. Edits to
// relay.default_model in the config file apply without a restart.

package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gossip-ai/gossip/internal/backend"
	"github.com/gossip-ai/gossip/internal/config"
	"github.com/gossip-ai/gossip/internal/server"
)

// NewRelay builds the relay server described by cfg.
func NewRelay(cfg *config.Config, logger *zap.Logger) (*server.Server, error) {
	b, err := backend.New(backend.Config{
		Kind:         cfg.Runtime.Kind,
		BaseURL:      cfg.Runtime.URL,
		APIKey:       cfg.Runtime.APIKey,
		DefaultModel: cfg.Relay.DefaultModel,
		Timeout:      cfg.Runtime.Timeout.Duration,
		Logger:       logger,
	})
	if err != nil {
		return nil, config.ValidationError{Field: "runtime", Message: err.Error()}
	}

	return server.New(b, server.Options{
		Host:            cfg.Relay.Host,
		Port:            cfg.Relay.Port,
		DefaultModel:    cfg.Relay.DefaultModel,
		CORSOrigins:     cfg.Relay.CORSOrigins,
		ShutdownTimeout: cfg.Relay.ShutdownTimeout.Duration,
	}, logger), nil
}

// runtimeCheckTimeout bounds the start-up reachability check.
const runtimeCheckTimeout = 3 * time.Second

// HandleServe runs the relay until ctx is cancelled.
func HandleServe(ctx context.Context, env *Env, args Args) error {
	if args.Model != "" {
		env.Config.Relay.DefaultModel = args.Model
	}

	srv, err := NewRelay(env.Config, env.Logger)
	if err != nil {
		return err
	}

	watcher, err := config.NewWatcher(env.ConfigPath, func(next *config.Config) {
		if args.Model != "" {
			return
		}
		if next.Relay.DefaultModel != srv.DefaultModel() {
			env.Logger.Info("default model changed",
				zap.String("from", srv.DefaultModel()),
				zap.String("to", next.Relay.DefaultModel),
			)
			srv.SetDefaultModel(next.Relay.DefaultModel)
		}
	}, env.Logger)
	if err != nil {
		// Serving without hot reload is fine, e.g. when the config directory
		// does not exist yet.
		env.Logger.Warn("config watch disabled", zap.String("path", env.ConfigPath), zap.Error(err))
	} else {
		defer watcher.Close()
		go watcher.Run(ctx)
	}

	if !args.JSON {
		fmt.Fprintf(env.Stderr, "%s relay on http://%s using %s at %s\n",
			TitleStyle.Render("gossip"), srv.Addr(), env.Config.Runtime.Kind, env.Config.Runtime.URL)
	}
	warnIfRuntimeDown(ctx, env, args, srv)

	if err := srv.Run(ctx); err != nil {
		return err
	}

	snap := srv.Stats().Snapshot()
	if !args.JSON {
		fmt.Fprintf(env.Stderr, "%s %d requests, %d chats, %d failed\n",
			DimStyle.Render("served"), snap.TotalRequests, snap.ChatRequests, snap.ChatFailures)
	}
	return nil
}

// warnIfRuntimeDown checks the runtime once before serving. The relay still
// starts; requests fail until the runtime comes up.
func warnIfRuntimeDown(ctx context.Context, env *Env, args Args, srv *server.Server) {
	checkCtx, cancel := context.WithTimeout(ctx, runtimeCheckTimeout)
	defer cancel()

	err := srv.CheckRuntime(checkCtx)
	if err == nil {
		return
	}
	env.Logger.Warn("model runtime unreachable",
		zap.String("runtime", env.Config.Runtime.Kind),
		zap.String("url", env.Config.Runtime.URL),
		zap.Error(err),
	)
	if !args.JSON {
		fmt.Fprintf(env.Stderr, "%s %s runtime at %s is not answering: %v\n",
			WarningStyle.Render("warning:"), env.Config.Runtime.Kind, env.Config.Runtime.URL, err)
	}
}
