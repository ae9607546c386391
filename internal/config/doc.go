// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config handles gossip configuration loading, saving, and validation.
//
// Configuration is read from ~/.gossip/config.toml (GOSSIP_HOME moves the
// directory), then overridden by environment variables, optionally loaded
// from a .env file in the working directory.
//
// # Sections
//
//   - relay: listen address, default model, CORS origins
//   - runtime: which model runtime the relay forwards to
//   - client: relay address, local database, client-side timers
//   - logging: zap level, format, and optional file
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.RelayAddr())
//
// The configuration is passed explicitly to the components that need it;
// there is no package-level singleton. Watcher reloads the file so a
// running relay can pick up a new default model.
package config
