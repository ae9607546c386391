// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the gossip command line outside the full-screen
// chat.
//
// # Key Types
//
//   - Command: the top-level commands
//   - Args: the parsed command line with global and command flags
//   - Env: config, logger, streams and the lazily opened session
//   - JSONResponse: the --json output envelope
//
// # Usage
//
//	args, err := cli.Parse(os.Args[1:])
//	env := cli.NewEnv(cfg, path, logger)
//	defer env.Close()
//	switch args.Command {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, env, args)
//	// ... other commands
//	}
//
// # Commands
//
//   - serve: the HTTP relay in front of Ollama or an OpenAI-compatible runtime
//   - repl: line-based chat with input history
//   - ask: one question, answer on stdout
//   - models, health: relay inspection
//   - history: show, clear or export the stored conversation
//   - config: show, get, set, path, keys, ips
//
// Handlers return errors; the caller prints them with DisplayError and exits
// with GetExitCode.
package cli
