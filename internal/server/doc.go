// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the Gossip relay: a small HTTP service that
// forwards single questions from chat clients to a local model runtime.
//
// # Endpoints
//
//   - GET    /health            - Liveness, body "OK"
//   - GET    /api/models        - Runtime model list, passed through as-is
//   - GET    /api/chat          - Ask one question, plain-text answer
//   - DELETE /api/chat/history  - Acknowledge a client history clear
//   - POST   /api/clear         - Same as above, for older clients
//   - GET    /api/stats         - Request counters
//
// The relay keeps no conversation state. Every /api/chat call sends an
// optional persona system message and exactly one user message.
//
// # Usage
//
//	b, _ := backend.New(backend.Config{Kind: "ollama"})
//	srv := server.New(b, server.Options{Port: 3000}, logger)
//	if err := srv.Run(ctx); err != nil {
//		logger.Fatal("relay stopped", zap.Error(err))
//	}
package server
