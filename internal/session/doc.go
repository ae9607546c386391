// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the client's conversation state: the transcript,
// the session configuration and the in-flight flag.
//
// A Manager is shared by every front-end. It persists through the storage
// repositories after each mutation and talks to the relay through a
// Relay built for the configured server address.
//
// # Usage
//
//	mgr, err := session.NewManager(session.Options{
//		Transcripts: storage.NewTranscriptRepository(store),
//		Configs:     storage.NewConfigRepository(store),
//		Logger:      logger,
//	})
//	reply, err := mgr.SubmitQuestion(ctx, "What is a goroutine?")
package session
