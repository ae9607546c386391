// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the chat client's state between runs.
//
// A small key-value Store holds JSON and plain-string values under fixed
// keys. Three implementations exist:
//
//   - SQLiteStore: the default, a single-table SQLite database
//   - FileStore: one JSON document written atomically, for users who want
//     to read or hand-edit their state
//   - MemoryStore: for tests
//
// Typed repositories sit on top of a Store so the rest of the client never
// touches raw keys:
//
//	store, err := storage.Open("~/.gossip/gossip.db")
//	transcripts := storage.NewTranscriptRepository(store)
//	msgs, err := transcripts.Load()
package storage
