// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"path/filepath"
	"strings"
)

// Keys under which client state is stored.
const (
	KeyChatMessages  = "chatMessages"
	KeyServerIP      = "serverIP"
	KeyModelName     = "modelName"
	KeyChatSessionID = "chatSessionId"
	KeyAIPersonality = "aiPersonality"
	KeyModelParams   = "modelParams"
)

// ErrNotFound is returned by Get for a key that was never set or was deleted.
var ErrNotFound = errors.New("key not found")

// Store is a string key-value store.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Open picks a store implementation from the path: ".json" files use
// FileStore, anything else is a SQLite database.
func Open(path string) (Store, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewFileStore(path)
	}
	return OpenSQLite(path)
}
