// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gossip-ai/gossip/internal/model"
)

// CorruptError reports a stored value that could not be decoded.
type CorruptError struct {
	Key   string
	Cause error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("stored %s is corrupt: %v", e.Key, e.Cause)
}

func (e *CorruptError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// TRANSCRIPT REPOSITORY
// =============================================================================

// TranscriptRepository persists the ordered message list.
type TranscriptRepository struct {
	store Store
}

// NewTranscriptRepository creates a repository over store.
func NewTranscriptRepository(store Store) *TranscriptRepository {
	return &TranscriptRepository{store: store}
}

// Load returns the stored transcript, or an empty one if nothing is stored.
func (r *TranscriptRepository) Load() ([]model.Message, error) {
	raw, err := r.store.Get(KeyChatMessages)
	if errors.Is(err, ErrNotFound) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, err
	}

	var msgs []model.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, &CorruptError{Key: KeyChatMessages, Cause: err}
	}
	for i, m := range msgs {
		if !m.Role.Valid() {
			return nil, &CorruptError{Key: KeyChatMessages, Cause: fmt.Errorf("message %d has role %q", i, m.Role)}
		}
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// Save replaces the stored transcript.
func (r *TranscriptRepository) Save(msgs []model.Message) error {
	if msgs == nil {
		msgs = []model.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return r.store.Set(KeyChatMessages, string(data))
}

// Clear removes the transcript key.
func (r *TranscriptRepository) Clear() error {
	return r.store.Delete(KeyChatMessages)
}

// =============================================================================
// CONFIG REPOSITORY
// =============================================================================

// ConfigRepository persists the session configuration across several keys.
type ConfigRepository struct {
	store Store
}

// NewConfigRepository creates a repository over store.
func NewConfigRepository(store Store) *ConfigRepository {
	return &ConfigRepository{store: store}
}

// Load assembles the session configuration, starting from defaults for any
// key that is absent. Corrupt values also fall back to defaults; the
// returned error lists them while the config stays usable. A session ID is
// generated and stored the first time.
func (r *ConfigRepository) Load() (model.SessionConfig, error) {
	cfg := model.DefaultSessionConfig()
	var errs []error

	if v, err := r.get(KeyServerIP); err != nil {
		errs = append(errs, err)
	} else if v != "" {
		cfg.ServerAddress = v
	}

	if v, err := r.get(KeyModelName); err != nil {
		errs = append(errs, err)
	} else if v != "" {
		cfg.ModelName = v
	}

	if v, err := r.get(KeyAIPersonality); err != nil {
		errs = append(errs, err)
	} else if v != "" {
		var p model.Persona
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			errs = append(errs, &CorruptError{Key: KeyAIPersonality, Cause: err})
		} else {
			cfg.Persona = p
		}
	}

	if v, err := r.get(KeyModelParams); err != nil {
		errs = append(errs, err)
	} else if v != "" {
		var p model.ParamSet
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			errs = append(errs, &CorruptError{Key: KeyModelParams, Cause: err})
		} else if err := p.Validate(); err != nil {
			errs = append(errs, &CorruptError{Key: KeyModelParams, Cause: err})
		} else {
			cfg.Params = p
		}
	}

	if v, err := r.get(KeyChatSessionID); err != nil {
		errs = append(errs, err)
	} else if v != "" {
		cfg.SessionID = v
	} else if err := r.store.Set(KeyChatSessionID, cfg.SessionID); err != nil {
		errs = append(errs, err)
	}

	return cfg, errors.Join(errs...)
}

// Save writes every field of cfg.
func (r *ConfigRepository) Save(cfg model.SessionConfig) error {
	persona, err := json.Marshal(cfg.Persona)
	if err != nil {
		return err
	}
	params, err := json.Marshal(cfg.Params)
	if err != nil {
		return err
	}

	pairs := []struct{ key, value string }{
		{KeyServerIP, cfg.ServerAddress},
		{KeyModelName, cfg.ModelName},
		{KeyAIPersonality, string(persona)},
		{KeyModelParams, string(params)},
		{KeyChatSessionID, cfg.SessionID},
	}
	for _, p := range pairs {
		if err := r.store.Set(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}

// get returns "" for a missing key.
func (r *ConfigRepository) get(key string) (string, error) {
	v, err := r.store.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
