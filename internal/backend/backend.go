// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend adapts model runtimes to the two operations the relay
// needs: listing models and answering a single question.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/ollama"
)

// Kinds of runtime a Backend can talk to.
const (
	KindOllama = "ollama"
	KindOpenAI = "openai"
)

// ChatCall is one stateless question for the runtime.
type ChatCall struct {
	Model     string
	Question  string
	Persona   model.Persona
	Params    *model.ParamSet
	SessionID string
}

// Messages builds the message list sent to the runtime: an optional system
// message from the persona followed by exactly one user message.
func (c ChatCall) Messages() []ollama.Message {
	msgs := make([]ollama.Message, 0, 2)
	if prompt := c.Persona.SystemPrompt(); prompt != "" {
		msgs = append(msgs, ollama.NewSystemMessage(prompt))
	}
	return append(msgs, ollama.NewUserMessage(c.Question))
}

// Backend is a model runtime as seen by the relay.
type Backend interface {
	// Name identifies the runtime kind in logs.
	Name() string

	// ListModels returns a JSON document shaped like {"models":[{name,size,...}]}.
	ListModels(ctx context.Context) ([]byte, error)

	// Chat blocks until the full completion text is available.
	Chat(ctx context.Context, call ChatCall) (string, error)
}

// Pinger is implemented by backends that can tell whether the runtime is up
// without running a completion.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config selects and configures a runtime.
type Config struct {
	Kind         string
	BaseURL      string
	APIKey       string
	DefaultModel string
	Timeout      time.Duration // zero means no timeout
	Logger       *zap.Logger
}

// New builds the backend named by cfg.Kind.
func New(cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", KindOllama:
		return NewOllama(ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.BaseURL,
			Timeout:      cfg.Timeout,
			DefaultModel: cfg.DefaultModel,
		}), cfg.Logger), nil
	case KindOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown runtime %q (want %s or %s)", cfg.Kind, KindOllama, KindOpenAI)
	}
}
