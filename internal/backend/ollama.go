// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"

	"go.uber.org/zap"

	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/ollama"
)

// Ollama talks to the native Ollama API.
type Ollama struct {
	client *ollama.Client
	logger *zap.Logger
}

// NewOllama wraps an Ollama client. A nil logger discards output.
func NewOllama(client *ollama.Client, logger *zap.Logger) *Ollama {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ollama{client: client, logger: logger}
}

// Name implements Backend.
func (o *Ollama) Name() string { return KindOllama }

// ListModels implements Backend. The /api/tags document is returned untouched.
func (o *Ollama) ListModels(ctx context.Context) ([]byte, error) {
	return o.client.ListModelsRaw(ctx)
}

// Ping implements Pinger.
func (o *Ollama) Ping(ctx context.Context) error {
	return o.client.CheckRunning(ctx)
}

// Chat implements Backend.
func (o *Ollama) Chat(ctx context.Context, call ChatCall) (string, error) {
	req := ollama.ChatRequest{
		Model:    call.Model,
		Messages: call.Messages(),
	}
	if call.Params != nil {
		req.Options = OptionsFromParams(*call.Params)
	}

	resp, err := o.client.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	o.logger.Debug("completion finished",
		zap.String("model", resp.Model),
		zap.Int("eval_count", resp.EvalCount),
		zap.Float64("tokens_per_second", resp.TokensPerSecond()),
	)
	return resp.Message.Content, nil
}

// OptionsFromParams maps the knob set onto Ollama inference options.
func OptionsFromParams(p model.ParamSet) *ollama.Options {
	return &ollama.Options{
		Temperature:      p.Temperature,
		TopK:             int(p.TopK),
		TopP:             p.TopP,
		RepeatPenalty:    p.RepeatPenalty,
		PresencePenalty:  p.PresencePenalty,
		FrequencyPenalty: p.FrequencyPenalty,
		Mirostat:         int(p.Mirostat),
		MirostatTau:      p.MirostatTau,
		MirostatEta:      p.MirostatEta,
	}
}
