// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultOpenAIBaseURL points at Ollama's OpenAI-compatible endpoint.
const DefaultOpenAIBaseURL = "http://localhost:11434/v1"

// OpenAI talks to any OpenAI-compatible runtime through langchaingo.
type OpenAI struct {
	llm          llms.Model
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	defaultModel string
}

// NewOpenAI creates an OpenAI-compatible backend. Local runtimes ignore the
// key, but the client library insists on one.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	token := cfg.APIKey
	if token == "" {
		token = "ollama"
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(cfg.DefaultModel),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}

	return &OpenAI{
		llm:          llm,
		httpClient:   httpClient,
		baseURL:      baseURL,
		apiKey:       token,
		defaultModel: cfg.DefaultModel,
	}, nil
}

// Name implements Backend.
func (o *OpenAI) Name() string { return KindOpenAI }

// Ping implements Pinger. OpenAI-compatible servers have no health route,
// so a model listing stands in for one.
func (o *OpenAI) Ping(ctx context.Context) error {
	_, err := o.ListModels(ctx)
	return err
}

// Chat implements Backend.
func (o *OpenAI) Chat(ctx context.Context, call ChatCall) (string, error) {
	var content []llms.MessageContent
	for _, m := range call.Messages() {
		role := llms.ChatMessageTypeHuman
		if m.Role == "system" {
			role = llms.ChatMessageTypeSystem
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	modelName := call.Model
	if modelName == "" {
		modelName = o.defaultModel
	}
	opts := []llms.CallOption{llms.WithModel(modelName)}
	if p := call.Params; p != nil {
		opts = append(opts,
			llms.WithTemperature(p.Temperature),
			llms.WithTopK(int(p.TopK)),
			llms.WithTopP(p.TopP),
			llms.WithRepetitionPenalty(p.RepeatPenalty),
			llms.WithPresencePenalty(p.PresencePenalty),
			llms.WithFrequencyPenalty(p.FrequencyPenalty),
		)
	}

	resp, err := o.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("runtime returned no choices")
	}
	return resp.Choices[0].Content, nil
}

type openAIModelList struct {
	Data []struct {
		ID      string `json:"id"`
		OwnedBy string `json:"owned_by"`
		Created int64  `json:"created"`
	} `json:"data"`
}

type listedModel struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ListModels implements Backend. The /models listing is reshaped into the
// {"models":[{name,size}]} document clients expect; sizes are unknown.
func (o *OpenAI) ListModels(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("failed to list models: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var list openAIModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}

	out := struct {
		Models []listedModel `json:"models"`
	}{Models: make([]listedModel, 0, len(list.Data))}
	for _, m := range list.Data {
		out.Models = append(out.Models, listedModel{Name: m.ID, OwnedBy: m.OwnedBy})
	}
	return json.Marshal(out)
}
