// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama API.
//
// The relay only needs two runtime operations: listing installed models and
// a single non-streaming chat completion. Errors are returned as
// *ClientError values carrying an ErrorType so callers can tell an
// unreachable runtime from a missing model.
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL:      "http://127.0.0.1:11434",
//	    DefaultModel: "tinyllama:latest",
//	})
//	resp, err := client.Chat(ctx, ollama.ChatRequest{
//	    Messages: []ollama.Message{ollama.NewUserMessage("Hello")},
//	})
//
// ListModelsRaw returns the /api/tags document untouched so it can be
// passed through to HTTP clients as-is.
package ollama
