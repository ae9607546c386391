// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relayclient talks to a Gossip relay over HTTP.
package relayclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gossip-ai/gossip/internal/model"
)

// ============================================================================
// ERRORS
// ============================================================================

// ErrTimeout is returned when the models request exceeds its bound.
var ErrTimeout = errors.New("relay request timed out")

// StatusError is a non-2xx reply from the relay.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP error! status: %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// ============================================================================
// CLIENT
// ============================================================================

const (
	// DefaultModelsTimeout bounds model discovery.
	DefaultModelsTimeout = 5 * time.Second

	// DefaultHealthTimeout bounds the connection check.
	DefaultHealthTimeout = 3 * time.Second

	maxErrorBody = 4096
)

// Config configures a Client.
type Config struct {
	// BaseURL is the relay address, e.g. http://192.168.1.101:3000.
	BaseURL string

	// ModelsTimeout bounds ListModels. Zero uses DefaultModelsTimeout.
	ModelsTimeout time.Duration

	// HTTPClient overrides the transport. Ask has no client-side timeout
	// unless this client sets one.
	HTTPClient *http.Client
}

// Client calls the relay endpoints.
type Client struct {
	baseURL       string
	modelsTimeout time.Duration
	httpClient    *http.Client
}

// New creates a client for the relay at cfg.BaseURL.
func New(cfg Config) *Client {
	c := &Client{
		baseURL:       model.NormalizeServerAddress(cfg.BaseURL),
		modelsTimeout: cfg.ModelsTimeout,
		httpClient:    cfg.HTTPClient,
	}
	if c.modelsTimeout <= 0 {
		c.modelsTimeout = DefaultModelsTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c
}

// BaseURL returns the relay address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AskRequest is one question with its session context.
type AskRequest struct {
	Question  string
	Model     string
	SessionID string
	Persona   model.Persona
	Params    model.ParamSet
}

// Query encodes r as /api/chat query parameters.
func (r AskRequest) Query() (url.Values, error) {
	persona, err := json.Marshal(r.Persona)
	if err != nil {
		return nil, err
	}
	params, err := json.Marshal(r.Params)
	if err != nil {
		return nil, err
	}

	v := url.Values{}
	v.Set("question", r.Question)
	if r.Model != "" {
		v.Set("model", r.Model)
	}
	if r.SessionID != "" {
		v.Set("sessionId", r.SessionID)
	}
	v.Set("personality", string(persona))
	v.Set("params", string(params))
	return v, nil
}

// Ask sends one question and returns the plain-text answer.
func (c *Client) Ask(ctx context.Context, req AskRequest) (string, error) {
	query, err := req.Query()
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.get(ctx, "/api/chat?"+query.Encode())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}
	return string(body), nil
}

// ListModels fetches the runtime's models through the relay. It gives up
// after the models timeout with ErrTimeout.
func (c *Client) ListModels(ctx context.Context) ([]model.ModelDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, c.modelsTimeout)
	defer cancel()

	resp, err := c.get(ctx, "/api/models")
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var doc struct {
		Models []model.ModelDescriptor `json:"models"`
		Error  string                  `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		if ctx.Err() == context.DeadlineExceeded || isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to parse models: %w", err)
	}
	if doc.Error != "" {
		return nil, errors.New(doc.Error)
	}
	if doc.Models == nil {
		doc.Models = []model.ModelDescriptor{}
	}
	return doc.Models, nil
}

// Health reports whether GET /health answers 200.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, DefaultHealthTimeout)
	defer cancel()

	resp, err := c.get(ctx, "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// ClearHistory asks the relay to drop any history for sessionID.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	u := c.baseURL + "/api/chat/history?" + url.Values{"sessionId": {sessionID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain")
	return c.httpClient.Do(req)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
