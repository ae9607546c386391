// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/relayclient"
	"github.com/gossip-ai/gossip/internal/storage"
)

// =============================================================================
// ERRORS AND FIXED TEXT
// =============================================================================

// ApologyText replaces the answer when the relay cannot be reached.
const ApologyText = "Sorry, I encountered an error. Please check if the server is running and accessible."

// ErrBusy is returned when a question is submitted while one is in flight.
var ErrBusy = errors.New("a question is already being answered")

// FetchError is a model discovery failure with a message for the user.
type FetchError struct {
	Message string
	Cause   error
}

func (e *FetchError) Error() string { return e.Message }

func (e *FetchError) Unwrap() error { return e.Cause }

func newFetchError(err error) *FetchError {
	if errors.Is(err, relayclient.ErrTimeout) {
		return &FetchError{Message: "Connection timed out. Please check your server connection.", Cause: err}
	}
	return &FetchError{
		Message: fmt.Sprintf("Failed to fetch models: %s. Please check if Ollama is running.", err.Error()),
		Cause:   err,
	}
}

// =============================================================================
// RELAY
// =============================================================================

// Relay is the part of the relay client the manager uses.
type Relay interface {
	Ask(ctx context.Context, req relayclient.AskRequest) (string, error)
	ListModels(ctx context.Context) ([]model.ModelDescriptor, error)
	ClearHistory(ctx context.Context, sessionID string) error
	Health(ctx context.Context) bool
}

// RelayFactory builds a Relay for a server address.
type RelayFactory func(address string) Relay

// HTTPRelay returns a factory producing relayclient clients with the given
// model discovery bound.
func HTTPRelay(modelsTimeout time.Duration) RelayFactory {
	return func(address string) Relay {
		return relayclient.New(relayclient.Config{BaseURL: address, ModelsTimeout: modelsTimeout})
	}
}

// =============================================================================
// MANAGER
// =============================================================================

// Options configures a Manager.
type Options struct {
	Transcripts *storage.TranscriptRepository
	Configs     *storage.ConfigRepository

	// NewRelay defaults to HTTPRelay with the standard 5s models bound.
	NewRelay RelayFactory

	Logger *zap.Logger
}

// Manager holds the conversation state. Safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	messages  []model.Message
	cfg       model.SessionConfig
	models    []model.ModelDescriptor
	loading   bool
	connected bool

	relay       Relay
	newRelay    RelayFactory
	transcripts *storage.TranscriptRepository
	configs     *storage.ConfigRepository
	logger      *zap.Logger
}

// NewManager loads the persisted configuration and transcript. Unreadable
// stored values are logged and replaced with defaults.
func NewManager(opts Options) (*Manager, error) {
	if opts.Transcripts == nil || opts.Configs == nil {
		return nil, errors.New("session: transcript and config repositories are required")
	}
	if opts.NewRelay == nil {
		opts.NewRelay = HTTPRelay(relayclient.DefaultModelsTimeout)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	m := &Manager{
		newRelay:    opts.NewRelay,
		transcripts: opts.Transcripts,
		configs:     opts.Configs,
		logger:      opts.Logger,
	}

	cfg, err := m.configs.Load()
	if err != nil {
		m.logger.Warn("stored configuration partly unreadable, using defaults", zap.Error(err))
	}
	m.cfg = cfg

	msgs, err := m.transcripts.Load()
	if err != nil {
		m.logger.Warn("stored transcript unreadable, starting empty", zap.Error(err))
		msgs = []model.Message{}
	}
	m.messages = msgs

	m.relay = m.newRelay(m.cfg.ServerAddress)
	return m, nil
}

// =============================================================================
// STATE ACCESSORS
// =============================================================================

// Messages returns a copy of the transcript.
func (m *Manager) Messages() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Config returns the current session configuration.
func (m *Manager) Config() model.SessionConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Loading reports whether a question is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Connected reports the result of the last health check.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Models returns the models found by the last successful FetchModels.
func (m *Manager) Models() []model.ModelDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ModelDescriptor, len(m.models))
	copy(out, m.models)
	return out
}

// Status is a point-in-time view of the manager for display.
type Status struct {
	ServerAddress string
	ModelName     string
	SessionID     string
	PersonaName   string
	MessageCount  int
	Loading       bool
	Connected     bool
}

// GetStatus returns the current status.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		ServerAddress: m.cfg.ServerAddress,
		ModelName:     m.cfg.ModelName,
		SessionID:     m.cfg.SessionID,
		PersonaName:   m.cfg.Persona.Name,
		MessageCount:  len(m.messages),
		Loading:       m.loading,
		Connected:     m.connected,
	}
}

// =============================================================================
// ASKING
// =============================================================================

// Pending is a question whose user message is already in the transcript.
type Pending struct {
	request relayclient.AskRequest
	relay   Relay
}

// Begin starts a question: it appends the user message and sets the
// loading flag. It returns nil with no error for blank input, and ErrBusy
// while another question is in flight. Every Begin that returns a Pending
// must be followed by Answer.
func (m *Manager) Begin(text string) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	text = norm.NFC.String(text)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loading {
		return nil, ErrBusy
	}

	m.messages = append(m.messages, model.NewUserMessage(text))
	m.loading = true
	m.persistLocked()

	return &Pending{
		request: relayclient.AskRequest{
			Question:  text,
			Model:     m.cfg.ModelName,
			SessionID: m.cfg.SessionID,
			Persona:   m.cfg.Persona,
			Params:    m.cfg.Params,
		},
		relay: m.relay,
	}, nil
}

// Answer sends a pending question and appends the reply, or the apology
// when the relay fails. The loading flag is always released. The returned
// error is the relay failure, for logging; the transcript already holds
// the apology.
func (m *Manager) Answer(ctx context.Context, p *Pending) (model.Message, error) {
	answer, askErr := p.relay.Ask(ctx, p.request)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false

	var reply model.Message
	if askErr != nil {
		m.logger.Warn("question failed",
			zap.String("session_id", p.request.SessionID),
			zap.Error(askErr),
		)
		reply = model.NewAssistantMessage(ApologyText)
	} else {
		for i := range m.messages {
			m.messages[i].Latest = false
		}
		reply = model.NewAssistantMessage(answer)
		reply.Latest = true
	}

	m.messages = append(m.messages, reply)
	m.persistLocked()
	return reply, askErr
}

// SubmitQuestion is Begin followed by Answer. Blank input is a no-op and
// returns a zero Message with no error.
func (m *Manager) SubmitQuestion(ctx context.Context, text string) (model.Message, error) {
	p, err := m.Begin(text)
	if err != nil || p == nil {
		return model.Message{}, err
	}
	return m.Answer(ctx, p)
}

// MarkRevealed clears the Latest flag of a message once its reveal ends.
func (m *Manager) MarkRevealed(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages[i].Latest = false
		}
	}
}

// =============================================================================
// HISTORY
// =============================================================================

// ClearHistory asks the relay to forget the session, then empties the
// transcript regardless of the relay's answer.
func (m *Manager) ClearHistory(ctx context.Context) error {
	m.mu.Lock()
	relay := m.relay
	sessionID := m.cfg.SessionID
	m.mu.Unlock()

	if err := relay.ClearHistory(ctx, sessionID); err != nil {
		m.logger.Info("relay history clear failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = []model.Message{}
	if err := m.transcripts.Clear(); err != nil {
		return fmt.Errorf("failed to clear stored transcript: %w", err)
	}
	return nil
}

// NewSession rotates the session ID.
func (m *Manager) NewSession() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.SessionID = model.NewSessionID()
	return m.cfg.SessionID, m.configs.Save(m.cfg)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// ConfigUpdate is the settings form. Persona and Params are applied only
// when set.
type ConfigUpdate struct {
	ServerAddress string
	ModelName     string
	Persona       *model.Persona
	Params        *model.ParamSet
}

// SaveConfiguration applies the settings form. The server address is
// required; an empty model name keeps the current one.
func (m *Manager) SaveConfiguration(u ConfigUpdate) error {
	addr := model.NormalizeServerAddress(u.ServerAddress)
	if addr == "" {
		return model.ErrServerAddressRequired
	}
	if u.Params != nil {
		if err := u.Params.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.cfg
	next.ServerAddress = addr
	if name := strings.TrimSpace(u.ModelName); name != "" {
		next.ModelName = name
	}
	if u.Persona != nil {
		next.Persona = *u.Persona
	}
	if u.Params != nil {
		next.Params = *u.Params
	}

	if err := m.configs.Save(next); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if next.ServerAddress != m.cfg.ServerAddress {
		m.relay = m.newRelay(next.ServerAddress)
		m.connected = false
		m.models = nil
	}
	m.cfg = next
	m.logger.Info("configuration saved",
		zap.String("server", next.ServerAddress),
		zap.String("model", next.ModelName),
	)
	return nil
}

// SetModel switches the model used for new questions.
func (m *Manager) SetModel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("model name is required")
	}
	return m.updateConfig(func(c *model.SessionConfig) error {
		c.ModelName = name
		return nil
	})
}

// SavePersona sets the assistant persona. A name is required.
func (m *Manager) SavePersona(p model.Persona) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return m.updateConfig(func(c *model.SessionConfig) error {
		c.Persona = model.Persona{Name: strings.TrimSpace(p.Name), Role: strings.TrimSpace(p.Role)}
		return nil
	})
}

// ClearPersona removes the persona and, because earlier answers were given
// in character, clears the history too.
func (m *Manager) ClearPersona(ctx context.Context) error {
	if err := m.updateConfig(func(c *model.SessionConfig) error {
		c.Persona = model.Persona{}
		return nil
	}); err != nil {
		return err
	}
	return m.ClearHistory(ctx)
}

// SetParam changes one knob.
func (m *Manager) SetParam(key string, value float64) error {
	return m.updateConfig(func(c *model.SessionConfig) error {
		return c.Params.Set(key, value)
	})
}

// ResetParams restores the default knob values.
func (m *Manager) ResetParams() error {
	return m.updateConfig(func(c *model.SessionConfig) error {
		c.Params.Reset()
		return nil
	})
}

// updateConfig applies fn to a copy of the config and persists it. The
// in-memory config changes only when both succeed.
func (m *Manager) updateConfig(fn func(*model.SessionConfig) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.cfg
	if err := fn(&next); err != nil {
		return err
	}
	if err := m.configs.Save(next); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	m.cfg = next
	return nil
}

// =============================================================================
// RELAY CHECKS
// =============================================================================

// FetchModels lists the models the relay's runtime has installed.
// Failures are returned as *FetchError carrying the text to show.
func (m *Manager) FetchModels(ctx context.Context) ([]model.ModelDescriptor, error) {
	m.mu.Lock()
	relay := m.relay
	m.mu.Unlock()

	models, err := relay.ListModels(ctx)
	if err != nil {
		m.logger.Info("model discovery failed", zap.Error(err))
		return nil, newFetchError(err)
	}

	m.mu.Lock()
	m.models = models
	m.mu.Unlock()
	return models, nil
}

// CheckHealth checks the relay and records the result.
func (m *Manager) CheckHealth(ctx context.Context) bool {
	m.mu.Lock()
	relay := m.relay
	m.mu.Unlock()

	ok := relay.Health(ctx)

	m.mu.Lock()
	if relay == m.relay {
		m.connected = ok
	}
	m.mu.Unlock()
	return ok
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Manager) persistLocked() {
	if err := m.transcripts.Save(m.messages); err != nil {
		m.logger.Error("failed to persist transcript", zap.Error(err))
	}
}
