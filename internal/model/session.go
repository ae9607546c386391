// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultServerAddress is the relay address used until the user sets one.
	DefaultServerAddress = "http://192.168.1.101:3000"

	// DefaultModelName is the model requested when none is selected.
	DefaultModelName = "tinyllama:latest"

	// DefaultRelayPort is the port the relay listens on.
	DefaultRelayPort = 3000
)

// ErrServerAddressRequired is returned when saving a config without an address.
var ErrServerAddressRequired = errors.New("Please enter a server IP address")

// SessionConfig is the client's configuration of the conversation.
type SessionConfig struct {
	ServerAddress string   `json:"server_address"`
	ModelName     string   `json:"model_name"`
	Params        ParamSet `json:"params"`
	Persona       Persona  `json:"persona"`
	SessionID     string   `json:"session_id"`
}

// DefaultSessionConfig returns the configuration used on first start.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ServerAddress: DefaultServerAddress,
		ModelName:     DefaultModelName,
		Params:        DefaultParams(),
		SessionID:     NewSessionID(),
	}
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Validate checks the fields a user can edit.
func (c SessionConfig) Validate() error {
	if strings.TrimSpace(c.ServerAddress) == "" {
		return ErrServerAddressRequired
	}
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	return nil
}

// NormalizeServerAddress prefixes bare hosts with http://. Empty input
// stays empty.
func NormalizeServerAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	return strings.TrimRight("http://"+addr, "/")
}

// CommonRelayAddresses lists LAN addresses a relay is usually found on.
func CommonRelayAddresses() []string {
	ips := []string{"192.168.1.101", "192.168.0.101", "10.0.0.101"}
	out := make([]string, len(ips))
	for i, ip := range ips {
		out[i] = fmt.Sprintf("http://%s:%d", ip, DefaultRelayPort)
	}
	return out
}

// =============================================================================
// MODEL DESCRIPTOR
// =============================================================================

// ModelDescriptor is a model reported by the runtime.
type ModelDescriptor struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// FormatSize renders a byte count the way the model picker shows it.
func FormatSize(bytes int64) string {
	const gb = 1024 * 1024 * 1024
	const mb = 1024 * 1024
	if bytes >= gb {
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	}
	return fmt.Sprintf("%.0f MB", float64(bytes)/mb)
}
