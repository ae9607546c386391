// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for CLI commands.
//
// Handlers return errors and never exit; main displays them once and picks
// the exit code with GetExitCode.

package cli

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/gossip-ai/gossip/internal/config"
	"github.com/gossip-ai/gossip/internal/relayclient"
	"github.com/gossip-ai/gossip/internal/session"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the relay could not be reached
	ExitNetworkError = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failed command with context.
type CommandError struct {
	Command string // e.g. "history"
	Action  string // e.g. "export"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrMissingArgument reports a required argument that was not given.
func ErrMissingArgument(argName, usage string) error {
	return &UsageError{Message: fmt.Sprintf("missing %s\nUsage: %s", argName, usage)}
}

// ErrRelayUnreachable is returned by health when the check fails.
var ErrRelayUnreachable = errors.New("relay is not reachable")

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as a JSON object in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		command := ""
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			command = cmdErr.Command
		}
		_ = NewJSONErrorResponse(command, err).Write(w)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), err.Error())
}

// GetExitCode maps an error to the process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var validateErrs config.ValidateErrors
	var validateErr config.ValidationError
	if errors.As(err, &validateErrs) || errors.As(err, &validateErr) {
		return ExitConfigError
	}

	var statusErr *relayclient.StatusError
	var fetchErr *session.FetchError
	var netErr net.Error
	if errors.Is(err, ErrRelayUnreachable) || errors.Is(err, relayclient.ErrTimeout) ||
		errors.As(err, &statusErr) || errors.As(err, &fetchErr) || errors.As(err, &netErr) {
		return ExitNetworkError
	}

	return ExitGeneralError
}
