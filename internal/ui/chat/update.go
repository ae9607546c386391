// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gossip-ai/gossip/internal/session"
)

// =============================================================================
// RELAY COMMANDS
// =============================================================================

// AskCmd answers a question begun with Manager.Begin. A zero timeout waits
// for the relay indefinitely.
func AskCmd(mgr *session.Manager, p *session.Pending, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		reply, err := mgr.Answer(ctx, p)
		return AnswerMsg{Reply: reply, Err: err}
	}
}

// CheckHealthCmd checks the relay once.
func CheckHealthCmd(mgr *session.Manager, periodic bool) tea.Cmd {
	return func() tea.Msg {
		return HealthMsg{Connected: mgr.CheckHealth(context.Background()), Periodic: periodic}
	}
}

// FetchModelsCmd lists the relay's models.
func FetchModelsCmd(mgr *session.Manager, show bool) tea.Cmd {
	return func() tea.Msg {
		models, err := mgr.FetchModels(context.Background())
		return ModelsMsg{Models: models, Err: err, Show: show}
	}
}

// ClearHistoryCmd clears the transcript locally and on the relay.
func ClearHistoryCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		return HistoryClearedMsg{Err: mgr.ClearHistory(context.Background())}
	}
}

// ClearPersonaCmd removes the persona, which also clears the history.
func ClearPersonaCmd(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		return HistoryClearedMsg{Err: mgr.ClearPersona(context.Background()), PersonaCleared: true}
	}
}

// =============================================================================
// TIMERS
// =============================================================================

// HealthTickCmd schedules the next health check.
func HealthTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return HealthTickMsg{Time: t}
	})
}

// RevealTickCmd schedules the next reveal step.
func RevealTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return RevealTickMsg{Time: t}
	})
}

// clearNoticeCmd drops the status bar notice after a delay.
func clearNoticeCmd(seq int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return ClearNoticeMsg{Seq: seq}
	})
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}
