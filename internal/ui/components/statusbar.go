// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gossip-ai/gossip/internal/ui/styles"
	"github.com/gossip-ai/gossip/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar shows connection state, the relay address and key hints.
type StatusBar struct {
	Connected bool
	Loading   bool
	Server    string
	Notice    string
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetConnected records the last health result.
func (s *StatusBar) SetConnected(connected bool) {
	s.Connected = connected
}

// SetLoading records whether a question is in flight.
func (s *StatusBar) SetLoading(loading bool) {
	s.Loading = loading
}

// SetServer sets the displayed relay address.
func (s *StatusBar) SetServer(addr string) {
	s.Server = addr
}

// SetNotice shows a one-line message in place of the shortcuts. Empty
// restores the shortcuts.
func (s *StatusBar) SetNotice(notice string) {
	s.Notice = notice
}

// ConnectionLabel returns the indicator symbol and text for the current state.
func (s *StatusBar) ConnectionLabel() string {
	if s.Connected {
		return styles.StatusIndicators.Connected + " Connected to server"
	}
	return styles.StatusIndicators.Disconnected + " Server disconnected"
}

// View renders the status bar. Narrow terminals drop the server address and
// the shortcuts.
func (s *StatusBar) View() string {
	var conn string
	if s.Connected {
		conn = s.theme.Connected.Render(s.ConnectionLabel())
	} else {
		conn = s.theme.Disconnected.Render(s.ConnectionLabel())
	}

	parts := []string{conn}
	if s.Loading {
		parts = append(parts, s.theme.Loading.Render("thinking"))
	}

	layout := styles.LayoutFor(s.Width)

	if layout != styles.LayoutNarrow && s.Server != "" {
		parts = append(parts, s.theme.ShortcutDesc.Render(util.TruncateWidth(s.Server, 40)))
	}

	left := strings.Join(parts, "  ")
	room := s.Width - lipgloss.Width(left) - 3

	var right string
	switch {
	case s.Notice != "":
		right = s.theme.WarningStyle.Render(util.TruncateWidth(s.Notice, room))
	case layout == styles.LayoutWide:
		right = s.renderShortcuts()
	case layout == styles.LayoutMedium:
		right = s.theme.ShortcutKey.Render("/help")
	}
	if lipgloss.Width(right) > room {
		right = ""
	}

	gap := max(s.Width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)

	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) renderShortcuts() string {
	pairs := [][2]string{
		{"Enter", "send"},
		{"/settings", "config"},
		{"/help", "commands"},
		{"Ctrl+C", "quit"},
	}
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, s.theme.ShortcutKey.Render(p[0])+" "+s.theme.ShortcutDesc.Render(p[1]))
	}
	return strings.Join(out, "  ")
}
