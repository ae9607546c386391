// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gossip-ai/gossip/internal/ui/styles"
	"github.com/gossip-ai/gossip/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: brand on the left, model and persona on the right.
type Header struct {
	Title       string
	ModelName   string
	PersonaName string
	Width       int
	theme       *styles.Theme
}

// NewHeader creates a header with the Gossip title.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "Gossip AI",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetModel updates the current model name.
func (h *Header) SetModel(name string) {
	h.ModelName = name
}

// SetPersona updates the persona name. Empty hides it.
func (h *Header) SetPersona(name string) {
	h.PersonaName = name
}

// View renders the header.
func (h *Header) View() string {
	title := h.theme.HeaderTitle.Render(h.Title)

	right := h.ModelName
	if h.PersonaName != "" {
		right = h.PersonaName + " · " + right
	}
	// Leave room for the title, a gap and the frame padding.
	room := h.Width - lipgloss.Width(title) - 4
	right = h.theme.HeaderModel.Render(util.TruncateWidth(right, room))

	gap := max(h.Width-lipgloss.Width(title)-lipgloss.Width(right)-2, 1)
	line := title + lipgloss.NewStyle().Width(gap).Render("") + right

	return h.theme.Header.Width(h.Width).Render(line)
}
