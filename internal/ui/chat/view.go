// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/ui/components"
	"github.com/gossip-ai/gossip/internal/util"
)

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Starting Gossip..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		m.viewport.View(),
		m.renderInput(),
		m.statusBar.View(),
	)
}

// renderBody is the viewport content: the settings panel or the transcript.
func (m Model) renderBody() string {
	if m.showSettings {
		return m.settings.View()
	}

	msgs := m.mgr.Messages()
	parts := make([]string, 0, len(msgs)+2)

	if len(msgs) == 0 && !m.mgr.Loading() {
		parts = append(parts, m.renderEmptyState())
	}

	aiName := m.mgr.Config().Persona.Name
	for _, msg := range msgs {
		parts = append(parts, m.renderMessage(msg, aiName))
	}

	if m.mgr.Loading() {
		parts = append(parts, m.theme.AssistantBubble.Render(m.spinner.View()))
	}

	if m.note != "" {
		parts = append(parts, m.theme.SystemNote.Render(m.note))
	}

	return strings.Join(parts, "\n")
}

func (m Model) renderMessage(msg model.Message, aiName string) string {
	b := components.NewMessageBubble(msg, m.theme, m.md)
	b.SetWidth(max(m.viewport.Width, 20))
	if msg.IsAssistant() {
		b.AIName = aiName
		b.Reveal = m.reveals[msg.ID]
	}
	return b.View()
}

func (m Model) renderEmptyState() string {
	text := "Start a conversation with Gossip AI.\nType /help for commands or /settings to configure the relay."
	return m.theme.EmptyState.Width(max(m.viewport.Width, 20)).Render(text)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(max(m.width-2, 10)).Render(m.input.View())
}

// formatModels lists models with their sizes, marking the active one.
func formatModels(models []model.ModelDescriptor, active string) string {
	if len(models) == 0 {
		return "The relay reported no models."
	}
	var b strings.Builder
	b.WriteString("Available models:")
	for _, md := range models {
		marker := "  "
		if md.Name == active {
			marker = "* "
		}
		b.WriteString("\n" + marker + util.PadWidth(md.Name, 32) + " " + model.FormatSize(md.Size))
	}
	return b.String()
}
