// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/render"
	"github.com/gossip-ai/gossip/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one transcript entry.
type MessageBubble struct {
	Message model.Message

	// Reveal is the reveal state of an assistant reply. Nil renders the
	// message complete.
	Reveal *render.Revealer

	// AIName labels assistant replies when a persona is set.
	AIName string

	Width         int
	ShowTimestamp bool

	md    *render.Markdown
	theme *styles.Theme
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg model.Message, theme *styles.Theme, md *render.Markdown) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		md:            md,
		theme:         theme,
	}
}

// SetWidth sets the available width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	if b.Message.IsUser() {
		return b.renderUser()
	}
	return b.renderAssistant()
}

func (b *MessageBubble) bubbleWidth() int {
	return styles.BubbleWidth(b.Width)
}

// User messages are plain wrapped text aligned right.
func (b *MessageBubble) renderUser() string {
	inner := b.bubbleWidth() - 4
	content := wordWrap(b.Message.Content, inner)

	bubble := b.theme.UserBubble.
		Width(min(maxLineWidth(content), inner) + 2).
		Render(content)

	body := bubble
	if b.ShowTimestamp {
		body = lipgloss.JoinVertical(lipgloss.Right, bubble, b.timestamp())
	}
	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, body)
}

// Assistant replies show the revealed prefix and a cursor while revealing,
// then switch to formatted segments.
func (b *MessageBubble) renderAssistant() string {
	inner := b.bubbleWidth() - 4

	var content string
	if b.Reveal != nil && !b.Reveal.Done() {
		content = wordWrap(b.Reveal.Visible(), inner-1) + b.theme.Cursor.Render(styles.RevealCursor)
	} else {
		content = RenderContent(b.Message.Content, inner, b.md, b.theme)
	}

	if b.AIName != "" {
		content = b.theme.HeaderModel.Render(b.AIName) + "\n" + content
	}

	bubble := b.theme.AssistantBubble.MaxWidth(inner + 4).Render(content)
	if b.ShowTimestamp {
		return lipgloss.JoinVertical(lipgloss.Left, bubble, b.timestamp())
	}
	return bubble
}

func (b *MessageBubble) timestamp() string {
	return b.theme.Timestamp.Render(b.Message.Time().Format("15:04"))
}
