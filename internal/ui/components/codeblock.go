// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gossip-ai/gossip/internal/render"
	"github.com/gossip-ai/gossip/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock is one fenced code segment of a reply.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int
	theme    *styles.Theme
}

// NewCodeBlock creates a code block. An empty language uses the default.
func NewCodeBlock(language, code string, theme *styles.Theme) CodeBlock {
	if language == "" {
		language = render.DefaultLanguage
	}
	return CodeBlock{
		Language: language,
		Code:     code,
		MaxWidth: 80,
		theme:    theme,
	}
}

// SetMaxWidth sets the maximum width for the code block.
func (c *CodeBlock) SetMaxWidth(width int) {
	c.MaxWidth = width
}

// Render draws the language badge above numbered, highlighted lines.
func (c CodeBlock) Render() string {
	lines := strings.Split(render.Highlight(c.Code, c.Language), "\n")

	numWidth := len(fmt.Sprint(len(lines)))
	lineNum := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(numWidth).
		Align(lipgloss.Right).
		MarginRight(1)

	var b strings.Builder
	b.WriteString(c.theme.CodeLanguage.Render(render.LanguageName(c.Language)))
	for i, line := range lines {
		b.WriteByte('\n')
		b.WriteString(lineNum.Render(fmt.Sprint(i + 1)))
		b.WriteString(line)
	}

	return c.theme.CodeBox.
		MaxWidth(max(c.MaxWidth, 20)).
		Render(b.String())
}

// =============================================================================
// SEGMENTED REPLIES
// =============================================================================

// RenderContent draws a complete reply: text segments through the markdown
// renderer and code segments as CodeBlocks. Content without fences is
// rendered as a single markdown segment.
func RenderContent(content string, width int, md *render.Markdown, theme *styles.Theme) string {
	if !render.HasCodeBlock(content) {
		return renderText(content, width, md)
	}

	var parts []string
	for _, seg := range render.Parse(content) {
		switch seg.Kind {
		case render.SegmentCode:
			cb := NewCodeBlock(seg.Language, seg.Content, theme)
			cb.SetMaxWidth(width)
			parts = append(parts, cb.Render())
		default:
			if strings.TrimSpace(seg.Content) == "" {
				continue
			}
			parts = append(parts, renderText(seg.Content, width, md))
		}
	}
	return strings.Join(parts, "\n")
}

func renderText(text string, width int, md *render.Markdown) string {
	if md == nil {
		return wordWrap(strings.Trim(text, "\n"), width)
	}
	return md.Render(text, width)
}
