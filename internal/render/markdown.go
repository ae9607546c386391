// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// DefaultWrap is the markdown word-wrap width when none is given.
const DefaultWrap = 80

// Markdown renders markdown text with glamour. Renderers are built lazily
// per width and cached. Safe for concurrent use.
type Markdown struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown creates a renderer. An empty style picks dark or light from
// the terminal background.
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = DetectStyle()
	}
	return &Markdown{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

// DetectStyle returns the glamour style matching the terminal background.
func DetectStyle() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// Render formats text for a terminal of the given width. The original text
// is returned if glamour fails.
func (m *Markdown) Render(text string, width int) string {
	if width <= 0 {
		width = DefaultWrap
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.renderer(width)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// renderer must be called with mu held.
func (m *Markdown) renderer(width int) (*glamour.TermRenderer, error) {
	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}
