// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import "time"

// RevealInterval is the delay between revealed runes.
const RevealInterval = 15 * time.Millisecond

// RevealState is the Revealer's position in its lifecycle.
type RevealState int

const (
	StateRevealing RevealState = iota
	StateComplete
)

func (s RevealState) String() string {
	if s == StateComplete {
		return "complete"
	}
	return "revealing"
}

// Cursor is drawn after the visible prefix while revealing.
const Cursor = "▊"

// Revealer shows a reply one rune per tick. It only moves forward and
// cannot be skipped; the owner drives it with Tick.
type Revealer struct {
	runes []rune
	shown int
}

// NewRevealer starts revealing content. Replies loaded from storage use
// NewComplete instead.
func NewRevealer(content string) *Revealer {
	return &Revealer{runes: []rune(content)}
}

// NewComplete returns a Revealer that is already complete.
func NewComplete(content string) *Revealer {
	r := []rune(content)
	return &Revealer{runes: r, shown: len(r)}
}

// Tick reveals one more rune. It returns false once complete.
func (r *Revealer) Tick() bool {
	if r.shown < len(r.runes) {
		r.shown++
	}
	return r.shown < len(r.runes)
}

// State returns revealing until every rune is shown.
func (r *Revealer) State() RevealState {
	if r.shown >= len(r.runes) {
		return StateComplete
	}
	return StateRevealing
}

// Done reports whether the reveal has finished.
func (r *Revealer) Done() bool {
	return r.State() == StateComplete
}

// Visible returns the revealed prefix.
func (r *Revealer) Visible() string {
	return string(r.runes[:r.shown])
}

// Content returns the full text.
func (r *Revealer) Content() string {
	return string(r.runes)
}
