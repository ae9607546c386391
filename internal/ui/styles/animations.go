// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// SpinnerConfig describes a frame animation.
type SpinnerConfig struct {
	Frames []string
	FPS    time.Duration
}

// Duration returns one full cycle.
func (s SpinnerConfig) Duration() time.Duration {
	return s.FPS * time.Duration(len(s.Frames))
}

// Spinner converts the config for the bubbles spinner.
func (s SpinnerConfig) Spinner() spinner.Spinner {
	return spinner.Spinner{Frames: s.Frames, FPS: s.FPS}
}

// LoadingDots pulses three dots while the relay is answering.
var LoadingDots = SpinnerConfig{
	Frames: []string{"●  ", "●● ", "●●●", " ●●", "  ●", "   "},
	FPS:    time.Second / 6,
}

// RevealCursor is drawn after a reply that is still being revealed.
const RevealCursor = "▊"
