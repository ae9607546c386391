// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// BRAND COLORS
// =============================================================================

// Cyan - Brand color, user bubbles, header gradient start
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// CyanDeep - Darker cyan for backgrounds
var CyanDeep = lipgloss.AdaptiveColor{Light: "#CFFAFE", Dark: "#164E63"}

// Blue - Assistant bubbles, header gradient end
var Blue = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}

// BlueDeep - Darker blue for backgrounds
var BlueDeep = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A8A"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Emerald - Connected indicator, success
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Disconnected indicator, errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, settings panel
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE AND TEXT
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#0A0A0A"}
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#111827"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#1F2937"}
var OverlayDim = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#374151"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#F3F4F6"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicatorSet pairs each state with a symbol so state is not
// conveyed by color alone.
type StatusIndicatorSet struct {
	Connected    string
	Disconnected string
	Warning      string
	Info         string
}

// StatusIndicators are the symbols used next to status text.
var StatusIndicators = StatusIndicatorSet{
	Connected:    "●",
	Disconnected: "○",
	Warning:      "!",
	Info:         "i",
}
