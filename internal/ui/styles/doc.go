// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling for the Gossip terminal client.

Every color is a Lip Gloss AdaptiveColor so the same palette works on dark
and light terminals.

# Color System (colors.go)

The palette follows the Gossip brand: a cyan to blue gradient on a near
black surface.

	Cyan, Blue        - Brand, user bubbles, headers
	Emerald, Rose     - Connected and disconnected indicators
	Amber             - Warnings and the settings panel
	Surface*, Text*   - Backgrounds and body text

# Theme (theme.go)

Theme bundles the lipgloss styles used by the chat view and detects the
terminal's color profile with termenv:

	theme := styles.NewTheme()
	fmt.Println(theme.UserBubble.Render("Hello"))

# Loading indicator (animations.go)

LoadingDots is the three-dot spinner shown while the relay answers.
*/
package styles
