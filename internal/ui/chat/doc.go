// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view for the Gossip client.

The Model is a Bubble Tea model over a session.Manager. Questions go through
the manager's two-phase Begin/Answer API so the user's message appears
immediately while the relay call runs in a tea.Cmd.

# Layout

	+--------------------------------------------------+
	| Gossip AI                      Ada · llama3:8b   |  header
	+--------------------------------------------------+
	|                                   ╭──────────╮   |
	|                                   │ question │   |  viewport
	| ╭──────────────────────╮          ╰──────────╯   |
	| │ answer being reveal▊ │                         |
	| ╰──────────────────────╯                         |
	+--------------------------------------------------+
	| > Type your message...                           |  input
	+--------------------------------------------------+
	| ● Connected to server  http://...   /help        |  status bar
	+--------------------------------------------------+

# Timers

Three tea.Tick loops drive the view:

	health  - every 5 seconds the relay's /health is checked
	reveal  - every 15 ms each revealing reply shows one more character
	spinner - the loading dots while a question is in flight

# Commands

Lines starting with "/" are commands. See commands.go for the registry.
*/
package chat
