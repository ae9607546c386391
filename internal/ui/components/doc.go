// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the UI pieces of the Gossip chat screen.

Components are plain structs with setters and a View method. They hold no
Bubble Tea state of their own; the chat model owns them and calls View.

# Display Components

Header (header.go) - Title, active model and persona.
StatusBar (statusbar.go) - Connection indicator, server address and shortcuts.
MessageBubble (message.go) - A transcript entry, revealing or complete.
CodeBlock (codeblock.go) - Syntax-highlighted fenced code.
SettingsPanel (settings.go) - Current session configuration.
*/
package components
