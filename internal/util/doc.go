// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by storage, config and the UI:
// crash-safe file replacement and terminal-width aware truncation.
package util
