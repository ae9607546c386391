// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the relay and the
// chat client.
//
// # Key Types
//
//   - Message: one transcript entry (id, role, content)
//   - ParamSet: the fixed set of generation knobs with ranges and defaults
//   - Persona: optional assistant identity (name and role description)
//   - SessionConfig: everything the client remembers between runs
//   - ModelDescriptor: a model reported by the runtime
//
// # Usage
//
// Reset generation parameters:
//
//	params := model.DefaultParams()
//	_ = params.Set("temperature", 1.2)
//	params.Reset()
//
// Build the system prompt for a persona:
//
//	p := model.Persona{Name: "Ada", Role: "I am a coding mentor"}
//	prompt := p.SystemPrompt()
package model
