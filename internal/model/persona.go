// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrPersonaName is returned when a persona is saved without a name.
var ErrPersonaName = errors.New("persona name is required")

// Persona is an optional assistant identity applied to every request.
type Persona struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsEmpty reports whether neither a name nor a role is set.
func (p Persona) IsEmpty() bool {
	return strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.Role) == ""
}

// Validate checks the persona can be saved.
func (p Persona) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrPersonaName
	}
	return nil
}

// SystemPrompt renders the persona as a system instruction. Empty personas
// produce an empty prompt.
func (p Persona) SystemPrompt() string {
	name := strings.TrimSpace(p.Name)
	role := strings.TrimSpace(p.Role)
	switch {
	case name == "" && role == "":
		return ""
	case role == "":
		return "Your name is " + name + "."
	case name == "":
		return role
	default:
		return "Your name is " + name + ". " + role
	}
}

// ParsePersona strictly decodes a JSON persona object.
func ParsePersona(data string) (Persona, error) {
	var p Persona
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Persona{}, err
	}
	if dec.More() {
		return Persona{}, errors.New("unexpected data after persona object")
	}
	return p, nil
}

// =============================================================================
// PRESETS
// =============================================================================

// PersonaPreset is a ready-made role description.
type PersonaPreset struct {
	Title       string
	Description string
}

// CustomRoleTitle names the preset that asks the user for their own role.
const CustomRoleTitle = "Custom Role"

var personaPresets = []PersonaPreset{
	{Title: "Friendly Assistant", Description: "I am a helpful and friendly AI assistant, eager to help with any task."},
	{Title: "Professional Expert", Description: "I am a knowledgeable professional, providing detailed and accurate information."},
	{Title: "Creative Writer", Description: "I am a creative writer, skilled in storytelling and artistic expression."},
	{Title: "Code Mentor", Description: "I am a coding mentor, helping you learn and understand programming concepts."},
	{Title: CustomRoleTitle, Description: "Define a custom role and personality..."},
}

// PersonaPresets returns the built-in presets in display order.
func PersonaPresets() []PersonaPreset {
	out := make([]PersonaPreset, len(personaPresets))
	copy(out, personaPresets)
	return out
}

// FindPreset looks a preset up by title, ignoring case.
func FindPreset(title string) (PersonaPreset, bool) {
	for _, p := range personaPresets {
		if strings.EqualFold(p.Title, strings.TrimSpace(title)) {
			return p, true
		}
	}
	return PersonaPreset{}, false
}

// ApplyPreset fills the persona role from a preset. The custom preset
// leaves the role untouched and returns false so the caller can prompt.
func (p *Persona) ApplyPreset(preset PersonaPreset) bool {
	if preset.Title == CustomRoleTitle {
		return false
	}
	p.Role = preset.Description
	return true
}
