// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/ui/styles"
	"github.com/gossip-ai/gossip/internal/util"
)

// =============================================================================
// SETTINGS PANEL
// =============================================================================

// SettingsPanel summarises the session configuration, the models the relay
// reported and the persona presets.
type SettingsPanel struct {
	Config model.SessionConfig
	Models []model.ModelDescriptor
	Width  int
	theme  *styles.Theme
}

// NewSettingsPanel creates an empty panel.
func NewSettingsPanel(theme *styles.Theme) *SettingsPanel {
	return &SettingsPanel{Width: 80, theme: theme}
}

// SetWidth sets the panel width.
func (p *SettingsPanel) SetWidth(width int) {
	p.Width = width
}

// SetConfig replaces the displayed configuration.
func (p *SettingsPanel) SetConfig(cfg model.SessionConfig) {
	p.Config = cfg
}

// SetModels replaces the model list.
func (p *SettingsPanel) SetModels(models []model.ModelDescriptor) {
	p.Models = models
}

// View renders the panel.
func (p *SettingsPanel) View() string {
	valueWidth := max(p.Width-24, 10)
	row := func(label, value string) string {
		return p.theme.PanelLabel.Render(label) + p.theme.PanelValue.Render(util.TruncateWidth(value, valueWidth))
	}

	var b strings.Builder
	b.WriteString(p.theme.PanelTitle.Render("Settings"))
	b.WriteString("\n\n")
	b.WriteString(row("Server", p.Config.ServerAddress) + "\n")
	b.WriteString(row("Model", p.Config.ModelName) + "\n")
	b.WriteString(row("Session", p.Config.SessionID) + "\n")

	persona := "none"
	if !p.Config.Persona.IsEmpty() {
		persona = p.Config.Persona.Name
		if p.Config.Persona.Role != "" {
			persona += ": " + p.Config.Persona.Role
		}
	}
	b.WriteString(row("Persona", persona) + "\n")

	b.WriteString("\n" + p.theme.PanelTitle.Render("Model parameters") + "\n")
	for _, spec := range model.ParamSpecs() {
		v, _ := p.Config.Params.Get(spec.Key)
		b.WriteString(row(spec.Label(), FormatParam(spec, v)) + "  " + p.theme.ShortcutDesc.Render(spec.Description) + "\n")
	}

	if len(p.Models) > 0 {
		b.WriteString("\n" + p.theme.PanelTitle.Render("Available models") + "\n")
		for _, m := range p.Models {
			marker := "  "
			if m.Name == p.Config.ModelName {
				marker = p.theme.SuccessStyle.Render("● ")
			}
			b.WriteString(marker + util.PadWidth(m.Name, 32) + " " + p.theme.ShortcutDesc.Render(model.FormatSize(m.Size)) + "\n")
		}
	}

	b.WriteString("\n" + p.theme.PanelTitle.Render("Persona presets") + "\n")
	for _, preset := range model.PersonaPresets() {
		b.WriteString("  " + p.theme.ShortcutKey.Render(preset.Title) + "\n")
	}

	b.WriteString("\n" + p.theme.PanelTitle.Render("Common relay addresses") + "\n")
	for _, addr := range model.CommonRelayAddresses() {
		b.WriteString("  " + addr + "\n")
	}

	return p.theme.Panel.Width(max(p.Width-2, 20)).Render(strings.TrimRight(b.String(), "\n"))
}

// FormatParam renders a parameter value: whole numbers for integral knobs,
// two decimals otherwise.
func FormatParam(spec model.ParamSpec, v float64) string {
	if spec.Integral() {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
