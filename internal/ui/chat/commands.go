// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/render"
	"github.com/gossip-ai/gossip/internal/session"
	"github.com/gossip-ai/gossip/internal/ui/components"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler handles one slash command. args are the words after the
// command name.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

var commandHandlers = map[string]CommandHandler{
	"help":     handleHelpCommand,
	"?":        handleHelpCommand,
	"quit":     handleQuitCommand,
	"exit":     handleQuitCommand,
	"settings": handleSettingsCommand,
	"server":   handleServerCommand,
	"model":    handleModelCommand,
	"models":   handleModelsCommand,
	"persona":  handlePersonaCommand,
	"params":   handleParamsCommand,
	"param":    handleParamCommand,
	"clear":    handleClearCommand,
	"copy":     handleCopyCommand,
	"new":      handleNewCommand,
}

// commandHelp is the /help listing in display order.
var commandHelp = [][2]string{
	{"/settings", "show the session configuration"},
	{"/server <address>", "set the relay address"},
	{"/model [name]", "show or switch the model"},
	{"/models", "list the models installed on the relay"},
	{"/persona <name>: <role|preset>", "set the assistant persona"},
	{"/persona clear", "remove the persona and clear history"},
	{"/params", "show the model parameters"},
	{"/param <key> <value>", "change one parameter"},
	{"/params reset", "restore the default parameters"},
	{"/clear", "clear the conversation history"},
	{"/copy [code [n]]", "copy the last reply or one of its code blocks"},
	{"/new", "start a new session id"},
	{"/quit", "leave Gossip"},
}

// handleCommand runs a slash command line.
func (m Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return m, nil
	}

	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	handler, ok := commandHandlers[name]
	if !ok {
		m.setNote(m.theme.ErrorStyle.Render("Unknown command " + parts[0] + ". Type /help for available commands."))
		m.refresh(true)
		return m, nil
	}
	return handler(&m, parts[1:])
}

// fail shows err as a note.
func (m *Model) fail(err error) (tea.Model, tea.Cmd) {
	m.setNote(m.theme.ErrorStyle.Render(err.Error()))
	m.refresh(true)
	return *m, nil
}

// =============================================================================
// META COMMANDS
// =============================================================================

func handleHelpCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	var b strings.Builder
	b.WriteString("Commands:")
	for _, h := range commandHelp {
		fmt.Fprintf(&b, "\n  %-32s %s", h[0], h[1])
	}
	b.WriteString("\n\nKeys:")
	for _, k := range m.keys.ShortHelp() {
		fmt.Fprintf(&b, "\n  %-32s %s", k.Help().Key, k.Help().Desc)
	}
	m.setNote(b.String())
	m.refresh(true)
	return *m, nil
}

func handleQuitCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return *m, tea.Quit
}

func handleSettingsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.toggleSettings()
}

// =============================================================================
// CONFIGURATION COMMANDS
// =============================================================================

func handleServerCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.setNote("Relay: " + m.mgr.Config().ServerAddress + "\nCommon addresses:\n  " +
			strings.Join(model.CommonRelayAddresses(), "\n  "))
		m.refresh(true)
		return *m, nil
	}

	if err := m.mgr.SaveConfiguration(session.ConfigUpdate{ServerAddress: args[0]}); err != nil {
		return m.fail(err)
	}
	m.syncStatus()
	m.refresh(true)
	notice := m.notify("Relay set to " + m.mgr.Config().ServerAddress)
	return *m, tea.Batch(notice, CheckHealthCmd(m.mgr, false), FetchModelsCmd(m.mgr, false))
}

func handleModelCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.setNote("Model: " + m.mgr.Config().ModelName)
		m.refresh(true)
		return *m, nil
	}
	if known := m.mgr.Models(); len(known) > 0 && !hasModel(known, args[0]) {
		names := make([]string, len(known))
		for i, d := range known {
			names[i] = d.Name
		}
		return m.fail(fmt.Errorf("the relay has no model %q (have %s); run /models to refresh the list",
			args[0], strings.Join(names, ", ")))
	}
	if err := m.mgr.SetModel(args[0]); err != nil {
		return m.fail(err)
	}
	m.syncStatus()
	m.refresh(false)
	cmd := m.notify("Model set to " + args[0])
	return *m, cmd
}

func hasModel(models []model.ModelDescriptor, name string) bool {
	for _, d := range models {
		if d.Name == name {
			return true
		}
	}
	return false
}

func handleModelsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return *m, FetchModelsCmd(m.mgr, true)
}

// handlePersonaCommand accepts "clear", "<name>: <role or preset>", a
// preset title applied to the current name, or a bare name.
func handlePersonaCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		p := m.mgr.Config().Persona
		if p.IsEmpty() {
			m.setNote("No persona set. Presets: " + presetTitles())
		} else {
			m.setNote("Persona: " + p.Name + "\nRole: " + p.Role)
		}
		m.refresh(true)
		return *m, nil
	}
	if len(args) == 1 && strings.EqualFold(args[0], "clear") {
		return *m, ClearPersonaCmd(m.mgr)
	}

	p, needRole, err := parsePersonaArgs(strings.Join(args, " "), m.mgr.Config().Persona)
	if err != nil {
		return m.fail(err)
	}
	if needRole {
		m.setNote("Describe the custom role: /persona " + p.Name + ": <role>")
		m.refresh(true)
		return *m, nil
	}
	if err := m.mgr.SavePersona(p); err != nil {
		return m.fail(err)
	}
	m.syncStatus()
	m.refresh(true)
	cmd := m.notify("Persona saved")
	return *m, cmd
}

// parsePersonaArgs builds the persona a /persona line asks for. needRole is
// set when the custom preset was chosen without a role.
func parsePersonaArgs(text string, current model.Persona) (p model.Persona, needRole bool, err error) {
	p = current
	name, role, hasRole := strings.Cut(text, ":")
	name = strings.TrimSpace(name)
	role = strings.TrimSpace(role)

	if !hasRole {
		if preset, ok := model.FindPreset(name); ok {
			if strings.TrimSpace(p.Name) == "" {
				return p, false, model.ErrPersonaName
			}
			applied := p.ApplyPreset(preset)
			return p, !applied, nil
		}
		p.Name = name
		return p, false, nil
	}

	p.Name = name
	if preset, ok := model.FindPreset(role); ok {
		applied := p.ApplyPreset(preset)
		return p, !applied, nil
	}
	if role == "" {
		return p, true, nil
	}
	p.Role = role
	return p, false, nil
}

func presetTitles() string {
	presets := model.PersonaPresets()
	titles := make([]string, len(presets))
	for i, p := range presets {
		titles[i] = p.Title
	}
	return strings.Join(titles, ", ")
}

func handleParamsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) > 0 && strings.EqualFold(args[0], "reset") {
		if err := m.mgr.ResetParams(); err != nil {
			return m.fail(err)
		}
		m.syncStatus()
		cmd := m.notify("Parameters reset to defaults")
		return *m, cmd
	}

	params := m.mgr.Config().Params
	values := params.Map()
	defaults := model.DefaultParams().Map()
	var b strings.Builder
	if params.IsDefault() {
		b.WriteString("Model parameters (defaults):")
	} else {
		b.WriteString("Model parameters (* changed):")
	}
	for _, spec := range model.ParamSpecs() {
		v := values[spec.Key]
		mark := " "
		if v != defaults[spec.Key] {
			mark = "*"
		}
		fmt.Fprintf(&b, "\n %s%-18s %-6s %s", mark, spec.Key, components.FormatParam(spec, v), spec.Description)
	}
	m.setNote(b.String())
	m.refresh(true)
	return *m, nil
}

func handleParamCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) != 2 {
		return m.fail(errors.New("usage: /param <key> <value>"))
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return m.fail(fmt.Errorf("invalid value %q for %s", args[1], args[0]))
	}
	if err := m.mgr.SetParam(args[0], v); err != nil {
		return m.fail(err)
	}
	m.syncStatus()
	cmd := m.notify(fmt.Sprintf("%s set to %s", args[0], args[1]))
	return *m, cmd
}

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func handleClearCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return *m, ClearHistoryCmd(m.mgr)
}

func handleNewCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	id, err := m.mgr.NewSession()
	if err != nil {
		return m.fail(err)
	}
	m.syncStatus()
	m.setNote("New session " + id)
	m.refresh(true)
	return *m, nil
}

// handleCopyCommand copies the last reply, or with "code [n]" its nth code
// block (the first by default).
func handleCopyCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	reply, ok := lastReply(m.mgr.Messages())
	if !ok {
		return m.fail(errors.New("nothing to copy yet"))
	}

	text := reply.Content
	what := "Reply"
	if len(args) > 0 && strings.EqualFold(args[0], "code") {
		blocks := render.CodeBlocks(reply.Content)
		if len(blocks) == 0 {
			return m.fail(errors.New("the last reply has no code blocks"))
		}
		n := 1
		if len(args) > 1 {
			var err error
			if n, err = strconv.Atoi(args[1]); err != nil || n < 1 || n > len(blocks) {
				return m.fail(fmt.Errorf("code block must be between 1 and %d", len(blocks)))
			}
		}
		text = blocks[n-1].Content
		what = "Code"
	}

	if err := m.copyText(text); err != nil {
		return m.fail(fmt.Errorf("failed to copy: %w", err))
	}
	cmd := m.notify(what + " copied to clipboard")
	return *m, cmd
}

func lastReply(msgs []model.Message) (model.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsAssistant() {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}
