// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/gossip-ai/gossip/internal/render"
	"github.com/gossip-ai/gossip/internal/session"
	"github.com/gossip-ai/gossip/internal/ui/components"
	"github.com/gossip-ai/gossip/internal/ui/styles"
)

const (
	// DefaultHealthInterval is how often the relay's /health is checked.
	DefaultHealthInterval = 5 * time.Second

	// Placeholder is shown in the empty input.
	Placeholder = "Type your message..."

	noticeDuration = 3 * time.Second

	// Rows taken by the header, the input box and the status bar.
	chromeHeight = 6
)

// Options configures the chat view. Zero values pick defaults.
type Options struct {
	Theme    *styles.Theme
	Markdown *render.Markdown
	Logger   *zap.Logger

	HealthInterval time.Duration
	RevealInterval time.Duration

	// AskTimeout bounds each question. Zero waits for the relay.
	AskTimeout time.Duration

	// Clipboard writes text for /copy. Defaults to the system clipboard.
	Clipboard func(string) error
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	mgr    *session.Manager
	theme  *styles.Theme
	md     *render.Markdown
	logger *zap.Logger
	keys   KeyMap

	healthInterval time.Duration
	revealInterval time.Duration
	askTimeout     time.Duration
	copyText       func(string) error

	width  int
	height int
	ready  bool

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	header    *components.Header
	statusBar *components.StatusBar
	settings  *components.SettingsPanel

	showSettings bool

	// reveals holds the replies still being revealed, by message ID.
	reveals   map[int64]*render.Revealer
	revealing bool

	// note is command output shown under the transcript. Never persisted.
	note      string
	noticeSeq int
}

// New creates the chat view over mgr.
func New(mgr *session.Manager, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Markdown == nil {
		opts.Markdown = render.NewMarkdown("")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = DefaultHealthInterval
	}
	if opts.RevealInterval <= 0 {
		opts.RevealInterval = render.RevealInterval
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	input := textinput.New()
	input.Placeholder = Placeholder
	input.Prompt = opts.Theme.InputPrompt.Render("> ")
	input.Focus()

	sp := spinner.New()
	sp.Spinner = styles.LoadingDots.Spinner()
	sp.Style = opts.Theme.Loading

	m := Model{
		mgr:            mgr,
		theme:          opts.Theme,
		md:             opts.Markdown,
		logger:         opts.Logger,
		keys:           DefaultKeyMap(),
		healthInterval: opts.HealthInterval,
		revealInterval: opts.RevealInterval,
		askTimeout:     opts.AskTimeout,
		copyText:       opts.Clipboard,
		viewport:       viewport.New(80, 20),
		input:          input,
		spinner:        sp,
		header:         components.NewHeader(opts.Theme),
		statusBar:      components.NewStatusBar(opts.Theme),
		settings:       components.NewSettingsPanel(opts.Theme),
		reveals:        make(map[int64]*render.Revealer),
	}

	// Latest is never persisted, but a manager handed over mid-session may
	// still hold unrevealed replies.
	for _, msg := range mgr.Messages() {
		if msg.Latest {
			m.reveals[msg.ID] = render.NewRevealer(msg.Content)
		}
	}

	m.syncStatus()
	return m
}

// Init starts the health loop and model discovery.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		CheckHealthCmd(m.mgr, true),
		FetchModelsCmd(m.mgr, false),
	}
	if len(m.reveals) > 0 {
		cmds = append(cmds, RevealTickCmd(m.revealInterval))
	}
	return tea.Batch(cmds...)
}

// Update handles a Bubble Tea message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case AnswerMsg:
		if msg.Err != nil {
			m.logger.Debug("answer replaced by apology", zap.Error(msg.Err))
		}
		if msg.Reply.Latest {
			m.reveals[msg.Reply.ID] = render.NewRevealer(msg.Reply.Content)
			cmds = append(cmds, m.startReveal())
		}
		m.syncStatus()
		m.refresh(true)

	case HealthMsg:
		// A health check of a relay replaced since it started is ignored by the
		// manager, so read the state back rather than trusting msg.
		m.statusBar.SetConnected(m.mgr.Connected())
		if msg.Periodic {
			cmds = append(cmds, HealthTickCmd(m.healthInterval))
		}

	case HealthTickMsg:
		cmds = append(cmds, CheckHealthCmd(m.mgr, true))

	case ModelsMsg:
		if msg.Err != nil {
			if msg.Show {
				m.setNote(m.theme.ErrorStyle.Render(msg.Err.Error()))
			}
		} else {
			m.settings.SetModels(msg.Models)
			if msg.Show {
				m.setNote(formatModels(msg.Models, m.mgr.Config().ModelName))
			}
		}
		m.refresh(false)

	case HistoryClearedMsg:
		m.reveals = make(map[int64]*render.Revealer)
		m.note = ""
		switch {
		case msg.Err != nil:
			cmds = append(cmds, m.notify("Clear failed: "+msg.Err.Error()))
		case msg.PersonaCleared:
			cmds = append(cmds, m.notify("Persona removed and history cleared"))
		default:
			cmds = append(cmds, m.notify("History cleared"))
		}
		m.syncStatus()
		m.refresh(true)

	case RevealTickMsg:
		cmds = append(cmds, m.advanceReveal())

	case ClearNoticeMsg:
		if msg.Seq == m.noticeSeq {
			m.statusBar.SetNotice("")
		}

	case spinner.TickMsg:
		if m.mgr.Loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.refresh(false)
		}
	}

	return m, tea.Batch(cmds...)
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Close):
		if m.showSettings {
			m.showSettings = false
			m.refresh(true)
		}
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		return m.toggleSettings()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input as a question or runs it as a command. The input
// is cleared either way.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	m.input.Reset()

	if trimmed := strings.TrimSpace(text); strings.HasPrefix(trimmed, "/") {
		return m.handleCommand(trimmed)
	}

	p, err := m.mgr.Begin(text)
	if errors.Is(err, session.ErrBusy) {
		return m, m.notify("Still waiting for the last answer")
	}
	if err != nil || p == nil {
		return m, nil
	}

	m.note = ""
	m.showSettings = false
	m.syncStatus()
	m.refresh(true)
	return m, tea.Batch(AskCmd(m.mgr, p, m.askTimeout), m.spinner.Tick)
}

func (m Model) toggleSettings() (tea.Model, tea.Cmd) {
	m.showSettings = !m.showSettings
	m.settings.SetConfig(m.mgr.Config())
	m.refresh(true)
	if m.showSettings {
		return m, FetchModelsCmd(m.mgr, false)
	}
	return m, nil
}

// =============================================================================
// REVEAL
// =============================================================================

// startReveal starts the reveal loop unless it is already running.
func (m *Model) startReveal() tea.Cmd {
	if m.revealing {
		return nil
	}
	m.revealing = true
	return RevealTickCmd(m.revealInterval)
}

// advanceReveal shows one more character of every revealing reply and
// keeps ticking while any remain.
func (m *Model) advanceReveal() tea.Cmd {
	for id, r := range m.reveals {
		r.Tick()
		if r.Done() {
			m.mgr.MarkRevealed(id)
			delete(m.reveals, id)
		}
	}
	m.refresh(true)

	if len(m.reveals) == 0 {
		m.revealing = false
		return nil
	}
	return RevealTickCmd(m.revealInterval)
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.settings.SetWidth(width)
	m.input.Width = max(width-8, 10)

	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 1)
	m.refresh(true)
}

// syncStatus copies the manager's state into the header and status bar.
func (m *Model) syncStatus() {
	st := m.mgr.GetStatus()
	m.header.SetModel(st.ModelName)
	m.header.SetPersona(st.PersonaName)
	m.statusBar.SetServer(st.ServerAddress)
	m.statusBar.SetLoading(st.Loading)
	m.statusBar.SetConnected(st.Connected)
	m.settings.SetConfig(m.mgr.Config())
}

// notify shows a transient status bar notice.
func (m *Model) notify(text string) tea.Cmd {
	m.noticeSeq++
	m.statusBar.SetNotice(text)
	return clearNoticeCmd(m.noticeSeq, noticeDuration)
}

func (m *Model) setNote(text string) {
	m.note = text
}

// refresh re-renders the viewport content, optionally following the
// bottom of the transcript.
func (m *Model) refresh(toBottom bool) {
	m.viewport.SetContent(m.renderBody())
	if toBottom && !m.showSettings {
		m.viewport.GotoBottom()
	}
	if m.showSettings && toBottom {
		m.viewport.GotoTop()
	}
}
