// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Line-based chat with input history.
//
// Command: repl
//
// For terminals where the full-screen chat is unwelcome (serial consoles,
// screen readers, tmux panes). Shares the stored conversation and settings
// with the chat.
//
// Interactive commands:
//   /help               Show available commands
//   /clear              Clear the conversation here and on the relay
//   /new                Start a new session id
//   /model [name]       Show or switch model
//   /models             List models on the relay
//   /server [address]   Show or switch relay
//   /history            Print the conversation
//   /quit, /exit        Leave
//   Ctrl+C              Cancel the pending answer, or leave at the prompt
//   Ctrl+D              Leave

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/gossip-ai/gossip/internal/config"
	"github.com/gossip-ai/gossip/internal/session"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input.
type LineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides input history and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history loaded from the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "repl_history")}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line, adding non-empty input to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// Repl is a line-based chat over a session manager.
type Repl struct {
	env *Env
	mgr *session.Manager
	in  LineReader
}

// HandleRepl runs the line-based chat until the user leaves.
func HandleRepl(ctx context.Context, env *Env, args Args) error {
	if !IsTTY() {
		return &UsageError{Message: "repl needs an interactive terminal; use 'gossip ask' for piped input"}
	}
	mgr, err := env.Session(args)
	if err != nil {
		return err
	}

	in := NewChatCLI()
	defer in.Close()

	return (&Repl{env: env, mgr: mgr, in: in}).Run(ctx)
}

// Run reads and answers lines until EOF, Ctrl+C at the prompt, or /quit.
func (r *Repl) Run(ctx context.Context) error {
	r.printWelcome(ctx)

	for {
		input, err := r.in.ReadInput("you> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.env.Stdout)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			quit, err := r.handleSlashCommand(ctx, input)
			if err != nil {
				fmt.Fprintf(r.env.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if quit {
				return nil
			}
			continue
		}

		r.ask(ctx, input)
	}
}

// ask answers one question. Ctrl+C while waiting cancels it and the
// manager records the apology.
func (r *Repl) ask(ctx context.Context, question string) {
	qctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(r.env.Stdout, DimStyle.Render("..."))
	reply, err := r.mgr.SubmitQuestion(qctx, question)
	if err != nil {
		r.env.Logger.Debug("question failed", zap.Error(err))
		fmt.Fprintln(r.env.Stdout, WarningStyle.Render(reply.Content))
		return
	}

	name := r.mgr.Config().Persona.Name
	if name == "" {
		name = reply.Role.DisplayName()
	}
	fmt.Fprintln(r.env.Stdout, AssistantStyle.Render(name+">"))
	printAnswer(r.env, reply.Content)
}

func (r *Repl) printWelcome(ctx context.Context) {
	cfg := r.mgr.Config()
	fmt.Fprintln(r.env.Stdout, TitleStyle.Render("Gossip AI"))
	fmt.Fprintf(r.env.Stdout, "%s%s\n", RenderLabel("Relay"), cfg.ServerAddress)
	fmt.Fprintf(r.env.Stdout, "%s%s\n", RenderLabel("Model"), cfg.ModelName)
	if !cfg.Persona.IsEmpty() {
		fmt.Fprintf(r.env.Stdout, "%s%s\n", RenderLabel("Persona"), cfg.Persona.Name)
	}
	if !r.mgr.CheckHealth(ctx) {
		fmt.Fprintln(r.env.Stdout, WarningStyle.Render("The relay is not answering; questions will fail until it is up."))
	}
	fmt.Fprintln(r.env.Stdout, DimStyle.Render("Type /help for commands, Ctrl+D to leave."))
	fmt.Fprintln(r.env.Stdout)
}

// handleSlashCommand runs a /command. quit is true when the REPL should end.
func (r *Repl) handleSlashCommand(ctx context.Context, input string) (quit bool, err error) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	out := r.env.Stdout

	switch cmd {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help", "/h", "/?":
		fmt.Fprint(out, replHelp)

	case "/clear":
		if err := r.mgr.ClearHistory(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(out, SuccessStyle.Render("History cleared"))

	case "/new":
		id, err := r.mgr.NewSession()
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, "New session "+id)

	case "/model":
		if len(args) == 0 {
			fmt.Fprintln(out, "Model: "+r.mgr.Config().ModelName)
			return false, nil
		}
		if err := r.mgr.SetModel(args[0]); err != nil {
			return false, err
		}
		fmt.Fprintln(out, SuccessStyle.Render("Model set to "+args[0]))

	case "/models":
		models, err := r.mgr.FetchModels(ctx)
		if err != nil {
			return false, err
		}
		printModels(r.env, r.mgr.Config().ModelName, models)

	case "/server":
		if len(args) == 0 {
			fmt.Fprintln(out, "Relay: "+r.mgr.Config().ServerAddress)
			return false, nil
		}
		if err := r.mgr.SaveConfiguration(session.ConfigUpdate{ServerAddress: args[0]}); err != nil {
			return false, err
		}
		addr := r.mgr.Config().ServerAddress
		if r.mgr.CheckHealth(ctx) {
			fmt.Fprintln(out, SuccessStyle.Render("Connected to "+addr))
		} else {
			fmt.Fprintln(out, WarningStyle.Render("Relay set to "+addr+" but it is not answering"))
		}

	case "/history":
		for _, msg := range r.mgr.Messages() {
			fmt.Fprintf(out, "%s %s\n", DimStyle.Render(msg.Role.DisplayName()+":"), msg.Preview(100))
		}

	default:
		return false, fmt.Errorf("unknown command %s, type /help for available commands", cmd)
	}
	return false, nil
}

const replHelp = `Commands:
  /model [name]       Show or switch model
  /models             List models on the relay
  /server [address]   Show or switch relay
  /clear              Clear the conversation
  /new                Start a new session id
  /history            Print the conversation
  /quit               Leave (also Ctrl+D)
`
