// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Stored conversation commands.
//
// Command: history [show|clear|export]
//
// Examples:
//   gossip history                      Show the conversation
//   gossip history show --limit 10      Show the last ten messages
//   gossip history clear                Clear it here and on the relay
//   gossip history export -o chat.md    Export as markdown
//   gossip history export --format json

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/util"
)

// Export formats.
const (
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// HandleHistory dispatches the history subcommands.
func HandleHistory(ctx context.Context, env *Env, args Args) error {
	switch args.Subcommand {
	case "", "show", "list":
		return handleHistoryShow(env, args)
	case "clear":
		return handleHistoryClear(ctx, env, args)
	case "export":
		return handleHistoryExport(env, args)
	default:
		return &UsageError{Message: fmt.Sprintf("unknown history subcommand %q (want show, clear or export)", args.Subcommand)}
	}
}

func handleHistoryShow(env *Env, args Args) error {
	mgr, err := env.Session(args)
	if err != nil {
		return err
	}

	msgs := mgr.Messages()
	if args.Limit > 0 && len(msgs) > args.Limit {
		msgs = msgs[len(msgs)-args.Limit:]
	}

	return OutputJSON(env.Stdout, args.JSON, "history", func() (any, error) {
		if args.JSON {
			return msgs, nil
		}
		if len(msgs) == 0 {
			fmt.Fprintln(env.Stdout, DimStyle.Render("No conversation yet."))
			return nil, nil
		}
		for i, msg := range msgs {
			if i > 0 {
				fmt.Fprintln(env.Stdout)
			}
			label := UserStyle.Render(msg.Role.DisplayName())
			if msg.IsAssistant() {
				label = AssistantStyle.Render(msg.Role.DisplayName())
			}
			fmt.Fprintf(env.Stdout, "%s %s\n%s\n", label, DimStyle.Render(msg.Time().Format("2006-01-02 15:04")), msg.Content)
		}
		return nil, nil
	})
}

func handleHistoryClear(ctx context.Context, env *Env, args Args) error {
	mgr, err := env.Session(args)
	if err != nil {
		return err
	}

	return OutputJSON(env.Stdout, args.JSON, "history", func() (any, error) {
		n := len(mgr.Messages())
		if err := mgr.ClearHistory(ctx); err != nil {
			return nil, NewCommandError("history", "clear", "could not clear the stored conversation", err)
		}
		if !args.JSON {
			fmt.Fprintf(env.Stdout, "%s Cleared %d messages\n", SuccessStyle.Render("✓"), n)
		}
		return map[string]int{"cleared": n}, nil
	})
}

func handleHistoryExport(env *Env, args Args) error {
	mgr, err := env.Session(args)
	if err != nil {
		return err
	}

	format := strings.ToLower(args.Format)
	if format == "" {
		format = FormatMarkdown
	}

	var data []byte
	switch format {
	case FormatMarkdown, "markdown":
		data = []byte(ExportMarkdown(mgr.Messages(), mgr.Config()))
	case FormatJSON:
		data, err = json.MarshalIndent(mgr.Messages(), "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')
	default:
		return &UsageError{Message: fmt.Sprintf("unsupported export format %q (supported: md, json)", args.Format)}
	}

	if args.Output == "" {
		_, err := env.Stdout.Write(data)
		return err
	}
	if err := util.AtomicWriteFile(args.Output, data, 0o600); err != nil {
		return NewCommandError("history", "export", "could not write "+args.Output, err)
	}
	fmt.Fprintf(env.Stderr, "%s Exported %d messages to %s\n", SuccessStyle.Render("✓"), len(mgr.Messages()), args.Output)
	return nil
}

// ExportMarkdown renders the conversation as a markdown document.
func ExportMarkdown(msgs []model.Message, cfg model.SessionConfig) string {
	var b strings.Builder
	b.WriteString("# Gossip AI conversation\n\n")
	fmt.Fprintf(&b, "- Model: %s\n", cfg.ModelName)
	fmt.Fprintf(&b, "- Session: %s\n", cfg.SessionID)
	if !cfg.Persona.IsEmpty() {
		fmt.Fprintf(&b, "- Persona: %s\n", cfg.Persona.Name)
	}

	aiName := cfg.Persona.Name
	for _, msg := range msgs {
		name := msg.Role.DisplayName()
		if msg.IsAssistant() && aiName != "" {
			name = aiName
		}
		fmt.Fprintf(&b, "\n## %s (%s)\n\n%s\n", name, msg.Time().Format("2006-01-02 15:04"), msg.Content)
	}
	return b.String()
}
