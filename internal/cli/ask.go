// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question.
//
// Command: ask [question]
//
// Examples:
//   gossip ask "What is the capital of France?"
//   gossip ask --model llama3:8b "Explain this error"
//   git diff | gossip ask "Review this change:"
//   gossip ask --json "List three prime numbers"
//
// The question and answer join the stored conversation, so the chat shows
// them next time. Markdown is rendered only when stdout is a terminal.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/gossip-ai/gossip/internal/render"
)

// maxStdinQuestion bounds a question piped on stdin.
const maxStdinQuestion = 256 * 1024

// AskResult is the --json payload of ask.
type AskResult struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Model     string `json:"model"`
	SessionID string `json:"session_id"`
}

// HandleAsk sends one question and prints the answer.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	question, err := askQuestion(env, args)
	if err != nil {
		return err
	}

	mgr, err := env.Session(args)
	if err != nil {
		return err
	}

	return OutputJSON(env.Stdout, args.JSON, "ask", func() (any, error) {
		reply, err := mgr.SubmitQuestion(ctx, question)
		if err != nil {
			return nil, NewCommandError("ask", "question", "the relay did not answer", err)
		}
		if !args.JSON {
			printAnswer(env, reply.Content)
		}
		cfg := mgr.Config()
		return AskResult{
			Question:  question,
			Answer:    reply.Content,
			Model:     cfg.ModelName,
			SessionID: cfg.SessionID,
		}, nil
	})
}

// askQuestion joins the positionals with anything piped on stdin. Piped
// text follows the question, so `cat f | gossip ask "Summarize:"` works.
func askQuestion(env *Env, args Args) (string, error) {
	question := strings.TrimSpace(args.Query())

	if env.Stdin != nil && !stdinIsTerminal(env) {
		data, err := io.ReadAll(io.LimitReader(env.Stdin, maxStdinQuestion+1))
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) > maxStdinQuestion {
			return "", &UsageError{Message: fmt.Sprintf("piped input exceeds %d KiB", maxStdinQuestion/1024)}
		}
		if piped := strings.TrimSpace(string(data)); piped != "" {
			if question == "" {
				question = piped
			} else {
				question += "\n\n" + piped
			}
		}
	}

	if question == "" {
		return "", ErrMissingArgument("question", `gossip ask "question"`)
	}
	return question, nil
}

// stdinIsTerminal is false for readers that are not files.
func stdinIsTerminal(env *Env) bool {
	f, ok := env.Stdin.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printAnswer writes the answer, rendered as markdown on a terminal.
func printAnswer(env *Env, text string) {
	if env.TTY {
		md := render.NewMarkdown("")
		fmt.Fprintln(env.Stdout, md.Render(text, GetTerminalWidth()-2))
		return
	}
	fmt.Fprintln(env.Stdout, text)
}
