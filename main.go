// gossip - Chat with a local model through a small HTTP relay.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/gossip-ai/gossip/internal/cli"
	"github.com/gossip-ai/gossip/internal/config"
	"github.com/gossip-ai/gossip/internal/logging"
	"github.com/gossip-ai/gossip/internal/render"
	"github.com/gossip-ai/gossip/internal/ui/chat"
	"github.com/gossip-ai/gossip/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one command and returns the process exit code.
func run(argv []string) int {
	args, err := cli.Parse(argv)
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.GetExitCode(err)
	}

	switch args.Command {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return cli.ExitSuccess
	}

	if err := config.LoadEnv(); err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.ExitConfigError
	}
	configPath := args.ConfigPath
	if configPath == "" {
		if configPath, err = config.ConfigPath(); err != nil {
			cli.DisplayError(os.Stderr, err, args.JSON)
			return cli.ExitConfigError
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.ExitConfigError
	}

	logger := newLogger(cfg, args)
	defer func() { _ = logger.Sync() }()

	env := cli.NewEnv(cfg, configPath, logger)
	defer func() {
		if err := env.Close(); err != nil {
			logger.Warn("failed to close local store", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = dispatch(ctx, env, args)
	if err != nil {
		logger.Debug("command failed", zap.String("command", args.Command.String()), zap.Error(err))
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

func dispatch(ctx context.Context, env *cli.Env, args cli.Args) error {
	switch args.Command {
	case cli.CmdChat:
		return runTUI(env, args)
	case cli.CmdServe:
		return cli.HandleServe(ctx, env, args)
	case cli.CmdRepl:
		return cli.HandleRepl(ctx, env, args)
	case cli.CmdAsk:
		return cli.HandleAsk(ctx, env, args)
	case cli.CmdModels:
		return cli.HandleModels(ctx, env, args)
	case cli.CmdHealth:
		return cli.HandleHealth(ctx, env, args)
	case cli.CmdHistory:
		return cli.HandleHistory(ctx, env, args)
	case cli.CmdConfig:
		return cli.HandleConfig(env, args)
	default:
		cli.PrintUsage(env.Stdout)
		return nil
	}
}

// newLogger picks where log lines go. Full-screen and line-based chats log
// to a file so output does not tear the screen; the relay logs to stderr
// at the configured level; one-shot commands only surface warnings.
func newLogger(cfg *config.Config, args cli.Args) *zap.Logger {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}

	switch args.Command {
	case cli.CmdChat, cli.CmdRepl:
		if opts.File == "" {
			if dir, err := config.ConfigDir(); err == nil && os.MkdirAll(dir, 0o755) == nil {
				opts.File = filepath.Join(dir, "gossip.log")
			}
		}
		if opts.File == "" {
			return zap.NewNop()
		}
	case cli.CmdServe:
	default:
		opts.Level = "warn"
		opts.Format = "console"
	}

	if args.Verbose {
		opts.Level = "debug"
	}
	return logging.Must(opts)
}

// runTUI opens the full-screen chat on the stored session.
func runTUI(env *cli.Env, args cli.Args) error {
	if !cli.IsTTY() {
		return &cli.UsageError{Message: "the chat needs an interactive terminal; use 'gossip ask' for piped input"}
	}

	mgr, err := env.Session(args)
	if err != nil {
		return err
	}

	m := chat.New(mgr, chat.Options{
		Theme:          styles.NewTheme(),
		Markdown:       render.NewMarkdown(""),
		Logger:         env.Logger,
		HealthInterval: env.Config.Client.HealthInterval.Duration,
		RevealInterval: env.Config.Client.RevealInterval.Duration,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running gossip: %w", err)
	}
	return nil
}
