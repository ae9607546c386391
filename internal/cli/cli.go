// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies a top-level gossip command.
type Command int

const (
	// CmdChat opens the full-screen chat. It is the default.
	CmdChat Command = iota
	CmdServe
	CmdRepl
	CmdAsk
	CmdModels
	CmdHealth
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
)

var commandNames = map[string]Command{
	"chat":    CmdChat,
	"tui":     CmdChat,
	"serve":   CmdServe,
	"server":  CmdServe,
	"relay":   CmdServe,
	"repl":    CmdRepl,
	"ask":     CmdAsk,
	"models":  CmdModels,
	"health":  CmdHealth,
	"status":  CmdHealth,
	"history": CmdHistory,
	"config":  CmdConfig,
	"version": CmdVersion,
	"help":    CmdHelp,
}

func (c Command) String() string {
	switch c {
	case CmdChat:
		return "chat"
	case CmdServe:
		return "serve"
	case CmdRepl:
		return "repl"
	case CmdAsk:
		return "ask"
	case CmdModels:
		return "models"
	case CmdHealth:
		return "health"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// =============================================================================
// PARSED ARGUMENTS
// =============================================================================

// Args holds the parsed command line.
type Args struct {
	Command Command

	// Subcommand is the first argument after the command, e.g. "clear" in
	// `gossip history clear`.
	Subcommand string

	// Positional are the arguments after the command.
	Positional []string

	// Global flags
	ConfigPath string // --config FILE
	Server     string // --server ADDR, -s ADDR
	Model      string // --model NAME, -m NAME
	JSON       bool   // --json
	Verbose    bool   // --verbose, -v

	// Command flags
	Format string // --format md|json (history export)
	Output string // --output FILE, -o FILE (history export)
	Limit  int    // --limit N (history show)

	// Flags is the full parse, for anything not lifted into a field.
	Flags *ArgParser
}

// Query joins the positionals into one question.
func (a Args) Query() string {
	return strings.Join(a.Positional, " ")
}

// UsageError is a malformed command line.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

var boolFlags = []string{"json", "verbose", "v", "help", "h", "version"}

// Parse parses the arguments after the program name. An empty command line
// opens the chat.
func Parse(argv []string) (Args, error) {
	p := NewArgParser(argv, boolFlags...)

	args := Args{
		ConfigPath: p.Flag("config"),
		Server:     p.FlagAny("server", "s"),
		Model:      p.FlagAny("model", "m"),
		JSON:       p.BoolFlag("json"),
		Verbose:    p.BoolFlag("verbose", "v"),
		Format:     p.Flag("format"),
		Output:     p.FlagAny("output", "o"),
		Limit:      p.FlagIntOrDefault("limit", 0),
		Flags:      p,
	}

	if p.BoolFlag("version") {
		args.Command = CmdVersion
		return args, nil
	}

	if p.PositionalCount() == 0 {
		args.Command = CmdChat
		if p.BoolFlag("help", "h") {
			args.Command = CmdHelp
		}
		return args, nil
	}

	name := strings.ToLower(p.Subcommand())
	cmd, ok := commandNames[name]
	if !ok {
		return args, &UsageError{Message: fmt.Sprintf("unknown command %q. Run 'gossip help' for usage.", name)}
	}
	args.Command = cmd
	args.Positional = p.PositionalFrom(1)
	if len(args.Positional) > 0 {
		args.Subcommand = strings.ToLower(args.Positional[0])
	}
	if p.BoolFlag("help", "h") {
		args.Command = CmdHelp
	}
	return args, nil
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `gossip - chat with a local model through a LAN relay

Usage:
  gossip [command] [flags]

Commands:
  chat                      Full-screen chat (default)
  serve                     Run the relay in front of the model runtime
  repl                      Line-based chat with input history
  ask "question"            Ask one question and print the answer
  models                    List the models the relay offers
  health                    Check that the relay is reachable
  history [show|clear|export]
                            Show, clear or export the stored conversation
  config [show|get|set|path|keys|ips]
                            Inspect or edit the configuration
  version                   Print version information
  help                      Show this help

Global flags:
  --config FILE             Config file (default ~/.gossip/config.toml)
  -s, --server ADDR         Relay address, remembered for later sessions
  -m, --model NAME          Model name, remembered for later sessions
  --json                    Machine-readable output
  -v, --verbose             Debug logging

History flags:
  --limit N                 Show only the last N messages
  --format md|json          Export format (default md)
  -o, --output FILE         Export to FILE instead of stdout

Examples:
  gossip serve
  gossip --server 192.168.1.101:3000
  gossip ask "Explain goroutines in two sentences"
  echo "Summarize this" | gossip ask
  gossip config set relay.default_model llama3:8b
  gossip history export --format json -o chat.json

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "gossip %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
