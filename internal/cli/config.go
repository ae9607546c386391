// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command.
//
// Command: config [show|get|set|path|keys|ips]
//
// Examples:
//   gossip config                                  Show the effective config
//   gossip config get relay.port
//   gossip config set relay.default_model llama3:8b
//   gossip config set runtime.kind openai
//   gossip config path                             Show the config file location
//   gossip config keys                             List settable keys
//   gossip config ips                              Common LAN relay addresses
//
// Keys use section.name form matching the TOML file. A running relay picks
// up relay.default_model without a restart.

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gossip-ai/gossip/internal/config"
	"github.com/gossip-ai/gossip/internal/model"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(env *Env, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(env, args)
	case "get":
		return handleConfigGet(env, args)
	case "set":
		return handleConfigSet(env, args)
	case "path":
		return OutputJSON(env.Stdout, args.JSON, "config", func() (any, error) {
			if !args.JSON {
				fmt.Fprintln(env.Stdout, env.ConfigPath)
			}
			return map[string]string{"path": env.ConfigPath}, nil
		})
	case "keys":
		return OutputJSON(env.Stdout, args.JSON, "config", func() (any, error) {
			keys := config.Keys()
			if !args.JSON {
				fmt.Fprintln(env.Stdout, strings.Join(keys, "\n"))
			}
			return keys, nil
		})
	case "ips":
		return handleConfigIPs(env, args)
	default:
		return &UsageError{Message: fmt.Sprintf("unknown config subcommand %q (want show, get, set, path, keys or ips)", args.Subcommand)}
	}
}

func handleConfigShow(env *Env, args Args) error {
	shown := *env.Config
	shown.Runtime.APIKey = maskAPIKey(shown.Runtime.APIKey)

	return OutputJSON(env.Stdout, args.JSON, "config", func() (any, error) {
		if args.JSON {
			return shown, nil
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(shown); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Fprintf(env.Stdout, "%s %s\n\n", TitleStyle.Render("Configuration"), DimStyle.Render(env.ConfigPath))
		fmt.Fprint(env.Stdout, buf.String())
		return nil, nil
	})
}

func handleConfigGet(env *Env, args Args) error {
	if len(args.Positional) < 2 {
		return ErrMissingArgument("key", "gossip config get <section.name>")
	}
	key := args.Positional[1]

	return OutputJSON(env.Stdout, args.JSON, "config", func() (any, error) {
		v, err := env.Config.Get(key)
		if err != nil {
			return nil, &UsageError{Message: err.Error()}
		}
		if key == "runtime.api_key" {
			v = maskAPIKey(fmt.Sprint(v))
		}
		if !args.JSON {
			fmt.Fprintln(env.Stdout, formatConfigValue(v))
		}
		return map[string]any{"key": key, "value": v}, nil
	})
}

// handleConfigSet changes one key, validates the result and writes the file.
// Environment overrides in effect are not written back.
func handleConfigSet(env *Env, args Args) error {
	if len(args.Positional) < 3 {
		return ErrMissingArgument("key and value", "gossip config set <section.name> <value>")
	}
	key := args.Positional[1]
	value := strings.Join(args.Positional[2:], " ")

	fileCfg, err := loadFileConfig(env.ConfigPath)
	if err != nil {
		return err
	}
	if err := fileCfg.Set(key, value); err != nil {
		return &UsageError{Message: err.Error()}
	}
	if err := fileCfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(fileCfg, env.ConfigPath); err != nil {
		return NewCommandError("config", "set", "could not save the config file", err)
	}

	// Keep the in-memory config in step for anything that runs after.
	_ = env.Config.Set(key, value)

	return OutputJSON(env.Stdout, args.JSON, "config", func() (any, error) {
		if !args.JSON {
			fmt.Fprintf(env.Stdout, "%s %s = %s\n", SuccessStyle.Render("✓"), key, value)
		}
		return map[string]string{"key": key, "value": value}, nil
	})
}

// loadFileConfig reads only the file, so env overrides are not persisted.
func loadFileConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err := config.LoadTOML(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func handleConfigIPs(env *Env, args Args) error {
	addrs := model.CommonRelayAddresses()
	return OutputJSON(env.Stdout, args.JSON, "config", func() (any, error) {
		if !args.JSON {
			fmt.Fprintln(env.Stdout, TitleStyle.Render("Common relay addresses"))
			for _, a := range addrs {
				fmt.Fprintln(env.Stdout, "  "+a)
			}
			fmt.Fprintln(env.Stdout, DimStyle.Render("\nUse one with: gossip --server <address>"))
		}
		return addrs, nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func maskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func formatConfigValue(v any) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ",")
	case config.Duration:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
