// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// relay.go - Relay inspection commands.
//
//   gossip models          List the runtime's models through the relay
//   gossip health          Check /health; exits 5 when unreachable

package cli

import (
	"context"
	"fmt"

	"github.com/gossip-ai/gossip/internal/model"
	"github.com/gossip-ai/gossip/internal/ui/styles"
	"github.com/gossip-ai/gossip/internal/util"
)

// ModelsResult is the --json payload of models.
type ModelsResult struct {
	Server string                  `json:"server"`
	Active string                  `json:"active"`
	Models []model.ModelDescriptor `json:"models"`
}

// HandleModels lists the models the relay offers, marking the active one.
func HandleModels(ctx context.Context, env *Env, args Args) error {
	mgr, err := env.Session(args)
	if err != nil {
		return err
	}

	return OutputJSON(env.Stdout, args.JSON, "models", func() (any, error) {
		models, err := mgr.FetchModels(ctx)
		if err != nil {
			return nil, err
		}
		cfg := mgr.Config()
		if !args.JSON {
			printModels(env, cfg.ModelName, models)
		}
		return ModelsResult{Server: cfg.ServerAddress, Active: cfg.ModelName, Models: models}, nil
	})
}

func printModels(env *Env, active string, models []model.ModelDescriptor) {
	if len(models) == 0 {
		fmt.Fprintln(env.Stdout, DimStyle.Render("The relay reported no models."))
		return
	}
	for _, m := range models {
		marker := "  "
		if m.Name == active {
			marker = SuccessStyle.Render("* ")
		}
		fmt.Fprintf(env.Stdout, "%s%s %s\n", marker, util.PadWidth(m.Name, 32), DimStyle.Render(model.FormatSize(m.Size)))
	}
}

// HealthResult is the --json payload of health.
type HealthResult struct {
	Server    string `json:"server"`
	Connected bool   `json:"connected"`
}

// HandleHealth checks the relay once.
func HandleHealth(ctx context.Context, env *Env, args Args) error {
	mgr, err := env.Session(args)
	if err != nil {
		return err
	}

	return OutputJSON(env.Stdout, args.JSON, "health", func() (any, error) {
		server := mgr.Config().ServerAddress
		connected := mgr.CheckHealth(ctx)
		if !args.JSON {
			if connected {
				fmt.Fprintf(env.Stdout, "%s Connected to server %s\n",
					SuccessStyle.Render(styles.StatusIndicators.Connected), server)
			} else {
				fmt.Fprintf(env.Stdout, "%s Server disconnected (%s)\n",
					ErrorStyle.Render(styles.StatusIndicators.Disconnected), server)
			}
		}
		if !connected {
			return HealthResult{Server: server}, fmt.Errorf("%w at %s", ErrRelayUnreachable, server)
		}
		return HealthResult{Server: server, Connected: true}, nil
	})
}
