// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/ferry"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/internal/config"
	"github.com/blinklabs-io/ferry/internal/node"
	"github.com/blinklabs-io/ferry/token"
)

var errCallerRequired = errors.New("--caller is required")

// runWithFerry opens the configured stores without the API or the
// maintenance scheduler, runs fn and closes everything again. It must not
// share a data directory with a running server.
func runWithFerry(
	cmd *cobra.Command,
	fn func(ctx context.Context, f *ferry.Ferry, cfg *config.Config) error,
) error {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errors.New("no config found in context")
	}
	ctx := cmd.Context()
	ferryCfg, err := node.FerryConfig(
		ctx,
		cfg,
		commandLogger(),
		ferry.WithMaintenanceInterval(0),
		ferry.WithTracing(false),
		ferry.WithTracingStdout(false),
	)
	if err != nil {
		return err
	}
	f, err := ferry.New(ferryCfg)
	if err != nil {
		return err
	}
	if err := f.Start(ctx); err != nil {
		return errors.Join(err, f.Stop())
	}
	return errors.Join(fn(ctx, f, cfg), f.Stop())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// addCallerFlag registers --caller, the identity a mutating command acts as
func addCallerFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVar(dest, "caller", "", "identity (base58) the command acts as")
}

func parseCaller(caller string) (identity.Identity, error) {
	if caller == "" {
		return identity.Zero, errCallerRequired
	}
	ret, err := identity.Parse(caller)
	if err != nil {
		return identity.Zero, fmt.Errorf("invalid caller: %w", err)
	}
	return ret, nil
}

func parseMigration(arg string) (identity.Identity, error) {
	ret, err := identity.Parse(arg)
	if err != nil {
		return identity.Zero, fmt.Errorf("invalid migration address: %w", err)
	}
	return ret, nil
}

// parseAmount reads a display amount such as "12.5" into base units
func parseAmount(cfg *config.Config, s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("--amount is required")
	}
	return token.ParseAmount(s, cfg.Decimals)
}

type amountOutput struct {
	Units   uint64 `json:"units"`
	Display string `json:"display"`
}

func newAmountOutput(cfg *config.Config, units uint64) amountOutput {
	return amountOutput{
		Units:   units,
		Display: token.FormatAmount(units, cfg.Decimals),
	}
}
