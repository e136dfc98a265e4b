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

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/ferry"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/internal/config"
	"github.com/blinklabs-io/ferry/ledger"
)

func reserveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Manage the DAO liquidity reserve of a migration",
	}
	cmd.AddCommand(reserveInitCommand())
	cmd.AddCommand(reserveContributeCommand())
	cmd.AddCommand(reserveGetCommand())
	return cmd
}

func reserveInitCommand() *cobra.Command {
	var flags struct {
		caller     string
		percentage uint8
	}
	cmd := &cobra.Command{
		Use:   "init <migration>",
		Short: "Create the liquidity reserve with the caller as treasury",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := parseCaller(flags.caller)
			if err != nil {
				return err
			}
			address, err := parseMigration(args[0])
			if err != nil {
				return err
			}
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, _ *config.Config) error {
					reserve, err := f.Ledger().InitializeLiquidityReserve(
						ctx,
						address,
						admin,
						flags.percentage,
					)
					if err != nil {
						return err
					}
					return printJSON(reserve)
				},
			)
		},
	}
	addCallerFlag(cmd, &flags.caller)
	cmd.Flags().Uint8Var(
		&flags.percentage,
		"percentage",
		ledger.MaxReservePercentage,
		"share of supply set aside, between 1 and 20",
	)
	return cmd
}

func reserveContributeCommand() *cobra.Command {
	var flags struct {
		caller  string
		amount  string
		reserve string
	}
	cmd := &cobra.Command{
		Use:   "contribute <migration>",
		Short: "Move tokens from the caller into the liquidity reserve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contributor, err := parseCaller(flags.caller)
			if err != nil {
				return err
			}
			address, err := parseMigration(args[0])
			if err != nil {
				return err
			}
			var reserveVault identity.Identity
			if flags.reserve != "" {
				reserveVault, err = identity.Parse(flags.reserve)
				if err != nil {
					return err
				}
			}
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, cfg *config.Config) error {
					amount, err := parseAmount(cfg, flags.amount)
					if err != nil {
						return err
					}
					reserve, err := f.Ledger().ContributeLiquidity(
						ctx,
						ledger.ContributeRequest{
							Migration:   address,
							Reserve:     reserveVault,
							Contributor: contributor,
							Amount:      amount,
						},
					)
					if err != nil {
						return err
					}
					return printJSON(reserve)
				},
			)
		},
	}
	addCallerFlag(cmd, &flags.caller)
	cmd.Flags().StringVar(&flags.amount, "amount", "", "amount to contribute as a decimal amount")
	cmd.Flags().StringVar(&flags.reserve, "reserve", "", "expected reserve vault address")
	return cmd
}

func reserveGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <migration>",
		Short: "Show the liquidity reserve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseMigration(args[0])
			if err != nil {
				return err
			}
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, _ *config.Config) error {
					reserve, err := f.Ledger().GetLiquidityReserve(ctx, address)
					if err != nil {
						return err
					}
					return printJSON(reserve)
				},
			)
		},
	}
}
