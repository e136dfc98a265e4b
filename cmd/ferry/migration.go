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
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/ferry"
	"github.com/blinklabs-io/ferry/chains"
	"github.com/blinklabs-io/ferry/internal/config"
	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/merkle"
	"github.com/blinklabs-io/ferry/snapshot"
)

func migrationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migration",
		Short: "Manage migrations",
	}
	cmd.AddCommand(migrationCreateCommand())
	cmd.AddCommand(migrationFinalizeCommand())
	cmd.AddCommand(migrationListCommand())
	cmd.AddCommand(migrationGetCommand())
	return cmd
}

func migrationCreateCommand() *cobra.Command {
	var flags struct {
		caller        string
		name          string
		sourceChain   string
		sourceAddress string
		root          string
		bundleFile    string
		totalSupply   string
	}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a migration with the caller as admin",
		Long: "Create a migration with the caller as admin. The commitment " +
			"root is taken from --root, or from --bundle, in which case the " +
			"bundle is also registered for proof lookups.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			admin, err := parseCaller(flags.caller)
			if err != nil {
				return err
			}
			chainID, err := chains.ParseChainID(flags.sourceChain)
			if err != nil {
				return err
			}
			sourceAddress, err := chains.NormalizeAddress(chainID, flags.sourceAddress)
			if err != nil {
				return err
			}
			var bundle *snapshot.Bundle
			var root merkle.Hash
			switch {
			case flags.bundleFile != "" && flags.root != "":
				return errors.New("--root and --bundle are mutually exclusive")
			case flags.bundleFile != "":
				bundle, err = readBundleFile(flags.bundleFile)
				if err != nil {
					return err
				}
				root = bundle.Root
			case flags.root != "":
				root, err = merkle.ParseHash(flags.root)
				if err != nil {
					return err
				}
			default:
				return errors.New("one of --root or --bundle is required")
			}
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, cfg *config.Config) error {
					totalSupply, err := parseAmount(cfg, flags.totalSupply)
					if err != nil {
						return err
					}
					m, err := f.Ledger().CreateMigration(
						ctx,
						admin,
						ledger.CreateMigrationParams{
							Name:           flags.name,
							SourceAddress:  sourceAddress,
							CommitmentRoot: root,
							TotalSupply:    totalSupply,
							SourceChainID:  uint16(chainID),
						},
					)
					if err != nil {
						return err
					}
					if bundle != nil {
						if err := f.Ledger().RegisterSnapshot(ctx, m.Address, admin, bundle); err != nil {
							return err
						}
					}
					return printJSON(m)
				},
			)
		},
	}
	addCallerFlag(cmd, &flags.caller)
	cmd.Flags().StringVar(&flags.name, "name", "", "descriptive name, at most 64 bytes")
	cmd.Flags().StringVar(&flags.sourceChain, "source-chain", "", "source chain name or numeric ID")
	cmd.Flags().StringVar(&flags.sourceAddress, "source-address", "", "token address on the source chain")
	cmd.Flags().StringVar(&flags.root, "root", "", "hex commitment root")
	cmd.Flags().StringVar(&flags.bundleFile, "bundle", "", "snapshot bundle file from 'snapshot build'")
	cmd.Flags().StringVar(&flags.totalSupply, "total-supply", "", "total supply as a decimal amount")
	return cmd
}

func migrationFinalizeCommand() *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "finalize <migration>",
		Short: "Close a migration to further claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := parseCaller(caller)
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
					m, err := f.Ledger().FinalizeMigration(ctx, address, admin)
					if err != nil {
						return err
					}
					return printJSON(m)
				},
			)
		},
	}
	addCallerFlag(cmd, &caller)
	return cmd
}

func migrationListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, _ *config.Config) error {
					migrations, err := f.Ledger().ListMigrations(ctx)
					if err != nil {
						return err
					}
					return printJSON(migrations)
				},
			)
		},
	}
}

func migrationGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <migration>",
		Short: "Show a migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseMigration(args[0])
			if err != nil {
				return err
			}
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, _ *config.Config) error {
					m, err := f.Ledger().GetMigration(ctx, address)
					if err != nil {
						return err
					}
					return printJSON(m)
				},
			)
		},
	}
}

func readBundleFile(path string) (*snapshot.Bundle, error) {
	// #nosec G304 -- operator supplied path
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return snapshot.ReadBundle(file)
}
