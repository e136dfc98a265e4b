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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/ferry"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/internal/config"
	"github.com/blinklabs-io/ferry/snapshot"
)

func snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Build, register and publish snapshot proof bundles",
	}
	cmd.AddCommand(snapshotBuildCommand())
	cmd.AddCommand(snapshotRegisterCommand())
	cmd.AddCommand(snapshotPublishCommand())
	cmd.AddCommand(snapshotProofCommand())
	return cmd
}

func snapshotBuildCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "build <entries.json>",
		Short: "Build a proof bundle from a JSON list of claimant balances",
		Long: "Build a proof bundle from a JSON array of " +
			"{\"claimant\": <base58>, \"amount\": <base units>} entries. The " +
			"position of an entry is its leaf index. No database is opened.",
		Args: cobra.ExactArgs(1),
		// Building is offline, so skip config loading
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(_ *cobra.Command, args []string) error {
			// #nosec G304 -- operator supplied path
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			entries, err := snapshot.ReadEntries(file)
			if err != nil {
				return err
			}
			bundle, err := snapshot.Build(entries)
			if err != nil {
				return err
			}
			var w io.Writer = os.Stdout
			if output != "" && output != "-" {
				// #nosec G304 -- operator supplied path
				out, err := os.Create(output)
				if err != nil {
					return err
				}
				defer out.Close()
				w = out
			}
			if err := bundle.WriteJSON(w); err != nil {
				return err
			}
			if w != os.Stdout {
				fmt.Fprintf(
					os.Stderr,
					"root %s, %d claims\n",
					bundle.Root.String(),
					len(bundle.Claims),
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "bundle output file, stdout by default")
	return cmd
}

func snapshotRegisterCommand() *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "register <migration> <bundle.json>",
		Short: "Store a proof bundle for lookups, replacing any earlier one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := parseCaller(caller)
			if err != nil {
				return err
			}
			address, err := parseMigration(args[0])
			if err != nil {
				return err
			}
			bundle, err := readBundleFile(args[1])
			if err != nil {
				return err
			}
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, _ *config.Config) error {
					if err := f.Ledger().RegisterSnapshot(ctx, address, admin, bundle); err != nil {
						return err
					}
					return printJSON(struct {
						Migration string `json:"migration"`
						Root      string `json:"root"`
						Claims    int    `json:"claims"`
					}{
						Migration: address.String(),
						Root:      bundle.Root.String(),
						Claims:    len(bundle.Claims),
					})
				},
			)
		},
	}
	addCallerFlag(cmd, &caller)
	return cmd
}

func snapshotPublishCommand() *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "publish <migration>",
		Short: "Upload the registered bundle to the configured snapshot target",
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
					url, err := f.PublishSnapshot(ctx, address, admin)
					if err != nil {
						return err
					}
					return printJSON(struct {
						URL string `json:"url"`
					}{URL: url})
				},
			)
		},
	}
	addCallerFlag(cmd, &caller)
	return cmd
}

func snapshotProofCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "proof <migration> <claimant>",
		Short: "Show the proof a claimant submits",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseMigration(args[0])
			if err != nil {
				return err
			}
			claimant, err := identity.Parse(args[1])
			if err != nil {
				return err
			}
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, _ *config.Config) error {
					proof, err := f.Ledger().GetProof(ctx, address, claimant)
					if err != nil {
						return err
					}
					return printJSON(proof)
				},
			)
		},
	}
}
