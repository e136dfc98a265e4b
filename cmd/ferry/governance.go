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
	"github.com/blinklabs-io/ferry/internal/config"
)

func voteCommand() *cobra.Command {
	var flags struct {
		caller string
		choice string
	}
	cmd := &cobra.Command{
		Use:   "vote <migration>",
		Short: "Cast a vote weighted by the caller's claimed amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voter, err := parseCaller(flags.caller)
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
					vote, err := f.Ledger().CastVote(ctx, address, voter, flags.choice)
					if err != nil {
						return err
					}
					return printJSON(vote)
				},
			)
		},
	}
	addCallerFlag(cmd, &flags.caller)
	cmd.Flags().StringVar(&flags.choice, "choice", "", "vote choice")
	return cmd
}

func tallyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tally <migration>",
		Short: "Show the governance tally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseMigration(args[0])
			if err != nil {
				return err
			}
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, _ *config.Config) error {
					tally, err := f.Ledger().GetTally(ctx, address)
					if err != nil {
						return err
					}
					return printJSON(tally)
				},
			)
		},
	}
}
