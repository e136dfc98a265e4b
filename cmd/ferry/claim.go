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
	"strings"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/ferry"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/internal/config"
	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/merkle"
)

func fundCommand() *cobra.Command {
	var flags struct {
		caller string
		amount string
	}
	cmd := &cobra.Command{
		Use:   "fund <migration>",
		Short: "Mint tokens into the payout vault of a migration",
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
				func(ctx context.Context, f *ferry.Ferry, cfg *config.Config) error {
					amount, err := parseAmount(cfg, flags.amount)
					if err != nil {
						return err
					}
					balance, err := f.Ledger().FundMigration(ctx, address, admin, amount)
					if err != nil {
						return err
					}
					return printJSON(struct {
						Migration    string       `json:"migration"`
						Amount       amountOutput `json:"amount"`
						VaultBalance amountOutput `json:"vault_balance"`
					}{
						Migration:    address.String(),
						Amount:       newAmountOutput(cfg, amount),
						VaultBalance: newAmountOutput(cfg, balance),
					})
				},
			)
		},
	}
	addCallerFlag(cmd, &flags.caller)
	cmd.Flags().StringVar(&flags.amount, "amount", "", "amount to mint as a decimal amount")
	return cmd
}

func balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <migration> [owner]",
		Short: "Show a token balance, the payout vault when no owner is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseMigration(args[0])
			if err != nil {
				return err
			}
			var owner identity.Identity
			if len(args) > 1 {
				owner, err = identity.Parse(args[1])
				if err != nil {
					return err
				}
			}
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, cfg *config.Config) error {
					balance, err := f.Ledger().GetBalance(ctx, address, owner)
					if err != nil {
						return err
					}
					return printJSON(newAmountOutput(cfg, balance))
				},
			)
		},
	}
}

func claimCommand() *cobra.Command {
	var flags struct {
		caller      string
		destination string
		amount      string
		proof       string
		leafIndex   uint32
	}
	cmd := &cobra.Command{
		Use:   "claim <migration>",
		Short: "Claim migrated tokens with a Merkle proof",
		Long: "Claim migrated tokens with a Merkle proof. Without --proof the " +
			"amount, leaf index and proof are looked up in the registered " +
			"snapshot bundle.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claimant, err := parseCaller(flags.caller)
			if err != nil {
				return err
			}
			address, err := parseMigration(args[0])
			if err != nil {
				return err
			}
			var destination identity.Identity
			if flags.destination != "" {
				destination, err = identity.Parse(flags.destination)
				if err != nil {
					return err
				}
			}
			return runWithFerry(
				cmd,
				func(ctx context.Context, f *ferry.Ferry, cfg *config.Config) error {
					req := ledger.ClaimRequest{
						Migration:   address,
						Claimant:    claimant,
						Destination: destination,
						LeafIndex:   flags.leafIndex,
					}
					if flags.proof == "" {
						proof, err := f.Ledger().GetProof(ctx, address, claimant)
						if err != nil {
							return err
						}
						req.Proof = proof.Proof
						req.Amount = proof.Amount
						req.LeafIndex = proof.Index
					} else {
						req.Proof, err = parseProof(flags.proof)
						if err != nil {
							return err
						}
						req.Amount, err = parseAmount(cfg, flags.amount)
						if err != nil {
							return err
						}
					}
					claim, err := f.Ledger().Claim(ctx, req)
					if err != nil {
						return err
					}
					return printJSON(claim)
				},
			)
		},
	}
	addCallerFlag(cmd, &flags.caller)
	cmd.Flags().StringVar(&flags.destination, "destination", "", "account receiving the tokens, the caller by default")
	cmd.Flags().StringVar(&flags.amount, "amount", "", "entitled amount as a decimal amount")
	cmd.Flags().StringVar(&flags.proof, "proof", "", "comma separated hex proof elements")
	cmd.Flags().Uint32Var(&flags.leafIndex, "leaf-index", 0, "leaf index of the entitlement")
	return cmd
}

func parseProof(s string) ([]merkle.Hash, error) {
	parts := strings.Split(s, ",")
	ret := make([]merkle.Hash, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := merkle.ParseHash(part)
		if err != nil {
			return nil, err
		}
		ret = append(ret, h)
	}
	return ret, nil
}
