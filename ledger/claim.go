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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/merkle"
	"github.com/blinklabs-io/ferry/token"
)

// ClaimRequest is a holder's proof of entitlement. Destination receives the
// payout and defaults to the claimant.
type ClaimRequest struct {
	Proof       []merkle.Hash
	Amount      uint64
	Migration   identity.Identity
	Claimant    identity.Identity
	Destination identity.Identity
	LeafIndex   uint32
}

// Claim pays out a proven entitlement exactly once. All checks run before
// anything is written, and the claim record, the running migrated amount
// and the vault transfer commit together or not at all.
func (l *Ledger) Claim(
	ctx context.Context,
	req ClaimRequest,
) (*models.Claim, error) {
	const op = "claim"
	if req.Destination.IsZero() {
		req.Destination = req.Claimant
	}
	var claim *models.Claim
	var migratedAmount uint64
	keys := []string{
		migrationKey(req.Migration.String()),
		claimKey(req.Migration.String(), req.Claimant.String()),
	}
	err := l.execute(
		ctx,
		op,
		req.Migration,
		keys,
		func(ctx context.Context, txn *database.Txn) error {
			m, err := l.loadMigration(req.Migration, txn)
			if err != nil {
				return err
			}
			if !m.IsActive {
				return ErrMigrationNotActive
			}
			if req.Amount == 0 {
				return ErrInvalidAmount
			}
			existing, err := l.db.GetClaim(m.ID, req.Claimant, txn)
			if err == nil && existing.IsClaimed {
				return ErrAlreadyClaimed
			}
			if err != nil && !errors.Is(err, types.ErrRecordNotFound) {
				return fmt.Errorf("load claim: %w", err)
			}
			if !merkle.VerifyClaim(
				req.Claimant,
				req.Amount,
				req.LeafIndex,
				req.Proof,
				m.CommitmentRoot,
			) {
				return ErrInvalidMerkleProof
			}
			newTotal, carry := bits.Add64(
				uint64(m.MigratedAmount),
				req.Amount,
				0,
			)
			if carry != 0 || newTotal > uint64(m.TotalSupply) {
				return fmt.Errorf(
					"%w: %d migrated of %d, claim for %d",
					ErrSupplyExceeded,
					uint64(m.MigratedAmount),
					uint64(m.TotalSupply),
					req.Amount,
				)
			}
			if !VerifyAuthority(
				l.config.ProgramID,
				m.Admin,
				m.SourceChainID,
				m.Authority,
				m.AuthorityNonce,
			) {
				return ErrAuthorityMismatch
			}
			receipt, err := l.config.Transferer.Transfer(
				ctx,
				txn,
				token.TransferRequest{
					Asset:     m.Address,
					From:      m.Authority,
					To:        req.Destination,
					Authority: m.Authority,
					Amount:    req.Amount,
				},
			)
			if err != nil {
				return fmt.Errorf("transfer from vault: %w", err)
			}
			claim = &models.Claim{
				MigrationID:   m.ID,
				Claimant:      req.Claimant,
				Destination:   req.Destination,
				ClaimedAmount: types.Uint64(req.Amount),
				LeafIndex:     req.LeafIndex,
				IsClaimed:     true,
				TransferID:    receipt.ID.String(),
				ClaimedAt:     l.now(),
			}
			if err := l.db.CreateClaim(claim, txn); err != nil {
				if errors.Is(err, types.ErrDuplicateRecord) {
					return ErrAlreadyClaimed
				}
				return fmt.Errorf("create claim: %w", err)
			}
			m.MigratedAmount = types.Uint64(newTotal)
			if err := l.db.UpdateMigration(m, txn); err != nil {
				return fmt.Errorf("update migration: %w", err)
			}
			migratedAmount = newTotal
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	l.metrics.claimedAmount.Add(float64(req.Amount))
	l.config.Logger.InfoContext(
		ctx,
		"claim paid",
		"component", "ledger",
		"migration", req.Migration.String(),
		"claimant", req.Claimant.String(),
		"destination", req.Destination.String(),
		"amount", req.Amount,
		"transfer_id", claim.TransferID,
	)
	l.publish(ClaimEventType, ClaimEvent{
		ClaimedAt:      claim.ClaimedAt,
		TransferID:     claim.TransferID,
		Migration:      req.Migration,
		Claimant:       req.Claimant,
		Destination:    req.Destination,
		Amount:         req.Amount,
		MigratedAmount: migratedAmount,
		LeafIndex:      req.LeafIndex,
	})
	return claim, nil
}

// GetClaim returns the claim record of a claimant. A claimant that has not
// claimed yet gets types.ErrRecordNotFound.
func (l *Ledger) GetClaim(
	ctx context.Context,
	migration identity.Identity,
	claimant identity.Identity,
) (*models.Claim, error) {
	var ret *models.Claim
	err := l.view(ctx, "get_claim", migration, func(txn *database.Txn) error {
		m, err := l.loadMigration(migration, txn)
		if err != nil {
			return err
		}
		ret, err = l.db.GetClaim(m.ID, claimant, txn)
		return err
	})
	return ret, err
}

// ListClaims returns every claim of a migration ordered by leaf index
func (l *Ledger) ListClaims(
	ctx context.Context,
	migration identity.Identity,
) ([]models.Claim, error) {
	var ret []models.Claim
	err := l.view(ctx, "list_claims", migration, func(txn *database.Txn) error {
		m, err := l.loadMigration(migration, txn)
		if err != nil {
			return err
		}
		ret, err = l.db.ListClaims(m.ID, txn)
		return err
	})
	return ret, err
}
