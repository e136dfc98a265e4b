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

	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/snapshot"
)

// RegisterSnapshot stores the proof bundle of a migration so that holders
// can fetch their proofs. The bundle must commit to the migration's root
// and every proof in it must verify. Registering again replaces the
// stored bundle.
func (l *Ledger) RegisterSnapshot(
	ctx context.Context,
	migration identity.Identity,
	caller identity.Identity,
	bundle *snapshot.Bundle,
) error {
	const op = "register_snapshot"
	if bundle == nil {
		return newOperationError(op, migration, snapshot.ErrEmptySnapshot)
	}
	if err := bundle.Verify(); err != nil {
		return newOperationError(op, migration, err)
	}
	err := l.execute(
		ctx,
		op,
		migration,
		[]string{migrationKey(migration.String())},
		func(_ context.Context, txn *database.Txn) error {
			m, err := l.loadMigration(migration, txn)
			if err != nil {
				return err
			}
			if caller != m.Admin {
				return ErrUnauthorized
			}
			if bundle.Root != m.CommitmentRoot {
				return fmt.Errorf(
					"%w: bundle %s, migration %s",
					ErrSnapshotRootMismatch,
					bundle.Root.String(),
					m.CommitmentRoot.String(),
				)
			}
			if total, ok := bundle.Total(); !ok || total > uint64(m.TotalSupply) {
				return fmt.Errorf(
					"%w: snapshot entitlements exceed total supply",
					ErrSupplyExceeded,
				)
			}
			if err := l.db.SetSnapshotBundle(migration, bundle.ToStored(), txn); err != nil {
				return fmt.Errorf("store snapshot bundle: %w", err)
			}
			return nil
		},
	)
	if err != nil {
		return err
	}
	l.metrics.snapshotsRegistered.Inc()
	l.config.Logger.InfoContext(
		ctx,
		"snapshot registered",
		"component", "ledger",
		"migration", migration.String(),
		"claims", len(bundle.Claims),
	)
	l.publish(SnapshotRegisteredEventType, SnapshotRegisteredEvent{
		Migration: migration,
		Root:      bundle.Root,
		Claims:    len(bundle.Claims),
	})
	return nil
}

// GetSnapshot returns the registered bundle of a migration
func (l *Ledger) GetSnapshot(
	ctx context.Context,
	migration identity.Identity,
) (*snapshot.Bundle, error) {
	var ret *snapshot.Bundle
	err := l.view(ctx, "get_snapshot", migration, func(txn *database.Txn) error {
		if _, err := l.loadMigration(migration, txn); err != nil {
			return err
		}
		stored, err := l.db.GetSnapshotBundle(migration, txn)
		if err != nil {
			if errors.Is(err, database.ErrSnapshotNotFound) {
				return ErrSnapshotNotFound
			}
			return fmt.Errorf("load snapshot bundle: %w", err)
		}
		ret, err = snapshot.FromStored(stored)
		return err
	})
	return ret, err
}

// GetProof returns the proof a claimant submits with their claim
func (l *Ledger) GetProof(
	ctx context.Context,
	migration identity.Identity,
	claimant identity.Identity,
) (snapshot.ClaimProof, error) {
	bundle, err := l.GetSnapshot(ctx, migration)
	if err != nil {
		return snapshot.ClaimProof{}, err
	}
	proof, err := bundle.Proof(claimant)
	if err != nil {
		return snapshot.ClaimProof{}, newOperationError("get_proof", migration, err)
	}
	return proof, nil
}
