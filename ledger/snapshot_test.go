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

package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/merkle"
	"github.com/blinklabs-io/ferry/snapshot"
)

func TestRegisterSnapshotAndClaimWithServedProof(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	entries, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, bundle.Root, 6000)

	_, err := env.ledger.GetProof(ctx, m.Address, entries[0].Claimant)
	require.ErrorIs(t, err, ledger.ErrSnapshotNotFound)

	err = env.ledger.RegisterSnapshot(ctx, m.Address, testOutsider, bundle)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)
	require.NoError(t, env.ledger.RegisterSnapshot(ctx, m.Address, testAdmin, bundle))

	proof, err := env.ledger.GetProof(ctx, m.Address, entries[1].Claimant)
	require.NoError(t, err)
	assert.Equal(t, entries[1].Amount, proof.Amount)
	_, err = env.ledger.Claim(ctx, ledger.ClaimRequest{
		Migration: m.Address,
		Claimant:  entries[1].Claimant,
		Amount:    proof.Amount,
		LeafIndex: proof.Index,
		Proof:     proof.Proof,
	})
	require.NoError(t, err)

	_, err = env.ledger.GetProof(ctx, m.Address, testOutsider)
	require.ErrorIs(t, err, snapshot.ErrClaimantNotFound)
}

func TestRegisterSnapshotRootMismatch(t *testing.T) {
	env := newTestEnv(t)
	_, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, merkle.Sum([]byte("other")), 6000)
	err := env.ledger.RegisterSnapshot(context.Background(), m.Address, testAdmin, bundle)
	require.ErrorIs(t, err, ledger.ErrSnapshotRootMismatch)
}

func TestRegisterSnapshotExceedsSupply(t *testing.T) {
	env := newTestEnv(t)
	_, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, bundle.Root, 5999)
	err := env.ledger.RegisterSnapshot(context.Background(), m.Address, testAdmin, bundle)
	require.ErrorIs(t, err, ledger.ErrSupplyExceeded)
}
