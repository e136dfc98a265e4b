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

package snapshot_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/merkle"
	"github.com/blinklabs-io/ferry/snapshot"
)

func testIdentity(fill byte) identity.Identity {
	var ret identity.Identity
	for i := range ret {
		ret[i] = fill
	}
	return ret
}

func testEntries(count int) []snapshot.Entry {
	ret := make([]snapshot.Entry, 0, count)
	for i := range count {
		ret = append(ret, snapshot.Entry{
			Claimant: testIdentity(byte(i + 1)),
			Amount:   uint64(1000 * (i + 1)),
		})
	}
	return ret
}

func TestBuildProofsVerify(t *testing.T) {
	for _, count := range []int{1, 2, 3, 4, 5, 7, 8, 13} {
		t.Run(fmt.Sprintf("entries=%d", count), func(t *testing.T) {
			entries := testEntries(count)
			bundle, err := snapshot.Build(entries)
			require.NoError(t, err)
			require.Len(t, bundle.Claims, count)
			require.NoError(t, bundle.Verify())
			for idx, entry := range entries {
				proof, err := bundle.Proof(entry.Claimant)
				require.NoError(t, err)
				assert.Equal(t, uint32(idx), proof.Index)
				assert.True(t, merkle.VerifyClaim(
					entry.Claimant,
					entry.Amount,
					proof.Index,
					proof.Proof,
					bundle.Root,
				))
			}
		})
	}
}

func TestBuildSingleEntryRootIsLeaf(t *testing.T) {
	entries := testEntries(1)
	bundle, err := snapshot.Build(entries)
	require.NoError(t, err)
	assert.Equal(
		t,
		merkle.LeafHash(entries[0].Claimant, entries[0].Amount, 0),
		bundle.Root,
	)
	assert.Empty(t, bundle.Claims[entries[0].Claimant].Proof)
}

func TestBuildThreeLeaves(t *testing.T) {
	entries := testEntries(3)
	bundle, err := snapshot.Build(entries)
	require.NoError(t, err)
	l0 := merkle.LeafHash(entries[0].Claimant, entries[0].Amount, 0)
	l1 := merkle.LeafHash(entries[1].Claimant, entries[1].Amount, 1)
	l2 := merkle.LeafHash(entries[2].Claimant, entries[2].Amount, 2)
	assert.Equal(t, merkle.Combine(merkle.Combine(l0, l1), l2), bundle.Root)
	assert.Equal(
		t,
		[]merkle.Hash{l0, l2},
		bundle.Claims[entries[1].Claimant].Proof,
	)
	// The odd leaf is carried up and only needs the sibling subtree
	assert.Equal(
		t,
		[]merkle.Hash{merkle.Combine(l0, l1)},
		bundle.Claims[entries[2].Claimant].Proof,
	)
}

func TestBuildRejects(t *testing.T) {
	_, err := snapshot.Build(nil)
	require.ErrorIs(t, err, snapshot.ErrEmptySnapshot)

	dup := testEntries(2)
	dup[1].Claimant = dup[0].Claimant
	_, err = snapshot.Build(dup)
	require.ErrorIs(t, err, snapshot.ErrDuplicateClaimant)

	zero := testEntries(2)
	zero[1].Amount = 0
	_, err = snapshot.Build(zero)
	require.ErrorIs(t, err, snapshot.ErrInvalidEntry)
}

func TestProofUnknownClaimant(t *testing.T) {
	bundle, err := snapshot.Build(testEntries(2))
	require.NoError(t, err)
	_, err = bundle.Proof(testIdentity(0xee))
	require.ErrorIs(t, err, snapshot.ErrClaimantNotFound)
}

func TestVerifyDetectsTampering(t *testing.T) {
	entries := testEntries(4)
	bundle, err := snapshot.Build(entries)
	require.NoError(t, err)
	proof := bundle.Claims[entries[0].Claimant]
	proof.Amount++
	bundle.Claims[entries[0].Claimant] = proof
	require.ErrorIs(t, bundle.Verify(), snapshot.ErrInconsistentBundle)
}

func TestTotal(t *testing.T) {
	bundle, err := snapshot.Build(testEntries(3))
	require.NoError(t, err)
	total, ok := bundle.Total()
	require.True(t, ok)
	assert.Equal(t, uint64(6000), total)
}

func TestJSONRoundTrip(t *testing.T) {
	bundle, err := snapshot.Build(testEntries(5))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, bundle.WriteJSON(&buf))
	assert.Contains(t, buf.String(), bundle.Root.String())
	decoded, err := snapshot.ReadBundle(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(bundle, decoded); diff != "" {
		t.Fatalf("bundle mismatch (-want +got):\n%s", diff)
	}
}

func TestStoredRoundTrip(t *testing.T) {
	bundle, err := snapshot.Build(testEntries(6))
	require.NoError(t, err)
	stored := bundle.ToStored()
	for i, claim := range stored.Claims {
		assert.Equal(t, uint32(i), claim.LeafIndex)
	}
	restored, err := snapshot.FromStored(stored)
	require.NoError(t, err)
	if diff := cmp.Diff(bundle, restored); diff != "" {
		t.Fatalf("bundle mismatch (-want +got):\n%s", diff)
	}
}

func TestReadEntries(t *testing.T) {
	claimant := testIdentity(0x33)
	input := fmt.Sprintf(
		`[{"claimant":%q,"amount":1500}]`,
		claimant.String(),
	)
	entries, err := snapshot.ReadEntries(bytes.NewBufferString(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, claimant, entries[0].Claimant)
	assert.Equal(t, uint64(1500), entries[0].Amount)
}
