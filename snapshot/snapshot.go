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

// Package snapshot builds the Merkle commitment over a source-network
// balance snapshot and the per-claimant proofs served to holders.
package snapshot

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/merkle"
)

var (
	ErrEmptySnapshot      = errors.New("snapshot has no entries")
	ErrDuplicateClaimant  = errors.New("duplicate claimant in snapshot")
	ErrInvalidEntry       = errors.New("invalid snapshot entry")
	ErrClaimantNotFound   = errors.New("claimant not found in snapshot")
	ErrInconsistentBundle = errors.New("snapshot proof does not match root")
)

// Entry is one holder balance taken from the source network
type Entry struct {
	Claimant identity.Identity `json:"claimant"`
	Amount   uint64            `json:"amount"`
}

// ClaimProof is everything a holder submits with a claim
type ClaimProof struct {
	Proof  []merkle.Hash `json:"proof"`
	Amount uint64        `json:"amount"`
	Index  uint32        `json:"index"`
}

// Bundle is the root together with the proof of every entry
type Bundle struct {
	Root   merkle.Hash                       `json:"root"`
	Claims map[identity.Identity]ClaimProof `json:"claims"`
}

// Build commits to entries in the order given. The position of an entry is
// its leaf index. Nodes are combined pairwise with merkle.Combine, and a
// node without a sibling is carried up to the next level unchanged.
func Build(entries []Entry) (*Bundle, error) {
	if len(entries) == 0 {
		return nil, ErrEmptySnapshot
	}
	if uint64(len(entries)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: too many entries", ErrInvalidEntry)
	}
	seen := make(map[identity.Identity]struct{}, len(entries))
	leaves := make([]merkle.Hash, len(entries))
	for idx, entry := range entries {
		if entry.Claimant.IsZero() || entry.Amount == 0 {
			return nil, fmt.Errorf(
				"%w: entry %d has a zero claimant or amount",
				ErrInvalidEntry,
				idx,
			)
		}
		if _, ok := seen[entry.Claimant]; ok {
			return nil, fmt.Errorf(
				"%w: %s",
				ErrDuplicateClaimant,
				entry.Claimant.String(),
			)
		}
		seen[entry.Claimant] = struct{}{}
		// #nosec G115 -- bounded above
		leaves[idx] = merkle.LeafHash(entry.Claimant, entry.Amount, uint32(idx))
	}
	proofs := make([][]merkle.Hash, len(entries))
	// positions[i] is the index of leaf i within the current level
	positions := make([]int, len(entries))
	for i := range positions {
		positions[i] = i
	}
	level := leaves
	for len(level) > 1 {
		for leaf, pos := range positions {
			sibling := pos ^ 1
			if sibling < len(level) {
				proofs[leaf] = append(proofs[leaf], level[sibling])
			}
			positions[leaf] = pos / 2
		}
		next := make([]merkle.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, merkle.Combine(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}
	ret := &Bundle{
		Root:   level[0],
		Claims: make(map[identity.Identity]ClaimProof, len(entries)),
	}
	for idx, entry := range entries {
		ret.Claims[entry.Claimant] = ClaimProof{
			Amount: entry.Amount,
			// #nosec G115 -- bounded above
			Index: uint32(idx),
			Proof: proofs[idx],
		}
	}
	return ret, nil
}

// Proof returns the proof of one claimant
func (b *Bundle) Proof(claimant identity.Identity) (ClaimProof, error) {
	proof, ok := b.Claims[claimant]
	if !ok {
		return ClaimProof{}, fmt.Errorf(
			"%w: %s",
			ErrClaimantNotFound,
			claimant.String(),
		)
	}
	return proof, nil
}

// Verify checks every proof in the bundle against its root
func (b *Bundle) Verify() error {
	for claimant, proof := range b.Claims {
		if !merkle.VerifyClaim(
			claimant,
			proof.Amount,
			proof.Index,
			proof.Proof,
			b.Root,
		) {
			return fmt.Errorf(
				"%w: claimant %s",
				ErrInconsistentBundle,
				claimant.String(),
			)
		}
	}
	return nil
}

// Total returns the sum of all entitlements, or false if it overflows
func (b *Bundle) Total() (uint64, bool) {
	var total uint64
	for _, proof := range b.Claims {
		if total > math.MaxUint64-proof.Amount {
			return 0, false
		}
		total += proof.Amount
	}
	return total, true
}

// WriteJSON encodes the bundle in its published form
func (b *Bundle) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// ReadBundle decodes a published bundle
func ReadBundle(r io.Reader) (*Bundle, error) {
	var ret Bundle
	if err := json.NewDecoder(r).Decode(&ret); err != nil {
		return nil, fmt.Errorf("decode snapshot bundle: %w", err)
	}
	return &ret, nil
}

// ReadEntries decodes a JSON array of entries
func ReadEntries(r io.Reader) ([]Entry, error) {
	var ret []Entry
	if err := json.NewDecoder(r).Decode(&ret); err != nil {
		return nil, fmt.Errorf("decode snapshot entries: %w", err)
	}
	return ret, nil
}

// ToStored converts the bundle into its blob store form, ordered by leaf
// index
func (b *Bundle) ToStored() types.SnapshotBundle {
	ret := types.SnapshotBundle{
		Root:   b.Root.Bytes(),
		Claims: make([]types.SnapshotClaim, 0, len(b.Claims)),
	}
	for claimant, proof := range b.Claims {
		tmp := types.SnapshotClaim{
			Claimant:  claimant.Bytes(),
			Amount:    proof.Amount,
			LeafIndex: proof.Index,
			Proof:     make([][]byte, 0, len(proof.Proof)),
		}
		for _, h := range proof.Proof {
			tmp.Proof = append(tmp.Proof, h.Bytes())
		}
		ret.Claims = append(ret.Claims, tmp)
	}
	slices.SortFunc(ret.Claims, func(a, b types.SnapshotClaim) int {
		return cmp.Compare(a.LeafIndex, b.LeafIndex)
	})
	return ret
}

// FromStored converts a stored bundle back
func FromStored(stored types.SnapshotBundle) (*Bundle, error) {
	root, err := merkle.HashFromBytes(stored.Root)
	if err != nil {
		return nil, err
	}
	ret := &Bundle{
		Root:   root,
		Claims: make(map[identity.Identity]ClaimProof, len(stored.Claims)),
	}
	for _, claim := range stored.Claims {
		claimant, err := identity.FromBytes(claim.Claimant)
		if err != nil {
			return nil, err
		}
		proof := ClaimProof{
			Amount: claim.Amount,
			Index:  claim.LeafIndex,
			Proof:  make([]merkle.Hash, 0, len(claim.Proof)),
		}
		for _, raw := range claim.Proof {
			h, err := merkle.HashFromBytes(raw)
			if err != nil {
				return nil, err
			}
			proof.Proof = append(proof.Proof, h)
		}
		ret.Claims[claimant] = proof
	}
	return ret, nil
}
