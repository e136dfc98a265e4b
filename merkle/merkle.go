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

// Package merkle implements the sorted-pair SHA-256 Merkle commitment used
// for balance snapshots, along with claim leaf hashing and proof verification.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/blinklabs-io/ferry/identity"
)

const HashSize = sha256.Size

var ErrInvalidHash = errors.New("invalid hash")

//nolint:recvcheck
type Hash [HashSize]byte

// ParseHash decodes a hex hash, with or without a 0x prefix
func ParseHash(s string) (Hash, error) {
	var ret Hash
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	if len(decoded) != HashSize {
		return ret, fmt.Errorf(
			"%w: got %d bytes, expected %d",
			ErrInvalidHash,
			len(decoded),
			HashSize,
		)
	}
	copy(ret[:], decoded)
	return ret, nil
}

// HashFromBytes builds a hash from a raw 32-byte slice
func HashFromBytes(b []byte) (Hash, error) {
	var ret Hash
	if len(b) != HashSize {
		return ret, fmt.Errorf(
			"%w: got %d bytes, expected %d",
			ErrInvalidHash,
			len(b),
			HashSize,
		)
	}
	copy(ret[:], b)
	return ret, nil
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	return bytes.Clone(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	tmp, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = tmp
	return nil
}

// Value stores the hash as 0x-prefixed hex text
func (h Hash) Value() (driver.Value, error) {
	return h.String(), nil
}

func (h *Hash) Scan(val any) error {
	switch v := val.(type) {
	case string:
		return h.UnmarshalText([]byte(v))
	case []byte:
		return h.UnmarshalText(v)
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
}

// GormDataType keeps gorm from treating the array as a binary column
func (Hash) GormDataType() string {
	return "string"
}

// Sum hashes the concatenation of all parts
func Sum(parts ...[]byte) Hash {
	h := sha256.New()
	for _, part := range parts {
		h.Write(part)
	}
	var ret Hash
	copy(ret[:], h.Sum(nil))
	return ret
}

// Combine hashes a pair of nodes with the smaller one first, so the result
// does not depend on which side of the tree each node sits
func Combine(a, b Hash) Hash {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return Sum(a[:], b[:])
	}
	return Sum(b[:], a[:])
}

// LeafHash computes the commitment leaf for a claimant entitlement:
// SHA-256(claimant || amount as 8 bytes LE || leaf index as 4 bytes LE)
func LeafHash(
	claimant identity.Identity,
	amount uint64,
	leafIndex uint32,
) Hash {
	var buf [identity.Size + 8 + 4]byte
	copy(buf[:identity.Size], claimant[:])
	binary.LittleEndian.PutUint64(buf[identity.Size:], amount)
	binary.LittleEndian.PutUint32(buf[identity.Size+8:], leafIndex)
	return Sum(buf[:])
}

// Fold applies each proof element to the leaf in order and returns the
// resulting root
func Fold(leaf Hash, proof []Hash) Hash {
	current := leaf
	for _, sibling := range proof {
		current = Combine(current, sibling)
	}
	return current
}

// Verify reports whether folding the proof into the leaf yields root
func Verify(leaf Hash, proof []Hash, root Hash) bool {
	return Fold(leaf, proof) == root
}

// VerifyClaim reports whether the claimant is entitled to amount at
// leafIndex under the commitment root
func VerifyClaim(
	claimant identity.Identity,
	amount uint64,
	leafIndex uint32,
	proof []Hash,
	root Hash,
) bool {
	return Verify(LeafHash(claimant, amount, leafIndex), proof, root)
}
