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

package identity

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	// MaxSeeds is the maximum number of seeds, including the nonce seed
	MaxSeeds = 16
	// MaxSeedLength is the maximum length of a single seed
	MaxSeedLength = 32

	derivedAddressMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("derivation seed too long")
	ErrTooManySeeds          = errors.New("too many derivation seeds")
	ErrOnCurve               = errors.New(
		"derived address lies on the ed25519 curve",
	)
	ErrNoViableNonce = errors.New(
		"unable to find a viable derivation nonce",
	)
)

// CreateAddress computes the derived address for the given seeds and nonce.
// It returns ErrOnCurve when the candidate is a valid ed25519 public key,
// since such an address could have a private key.
func CreateAddress(
	programID Identity,
	nonce uint8,
	seeds ...[]byte,
) (Identity, error) {
	if len(seeds)+1 > MaxSeeds {
		return Zero, ErrTooManySeeds
	}
	h := sha256.New()
	for idx, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Zero, fmt.Errorf(
				"%w: seed %d is %d bytes",
				ErrMaxSeedLengthExceeded,
				idx,
				len(seed),
			)
		}
		h.Write(seed)
	}
	h.Write([]byte{nonce})
	h.Write(programID[:])
	h.Write([]byte(derivedAddressMarker))
	var ret Identity
	copy(ret[:], h.Sum(nil))
	if IsOnCurve(ret[:]) {
		return Zero, ErrOnCurve
	}
	return ret, nil
}

// Derive searches nonces from 255 down to 0 and returns the first derived
// address that is not on the curve, along with the nonce that produced it
func Derive(programID Identity, seeds ...[]byte) (Identity, uint8, error) {
	for nonce := 255; nonce >= 0; nonce-- {
		addr, err := CreateAddress(programID, uint8(nonce), seeds...)
		if err == nil {
			return addr, uint8(nonce), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return Zero, 0, err
		}
	}
	return Zero, 0, ErrNoViableNonce
}

// Verify reports whether addr is the derived address for the seeds and nonce
func Verify(
	programID Identity,
	addr Identity,
	nonce uint8,
	seeds ...[]byte,
) bool {
	tmp, err := CreateAddress(programID, nonce, seeds...)
	if err != nil {
		return false
	}
	return tmp == addr
}

// IsOnCurve reports whether b is the encoding of a point on the ed25519 curve
func IsOnCurve(b []byte) bool {
	if len(b) != Size {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
