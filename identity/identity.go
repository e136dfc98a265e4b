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

// Package identity provides the 32-byte account identities used throughout
// ferry and the program-derived address scheme used to compute authorities
// that have no private key.
package identity

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Size is the length in bytes of an identity
const Size = 32

var ErrInvalidIdentity = errors.New("invalid identity")

// Identity is an opaque 32-byte account identifier. It is rendered as base58
// text, matching the convention of the destination network.
//
//nolint:recvcheck
type Identity [Size]byte

// Zero is the all-zero identity
var Zero Identity

// Parse decodes a base58 identity string
func Parse(s string) (Identity, error) {
	var ret Identity
	if s == "" {
		return ret, fmt.Errorf("%w: empty string", ErrInvalidIdentity)
	}
	decoded := base58.Decode(s)
	if len(decoded) != Size {
		return ret, fmt.Errorf(
			"%w: %q decodes to %d bytes, expected %d",
			ErrInvalidIdentity,
			s,
			len(decoded),
			Size,
		)
	}
	copy(ret[:], decoded)
	return ret, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Identity {
	ret, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ret
}

// FromBytes builds an identity from a raw 32-byte slice
func FromBytes(b []byte) (Identity, error) {
	var ret Identity
	if len(b) != Size {
		return ret, fmt.Errorf(
			"%w: got %d bytes, expected %d",
			ErrInvalidIdentity,
			len(b),
			Size,
		)
	}
	copy(ret[:], b)
	return ret, nil
}

func (i Identity) String() string {
	return base58.Encode(i[:])
}

func (i Identity) Bytes() []byte {
	return bytes.Clone(i[:])
}

func (i Identity) IsZero() bool {
	return i == Zero
}

// Compare orders identities byte-lexicographically
func (i Identity) Compare(other Identity) int {
	return bytes.Compare(i[:], other[:])
}

func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identity) UnmarshalText(text []byte) error {
	tmp, err := Parse(string(text))
	if err != nil {
		return err
	}
	*i = tmp
	return nil
}

// Value stores the identity as its base58 text form
func (i Identity) Value() (driver.Value, error) {
	return i.String(), nil
}

func (i *Identity) Scan(val any) error {
	switch v := val.(type) {
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		// Some drivers hand back text columns as bytes
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
}

// GormDataType keeps gorm from treating the array as a binary column
func (Identity) GormDataType() string {
	return "string"
}
