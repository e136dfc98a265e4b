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

package identity_test

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ferry/identity"
)

func testIdentity(fill byte) identity.Identity {
	var ret identity.Identity
	for i := range ret {
		ret[i] = fill
	}
	return ret
}

func TestParseRoundTrip(t *testing.T) {
	id := testIdentity(0x42)
	parsed, err := identity.Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseSystemProgram(t *testing.T) {
	// The all-zero identity renders as a run of '1' characters
	id, err := identity.Parse("11111111111111111111111111111111")
	require.NoError(t, err)
	assert.True(t, id.IsZero())
	assert.Equal(t, "11111111111111111111111111111111", id.String())
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "0OIl", "2222"} {
		_, err := identity.Parse(input)
		assert.ErrorIs(t, err, identity.ErrInvalidIdentity, "input=%q", input)
	}
}

func TestFromBytes(t *testing.T) {
	_, err := identity.FromBytes(make([]byte, 31))
	require.ErrorIs(t, err, identity.ErrInvalidIdentity)
	id, err := identity.FromBytes(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	assert.Equal(t, testIdentity(7), id)
}

func TestTextMarshal(t *testing.T) {
	id := testIdentity(0x11)
	text, err := id.MarshalText()
	require.NoError(t, err)
	var out identity.Identity
	require.NoError(t, out.UnmarshalText(text))
	assert.Equal(t, id, out)
}

func TestScan(t *testing.T) {
	id := testIdentity(0x99)
	val, err := id.Value()
	require.NoError(t, err)
	var fromString identity.Identity
	require.NoError(t, fromString.Scan(val))
	assert.Equal(t, id, fromString)
	var fromBytes identity.Identity
	require.NoError(t, fromBytes.Scan([]byte(id.String())))
	assert.Equal(t, id, fromBytes)
	var bad identity.Identity
	assert.Error(t, bad.Scan(int64(5)))
}

func TestDeriveDeterministic(t *testing.T) {
	programID := testIdentity(0x01)
	admin := testIdentity(0x02)
	chainSeed := binary.LittleEndian.AppendUint16(nil, 2)
	addr1, nonce1, err := identity.Derive(
		programID,
		[]byte("authority"),
		admin[:],
		chainSeed,
	)
	require.NoError(t, err)
	addr2, nonce2, err := identity.Derive(
		programID,
		[]byte("authority"),
		admin[:],
		chainSeed,
	)
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2)
	assert.Equal(t, nonce1, nonce2)
	assert.False(t, identity.IsOnCurve(addr1[:]))
	assert.True(
		t,
		identity.Verify(
			programID,
			addr1,
			nonce1,
			[]byte("authority"),
			admin[:],
			chainSeed,
		),
	)
	// A different chain produces a different address
	otherChain := binary.LittleEndian.AppendUint16(nil, 3)
	addr3, _, err := identity.Derive(
		programID,
		[]byte("authority"),
		admin[:],
		otherChain,
	)
	require.NoError(t, err)
	assert.NotEqual(t, addr1, addr3)
}

func TestCreateAddressMatchesDerive(t *testing.T) {
	programID := testIdentity(0x05)
	addr, nonce, err := identity.Derive(programID, []byte("vault"))
	require.NoError(t, err)
	created, err := identity.CreateAddress(programID, nonce, []byte("vault"))
	require.NoError(t, err)
	assert.Equal(t, addr, created)
	// Every nonce above the found one must land on the curve
	for n := 255; n > int(nonce); n-- {
		_, err := identity.CreateAddress(programID, uint8(n), []byte("vault"))
		assert.ErrorIs(t, err, identity.ErrOnCurve)
	}
}

func TestVerifyWrongNonce(t *testing.T) {
	programID := testIdentity(0x03)
	addr, nonce, err := identity.Derive(programID, []byte("x"))
	require.NoError(t, err)
	assert.False(t, identity.Verify(programID, addr, nonce-1, []byte("x")))
}

func TestSeedLimits(t *testing.T) {
	programID := testIdentity(0x04)
	_, _, err := identity.Derive(programID, make([]byte, 33))
	require.ErrorIs(t, err, identity.ErrMaxSeedLengthExceeded)
	seeds := make([][]byte, identity.MaxSeeds)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}
	_, _, err = identity.Derive(programID, seeds...)
	require.ErrorIs(t, err, identity.ErrTooManySeeds)
}

func TestIsOnCurvePublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	assert.True(t, identity.IsOnCurve(pub))
	assert.False(t, identity.IsOnCurve(pub[:31]))
}
