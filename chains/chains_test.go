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

package chains_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ferry/chains"
)

func TestParseChainID(t *testing.T) {
	tests := []struct {
		input    string
		expected chains.ChainID
		wantErr  bool
	}{
		{"ethereum", chains.ChainIDEthereum, false},
		{"Solana", chains.ChainIDSolana, false},
		{"2", chains.ChainIDEthereum, false},
		{"4000", chains.ChainID(4000), false},
		{"70000", 0, true},
		{"nope", 0, true},
	}
	for _, tt := range tests {
		got, err := chains.ParseChainID(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input=%q", tt.input)
			continue
		}
		require.NoError(t, err, "input=%q", tt.input)
		assert.Equal(t, tt.expected, got)
	}
}

func TestChainIDString(t *testing.T) {
	assert.Equal(t, "ethereum", chains.ChainIDEthereum.String())
	assert.Equal(t, "chain-4000", chains.ChainID(4000).String())
}

func TestNormalizeEVMAddress(t *testing.T) {
	addr := "0x52908400098527886E0F7030069857D2E4169EE7"
	id, err := chains.NormalizeAddress(chains.ChainIDEthereum, addr)
	require.NoError(t, err)
	// 12 zero bytes followed by the 20-byte address
	for _, b := range id[:12] {
		assert.Zero(t, b)
	}
	assert.Equal(t, byte(0x52), id[12])
	assert.Equal(t, byte(0xe7), id[31])
	assert.True(
		t,
		strings.EqualFold(addr, chains.DisplayAddress(chains.ChainIDEthereum, id)),
	)
}

func TestNormalizeEVMAddressInvalid(t *testing.T) {
	_, err := chains.NormalizeAddress(chains.ChainIDBase, "0x1234")
	assert.ErrorIs(t, err, chains.ErrInvalidAddress)
}

func TestNormalizeOpaqueAddress(t *testing.T) {
	hexAddr := "0x" + strings.Repeat("ab", 32)
	id, err := chains.NormalizeAddress(chains.ChainIDSui, hexAddr)
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), id[0])

	_, err = chains.NormalizeAddress(chains.ChainIDSui, "0xabcd")
	assert.ErrorIs(t, err, chains.ErrInvalidAddress)

	b58 := id.String()
	id2, err := chains.NormalizeAddress(chains.ChainIDSolana, b58)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, b58, chains.DisplayAddress(chains.ChainIDSolana, id2))
}

func TestKnownIsCopy(t *testing.T) {
	known := chains.Known()
	require.NotEmpty(t, known)
	known[0].Name = "mutated"
	c, ok := chains.Lookup(chains.ChainIDSolana)
	require.True(t, ok)
	assert.Equal(t, "solana", c.Name)
}
