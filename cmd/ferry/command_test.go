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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ferry/internal/config"
	"github.com/blinklabs-io/ferry/merkle"
)

func TestListPlugins(t *testing.T) {
	shouldExit, output := listPlugins("badger", "sqlite")
	assert.False(t, shouldExit)
	assert.Empty(t, output)

	shouldExit, output = listPlugins("list", "sqlite")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "Available blob plugins:")
	assert.Contains(t, output, "badger")
	assert.NotContains(t, output, "metadata plugins")

	shouldExit, output = listPlugins("list", "list")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "postgres")
	assert.Contains(t, output, "mysql")

	all := listAllPlugins()
	assert.Contains(t, all, "Blob Storage Plugins:")
	assert.Contains(t, all, "Metadata Storage Plugins:")
}

func TestParseCaller(t *testing.T) {
	_, err := parseCaller("")
	require.ErrorIs(t, err, errCallerRequired)
	_, err = parseCaller("not-an-identity")
	require.Error(t, err)
	id, err := parseCaller("11111111111111111111111111111111")
	require.NoError(t, err)
	assert.True(t, id.IsZero())
}

func TestParseProof(t *testing.T) {
	a := merkle.Sum([]byte("a"))
	b := merkle.Sum([]byte("b"))
	proof, err := parseProof(a.String() + ", " + b.String() + ",")
	require.NoError(t, err)
	assert.Equal(t, []merkle.Hash{a, b}, proof)

	_, err = parseProof("0xzz")
	require.ErrorIs(t, err, merkle.ErrInvalidHash)
}

func TestParseAmount(t *testing.T) {
	cfg := &config.Config{Decimals: 6}
	units, err := parseAmount(cfg, "1.25")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_250_000), units)
	_, err = parseAmount(cfg, "")
	require.Error(t, err)
	_, err = parseAmount(cfg, "0.0000001")
	require.Error(t, err)

	out := newAmountOutput(cfg, 1_250_000)
	assert.Equal(t, "1.250000", out.Display)
}
