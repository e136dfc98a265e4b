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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/ledger"
)

func TestDerivedAddressesAreDistinct(t *testing.T) {
	programID := ledger.DefaultProgramID
	migration, _, err := ledger.MigrationAddress(programID, testAdmin, 2)
	require.NoError(t, err)
	otherChain, _, err := ledger.MigrationAddress(programID, testAdmin, 4)
	require.NoError(t, err)
	authority, nonce, err := ledger.AuthorityAddress(programID, testAdmin, 2)
	require.NoError(t, err)
	reserve, _, err := ledger.ReserveVaultAddress(programID, migration)
	require.NoError(t, err)
	governance, _, err := ledger.GovernanceAddress(programID, migration)
	require.NoError(t, err)
	claim, _, err := ledger.ClaimAddress(programID, migration, testOutsider)
	require.NoError(t, err)

	all := []identity.Identity{migration, otherChain, authority, reserve, governance, claim}
	seen := make(map[identity.Identity]struct{})
	for _, addr := range all {
		assert.False(t, identity.IsOnCurve(addr[:]))
		seen[addr] = struct{}{}
	}
	assert.Len(t, seen, len(all))

	assert.True(t, ledger.VerifyAuthority(programID, testAdmin, 2, authority, nonce))
	assert.False(t, ledger.VerifyAuthority(programID, testAdmin, 3, authority, nonce))
	assert.False(t, ledger.VerifyAuthority(programID, testOutsider, 2, authority, nonce))
}

func TestDerivationDependsOnProgramID(t *testing.T) {
	a, _, err := ledger.AuthorityAddress(ledger.DefaultProgramID, testAdmin, 2)
	require.NoError(t, err)
	b, _, err := ledger.AuthorityAddress(testIdentity(0x01), testAdmin, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
