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

package ledger

import (
	"encoding/binary"

	"github.com/blinklabs-io/ferry/identity"
)

// DefaultProgramID is the program identity that all record addresses and
// authorities are derived under unless configured otherwise
var DefaultProgramID = identity.MustParse(
	"2z3U1Wwq7bgHnkEuD5Yfw97g8uGyimDyRafRar21Bsva",
)

const (
	seedMigration     = "migration"
	seedAuthority     = "authority"
	seedDaoLiquidity  = "dao_liquidity"
	seedClaim         = "claim"
	seedGovernance    = "governance"
	sourceChainIDSize = 2
)

func chainSeed(sourceChainID uint16) []byte {
	return binary.LittleEndian.AppendUint16(
		make([]byte, 0, sourceChainIDSize),
		sourceChainID,
	)
}

func migrationSeeds(kind string, admin identity.Identity, sourceChainID uint16) [][]byte {
	return [][]byte{[]byte(kind), admin[:], chainSeed(sourceChainID)}
}

// MigrationAddress derives the address of the migration record of an admin
// and source chain
func MigrationAddress(
	programID identity.Identity,
	admin identity.Identity,
	sourceChainID uint16,
) (identity.Identity, uint8, error) {
	return identity.Derive(
		programID,
		migrationSeeds(seedMigration, admin, sourceChainID)...,
	)
}

// AuthorityAddress derives the identity that owns a migration vault and
// authorizes payouts from it
func AuthorityAddress(
	programID identity.Identity,
	admin identity.Identity,
	sourceChainID uint16,
) (identity.Identity, uint8, error) {
	return identity.Derive(
		programID,
		migrationSeeds(seedAuthority, admin, sourceChainID)...,
	)
}

// VerifyAuthority reports whether the stored authority and nonce still
// match the derivation
func VerifyAuthority(
	programID identity.Identity,
	admin identity.Identity,
	sourceChainID uint16,
	authority identity.Identity,
	nonce uint8,
) bool {
	return identity.Verify(
		programID,
		authority,
		nonce,
		migrationSeeds(seedAuthority, admin, sourceChainID)...,
	)
}

// ReserveVaultAddress derives the owner of the liquidity reserve vault of a
// migration
func ReserveVaultAddress(
	programID identity.Identity,
	migration identity.Identity,
) (identity.Identity, uint8, error) {
	return identity.Derive(programID, []byte(seedDaoLiquidity), migration[:])
}

// ClaimAddress derives the address of the claim record of a claimant
func ClaimAddress(
	programID identity.Identity,
	migration identity.Identity,
	claimant identity.Identity,
) (identity.Identity, uint8, error) {
	return identity.Derive(
		programID,
		[]byte(seedClaim),
		migration[:],
		claimant[:],
	)
}

// GovernanceAddress derives the address of the governance record of a
// migration
func GovernanceAddress(
	programID identity.Identity,
	migration identity.Identity,
) (identity.Identity, uint8, error) {
	return identity.Derive(programID, []byte(seedGovernance), migration[:])
}
