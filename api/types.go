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

package api

import (
	"time"

	"github.com/blinklabs-io/ferry/merkle"
)

// Amount carries a token quantity both in base units and in display form.
// Base units are a decimal string since they may exceed the range JSON
// numbers represent exactly.
type Amount struct {
	Units   string `json:"units"`
	Display string `json:"display"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type ChainResponse struct {
	Name string `json:"name"`
	ID   uint16 `json:"id"`
	EVM  bool   `json:"evm"`
}

type MigrationResponse struct {
	CreatedAt         time.Time  `json:"created_at"`
	FinalizedAt       *time.Time `json:"finalized_at,omitempty"`
	Address           string     `json:"address"`
	Name              string     `json:"name"`
	Admin             string     `json:"admin"`
	Authority         string     `json:"authority"`
	SourceChain       string     `json:"source_chain"`
	SourceAddress     string     `json:"source_address"`
	CommitmentRoot    string     `json:"commitment_root"`
	GovernanceAddress string     `json:"governance_address"`
	ReserveVault      string     `json:"reserve_vault"`
	TotalSupply       Amount     `json:"total_supply"`
	MigratedAmount    Amount     `json:"migrated_amount"`
	SourceChainID     uint16     `json:"source_chain_id"`
	AuthorityNonce    uint8      `json:"authority_nonce"`
	IsActive          bool       `json:"is_active"`
}

type FundResponse struct {
	Migration    string `json:"migration"`
	Amount       Amount `json:"amount"`
	VaultBalance Amount `json:"vault_balance"`
}

type BalanceResponse struct {
	Migration string `json:"migration"`
	Owner     string `json:"owner"`
	Balance   Amount `json:"balance"`
}

type ClaimResponse struct {
	ClaimedAt   time.Time `json:"claimed_at"`
	Address     string    `json:"address"`
	Migration   string    `json:"migration"`
	Claimant    string    `json:"claimant"`
	Destination string    `json:"destination"`
	TransferID  string    `json:"transfer_id"`
	Amount      Amount    `json:"amount"`
	LeafIndex   uint32    `json:"leaf_index"`
}

type ReserveResponse struct {
	Migration         string `json:"migration"`
	Treasury          string `json:"treasury"`
	Vault             string `json:"vault"`
	TotalReserved     Amount `json:"total_reserved"`
	ReservePercentage uint8  `json:"reserve_percentage"`
	PoolInitialized   bool   `json:"pool_initialized"`
}

type VoteResponse struct {
	CastAt    time.Time `json:"cast_at"`
	Migration string    `json:"migration"`
	Voter     string    `json:"voter"`
	Choice    string    `json:"choice"`
	Weight    Amount    `json:"weight"`
}

type ChoiceResponse struct {
	Choice string `json:"choice"`
	Weight Amount `json:"weight"`
	Votes  int    `json:"votes"`
}

type TallyResponse struct {
	Address    string           `json:"address"`
	Migration  string           `json:"migration"`
	Choices    []ChoiceResponse `json:"choices"`
	TotalVotes Amount           `json:"total_votes"`
}

type ProofResponse struct {
	Migration string   `json:"migration"`
	Claimant  string   `json:"claimant"`
	Proof     []string `json:"proof"`
	Amount    Amount   `json:"amount"`
	LeafIndex uint32   `json:"leaf_index"`
}

type PublishResponse struct {
	URL string `json:"url"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type CreateMigrationRequest struct {
	Name string `json:"name"`
	// SourceChain is a registered chain name or a numeric chain ID
	SourceChain    string      `json:"source_chain"`
	SourceAddress  string      `json:"source_address"`
	CommitmentRoot merkle.Hash `json:"commitment_root"`
	TotalSupply    uint64      `json:"total_supply,string"`
}

type FundRequest struct {
	Amount uint64 `json:"amount,string"`
}

type ClaimRequest struct {
	// Destination defaults to the caller
	Destination string        `json:"destination,omitempty"`
	Proof       []merkle.Hash `json:"proof"`
	Amount      uint64        `json:"amount,string"`
	LeafIndex   uint32        `json:"leaf_index"`
}

type InitializeReserveRequest struct {
	Percentage uint8 `json:"percentage"`
}

type ContributeRequest struct {
	// Reserve optionally names the vault the contributor expects
	Reserve string `json:"reserve,omitempty"`
	Amount  uint64 `json:"amount,string"`
}

type VoteRequest struct {
	Choice string `json:"choice"`
}
