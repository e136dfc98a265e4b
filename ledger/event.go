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
	"time"

	"github.com/blinklabs-io/ferry/event"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/merkle"
)

const (
	MigrationCreatedEventType     event.EventType = "ledger.migration.created"
	MigrationFinalizedEventType   event.EventType = "ledger.migration.finalized"
	MigrationFundedEventType      event.EventType = "ledger.migration.funded"
	ClaimEventType                event.EventType = "ledger.claim"
	ReserveInitializedEventType   event.EventType = "ledger.reserve.initialized"
	LiquidityContributedEventType event.EventType = "ledger.reserve.contributed"
	VoteCastEventType             event.EventType = "ledger.governance.vote"
	SnapshotRegisteredEventType   event.EventType = "ledger.snapshot.registered"
)

// AllEventTypes lists every event type the ledger publishes
var AllEventTypes = []event.EventType{
	MigrationCreatedEventType,
	MigrationFinalizedEventType,
	MigrationFundedEventType,
	ClaimEventType,
	ReserveInitializedEventType,
	LiquidityContributedEventType,
	VoteCastEventType,
	SnapshotRegisteredEventType,
}

type MigrationCreatedEvent struct {
	Name           string
	Migration      identity.Identity
	Admin          identity.Identity
	Authority      identity.Identity
	CommitmentRoot merkle.Hash
	TotalSupply    uint64
	SourceChainID  uint16
}

type MigrationFinalizedEvent struct {
	FinalizedAt    time.Time
	Migration      identity.Identity
	MigratedAmount uint64
	// AlreadyFinalized is set when the migration was inactive before the call
	AlreadyFinalized bool
}

type MigrationFundedEvent struct {
	Migration    identity.Identity
	Authority    identity.Identity
	Amount       uint64
	VaultBalance uint64
}

type ClaimEvent struct {
	ClaimedAt      time.Time
	TransferID     string
	Migration      identity.Identity
	Claimant       identity.Identity
	Destination    identity.Identity
	Amount         uint64
	MigratedAmount uint64
	LeafIndex      uint32
}

type ReserveInitializedEvent struct {
	Migration         identity.Identity
	Treasury          identity.Identity
	Vault             identity.Identity
	ReservePercentage uint8
}

type LiquidityContributedEvent struct {
	TransferID    string
	Migration     identity.Identity
	Contributor   identity.Identity
	Amount        uint64
	TotalReserved uint64
}

type VoteCastEvent struct {
	Choice     string
	Migration  identity.Identity
	Voter      identity.Identity
	Weight     uint64
	TotalVotes uint64
}

type SnapshotRegisteredEvent struct {
	Migration identity.Identity
	Root      merkle.Hash
	Claims    int
}
