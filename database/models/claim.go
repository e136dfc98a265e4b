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

package models

import (
	"time"

	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
)

// Claim records a consumed entitlement. A row only exists once the claim has
// been paid out, and the unique index rejects a second row for the same
// claimant.
type Claim struct {
	ClaimedAt     time.Time
	Claimant      identity.Identity `gorm:"size:64;uniqueIndex:idx_claim_migration_claimant,priority:2;not null"`
	Destination   identity.Identity `gorm:"size:64;not null"`
	TransferID    string            `gorm:"size:36;not null"`
	ClaimedAmount types.Uint64      `gorm:"size:20;not null"`
	ID            uint              `gorm:"primarykey"`
	MigrationID   uint              `gorm:"uniqueIndex:idx_claim_migration_claimant,priority:1;not null"`
	LeafIndex     uint32            `gorm:"not null"`
	IsClaimed     bool              `gorm:"not null"`
}

func (Claim) TableName() string {
	return "claim"
}
