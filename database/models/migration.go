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
	"github.com/blinklabs-io/ferry/merkle"
)

// MaxMigrationNameLength is the fixed width of the descriptive name
const MaxMigrationNameLength = 64

// Migration is one registered snapshot migration. There is at most one per
// admin and source chain.
type Migration struct {
	CreatedAt      time.Time
	FinalizedAt    *time.Time
	Name           string            `gorm:"size:64;not null"`
	Address        identity.Identity `gorm:"size:64;uniqueIndex;not null"`
	Admin          identity.Identity `gorm:"size:64;uniqueIndex:idx_migration_admin_chain,priority:1;not null"`
	SourceAddress  identity.Identity `gorm:"size:64;not null"`
	CommitmentRoot merkle.Hash       `gorm:"size:66;not null"`
	Authority      identity.Identity `gorm:"size:64;not null"`
	TotalSupply    types.Uint64      `gorm:"size:20;not null"`
	MigratedAmount types.Uint64      `gorm:"size:20;not null"`
	ID             uint              `gorm:"primarykey"`
	SourceChainID  uint16            `gorm:"uniqueIndex:idx_migration_admin_chain,priority:2;not null"`
	AuthorityNonce uint8             `gorm:"not null"`
	IsActive       bool              `gorm:"index;not null"`
}

func (Migration) TableName() string {
	return "migration"
}
