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

// Governance holds the running vote tally for a migration
type Governance struct {
	TotalVotes  types.Uint64 `gorm:"size:20;not null"`
	ID          uint         `gorm:"primarykey"`
	MigrationID uint         `gorm:"uniqueIndex;not null"`
}

func (Governance) TableName() string {
	return "governance"
}

// GovernanceVote is a single claimant's vote, weighted by the amount claimed
type GovernanceVote struct {
	CastAt      time.Time
	Voter       identity.Identity `gorm:"size:64;uniqueIndex:idx_governance_vote_unique,priority:2;not null"`
	Choice      string            `gorm:"size:64;not null"`
	Weight      types.Uint64      `gorm:"size:20;not null"`
	ID          uint              `gorm:"primarykey"`
	MigrationID uint              `gorm:"uniqueIndex:idx_governance_vote_unique,priority:1;index;not null"`
}

func (GovernanceVote) TableName() string {
	return "governance_vote"
}
