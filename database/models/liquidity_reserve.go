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
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
)

// LiquidityReserve tracks contributions set aside for a migration's
// destination liquidity pool
type LiquidityReserve struct {
	Treasury          identity.Identity `gorm:"size:64;not null"`
	Vault             identity.Identity `gorm:"size:64;not null"`
	TotalReserved     types.Uint64      `gorm:"size:20;not null"`
	ID                uint              `gorm:"primarykey"`
	MigrationID       uint              `gorm:"uniqueIndex;not null"`
	ReservePercentage uint8             `gorm:"not null"`
	PoolInitialized   bool              `gorm:"not null"`
}

func (LiquidityReserve) TableName() string {
	return "liquidity_reserve"
}
