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

package database

import (
	"github.com/blinklabs-io/ferry/database/models"
)

func (d *Database) GetLiquidityReserve(
	migrationID uint,
	txn *Txn,
) (*models.LiquidityReserve, error) {
	return d.metadata.GetLiquidityReserve(migrationID, metadataTxn(txn))
}

func (d *Database) CreateLiquidityReserve(
	r *models.LiquidityReserve,
	txn *Txn,
) error {
	return d.metadata.CreateLiquidityReserve(r, metadataTxn(txn))
}

func (d *Database) UpdateLiquidityReserve(
	r *models.LiquidityReserve,
	txn *Txn,
) error {
	return d.metadata.UpdateLiquidityReserve(r, metadataTxn(txn))
}
