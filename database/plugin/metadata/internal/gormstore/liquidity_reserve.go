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

package gormstore

import (
	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/database/types"
)

func (s *Store) GetLiquidityReserve(
	migrationID uint,
	txn types.Txn,
) (*models.LiquidityReserve, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.LiquidityReserve
	if result := db.Where("migration_id = ?", migrationID).First(&ret); result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &ret, nil
}

func (s *Store) CreateLiquidityReserve(
	r *models.LiquidityReserve,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return translateError(db.Create(r).Error)
}

func (s *Store) UpdateLiquidityReserve(
	r *models.LiquidityReserve,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return translateError(db.Save(r).Error)
}
