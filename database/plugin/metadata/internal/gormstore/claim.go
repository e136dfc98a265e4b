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
	"github.com/blinklabs-io/ferry/identity"
)

func (s *Store) GetClaim(
	migrationID uint,
	claimant identity.Identity,
	txn types.Txn,
) (*models.Claim, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Claim
	result := db.Where(
		"migration_id = ? AND claimant = ?",
		migrationID,
		claimant,
	).First(&ret)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &ret, nil
}

// CreateClaim inserts a claim record. A second record for the same claimant
// fails with types.ErrDuplicateRecord.
func (s *Store) CreateClaim(c *models.Claim, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return translateError(db.Create(c).Error)
}

func (s *Store) ListClaims(
	migrationID uint,
	txn types.Txn,
) ([]models.Claim, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Claim
	result := db.Where("migration_id = ?", migrationID).
		Order("leaf_index").
		Find(&ret)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return ret, nil
}
