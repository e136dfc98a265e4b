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

// GetMigration returns the migration stored at the given address
func (s *Store) GetMigration(
	address identity.Identity,
	txn types.Txn,
) (*models.Migration, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Migration
	if result := db.Where("address = ?", address).First(&ret); result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &ret, nil
}

// GetMigrationByID returns the migration with the given row ID
func (s *Store) GetMigrationByID(
	id uint,
	txn types.Txn,
) (*models.Migration, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Migration
	if result := db.First(&ret, id); result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &ret, nil
}

// GetMigrationByAdminChain returns the migration an admin registered for a
// source chain
func (s *Store) GetMigrationByAdminChain(
	admin identity.Identity,
	sourceChainID uint16,
	txn types.Txn,
) (*models.Migration, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Migration
	result := db.Where(
		"admin = ? AND source_chain_id = ?",
		admin,
		sourceChainID,
	).First(&ret)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &ret, nil
}

// ListMigrations returns all migrations in creation order
func (s *Store) ListMigrations(txn types.Txn) ([]models.Migration, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Migration
	if result := db.Order("id").Find(&ret); result.Error != nil {
		return nil, translateError(result.Error)
	}
	return ret, nil
}

func (s *Store) CreateMigration(m *models.Migration, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return translateError(db.Create(m).Error)
}

// UpdateMigration writes back every column of an existing migration
func (s *Store) UpdateMigration(m *models.Migration, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return translateError(db.Save(m).Error)
}
