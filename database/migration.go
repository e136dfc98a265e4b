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
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
)

// metadataTxn returns the metadata handle of txn, or nil to run outside of
// a transaction
func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

func (d *Database) GetMigration(
	address identity.Identity,
	txn *Txn,
) (*models.Migration, error) {
	return d.metadata.GetMigration(address, metadataTxn(txn))
}

func (d *Database) GetMigrationByID(
	id uint,
	txn *Txn,
) (*models.Migration, error) {
	return d.metadata.GetMigrationByID(id, metadataTxn(txn))
}

func (d *Database) GetMigrationByAdminChain(
	admin identity.Identity,
	sourceChainID uint16,
	txn *Txn,
) (*models.Migration, error) {
	return d.metadata.GetMigrationByAdminChain(
		admin,
		sourceChainID,
		metadataTxn(txn),
	)
}

func (d *Database) ListMigrations(txn *Txn) ([]models.Migration, error) {
	return d.metadata.ListMigrations(metadataTxn(txn))
}

func (d *Database) CreateMigration(m *models.Migration, txn *Txn) error {
	return d.metadata.CreateMigration(m, metadataTxn(txn))
}

func (d *Database) UpdateMigration(m *models.Migration, txn *Txn) error {
	return d.metadata.UpdateMigration(m, metadataTxn(txn))
}
