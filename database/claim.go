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
	"github.com/blinklabs-io/ferry/identity"
)

func (d *Database) GetClaim(
	migrationID uint,
	claimant identity.Identity,
	txn *Txn,
) (*models.Claim, error) {
	return d.metadata.GetClaim(migrationID, claimant, metadataTxn(txn))
}

func (d *Database) CreateClaim(c *models.Claim, txn *Txn) error {
	return d.metadata.CreateClaim(c, metadataTxn(txn))
}

func (d *Database) ListClaims(
	migrationID uint,
	txn *Txn,
) ([]models.Claim, error) {
	return d.metadata.ListClaims(migrationID, metadataTxn(txn))
}
