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

func (d *Database) GetGovernance(
	migrationID uint,
	txn *Txn,
) (*models.Governance, error) {
	return d.metadata.GetGovernance(migrationID, metadataTxn(txn))
}

func (d *Database) SaveGovernance(g *models.Governance, txn *Txn) error {
	return d.metadata.SaveGovernance(g, metadataTxn(txn))
}

func (d *Database) GetGovernanceVote(
	migrationID uint,
	voter identity.Identity,
	txn *Txn,
) (*models.GovernanceVote, error) {
	return d.metadata.GetGovernanceVote(migrationID, voter, metadataTxn(txn))
}

func (d *Database) CreateGovernanceVote(
	v *models.GovernanceVote,
	txn *Txn,
) error {
	return d.metadata.CreateGovernanceVote(v, metadataTxn(txn))
}

func (d *Database) ListGovernanceVotes(
	migrationID uint,
	txn *Txn,
) ([]models.GovernanceVote, error) {
	return d.metadata.ListGovernanceVotes(migrationID, metadataTxn(txn))
}
