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

package metadata

import (
	"fmt"

	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/database/plugin"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
	"gorm.io/gorm"

	// Register metadata plugins
	_ "github.com/blinklabs-io/ferry/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/ferry/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/ferry/database/plugin/metadata/sqlite"
)

// MetadataStore is the relational half of the ledger storage. Every query
// accepts an optional transaction handle obtained from Transaction(); a nil
// handle runs the query on its own.
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	AutoMigrate(...any) error
	Transaction() types.Txn
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	RunMaintenance() error

	// Migrations
	GetMigration(identity.Identity, types.Txn) (*models.Migration, error)
	GetMigrationByID(uint, types.Txn) (*models.Migration, error)
	GetMigrationByAdminChain(
		identity.Identity, // admin
		uint16, // source chain
		types.Txn,
	) (*models.Migration, error)
	ListMigrations(types.Txn) ([]models.Migration, error)
	CreateMigration(*models.Migration, types.Txn) error
	UpdateMigration(*models.Migration, types.Txn) error

	// Claims
	GetClaim(
		uint, // migration ID
		identity.Identity, // claimant
		types.Txn,
	) (*models.Claim, error)
	CreateClaim(*models.Claim, types.Txn) error
	ListClaims(uint, types.Txn) ([]models.Claim, error)

	// Liquidity reserves
	GetLiquidityReserve(uint, types.Txn) (*models.LiquidityReserve, error)
	CreateLiquidityReserve(*models.LiquidityReserve, types.Txn) error
	UpdateLiquidityReserve(*models.LiquidityReserve, types.Txn) error

	// Governance
	GetGovernance(uint, types.Txn) (*models.Governance, error)
	SaveGovernance(*models.Governance, types.Txn) error
	GetGovernanceVote(
		uint, // migration ID
		identity.Identity, // voter
		types.Txn,
	) (*models.GovernanceVote, error)
	CreateGovernanceVote(*models.GovernanceVote, types.Txn) error
	ListGovernanceVotes(uint, types.Txn) ([]models.GovernanceVote, error)
}

// New returns the started metadata plugin with the given name
func New(pluginName string, opts plugin.StartOptions) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName, opts)
	if err != nil {
		return nil, err
	}
	store, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin %s is not a metadata store",
			pluginName,
		)
	}
	return store, nil
}
