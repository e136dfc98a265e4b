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

package api

import (
	"context"

	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/snapshot"
)

// Backend is the ledger surface the API server drives. It is satisfied by
// *ledger.Ledger and decouples the HTTP layer from storage for testing.
type Backend interface {
	ProgramID() identity.Identity

	CreateMigration(
		ctx context.Context,
		admin identity.Identity,
		params ledger.CreateMigrationParams,
	) (*models.Migration, error)
	FinalizeMigration(
		ctx context.Context,
		address identity.Identity,
		caller identity.Identity,
	) (*models.Migration, error)
	FundMigration(
		ctx context.Context,
		migration identity.Identity,
		caller identity.Identity,
		amount uint64,
	) (uint64, error)
	GetMigration(
		ctx context.Context,
		address identity.Identity,
	) (*models.Migration, error)
	ListMigrations(ctx context.Context) ([]models.Migration, error)
	GetVaultBalance(
		ctx context.Context,
		migration identity.Identity,
	) (uint64, error)
	GetBalance(
		ctx context.Context,
		migration identity.Identity,
		owner identity.Identity,
	) (uint64, error)

	Claim(ctx context.Context, req ledger.ClaimRequest) (*models.Claim, error)
	GetClaim(
		ctx context.Context,
		migration identity.Identity,
		claimant identity.Identity,
	) (*models.Claim, error)
	ListClaims(
		ctx context.Context,
		migration identity.Identity,
	) ([]models.Claim, error)

	InitializeLiquidityReserve(
		ctx context.Context,
		migration identity.Identity,
		caller identity.Identity,
		percentage uint8,
	) (*models.LiquidityReserve, error)
	ContributeLiquidity(
		ctx context.Context,
		req ledger.ContributeRequest,
	) (*models.LiquidityReserve, error)
	GetLiquidityReserve(
		ctx context.Context,
		migration identity.Identity,
	) (*models.LiquidityReserve, error)

	CastVote(
		ctx context.Context,
		migration identity.Identity,
		voter identity.Identity,
		choice string,
	) (*models.GovernanceVote, error)
	GetTally(
		ctx context.Context,
		migration identity.Identity,
	) (*ledger.Tally, error)

	RegisterSnapshot(
		ctx context.Context,
		migration identity.Identity,
		caller identity.Identity,
		bundle *snapshot.Bundle,
	) error
	GetSnapshot(
		ctx context.Context,
		migration identity.Identity,
	) (*snapshot.Bundle, error)
	GetProof(
		ctx context.Context,
		migration identity.Identity,
		claimant identity.Identity,
	) (snapshot.ClaimProof, error)
}

// Publisher uploads snapshot bundles. It is satisfied by
// *publish.Publisher.
type Publisher interface {
	Publish(
		ctx context.Context,
		name string,
		migration identity.Identity,
		bundle *snapshot.Bundle,
	) (string, error)
}

var _ Backend = (*ledger.Ledger)(nil)
