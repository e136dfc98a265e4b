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

package ledger_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/merkle"
	"github.com/blinklabs-io/ferry/token"
)

func TestInitializeLiquidityReservePercentage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.createMigration(t, merkle.Sum([]byte("root")), 100)
	for _, pct := range []uint8{0, 21, 25, 255} {
		_, err := env.ledger.InitializeLiquidityReserve(ctx, m.Address, testAdmin, pct)
		require.ErrorIs(t, err, ledger.ErrInvalidPercentage, "percentage=%d", pct)
	}
	reserve, err := env.ledger.InitializeLiquidityReserve(ctx, m.Address, testAdmin, 20)
	require.NoError(t, err)
	assert.Equal(t, uint8(20), reserve.ReservePercentage)
	assert.Equal(t, testAdmin, reserve.Treasury)
	assert.Equal(t, uint64(0), uint64(reserve.TotalReserved))
	assert.False(t, reserve.PoolInitialized)
	expectedVault, _, err := ledger.ReserveVaultAddress(ledger.DefaultProgramID, m.Address)
	require.NoError(t, err)
	assert.Equal(t, expectedVault, reserve.Vault)

	_, err = env.ledger.InitializeLiquidityReserve(ctx, m.Address, testAdmin, 5)
	require.ErrorIs(t, err, ledger.ErrDuplicateReserve)
}

func TestInitializeLiquidityReserveLowerBound(t *testing.T) {
	env := newTestEnv(t)
	m := env.createMigration(t, merkle.Sum([]byte("root")), 100)
	reserve, err := env.ledger.InitializeLiquidityReserve(
		context.Background(),
		m.Address,
		testAdmin,
		1,
	)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), reserve.ReservePercentage)
}

func TestInitializeLiquidityReserveUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.createMigration(t, merkle.Sum([]byte("root")), 100)
	_, err := env.ledger.InitializeLiquidityReserve(ctx, m.Address, testOutsider, 10)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = env.ledger.GetLiquidityReserve(ctx, m.Address)
	require.ErrorIs(t, err, ledger.ErrReserveNotFound)
}

func TestContributeLiquidity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.createMigration(t, merkle.Sum([]byte("root")), 100)
	contributor := testIdentity(0x61)
	require.NoError(t, env.vault.Mint(ctx, nil, m.Address, contributor, 1000))

	_, err := env.ledger.ContributeLiquidity(ctx, ledger.ContributeRequest{
		Migration:   m.Address,
		Contributor: contributor,
		Amount:      10,
	})
	require.ErrorIs(t, err, ledger.ErrReserveNotFound)

	reserve, err := env.ledger.InitializeLiquidityReserve(ctx, m.Address, testAdmin, 10)
	require.NoError(t, err)

	var expected uint64
	for _, amount := range []uint64{10, 250, 1, 39} {
		expected += amount
		got, err := env.ledger.ContributeLiquidity(ctx, ledger.ContributeRequest{
			Migration:   m.Address,
			Reserve:     reserve.Vault,
			Contributor: contributor,
			Amount:      amount,
		})
		require.NoError(t, err)
		assert.Equal(t, expected, uint64(got.TotalReserved))
	}
	vaultBal, err := env.vault.Balance(m.Address, reserve.Vault, nil)
	require.NoError(t, err)
	assert.Equal(t, expected, vaultBal)
	contributorBal, err := env.vault.Balance(m.Address, contributor, nil)
	require.NoError(t, err)
	assert.Equal(t, 1000-expected, contributorBal)
}

func TestContributeLiquidityRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.createMigration(t, merkle.Sum([]byte("root")), 100)
	contributor := testIdentity(0x61)
	require.NoError(t, env.vault.Mint(ctx, nil, m.Address, contributor, 5))
	reserve, err := env.ledger.InitializeLiquidityReserve(ctx, m.Address, testAdmin, 10)
	require.NoError(t, err)

	_, err = env.ledger.ContributeLiquidity(ctx, ledger.ContributeRequest{
		Migration:   m.Address,
		Contributor: contributor,
	})
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = env.ledger.ContributeLiquidity(ctx, ledger.ContributeRequest{
		Migration:   m.Address,
		Reserve:     testIdentity(0x62),
		Contributor: contributor,
		Amount:      1,
	})
	require.ErrorIs(t, err, ledger.ErrReserveMismatch)

	// Funds are moved in the same transaction
	_, err = env.ledger.ContributeLiquidity(ctx, ledger.ContributeRequest{
		Migration:   m.Address,
		Contributor: contributor,
		Amount:      6,
	})
	require.ErrorIs(t, err, token.ErrInsufficientFunds)

	got, err := env.ledger.GetLiquidityReserve(ctx, m.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), uint64(got.TotalReserved))
	assert.Equal(t, reserve.Vault, got.Vault)
}

func TestContributeLiquidityOverflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.createMigration(t, merkle.Sum([]byte("root")), 100)
	contributor := testIdentity(0x61)
	require.NoError(t, env.vault.Mint(ctx, nil, m.Address, contributor, math.MaxUint64))
	_, err := env.ledger.InitializeLiquidityReserve(ctx, m.Address, testAdmin, 10)
	require.NoError(t, err)

	_, err = env.ledger.ContributeLiquidity(ctx, ledger.ContributeRequest{
		Migration:   m.Address,
		Contributor: contributor,
		Amount:      math.MaxUint64 - 5,
	})
	require.NoError(t, err)
	_, err = env.ledger.ContributeLiquidity(ctx, ledger.ContributeRequest{
		Migration:   m.Address,
		Contributor: contributor,
		Amount:      10,
	})
	require.ErrorIs(t, err, ledger.ErrOverflow)

	got, err := env.ledger.GetLiquidityReserve(ctx, m.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64-5), uint64(got.TotalReserved))
	// The remaining headroom can still be used
	got2, err := env.ledger.ContributeLiquidity(ctx, ledger.ContributeRequest{
		Migration:   m.Address,
		Contributor: contributor,
		Amount:      5,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), uint64(got2.TotalReserved))
}

func TestContributeAfterFinalize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.createMigration(t, merkle.Sum([]byte("root")), 100)
	contributor := testIdentity(0x61)
	require.NoError(t, env.vault.Mint(ctx, nil, m.Address, contributor, 5))
	_, err := env.ledger.InitializeLiquidityReserve(ctx, m.Address, testAdmin, 10)
	require.NoError(t, err)
	_, err = env.ledger.FinalizeMigration(ctx, m.Address, testAdmin)
	require.NoError(t, err)
	_, err = env.ledger.ContributeLiquidity(ctx, ledger.ContributeRequest{
		Migration:   m.Address,
		Contributor: contributor,
		Amount:      5,
	})
	require.NoError(t, err)
}
