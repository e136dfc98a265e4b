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

	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/token"
)

func TestFundMigration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, fundedCh := env.bus.Subscribe(ledger.MigrationFundedEventType)
	_, bundle := testSnapshot(t)
	m := env.createMigration(t, bundle.Root, 6000)

	balance, err := env.ledger.FundMigration(ctx, m.Address, testAdmin, 4000)
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), balance)
	balance, err = env.ledger.FundMigration(ctx, m.Address, testAdmin, 2000)
	require.NoError(t, err)
	assert.Equal(t, uint64(6000), balance)

	vaultBal, err := env.ledger.GetVaultBalance(ctx, m.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(6000), vaultBal)
	held, err := env.vault.Balance(m.Address, m.Authority, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(6000), held)
	held, err = env.ledger.GetBalance(ctx, m.Address, m.Authority)
	require.NoError(t, err)
	assert.Equal(t, uint64(6000), held)
	held, err = env.ledger.GetBalance(ctx, m.Address, testOutsider)
	require.NoError(t, err)
	assert.Zero(t, held)

	evt := receive(t, fundedCh)
	funded, ok := evt.Data.(ledger.MigrationFundedEvent)
	require.True(t, ok)
	assert.Equal(t, m.Address, funded.Migration)
	assert.Equal(t, m.Authority, funded.Authority)
	assert.Equal(t, uint64(4000), funded.Amount)
}

func TestFundMigrationRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, bundle := testSnapshot(t)
	m := env.createMigration(t, bundle.Root, 6000)

	_, err := env.ledger.FundMigration(ctx, m.Address, testOutsider, 100)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = env.ledger.FundMigration(ctx, m.Address, testAdmin, 0)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
	_, err = env.ledger.FundMigration(ctx, identity.Zero, testAdmin, 100)
	require.ErrorIs(t, err, ledger.ErrMigrationNotFound)

	_, err = env.ledger.FundMigration(ctx, m.Address, testAdmin, math.MaxUint64)
	require.NoError(t, err)
	_, err = env.ledger.FundMigration(ctx, m.Address, testAdmin, 1)
	require.ErrorIs(t, err, token.ErrBalanceOverflow)
	held, err := env.ledger.GetVaultBalance(ctx, m.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), held)
}

func TestFundMigrationUnsupported(t *testing.T) {
	env := newTestEnv(t)
	l, err := ledger.New(ledger.LedgerConfig{
		Database:   env.db,
		Transferer: failingTransferer{},
	})
	require.NoError(t, err)
	_, bundle := testSnapshot(t)
	m := env.createMigration(t, bundle.Root, 6000)
	_, err = l.FundMigration(context.Background(), m.Address, testAdmin, 10)
	require.ErrorIs(t, err, ledger.ErrFundingUnsupported)
	_, err = l.GetVaultBalance(context.Background(), m.Address)
	require.ErrorIs(t, err, ledger.ErrFundingUnsupported)
}
