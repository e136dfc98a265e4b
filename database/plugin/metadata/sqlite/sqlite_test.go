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

package sqlite_test

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/merkle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTxn struct{}

func (fakeTxn) Commit() error   { return nil }
func (fakeTxn) Rollback() error { return nil }

func newTestStore(t *testing.T) *sqlite.MetadataStoreSqlite {
	t.Helper()
	store, err := sqlite.New("", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testIdentity(fill byte) identity.Identity {
	var ret identity.Identity
	for i := range ret {
		ret[i] = fill
	}
	return ret
}

func testMigration(admin identity.Identity, chain uint16) *models.Migration {
	return &models.Migration{
		Name:           "Test Token",
		Address:        testIdentity(byte(chain) + 0x50),
		Admin:          admin,
		SourceChainID:  chain,
		SourceAddress:  testIdentity(0x33),
		CommitmentRoot: merkle.Sum([]byte("root")),
		Authority:      testIdentity(0x44),
		AuthorityNonce: 254,
		TotalSupply:    types.Uint64(math.MaxUint64),
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestMigrationRoundTrip(t *testing.T) {
	store := newTestStore(t)
	admin := testIdentity(0x01)
	m := testMigration(admin, 2)
	require.NoError(t, store.CreateMigration(m, nil))
	require.NotZero(t, m.ID)

	got, err := store.GetMigration(m.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, m.Address, got.Address)
	assert.Equal(t, m.CommitmentRoot, got.CommitmentRoot)
	assert.Equal(t, types.Uint64(math.MaxUint64), got.TotalSupply)
	assert.Equal(t, uint8(254), got.AuthorityNonce)
	assert.Nil(t, got.FinalizedAt)

	byChain, err := store.GetMigrationByAdminChain(admin, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, m.ID, byChain.ID)

	byID, err := store.GetMigrationByID(m.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, m.Address, byID.Address)

	got.MigratedAmount = 500
	got.IsActive = false
	require.NoError(t, store.UpdateMigration(got, nil))
	updated, err := store.GetMigration(m.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Uint64(500), updated.MigratedAmount)
	assert.False(t, updated.IsActive)
}

func TestMigrationNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetMigration(testIdentity(0x09), nil)
	assert.ErrorIs(t, err, types.ErrRecordNotFound)
	_, err = store.GetMigrationByAdminChain(testIdentity(0x09), 1, nil)
	assert.ErrorIs(t, err, types.ErrRecordNotFound)
}

func TestMigrationDuplicateAdminChain(t *testing.T) {
	store := newTestStore(t)
	admin := testIdentity(0x01)
	require.NoError(t, store.CreateMigration(testMigration(admin, 2), nil))
	dup := testMigration(admin, 2)
	dup.Address = testIdentity(0x77)
	assert.ErrorIs(t, store.CreateMigration(dup, nil), types.ErrDuplicateRecord)
	// Another chain for the same admin is allowed
	require.NoError(t, store.CreateMigration(testMigration(admin, 4), nil))
	list, err := store.ListMigrations(nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestClaimUnique(t *testing.T) {
	store := newTestStore(t)
	m := testMigration(testIdentity(0x01), 2)
	require.NoError(t, store.CreateMigration(m, nil))
	claimant := testIdentity(0x20)
	claim := &models.Claim{
		MigrationID:   m.ID,
		Claimant:      claimant,
		Destination:   claimant,
		ClaimedAmount: 100,
		LeafIndex:     3,
		IsClaimed:     true,
		TransferID:    "00000000-0000-0000-0000-000000000001",
		ClaimedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.CreateClaim(claim, nil))
	again := *claim
	again.ID = 0
	assert.ErrorIs(t, store.CreateClaim(&again, nil), types.ErrDuplicateRecord)

	got, err := store.GetClaim(m.ID, claimant, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Uint64(100), got.ClaimedAmount)
	assert.Equal(t, uint32(3), got.LeafIndex)

	_, err = store.GetClaim(m.ID, testIdentity(0x21), nil)
	assert.ErrorIs(t, err, types.ErrRecordNotFound)

	claims, err := store.ListClaims(m.ID, nil)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	m := testMigration(testIdentity(0x01), 2)
	txn := store.Transaction()
	require.NoError(t, store.CreateMigration(m, txn))
	require.NoError(t, txn.Rollback())
	_, err := store.GetMigration(m.Address, nil)
	require.ErrorIs(t, err, types.ErrRecordNotFound)
	// A finished transaction cannot be reused
	assert.Error(t, store.CreateMigration(m, txn))

	txn = store.Transaction()
	require.NoError(t, store.CreateMigration(m, txn))
	require.NoError(t, txn.Commit())
	_, err = store.GetMigration(m.Address, nil)
	require.NoError(t, err)
}

func TestWrongTxnType(t *testing.T) {
	store := newTestStore(t)
	_, err := store.ListMigrations(fakeTxn{})
	assert.ErrorIs(t, err, types.ErrTxnWrongType)
}

func TestReserveAndGovernance(t *testing.T) {
	store := newTestStore(t)
	m := testMigration(testIdentity(0x01), 2)
	require.NoError(t, store.CreateMigration(m, nil))

	reserve := &models.LiquidityReserve{
		MigrationID:       m.ID,
		Treasury:          testIdentity(0x05),
		Vault:             testIdentity(0x06),
		ReservePercentage: 10,
	}
	require.NoError(t, store.CreateLiquidityReserve(reserve, nil))
	assert.ErrorIs(
		t,
		store.CreateLiquidityReserve(
			&models.LiquidityReserve{MigrationID: m.ID},
			nil,
		),
		types.ErrDuplicateRecord,
	)
	reserve.TotalReserved = 42
	require.NoError(t, store.UpdateLiquidityReserve(reserve, nil))
	gotReserve, err := store.GetLiquidityReserve(m.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Uint64(42), gotReserve.TotalReserved)
	assert.False(t, gotReserve.PoolInitialized)

	_, err = store.GetGovernance(m.ID, nil)
	require.ErrorIs(t, err, types.ErrRecordNotFound)
	gov := &models.Governance{MigrationID: m.ID, TotalVotes: 7}
	require.NoError(t, store.SaveGovernance(gov, nil))
	gov.TotalVotes = 9
	require.NoError(t, store.SaveGovernance(gov, nil))
	gotGov, err := store.GetGovernance(m.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Uint64(9), gotGov.TotalVotes)

	voter := testIdentity(0x30)
	vote := &models.GovernanceVote{
		MigrationID: m.ID,
		Voter:       voter,
		Choice:      "yes",
		Weight:      9,
		CastAt:      time.Now().UTC(),
	}
	require.NoError(t, store.CreateGovernanceVote(vote, nil))
	dupVote := *vote
	dupVote.ID = 0
	assert.ErrorIs(
		t,
		store.CreateGovernanceVote(&dupVote, nil),
		types.ErrDuplicateRecord,
	)
	gotVote, err := store.GetGovernanceVote(m.ID, voter, nil)
	require.NoError(t, err)
	assert.Equal(t, "yes", gotVote.Choice)
	votes, err := store.ListGovernanceVotes(m.ID, nil)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
	txn := store.Transaction()
	require.NoError(t, store.SetCommitTimestamp(1234, txn))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1234), ts)
	require.NoError(t, store.SetCommitTimestamp(5678, nil))
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(5678), ts)
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	m := testMigration(testIdentity(0x01), 2)
	require.NoError(t, a.CreateMigration(m, nil))
	_, err := b.GetMigration(m.Address, nil)
	assert.ErrorIs(t, err, types.ErrRecordNotFound)
}

func TestOnDiskStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "meta")
	store, err := sqlite.New(dir, nil, nil)
	require.NoError(t, err)
	m := testMigration(testIdentity(0x01), 2)
	require.NoError(t, store.CreateMigration(m, nil))
	require.NoError(t, store.RunMaintenance())
	require.NoError(t, store.Close())
	assert.FileExists(t, filepath.Join(dir, "metadata.sqlite"))

	reopened, err := sqlite.New(dir, nil, nil)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.GetMigration(m.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, "Test Token", got.Name)
}

func TestPoolMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	store, err := sqlite.New("", nil, reg)
	require.NoError(t, err)
	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() != "go_sql_max_open_connections" {
			continue
		}
		found = true
		require.Len(t, family.GetMetric(), 1)
		assert.InDelta(t, 1, family.GetMetric()[0].GetGauge().GetValue(), 0)
	}
	assert.True(t, found, "pool metrics not registered")
	// Closing the store removes its collector so a new one can register
	require.NoError(t, store.Close())
	store, err = sqlite.New("", nil, reg)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
