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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ferry/chains"
	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/event"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/merkle"
	"github.com/blinklabs-io/ferry/snapshot"
	"github.com/blinklabs-io/ferry/token"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	ledger *ledger.Ledger
	vault  *token.Vault
	db     *database.Database
	bus    *event.EventBus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	vault := token.NewVault(db, nil)
	l, err := ledger.New(ledger.LedgerConfig{
		Database:   db,
		Transferer: vault,
		EventBus:   bus,
		Now:        func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return &testEnv{
		ledger: l,
		vault:  vault,
		db:     db,
		bus:    bus,
	}
}

func testIdentity(fill byte) identity.Identity {
	var ret identity.Identity
	for i := range ret {
		ret[i] = fill
	}
	return ret
}

var (
	testAdmin    = testIdentity(0x0a)
	testOutsider = testIdentity(0x0b)
)

// testSnapshot has three holders with 1000, 2000 and 3000 units
func testSnapshot(t *testing.T) ([]snapshot.Entry, *snapshot.Bundle) {
	t.Helper()
	entries := []snapshot.Entry{
		{Claimant: testIdentity(0x21), Amount: 1000},
		{Claimant: testIdentity(0x22), Amount: 2000},
		{Claimant: testIdentity(0x23), Amount: 3000},
	}
	bundle, err := snapshot.Build(entries)
	require.NoError(t, err)
	return entries, bundle
}

// createFundedMigration registers the snapshot and funds its vault with the
// full supply
func (e *testEnv) createFundedMigration(
	t *testing.T,
	root merkle.Hash,
	totalSupply uint64,
) *models.Migration {
	t.Helper()
	m := e.createMigration(t, root, totalSupply)
	_, err := e.ledger.FundMigration(
		context.Background(),
		m.Address,
		testAdmin,
		totalSupply,
	)
	require.NoError(t, err)
	return m
}

func (e *testEnv) createMigration(
	t *testing.T,
	root merkle.Hash,
	totalSupply uint64,
) *models.Migration {
	t.Helper()
	m, err := e.ledger.CreateMigration(
		context.Background(),
		testAdmin,
		ledger.CreateMigrationParams{
			Name:           "Test Token",
			SourceChainID:  uint16(chains.ChainIDEthereum),
			SourceAddress:  testIdentity(0x99),
			CommitmentRoot: root,
			TotalSupply:    totalSupply,
		},
	)
	require.NoError(t, err)
	return m
}

func claimRequest(
	m *models.Migration,
	bundle *snapshot.Bundle,
	claimant identity.Identity,
) ledger.ClaimRequest {
	proof := bundle.Claims[claimant]
	return ledger.ClaimRequest{
		Migration: m.Address,
		Claimant:  claimant,
		Amount:    proof.Amount,
		LeafIndex: proof.Index,
		Proof:     proof.Proof,
	}
}

func TestCreateMigration(t *testing.T) {
	env := newTestEnv(t)
	root := merkle.Sum([]byte("root"))
	m := env.createMigration(t, root, 5000)

	expectedAddr, _, err := ledger.MigrationAddress(
		ledger.DefaultProgramID,
		testAdmin,
		uint16(chains.ChainIDEthereum),
	)
	require.NoError(t, err)
	assert.Equal(t, expectedAddr, m.Address)
	assert.True(t, m.IsActive)
	assert.Equal(t, uint64(0), uint64(m.MigratedAmount))
	assert.Equal(t, uint64(5000), uint64(m.TotalSupply))
	assert.Equal(t, root, m.CommitmentRoot)
	assert.True(t, ledger.VerifyAuthority(
		ledger.DefaultProgramID,
		testAdmin,
		m.SourceChainID,
		m.Authority,
		m.AuthorityNonce,
	))
	assert.False(t, identity.IsOnCurve(m.Authority[:]))

	got, err := env.ledger.GetMigration(context.Background(), m.Address)
	require.NoError(t, err)
	assert.Equal(t, m.Authority, got.Authority)
	assert.True(t, testNow.Equal(got.CreatedAt), "created at %s", got.CreatedAt)

	list, err := env.ledger.ListMigrations(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateMigrationDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMigration(t, merkle.Sum([]byte("a")), 100)
	_, err := env.ledger.CreateMigration(ctx, testAdmin, ledger.CreateMigrationParams{
		Name:          "Again",
		SourceChainID: uint16(chains.ChainIDEthereum),
		TotalSupply:   100,
	})
	require.ErrorIs(t, err, ledger.ErrDuplicateMigration)
	var opErr *ledger.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "create_migration", opErr.Op)

	// Another chain or another admin is a different migration
	_, err = env.ledger.CreateMigration(ctx, testAdmin, ledger.CreateMigrationParams{
		SourceChainID: uint16(chains.ChainIDBSC),
		TotalSupply:   100,
	})
	require.NoError(t, err)
	_, err = env.ledger.CreateMigration(ctx, testOutsider, ledger.CreateMigrationParams{
		SourceChainID: uint16(chains.ChainIDEthereum),
		TotalSupply:   100,
	})
	require.NoError(t, err)
}

func TestCreateMigrationValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.ledger.CreateMigration(ctx, testAdmin, ledger.CreateMigrationParams{
		Name:        string(make([]byte, 65)),
		TotalSupply: 1,
	})
	require.ErrorIs(t, err, ledger.ErrInvalidName)
	_, err = env.ledger.CreateMigration(ctx, testAdmin, ledger.CreateMigrationParams{
		Name: "zero supply",
	})
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
	_, err = env.ledger.CreateMigration(ctx, identity.Zero, ledger.CreateMigrationParams{
		TotalSupply: 1,
	})
	require.ErrorIs(t, err, ledger.ErrUnauthorized)
}

func TestClaimThreeLeafScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	entries, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, bundle.Root, 6000)

	// Holder of the second leaf claims once
	claimant := entries[1].Claimant
	claim, err := env.ledger.Claim(ctx, claimRequest(m, bundle, claimant))
	require.NoError(t, err)
	assert.True(t, claim.IsClaimed)
	assert.Equal(t, uint64(2000), uint64(claim.ClaimedAmount))
	assert.Equal(t, uint32(1), claim.LeafIndex)
	assert.Equal(t, claimant, claim.Destination)
	assert.NotEmpty(t, claim.TransferID)

	bal, err := env.vault.Balance(m.Address, claimant, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), bal)
	vaultBal, err := env.vault.Balance(m.Address, m.Authority, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), vaultBal)

	// Replay is rejected
	_, err = env.ledger.Claim(ctx, claimRequest(m, bundle, claimant))
	require.ErrorIs(t, err, ledger.ErrAlreadyClaimed)

	// A zeroed sibling breaks the proof of the first leaf
	req := claimRequest(m, bundle, entries[0].Claimant)
	req.Proof[0] = merkle.Hash{}
	_, err = env.ledger.Claim(ctx, req)
	require.ErrorIs(t, err, ledger.ErrInvalidMerkleProof)

	got, err := env.ledger.GetMigration(ctx, m.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), uint64(got.MigratedAmount))

	claims, err := env.ledger.ListClaims(ctx, m.Address)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, claimant, claims[0].Claimant)

	journal, err := env.vault.Journal(nil)
	require.NoError(t, err)
	require.Len(t, journal, 1)
	assert.Equal(t, m.Authority, journal[0].Authority)
	assert.Equal(t, m.Authority, journal[0].From)
	assert.Equal(t, claim.TransferID, journal[0].ID.String())
}

func TestClaimToDestination(t *testing.T) {
	env := newTestEnv(t)
	entries, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, bundle.Root, 6000)
	dest := testIdentity(0x77)
	req := claimRequest(m, bundle, entries[0].Claimant)
	req.Destination = dest
	claim, err := env.ledger.Claim(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, dest, claim.Destination)
	bal, err := env.vault.Balance(m.Address, dest, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), bal)
}

func TestClaimTamperedInputs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	entries, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, bundle.Root, 6000)
	claimant := entries[2].Claimant
	testDefs := []struct {
		name   string
		mutate func(*ledger.ClaimRequest)
	}{
		{"amount", func(r *ledger.ClaimRequest) { r.Amount++ }},
		{"leaf index", func(r *ledger.ClaimRequest) { r.LeafIndex++ }},
		{"claimant", func(r *ledger.ClaimRequest) { r.Claimant[0] ^= 0x01 }},
		{"proof element", func(r *ledger.ClaimRequest) { r.Proof[0][31] ^= 0x80 }},
		{"missing proof", func(r *ledger.ClaimRequest) { r.Proof = nil }},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			req := claimRequest(m, bundle, claimant)
			req.Proof = append([]merkle.Hash(nil), req.Proof...)
			testDef.mutate(&req)
			_, err := env.ledger.Claim(ctx, req)
			require.ErrorIs(t, err, ledger.ErrInvalidMerkleProof)
		})
	}
	// The untouched request still succeeds afterwards
	_, err := env.ledger.Claim(ctx, claimRequest(m, bundle, claimant))
	require.NoError(t, err)
}

func TestClaimZeroAmount(t *testing.T) {
	env := newTestEnv(t)
	entries, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, bundle.Root, 6000)
	req := claimRequest(m, bundle, entries[0].Claimant)
	req.Amount = 0
	_, err := env.ledger.Claim(context.Background(), req)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestClaimUnknownMigration(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ledger.Claim(context.Background(), ledger.ClaimRequest{
		Migration: testIdentity(0x55),
		Claimant:  testIdentity(0x21),
		Amount:    1,
	})
	require.ErrorIs(t, err, ledger.ErrMigrationNotFound)
}

func TestClaimAfterFinalize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	entries, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, bundle.Root, 1_000_000_000)
	_, err := env.ledger.FinalizeMigration(ctx, m.Address, testAdmin)
	require.NoError(t, err)
	// A valid proof does not matter once the migration is inactive
	_, err = env.ledger.Claim(ctx, claimRequest(m, bundle, entries[0].Claimant))
	require.ErrorIs(t, err, ledger.ErrMigrationNotActive)
	// Neither does a broken one
	req := claimRequest(m, bundle, entries[1].Claimant)
	req.Amount = 0
	req.Proof = nil
	_, err = env.ledger.Claim(ctx, req)
	require.ErrorIs(t, err, ledger.ErrMigrationNotActive)
}

func TestClaimSupplyCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	entries, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, bundle.Root, 2500)
	_, err := env.ledger.Claim(ctx, claimRequest(m, bundle, entries[0].Claimant))
	require.NoError(t, err)
	_, err = env.ledger.Claim(ctx, claimRequest(m, bundle, entries[1].Claimant))
	require.ErrorIs(t, err, ledger.ErrSupplyExceeded)
	got, err := env.ledger.GetMigration(ctx, m.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), uint64(got.MigratedAmount))
}

func TestClaimTransferFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	entries, bundle := testSnapshot(t)
	// The vault is never funded
	m := env.createMigration(t, bundle.Root, 6000)
	claimant := entries[0].Claimant
	_, err := env.ledger.Claim(ctx, claimRequest(m, bundle, claimant))
	require.ErrorIs(t, err, token.ErrInsufficientFunds)

	_, err = env.ledger.GetClaim(ctx, m.Address, claimant)
	require.Error(t, err)
	got, err := env.ledger.GetMigration(ctx, m.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), uint64(got.MigratedAmount))

	// Funding the vault makes the same claim succeed
	require.NoError(t, env.vault.Mint(ctx, nil, m.Address, m.Authority, 6000))
	_, err = env.ledger.Claim(ctx, claimRequest(m, bundle, claimant))
	require.NoError(t, err)
}

func TestClaimTransfererError(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	errBroken := errors.New("token program unavailable")
	l, err := ledger.New(ledger.LedgerConfig{
		Database:   db,
		Transferer: failingTransferer{err: errBroken},
	})
	require.NoError(t, err)
	ctx := context.Background()
	entries, bundle := testSnapshot(t)
	m, err := l.CreateMigration(ctx, testAdmin, ledger.CreateMigrationParams{
		SourceChainID:  2,
		CommitmentRoot: bundle.Root,
		TotalSupply:    6000,
	})
	require.NoError(t, err)
	_, err = l.Claim(ctx, claimRequest(m, bundle, entries[0].Claimant))
	require.ErrorIs(t, err, errBroken)
	claims, err := l.ListClaims(ctx, m.Address)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

type failingTransferer struct {
	err error
}

func (f failingTransferer) Transfer(
	context.Context,
	*database.Txn,
	token.TransferRequest,
) (token.Receipt, error) {
	return token.Receipt{}, f.err
}

func TestFinalizeMigration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.createMigration(t, merkle.Sum([]byte("root")), 100)

	_, err := env.ledger.FinalizeMigration(ctx, m.Address, testOutsider)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)
	got, err := env.ledger.GetMigration(ctx, m.Address)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	finalized, err := env.ledger.FinalizeMigration(ctx, m.Address, testAdmin)
	require.NoError(t, err)
	assert.False(t, finalized.IsActive)
	require.NotNil(t, finalized.FinalizedAt)

	// A second finalize by the admin succeeds and changes nothing
	again, err := env.ledger.FinalizeMigration(ctx, m.Address, testAdmin)
	require.NoError(t, err)
	assert.False(t, again.IsActive)
	require.NotNil(t, again.FinalizedAt)
	assert.True(t, finalized.FinalizedAt.Equal(*again.FinalizedAt))

	_, err = env.ledger.FinalizeMigration(ctx, testIdentity(0x55), testAdmin)
	require.ErrorIs(t, err, ledger.ErrMigrationNotFound)
}

func TestEventsPublished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, createdCh := env.bus.Subscribe(ledger.MigrationCreatedEventType)
	_, claimCh := env.bus.Subscribe(ledger.ClaimEventType)
	_, finalizedCh := env.bus.Subscribe(ledger.MigrationFinalizedEventType)
	entries, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, bundle.Root, 6000)
	_, err := env.ledger.Claim(ctx, claimRequest(m, bundle, entries[0].Claimant))
	require.NoError(t, err)
	_, err = env.ledger.FinalizeMigration(ctx, m.Address, testAdmin)
	require.NoError(t, err)

	created := receive(t, createdCh).Data.(ledger.MigrationCreatedEvent)
	assert.Equal(t, m.Address, created.Migration)
	claimEvt := receive(t, claimCh).Data.(ledger.ClaimEvent)
	assert.Equal(t, entries[0].Claimant, claimEvt.Claimant)
	assert.Equal(t, uint64(1000), claimEvt.MigratedAmount)
	finalizedEvt := receive(t, finalizedCh).Data.(ledger.MigrationFinalizedEvent)
	assert.False(t, finalizedEvt.AlreadyFinalized)
}

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return event.Event{}
}
