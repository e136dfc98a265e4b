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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/snapshot"
)

func TestConcurrentClaimsSamePair(t *testing.T) {
	env := newTestEnv(t)
	entries, bundle := testSnapshot(t)
	m := env.createFundedMigration(t, bundle.Root, 6000)
	req := claimRequest(m, bundle, entries[2].Claimant)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)
	start := make(chan struct{})
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = env.ledger.Claim(context.Background(), req)
		}(i)
	}
	close(start)
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ledger.ErrAlreadyClaimed)
	}
	assert.Equal(t, 1, successes)
	got, err := env.ledger.GetMigration(context.Background(), m.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), uint64(got.MigratedAmount))
	bal, err := env.vault.Balance(m.Address, entries[2].Claimant, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), bal)
}

func TestConcurrentClaimsDistinctClaimants(t *testing.T) {
	env := newTestEnv(t)
	const holders = 16
	entries := make([]snapshot.Entry, 0, holders)
	var total uint64
	for i := range holders {
		var claimant identity.Identity
		claimant[0] = 0x40
		claimant[1] = byte(i)
		amount := uint64(100 + i)
		total += amount
		entries = append(entries, snapshot.Entry{Claimant: claimant, Amount: amount})
	}
	bundle, err := snapshot.Build(entries)
	require.NoError(t, err)
	m := env.createFundedMigration(t, bundle.Root, total)

	var wg sync.WaitGroup
	errs := make(chan error, holders)
	for _, entry := range entries {
		wg.Add(1)
		go func(claimant identity.Identity) {
			defer wg.Done()
			_, err := env.ledger.Claim(
				context.Background(),
				claimRequest(m, bundle, claimant),
			)
			errs <- err
		}(entry.Claimant)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	got, err := env.ledger.GetMigration(context.Background(), m.Address)
	require.NoError(t, err)
	assert.Equal(t, total, uint64(got.MigratedAmount))
	vaultBal, err := env.vault.Balance(m.Address, m.Authority, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), vaultBal)
}
