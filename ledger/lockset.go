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

package ledger

import (
	"slices"
	"sync"
)

// lockSet hands out exclusive access to named records. An operation locks
// every key it touches before opening its storage transaction, so two
// operations only wait on each other when their key sets intersect.
type lockSet struct {
	locks map[string]*keyLock
	mu    sync.Mutex
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newLockSet() *lockSet {
	return &lockSet{
		locks: make(map[string]*keyLock),
	}
}

// Lock acquires all keys in sorted order and returns the function that
// releases them
func (l *lockSet) Lock(keys ...string) func() {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	held := make([]*keyLock, 0, len(sorted))
	for _, key := range sorted {
		l.mu.Lock()
		kl, ok := l.locks[key]
		if !ok {
			kl = &keyLock{}
			l.locks[key] = kl
		}
		kl.refs++
		l.mu.Unlock()
		kl.mu.Lock()
		held = append(held, kl)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, sorted[i])
			}
			l.mu.Unlock()
		}
	}
}

// size returns the number of keys currently locked or waited on
func (l *lockSet) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func migrationKey(migration string) string {
	return "migration/" + migration
}

func adminChainKey(admin string, sourceChainID string) string {
	return "admin-chain/" + admin + "/" + sourceChainID
}

func claimKey(migration string, claimant string) string {
	return "claim/" + migration + "/" + claimant
}

func reserveKey(migration string) string {
	return "reserve/" + migration
}

func governanceKey(migration string) string {
	return "governance/" + migration
}
