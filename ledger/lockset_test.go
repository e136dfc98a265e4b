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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockSetSerializesSharedKeys(t *testing.T) {
	ls := newLockSet()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := ls.Lock("b", "a")
			n := inside.Add(1)
			for {
				cur := maxInside.Load()
				if n <= cur || maxInside.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, ls.size())
}

func TestLockSetDisjointKeysDoNotBlock(t *testing.T) {
	ls := newLockSet()
	unlockA := ls.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := ls.Lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disjoint lock blocked")
	}
	unlockA()
	assert.Equal(t, 0, ls.size())
}

func TestLockSetOverlappingOrder(t *testing.T) {
	// Opposite argument order must not deadlock
	ls := newLockSet()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var unlock func()
			if i%2 == 0 {
				unlock = ls.Lock("x", "y")
			} else {
				unlock = ls.Lock("y", "x", "y")
			}
			unlock()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, ls.size())
}

func TestOperationErrorMessage(t *testing.T) {
	err := newOperationError("claim", DefaultProgramID, ErrAlreadyClaimed)
	assert.Contains(t, err.Error(), "claim on migration "+DefaultProgramID.String())
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}
