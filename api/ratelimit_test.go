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
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPKeyFromRemoteAddr(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected string
	}{
		{
			name:     "empty",
			addr:     "",
			expected: "",
		},
		{
			name:     "IPv4",
			addr:     "192.168.1.10:3000",
			expected: "192.168.1.10",
		},
		{
			name:     "IPv6 grouped by /64",
			addr:     "[2001:db8:85a3::8a2e:370:7334]:3000",
			expected: "2001:db8:85a3::/64",
		},
		{
			name:     "IPv6 different host same /64 prefix",
			addr:     "[2001:db8:85a3::1]:3001",
			expected: "2001:db8:85a3::/64",
		},
		{
			name:     "IPv6 different /64 prefix",
			addr:     "[2001:db8:85a4::1]:3000",
			expected: "2001:db8:85a4::/64",
		},
		{
			name:     "IPv4-mapped IPv6 treated as IPv4",
			addr:     "[::ffff:192.168.1.1]:3000",
			expected: "192.168.1.1",
		},
		{
			name:     "missing port",
			addr:     "192.168.1.1",
			expected: "",
		},
		{
			name:     "hostname",
			addr:     "example.com:80",
			expected: "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ipKeyFromRemoteAddr(tc.addr))
		})
	}
}

func TestIPLimiterAcquireRelease(t *testing.T) {
	l := newIPLimiter(2)
	assert.True(t, l.acquire("10.0.0.1"))
	assert.True(t, l.acquire("10.0.0.1"))
	assert.False(t, l.acquire("10.0.0.1"))
	// Other addresses are unaffected
	assert.True(t, l.acquire("10.0.0.2"))
	// Exempt keys are always allowed
	for range 5 {
		assert.True(t, l.acquire(""))
	}
	l.release("10.0.0.1")
	assert.Equal(t, 1, l.count("10.0.0.1"))
	assert.True(t, l.acquire("10.0.0.1"))
	l.release("10.0.0.1")
	l.release("10.0.0.1")
	assert.Equal(t, 0, l.count("10.0.0.1"))
	l.mu.Lock()
	_, ok := l.inflight["10.0.0.1"]
	l.mu.Unlock()
	assert.False(t, ok, "released keys should be removed")
}

func TestLimitPerIP(t *testing.T) {
	s := New(ServerConfig{}, nil, nil)
	l := newIPLimiter(1)
	entered := make(chan struct{})
	unblock := make(chan struct{})
	handler := s.limitPerIP(
		l,
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			entered <- struct{}{}
			<-unblock
			w.WriteHeader(http.StatusNoContent)
		}),
	)
	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		return req
	}

	var wg sync.WaitGroup
	first := httptest.NewRecorder()
	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(first, newReq())
	}()
	<-entered

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newReq())
	require.Equal(t, http.StatusTooManyRequests, second.Code)

	close(unblock)
	wg.Wait()
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, 0, l.count("203.0.113.7"))
}

func TestHandlerAppliesLimit(t *testing.T) {
	ts := newTestServer(t)
	s := New(ServerConfig{MaxRequestsPerIP: 1}, ts.ledger, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	// Sequential requests each get the slot
	requireStatus(t, w, http.StatusOK)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	requireStatus(t, w, http.StatusOK)
}
