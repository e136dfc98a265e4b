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
	"net"
	"net/http"
	"sync"
)

// ipLimiter caps the number of in-flight requests per client address
type ipLimiter struct {
	inflight map[string]int
	max      int
	mu       sync.Mutex
}

func newIPLimiter(maxPerIP int) *ipLimiter {
	return &ipLimiter{
		inflight: make(map[string]int),
		max:      maxPerIP,
	}
}

// ipKeyFromRemoteAddr extracts a rate-limit key from a request remote
// address. For IPv4 addresses the key is the bare IP string. For IPv6
// addresses the key is the /64 prefix so that a client rotating within a
// single /64 subnet is still limited as one source. Addresses that do not
// parse return an empty string and are exempt.
func ipKeyFromRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return ""
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	// IPv4 or IPv4-mapped IPv6: use the full address as the key
	if ip4 := ip.To4(); ip4 != nil {
		return ip4.String()
	}
	mask := net.CIDRMask(64, 128)
	return ip.Mask(mask).String() + "/64"
}

// acquire reserves a request slot for the key, returning false when the
// limit has been reached
func (l *ipLimiter) acquire(ipKey string) bool {
	if ipKey == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inflight[ipKey] >= l.max {
		return false
	}
	l.inflight[ipKey]++
	return true
}

func (l *ipLimiter) release(ipKey string) {
	if ipKey == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight[ipKey]--
	if l.inflight[ipKey] <= 0 {
		delete(l.inflight, ipKey)
	}
}

func (l *ipLimiter) count(ipKey string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight[ipKey]
}

func (s *Server) limitPerIP(limiter *ipLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ipKey := ipKeyFromRemoteAddr(r.RemoteAddr)
		if !limiter.acquire(ipKey) {
			s.logger.Debug(
				"request rejected by per-address limit",
				"remote", ipKey,
				"limit", limiter.max,
			)
			writeError(w, http.StatusTooManyRequests, "too many concurrent requests")
			return
		}
		defer limiter.release(ipKey)
		next.ServeHTTP(w, r)
	})
}
