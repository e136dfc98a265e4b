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
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/blinklabs-io/ferry/identity"
)

const (
	CallerHeader = "X-Ferry-Caller"
	bearerPrefix = "Bearer "
)

// caller returns the identity a mutating request acts as. The caller header
// is set by the gateway that authenticated the signer, so it is only
// trusted alongside the gateway token. An unconfigured token rejects every
// mutating request.
func (s *Server) caller(r *http.Request) (identity.Identity, error) {
	if s.config.GatewayToken == "" {
		return identity.Zero, fmt.Errorf(
			"%w: no gateway token configured",
			ErrUnauthenticated,
		)
	}
	authHeader := r.Header.Get("Authorization")
	presented, ok := strings.CutPrefix(authHeader, bearerPrefix)
	if !ok ||
		subtle.ConstantTimeCompare(
			[]byte(presented),
			[]byte(s.config.GatewayToken),
		) != 1 {
		return identity.Zero, ErrUnauthenticated
	}
	callerHeader := strings.TrimSpace(r.Header.Get(CallerHeader))
	if callerHeader == "" {
		return identity.Zero, fmt.Errorf(
			"%w: %s header is required",
			ErrMissingCaller,
			CallerHeader,
		)
	}
	ret, err := identity.Parse(callerHeader)
	if err != nil {
		return identity.Zero, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return ret, nil
}
