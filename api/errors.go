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
	"errors"
	"net/http"

	"github.com/blinklabs-io/ferry/chains"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/merkle"
	"github.com/blinklabs-io/ferry/snapshot"
	"github.com/blinklabs-io/ferry/token"
)

var (
	ErrUnauthenticated = errors.New("request is not authenticated")
	ErrMissingCaller   = errors.New("missing caller")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrPublishDisabled = errors.New("snapshot publishing is not configured")
	ErrNotFound        = errors.New("not found")
)

// errorStatus maps an error kind to its HTTP status. The first matching
// group wins.
var errorStatus = []struct {
	errs   []error
	status int
}{
	{
		status: http.StatusUnauthorized,
		errs:   []error{ErrUnauthenticated},
	},
	{
		status: http.StatusNotFound,
		errs: []error{
			ErrNotFound,
			ledger.ErrMigrationNotFound,
			ledger.ErrReserveNotFound,
			ledger.ErrSnapshotNotFound,
			snapshot.ErrClaimantNotFound,
			types.ErrRecordNotFound,
		},
	},
	{
		status: http.StatusForbidden,
		errs: []error{
			ledger.ErrUnauthorized,
			ledger.ErrNotEligibleToVote,
			token.ErrUnauthorizedTransfer,
		},
	},
	{
		status: http.StatusConflict,
		errs: []error{
			ledger.ErrAlreadyClaimed,
			ledger.ErrDuplicateMigration,
			ledger.ErrDuplicateReserve,
			ledger.ErrAlreadyVoted,
		},
	},
	{
		status: http.StatusUnprocessableEntity,
		errs: []error{
			ledger.ErrInvalidMerkleProof,
			ledger.ErrSupplyExceeded,
			ledger.ErrMigrationNotActive,
			ledger.ErrSnapshotRootMismatch,
			ledger.ErrReserveMismatch,
			ledger.ErrOverflow,
			token.ErrInsufficientFunds,
			token.ErrBalanceOverflow,
		},
	},
	{
		status: http.StatusBadRequest,
		errs: []error{
			ErrInvalidRequest,
			ErrMissingCaller,
			ledger.ErrInvalidAmount,
			ledger.ErrInvalidPercentage,
			ledger.ErrInvalidName,
			ledger.ErrInvalidChoice,
			snapshot.ErrEmptySnapshot,
			snapshot.ErrDuplicateClaimant,
			snapshot.ErrInvalidEntry,
			snapshot.ErrInconsistentBundle,
			token.ErrInvalidAccount,
			token.ErrInvalidAmount,
			chains.ErrInvalidAddress,
			identity.ErrInvalidIdentity,
			merkle.ErrInvalidHash,
		},
	},
	{
		status: http.StatusNotImplemented,
		errs: []error{
			ErrPublishDisabled,
			ledger.ErrFundingUnsupported,
		},
	},
}

// StatusForError returns the HTTP status an error is reported with
func StatusForError(err error) int {
	for _, group := range errorStatus {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	return http.StatusInternalServerError
}
