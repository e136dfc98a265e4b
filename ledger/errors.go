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
	"errors"
	"fmt"

	"github.com/blinklabs-io/ferry/identity"
)

var (
	ErrMigrationNotActive = errors.New("migration is not active")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrAlreadyClaimed     = errors.New("tokens already claimed")
	ErrInvalidMerkleProof = errors.New("invalid merkle proof")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrOverflow           = errors.New("arithmetic overflow")
	ErrDuplicateMigration = errors.New(
		"migration already exists for this admin and source chain",
	)
	ErrMigrationNotFound = errors.New("migration not found")
	ErrInvalidPercentage = errors.New(
		"reserve percentage must be between 1 and 20",
	)
	ErrDuplicateReserve = errors.New(
		"liquidity reserve already initialized for migration",
	)
	ErrReserveNotFound = errors.New("liquidity reserve not found")
	ErrReserveMismatch = errors.New(
		"liquidity reserve does not belong to migration",
	)
	ErrSupplyExceeded = errors.New(
		"claim would exceed migration total supply",
	)
	ErrAuthorityMismatch = errors.New(
		"stored authority does not match derivation",
	)
	ErrAlreadyVoted         = errors.New("voter has already voted")
	ErrNotEligibleToVote    = errors.New("voter has not claimed from migration")
	ErrSnapshotRootMismatch = errors.New(
		"snapshot root does not match migration commitment root",
	)
	ErrSnapshotNotFound   = errors.New("no snapshot registered for migration")
	ErrInvalidName        = errors.New("invalid migration name")
	ErrInvalidChoice      = errors.New("invalid vote choice")
	ErrFundingUnsupported = errors.New(
		"token subsystem does not support funding",
	)
)

// OperationError carries the operation and migration an error occurred in.
// Use errors.Is with the sentinel errors above to check the kind.
type OperationError struct {
	Err       error
	Op        string
	Migration identity.Identity
}

func newOperationError(
	op string,
	migration identity.Identity,
	err error,
) *OperationError {
	return &OperationError{
		Op:        op,
		Migration: migration,
		Err:       err,
	}
}

func (e *OperationError) Error() string {
	if e.Migration.IsZero() {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf(
		"%s on migration %s: %s",
		e.Op,
		e.Migration.String(),
		e.Err,
	)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
