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

// Package token defines the transfer interface the migration ledger pays
// out through, and a vault ledger that implements it on the blob store.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/google/uuid"
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrUnauthorizedTransfer = errors.New("transfer not authorized by source account owner")
	ErrInvalidAccount       = errors.New("invalid account")
	ErrInvalidAmount        = errors.New("invalid transfer amount")
	ErrBalanceOverflow      = errors.New("balance overflow")
)

// TransferRequest moves Amount of Asset from the account owned by From to
// the account owned by To. Authority must be entitled to move funds out of
// From.
type TransferRequest struct {
	Asset     identity.Identity
	From      identity.Identity
	To        identity.Identity
	Authority identity.Identity
	Amount    uint64
}

// Receipt identifies an executed transfer
type Receipt struct {
	Timestamp time.Time
	ID        uuid.UUID
}

// Transferer executes transfers. The transfer joins the caller's storage
// transaction, so it commits or rolls back with the operation that issued
// it. A nil txn runs the transfer in its own transaction.
type Transferer interface {
	Transfer(ctx context.Context, txn *database.Txn, req TransferRequest) (Receipt, error)
}
