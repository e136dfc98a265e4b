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

package token

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"time"

	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/google/uuid"
)

// Vault keeps per-owner balances of each asset and a journal of every
// transfer. Only the account owner may authorize moving funds out of an
// account.
type Vault struct {
	db     *database.Database
	logger *slog.Logger
	now    func() time.Time
}

func NewVault(db *database.Database, logger *slog.Logger) *Vault {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Vault{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// withTxn runs fn in txn, or in a new read-write transaction when txn is nil
func (v *Vault) withTxn(txn *database.Txn, fn func(*database.Txn) error) error {
	if txn != nil {
		return fn(txn)
	}
	return database.NewBlobOnlyTxn(v.db, true).Do(fn)
}

// Balance returns the amount of asset held by owner
func (v *Vault) Balance(
	asset identity.Identity,
	owner identity.Identity,
	txn *database.Txn,
) (uint64, error) {
	account, err := v.db.GetVaultAccount(asset, owner, txn)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Holders returns every account of asset with its balance
func (v *Vault) Holders(
	asset identity.Identity,
	txn *database.Txn,
) ([]types.VaultAccount, error) {
	return v.db.ListVaultAccounts(asset, txn)
}

// Mint credits new units of asset to owner. It is used to fund a migration
// vault before claims open.
func (v *Vault) Mint(
	ctx context.Context,
	txn *database.Txn,
	asset identity.Identity,
	owner identity.Identity,
	amount uint64,
) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if asset.IsZero() || owner.IsZero() {
		return ErrInvalidAccount
	}
	return v.withTxn(txn, func(txn *database.Txn) error {
		account, err := v.db.GetVaultAccount(asset, owner, txn)
		if err != nil {
			return err
		}
		sum, carry := bits.Add64(account.Balance, amount, 0)
		if carry != 0 {
			return ErrBalanceOverflow
		}
		account.Balance = sum
		if err := v.db.SetVaultAccount(account, txn); err != nil {
			return fmt.Errorf("store vault account: %w", err)
		}
		v.logger.DebugContext(
			ctx,
			"minted",
			"component", "token",
			"asset", asset.String(),
			"owner", owner.String(),
			"amount", amount,
		)
		return nil
	})
}

// Transfer implements Transferer
func (v *Vault) Transfer(
	ctx context.Context,
	txn *database.Txn,
	req TransferRequest,
) (Receipt, error) {
	var receipt Receipt
	if req.Amount == 0 {
		return receipt, ErrInvalidAmount
	}
	if req.Asset.IsZero() || req.From.IsZero() || req.To.IsZero() ||
		req.From == req.To {
		return receipt, ErrInvalidAccount
	}
	if req.Authority != req.From {
		return receipt, ErrUnauthorizedTransfer
	}
	err := v.withTxn(txn, func(txn *database.Txn) error {
		from, err := v.db.GetVaultAccount(req.Asset, req.From, txn)
		if err != nil {
			return err
		}
		if from.Balance < req.Amount {
			return fmt.Errorf(
				"%w: have %d, need %d",
				ErrInsufficientFunds,
				from.Balance,
				req.Amount,
			)
		}
		to, err := v.db.GetVaultAccount(req.Asset, req.To, txn)
		if err != nil {
			return err
		}
		sum, carry := bits.Add64(to.Balance, req.Amount, 0)
		if carry != 0 {
			return ErrBalanceOverflow
		}
		from.Balance -= req.Amount
		to.Balance = sum
		if err := v.db.SetVaultAccount(from, txn); err != nil {
			return fmt.Errorf("store vault account: %w", err)
		}
		if err := v.db.SetVaultAccount(to, txn); err != nil {
			return fmt.Errorf("store vault account: %w", err)
		}
		// Version 7 IDs sort by creation time, which keeps the journal in
		// execution order
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		receipt = Receipt{ID: id, Timestamp: v.now().UTC()}
		return v.db.AddTransferJournalEntry(
			types.TransferJournalEntry{
				ID:        id[:],
				Asset:     req.Asset.Bytes(),
				From:      req.From.Bytes(),
				To:        req.To.Bytes(),
				Authority: req.Authority.Bytes(),
				Amount:    req.Amount,
				Timestamp: receipt.Timestamp.UnixMilli(),
			},
			txn,
		)
	})
	if err != nil {
		return Receipt{}, err
	}
	v.logger.DebugContext(
		ctx,
		"transfer executed",
		"component", "token",
		"id", receipt.ID.String(),
		"asset", req.Asset.String(),
		"from", req.From.String(),
		"to", req.To.String(),
		"amount", req.Amount,
	)
	return receipt, nil
}

// JournalEntry is a decoded transfer journal record
type JournalEntry struct {
	Timestamp time.Time
	ID        uuid.UUID
	TransferRequest
}

// Journal returns every executed transfer in execution order
func (v *Vault) Journal(txn *database.Txn) ([]JournalEntry, error) {
	entries, err := v.db.ListTransferJournal(txn)
	if err != nil {
		return nil, err
	}
	ret := make([]JournalEntry, 0, len(entries))
	for _, entry := range entries {
		tmp, err := decodeJournalEntry(entry)
		if err != nil {
			return nil, err
		}
		ret = append(ret, tmp)
	}
	return ret, nil
}

func decodeJournalEntry(entry types.TransferJournalEntry) (JournalEntry, error) {
	var ret JournalEntry
	id, err := uuid.FromBytes(entry.ID)
	if err != nil {
		return ret, fmt.Errorf("decode transfer id: %w", err)
	}
	ret.ID = id
	ret.Timestamp = time.UnixMilli(entry.Timestamp).UTC()
	ret.Amount = entry.Amount
	for _, field := range []struct {
		dst *identity.Identity
		src []byte
	}{
		{&ret.Asset, entry.Asset},
		{&ret.From, entry.From},
		{&ret.To, entry.To},
		{&ret.Authority, entry.Authority},
	} {
		tmp, err := identity.FromBytes(field.src)
		if err != nil {
			return ret, err
		}
		*field.dst = tmp
	}
	return ret, nil
}
