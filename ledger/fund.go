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
	"context"
	"fmt"

	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/identity"
)

// Issuer is implemented by token subsystems that can create new units and
// report balances. The ledger uses it to fund migration vaults.
type Issuer interface {
	Mint(
		ctx context.Context,
		txn *database.Txn,
		asset identity.Identity,
		owner identity.Identity,
		amount uint64,
	) error
	Balance(
		asset identity.Identity,
		owner identity.Identity,
		txn *database.Txn,
	) (uint64, error)
}

func (l *Ledger) issuer() (Issuer, error) {
	issuer, ok := l.config.Transferer.(Issuer)
	if !ok {
		return nil, ErrFundingUnsupported
	}
	return issuer, nil
}

// FundMigration credits the migration vault with new units so claims can be
// paid out. The vault holds the migration's own asset and is owned by its
// derived authority. Only the admin may fund.
func (l *Ledger) FundMigration(
	ctx context.Context,
	migration identity.Identity,
	caller identity.Identity,
	amount uint64,
) (uint64, error) {
	const op = "fund_migration"
	if amount == 0 {
		return 0, newOperationError(op, migration, ErrInvalidAmount)
	}
	issuer, err := l.issuer()
	if err != nil {
		return 0, newOperationError(op, migration, err)
	}
	var authority identity.Identity
	var balance uint64
	err = l.execute(
		ctx,
		op,
		migration,
		[]string{migrationKey(migration.String())},
		func(ctx context.Context, txn *database.Txn) error {
			m, err := l.loadMigration(migration, txn)
			if err != nil {
				return err
			}
			if caller != m.Admin {
				return ErrUnauthorized
			}
			authority = m.Authority
			if err := issuer.Mint(ctx, txn, m.Address, authority, amount); err != nil {
				return fmt.Errorf("fund vault: %w", err)
			}
			balance, err = issuer.Balance(m.Address, authority, txn)
			if err != nil {
				return fmt.Errorf("read vault balance: %w", err)
			}
			return nil
		},
	)
	if err != nil {
		return 0, err
	}
	l.metrics.fundedAmount.Add(float64(amount))
	l.config.Logger.InfoContext(
		ctx,
		"migration funded",
		"component", "ledger",
		"migration", migration.String(),
		"amount", amount,
		"vault_balance", balance,
	)
	l.publish(MigrationFundedEventType, MigrationFundedEvent{
		Migration:    migration,
		Authority:    authority,
		Amount:       amount,
		VaultBalance: balance,
	})
	return balance, nil
}

// GetVaultBalance returns the units left in a migration vault
func (l *Ledger) GetVaultBalance(
	ctx context.Context,
	migration identity.Identity,
) (uint64, error) {
	return l.balance(ctx, "get_vault_balance", migration, identity.Zero)
}

// GetBalance returns how many units of a migration's asset an owner holds
func (l *Ledger) GetBalance(
	ctx context.Context,
	migration identity.Identity,
	owner identity.Identity,
) (uint64, error) {
	return l.balance(ctx, "get_balance", migration, owner)
}

// balance reads owner's balance of the migration asset. A zero owner
// selects the migration vault.
func (l *Ledger) balance(
	ctx context.Context,
	op string,
	migration identity.Identity,
	owner identity.Identity,
) (uint64, error) {
	issuer, err := l.issuer()
	if err != nil {
		return 0, newOperationError(op, migration, err)
	}
	var ret uint64
	err = l.view(ctx, op, migration, func(txn *database.Txn) error {
		m, err := l.loadMigration(migration, txn)
		if err != nil {
			return err
		}
		if owner.IsZero() {
			owner = m.Authority
		}
		ret, err = issuer.Balance(m.Address, owner, txn)
		return err
	})
	return ret, err
}
