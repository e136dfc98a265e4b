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
	"errors"
	"fmt"
	"strconv"

	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/merkle"
)

type CreateMigrationParams struct {
	Name           string
	SourceAddress  identity.Identity
	CommitmentRoot merkle.Hash
	TotalSupply    uint64
	SourceChainID  uint16
}

// CreateMigration registers a snapshot for claims. An admin may hold one
// migration per source chain. The record starts active with nothing
// migrated, and its payout authority is derived and stored with its nonce.
func (l *Ledger) CreateMigration(
	ctx context.Context,
	admin identity.Identity,
	params CreateMigrationParams,
) (*models.Migration, error) {
	const op = "create_migration"
	address, _, err := MigrationAddress(
		l.config.ProgramID,
		admin,
		params.SourceChainID,
	)
	if err != nil {
		return nil, newOperationError(op, identity.Zero, err)
	}
	if admin.IsZero() {
		return nil, newOperationError(op, address, ErrUnauthorized)
	}
	if len(params.Name) > models.MaxMigrationNameLength {
		return nil, newOperationError(
			op,
			address,
			fmt.Errorf(
				"%w: %d bytes exceeds %d",
				ErrInvalidName,
				len(params.Name),
				models.MaxMigrationNameLength,
			),
		)
	}
	if params.TotalSupply == 0 {
		return nil, newOperationError(op, address, ErrInvalidAmount)
	}
	authority, nonce, err := AuthorityAddress(
		l.config.ProgramID,
		admin,
		params.SourceChainID,
	)
	if err != nil {
		return nil, newOperationError(op, address, err)
	}
	m := &models.Migration{
		Name:           params.Name,
		Address:        address,
		Admin:          admin,
		SourceChainID:  params.SourceChainID,
		SourceAddress:  params.SourceAddress,
		CommitmentRoot: params.CommitmentRoot,
		TotalSupply:    types.Uint64(params.TotalSupply),
		MigratedAmount: 0,
		IsActive:       true,
		Authority:      authority,
		AuthorityNonce: nonce,
	}
	keys := []string{
		adminChainKey(
			admin.String(),
			strconv.FormatUint(uint64(params.SourceChainID), 10),
		),
		migrationKey(address.String()),
	}
	err = l.execute(
		ctx,
		op,
		address,
		keys,
		func(_ context.Context, txn *database.Txn) error {
			_, err := l.db.GetMigrationByAdminChain(
				admin,
				params.SourceChainID,
				txn,
			)
			if err == nil {
				return ErrDuplicateMigration
			}
			if !errors.Is(err, types.ErrRecordNotFound) {
				return fmt.Errorf("load migration: %w", err)
			}
			m.CreatedAt = l.now()
			if err := l.db.CreateMigration(m, txn); err != nil {
				if errors.Is(err, types.ErrDuplicateRecord) {
					return ErrDuplicateMigration
				}
				return fmt.Errorf("create migration: %w", err)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	l.metrics.migrationsTotal.Inc()
	l.metrics.migrationsActive.Inc()
	l.config.Logger.InfoContext(
		ctx,
		"migration created",
		"component", "ledger",
		"migration", address.String(),
		"admin", admin.String(),
		"source_chain", params.SourceChainID,
		"total_supply", params.TotalSupply,
		"authority", authority.String(),
	)
	l.publish(MigrationCreatedEventType, MigrationCreatedEvent{
		Name:           m.Name,
		Migration:      m.Address,
		Admin:          m.Admin,
		Authority:      m.Authority,
		CommitmentRoot: m.CommitmentRoot,
		TotalSupply:    params.TotalSupply,
		SourceChainID:  m.SourceChainID,
	})
	return m, nil
}

// FinalizeMigration stops a migration from accepting claims. Only the admin
// may finalize, and finalizing an inactive migration again succeeds without
// changing it.
func (l *Ledger) FinalizeMigration(
	ctx context.Context,
	address identity.Identity,
	caller identity.Identity,
) (*models.Migration, error) {
	const op = "finalize_migration"
	var m *models.Migration
	var wasActive bool
	err := l.execute(
		ctx,
		op,
		address,
		[]string{migrationKey(address.String())},
		func(_ context.Context, txn *database.Txn) error {
			var err error
			m, err = l.loadMigration(address, txn)
			if err != nil {
				return err
			}
			if caller != m.Admin {
				return ErrUnauthorized
			}
			wasActive = m.IsActive
			if !wasActive {
				return nil
			}
			finalizedAt := l.now()
			m.IsActive = false
			m.FinalizedAt = &finalizedAt
			if err := l.db.UpdateMigration(m, txn); err != nil {
				return fmt.Errorf("update migration: %w", err)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	if wasActive {
		l.metrics.migrationsActive.Dec()
		l.config.Logger.InfoContext(
			ctx,
			"migration finalized",
			"component", "ledger",
			"migration", address.String(),
			"migrated_amount", uint64(m.MigratedAmount),
			"total_supply", uint64(m.TotalSupply),
		)
	}
	evt := MigrationFinalizedEvent{
		Migration:        m.Address,
		MigratedAmount:   uint64(m.MigratedAmount),
		AlreadyFinalized: !wasActive,
	}
	if m.FinalizedAt != nil {
		evt.FinalizedAt = *m.FinalizedAt
	}
	l.publish(MigrationFinalizedEventType, evt)
	return m, nil
}

// GetMigration returns a migration by address
func (l *Ledger) GetMigration(
	ctx context.Context,
	address identity.Identity,
) (*models.Migration, error) {
	var ret *models.Migration
	err := l.view(ctx, "get_migration", address, func(txn *database.Txn) error {
		var err error
		ret, err = l.loadMigration(address, txn)
		return err
	})
	return ret, err
}

// ListMigrations returns every migration in creation order
func (l *Ledger) ListMigrations(ctx context.Context) ([]models.Migration, error) {
	var ret []models.Migration
	err := l.view(ctx, "list_migrations", identity.Zero, func(txn *database.Txn) error {
		var err error
		ret, err = l.db.ListMigrations(txn)
		return err
	})
	return ret, err
}
