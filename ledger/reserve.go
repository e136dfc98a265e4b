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
	"math/bits"

	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/token"
)

const (
	MinReservePercentage uint8 = 1
	MaxReservePercentage uint8 = 20
)

// InitializeLiquidityReserve sets up the liquidity reserve of a migration
// with the admin as treasury. The percentage is recorded for the
// destination pool and is not enforced against contributions.
func (l *Ledger) InitializeLiquidityReserve(
	ctx context.Context,
	migration identity.Identity,
	caller identity.Identity,
	percentage uint8,
) (*models.LiquidityReserve, error) {
	const op = "initialize_liquidity_reserve"
	if percentage < MinReservePercentage || percentage > MaxReservePercentage {
		return nil, newOperationError(
			op,
			migration,
			fmt.Errorf("%w: got %d", ErrInvalidPercentage, percentage),
		)
	}
	vault, _, err := ReserveVaultAddress(l.config.ProgramID, migration)
	if err != nil {
		return nil, newOperationError(op, migration, err)
	}
	var reserve *models.LiquidityReserve
	keys := []string{
		migrationKey(migration.String()),
		reserveKey(migration.String()),
	}
	err = l.execute(
		ctx,
		op,
		migration,
		keys,
		func(_ context.Context, txn *database.Txn) error {
			m, err := l.loadMigration(migration, txn)
			if err != nil {
				return err
			}
			if caller != m.Admin {
				return ErrUnauthorized
			}
			_, err = l.db.GetLiquidityReserve(m.ID, txn)
			if err == nil {
				return ErrDuplicateReserve
			}
			if !errors.Is(err, types.ErrRecordNotFound) {
				return fmt.Errorf("load liquidity reserve: %w", err)
			}
			reserve = &models.LiquidityReserve{
				MigrationID:       m.ID,
				Treasury:          caller,
				Vault:             vault,
				ReservePercentage: percentage,
				TotalReserved:     0,
				PoolInitialized:   false,
			}
			if err := l.db.CreateLiquidityReserve(reserve, txn); err != nil {
				if errors.Is(err, types.ErrDuplicateRecord) {
					return ErrDuplicateReserve
				}
				return fmt.Errorf("create liquidity reserve: %w", err)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	l.config.Logger.InfoContext(
		ctx,
		"liquidity reserve initialized",
		"component", "ledger",
		"migration", migration.String(),
		"percentage", percentage,
		"vault", vault.String(),
	)
	l.publish(ReserveInitializedEventType, ReserveInitializedEvent{
		Migration:         migration,
		Treasury:          caller,
		Vault:             vault,
		ReservePercentage: percentage,
	})
	return reserve, nil
}

// ContributeRequest moves Amount from the contributor's account into the
// reserve vault. Reserve optionally names the vault the contributor expects
// and must then match the migration's reserve.
type ContributeRequest struct {
	Migration   identity.Identity
	Reserve     identity.Identity
	Contributor identity.Identity
	Amount      uint64
}

// ContributeLiquidity adds to a migration's liquidity reserve. The running
// total only grows, and an addition that would overflow it is rejected
// with the total left unchanged.
func (l *Ledger) ContributeLiquidity(
	ctx context.Context,
	req ContributeRequest,
) (*models.LiquidityReserve, error) {
	const op = "contribute_liquidity"
	if req.Amount == 0 {
		return nil, newOperationError(op, req.Migration, ErrInvalidAmount)
	}
	var reserve *models.LiquidityReserve
	var transferID string
	keys := []string{
		migrationKey(req.Migration.String()),
		reserveKey(req.Migration.String()),
	}
	err := l.execute(
		ctx,
		op,
		req.Migration,
		keys,
		func(ctx context.Context, txn *database.Txn) error {
			m, err := l.loadMigration(req.Migration, txn)
			if err != nil {
				return err
			}
			reserve, err = l.db.GetLiquidityReserve(m.ID, txn)
			if err != nil {
				if errors.Is(err, types.ErrRecordNotFound) {
					return ErrReserveNotFound
				}
				return fmt.Errorf("load liquidity reserve: %w", err)
			}
			if reserve.MigrationID != m.ID ||
				(!req.Reserve.IsZero() && req.Reserve != reserve.Vault) {
				return ErrReserveMismatch
			}
			total, carry := bits.Add64(
				uint64(reserve.TotalReserved),
				req.Amount,
				0,
			)
			if carry != 0 {
				return ErrOverflow
			}
			receipt, err := l.config.Transferer.Transfer(
				ctx,
				txn,
				token.TransferRequest{
					Asset:     m.Address,
					From:      req.Contributor,
					To:        reserve.Vault,
					Authority: req.Contributor,
					Amount:    req.Amount,
				},
			)
			if err != nil {
				return fmt.Errorf("transfer to reserve vault: %w", err)
			}
			transferID = receipt.ID.String()
			reserve.TotalReserved = types.Uint64(total)
			if err := l.db.UpdateLiquidityReserve(reserve, txn); err != nil {
				return fmt.Errorf("update liquidity reserve: %w", err)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	l.metrics.contributedAmount.Add(float64(req.Amount))
	l.config.Logger.InfoContext(
		ctx,
		"liquidity contributed",
		"component", "ledger",
		"migration", req.Migration.String(),
		"contributor", req.Contributor.String(),
		"amount", req.Amount,
		"total_reserved", uint64(reserve.TotalReserved),
	)
	l.publish(LiquidityContributedEventType, LiquidityContributedEvent{
		TransferID:    transferID,
		Migration:     req.Migration,
		Contributor:   req.Contributor,
		Amount:        req.Amount,
		TotalReserved: uint64(reserve.TotalReserved),
	})
	return reserve, nil
}

// GetLiquidityReserve returns the reserve of a migration
func (l *Ledger) GetLiquidityReserve(
	ctx context.Context,
	migration identity.Identity,
) (*models.LiquidityReserve, error) {
	var ret *models.LiquidityReserve
	err := l.view(ctx, "get_liquidity_reserve", migration, func(txn *database.Txn) error {
		m, err := l.loadMigration(migration, txn)
		if err != nil {
			return err
		}
		ret, err = l.db.GetLiquidityReserve(m.ID, txn)
		if errors.Is(err, types.ErrRecordNotFound) {
			return ErrReserveNotFound
		}
		return err
	})
	return ret, err
}
