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

// Package ledger is the migration engine. It owns the migration record
// state machine, claim verification against the snapshot commitment, the
// claim ledger that prevents double claims, payouts delegated to the token
// subsystem under a derived authority, and liquidity reserve accounting.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/event"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/token"
)

const tracerName = "github.com/blinklabs-io/ferry/ledger"

type LedgerConfig struct {
	Logger         *slog.Logger
	Database       *database.Database
	Transferer     token.Transferer
	EventBus       *event.EventBus
	PromRegistry   prometheus.Registerer
	TracerProvider trace.TracerProvider
	// Now is the clock used for record timestamps
	Now       func() time.Time
	ProgramID identity.Identity
}

type Ledger struct {
	config  LedgerConfig
	db      *database.Database
	locks   *lockSet
	tracer  trace.Tracer
	metrics ledgerMetrics
}

func New(cfg LedgerConfig) (*Ledger, error) {
	if cfg.Database == nil {
		return nil, errors.New("ledger: database is required")
	}
	if cfg.Transferer == nil {
		return nil, errors.New("ledger: transferer is required")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = DefaultProgramID
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	l := &Ledger{
		config: cfg,
		db:     cfg.Database,
		locks:  newLockSet(),
		tracer: cfg.TracerProvider.Tracer(tracerName),
	}
	// Metrics are registered even without a registry so the counters can be
	// read in tests
	promRegistry := cfg.PromRegistry
	if promRegistry == nil {
		promRegistry = prometheus.NewRegistry()
	}
	l.metrics.init(promRegistry)
	if err := l.loadActiveMigrationCount(); err != nil {
		return nil, err
	}
	return l, nil
}

// ProgramID returns the identity all addresses are derived under
func (l *Ledger) ProgramID() identity.Identity {
	return l.config.ProgramID
}

func (l *Ledger) loadActiveMigrationCount() error {
	migrations, err := l.db.ListMigrations(nil)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	var active int
	for _, m := range migrations {
		if m.IsActive {
			active++
		}
	}
	l.metrics.migrationsActive.Set(float64(active))
	return nil
}

func (l *Ledger) now() time.Time {
	return l.config.Now().UTC()
}

// execute runs fn in a read-write transaction while holding the record
// locks named by keys. Locks are taken before the transaction is opened
// and released after it commits or rolls back.
func (l *Ledger) execute(
	ctx context.Context,
	op string,
	migration identity.Identity,
	keys []string,
	fn func(context.Context, *database.Txn) error,
) error {
	start := time.Now()
	ctx, span := l.tracer.Start(
		ctx,
		"ledger."+op,
		trace.WithAttributes(attribute.String("migration", migration.String())),
	)
	defer span.End()
	unlock := l.locks.Lock(keys...)
	l.metrics.lockWaitDuration.Observe(time.Since(start).Seconds())
	err := ctx.Err()
	if err == nil {
		err = l.db.Transaction(true).Do(func(txn *database.Txn) error {
			return fn(ctx, txn)
		})
	}
	unlock()
	l.metrics.operationDuration.WithLabelValues(op).Observe(
		time.Since(start).Seconds(),
	)
	if err != nil {
		l.metrics.operations.WithLabelValues(op, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.config.Logger.DebugContext(
			ctx,
			"ledger operation failed",
			"component", "ledger",
			"op", op,
			"migration", migration.String(),
			"error", err,
		)
		return newOperationError(op, migration, err)
	}
	l.metrics.operations.WithLabelValues(op, "ok").Inc()
	return nil
}

// view runs fn in a read-only transaction
func (l *Ledger) view(
	ctx context.Context,
	op string,
	migration identity.Identity,
	fn func(*database.Txn) error,
) error {
	_, span := l.tracer.Start(
		ctx,
		"ledger."+op,
		trace.WithAttributes(attribute.String("migration", migration.String())),
	)
	defer span.End()
	if err := l.db.Transaction(false).Do(fn); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return newOperationError(op, migration, err)
	}
	return nil
}

func (l *Ledger) publish(eventType event.EventType, data any) {
	if l.config.EventBus == nil {
		return
	}
	l.config.EventBus.Publish(eventType, event.NewEvent(eventType, data))
}

func (l *Ledger) loadMigration(
	address identity.Identity,
	txn *database.Txn,
) (*models.Migration, error) {
	m, err := l.db.GetMigration(address, txn)
	if err != nil {
		if errors.Is(err, types.ErrRecordNotFound) {
			return nil, ErrMigrationNotFound
		}
		return nil, fmt.Errorf("load migration: %w", err)
	}
	return m, nil
}
