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

// Package gormstore holds the query layer shared by the gorm based metadata
// plugins. Each plugin owns its connection setup and embeds a Store.
package gormstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

var errNotConnected = errors.New("metadata store is not connected")

// Store implements the metadata queries on top of a gorm handle
type Store struct {
	db           *gorm.DB
	logger       *slog.Logger
	promRegistry prometheus.Registerer
	poolStats    prometheus.Collector
}

// New wraps an open gorm handle, enables tracing and creates the table
// schemas
func New(db *gorm.DB, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := Store{db: db, logger: logger}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return s, err
	}
	s.logger.Debug(
		"creating table",
		"component", "database",
		"table", CommitTimestamp{}.TableName(),
	)
	if err := db.AutoMigrate(&CommitTimestamp{}); err != nil {
		return s, err
	}
	for _, model := range models.MigrateModels {
		s.logger.Debug(
			"creating table",
			"component", "database",
			"model", fmt.Sprintf("%T", model),
		)
		if err := db.AutoMigrate(model); err != nil {
			return s, err
		}
	}
	return s, nil
}

// DB returns the underlying gorm handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// AutoMigrate wraps the gorm AutoMigrate
func (s *Store) AutoMigrate(dst ...any) error {
	if s.db == nil {
		return errNotConnected
	}
	return s.db.AutoMigrate(dst...)
}

// Transaction starts a new metadata transaction
func (s *Store) Transaction() types.Txn {
	txn := Begin(s.db)
	if txn.beginErr != nil {
		s.logger.Error(
			"failed to begin transaction",
			"component", "database",
			"error", txn.beginErr,
		)
	}
	return txn
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.poolStats != nil {
		s.promRegistry.Unregister(s.poolStats)
		s.poolStats = nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDB.Close()
}

// resolveDB picks the gorm handle to run a query against. A nil txn runs
// outside of any transaction.
func (s *Store) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if s.db == nil {
		return nil, errNotConnected
	}
	if txn == nil {
		return s.db, nil
	}
	t, ok := txn.(*Txn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if t.beginErr != nil {
		return nil, t.beginErr
	}
	if t.finished {
		return nil, errTxnFinished
	}
	return t.db, nil
}

// translateError maps driver errors onto the storage sentinels. Drivers
// without an error translator still report uniqueness failures in the
// message text.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ErrRecordNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", types.ErrDuplicateRecord, err)
	}
	msg := err.Error()
	for _, marker := range []string{
		"UNIQUE constraint failed",
		"Duplicate entry",
		"duplicate key value",
	} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %w", types.ErrDuplicateRecord, err)
		}
	}
	return err
}
