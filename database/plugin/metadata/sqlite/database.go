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

package sqlite

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/ferry/database/plugin/metadata/internal/gormstore"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultBusyTimeout = 5 * time.Second

// MetadataStoreSqlite is a SQLite-based implementation of the metadata store.
// A single connection is used so that transactions are serialized by the
// driver.
type MetadataStoreSqlite struct {
	gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	dataDir      string
	busyTimeout  time.Duration
	mu           sync.Mutex
	started      bool
}

// New creates a SQLite metadata store. Uses in-memory database if dataDir is empty.
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*MetadataStoreSqlite, error) {
	db, err := NewWithOptions(
		WithDataDir(dataDir),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
	if err != nil {
		return nil, err
	}
	if err := db.Start(); err != nil {
		return nil, err
	}
	return db, nil
}

// NewWithOptions creates an unstarted SQLite metadata store
func NewWithOptions(opts ...SqliteOptionFunc) (*MetadataStoreSqlite, error) {
	db := &MetadataStoreSqlite{}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if db.busyTimeout <= 0 {
		db.busyTimeout = DefaultBusyTimeout
	}
	return db, nil
}

func (d *MetadataStoreSqlite) dsn() (string, error) {
	if d.dataDir == "" {
		// Each in-memory store gets its own named database so that stores
		// opened side by side in one process do not share tables
		return fmt.Sprintf(
			"file:ferry-%s?mode=memory&cache=shared",
			uuid.NewString(),
		), nil
	}
	// Make sure that we can read data dir, and create if it doesn't exist
	if _, err := os.Stat(d.dataDir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read data dir: %w", err)
		}
		if err := os.MkdirAll(d.dataDir, fs.ModePerm); err != nil {
			return "", fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	metadataDbPath := filepath.Join(d.dataDir, "metadata.sqlite")
	// WAL journal mode, wait on a locked database, increase cache size to 50MB
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=cache_size(-50000)",
		metadataDbPath,
		d.busyTimeout.Milliseconds(),
	), nil
}

// Start implements the plugin.Plugin interface
func (d *MetadataStoreSqlite) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}
	dsn, err := d.dsn()
	if err != nil {
		return err
	}
	// The in-memory database lives only as long as its connection, and a
	// single connection serializes writers
	store, err := gormstore.Open(
		sqlite.Open(dsn),
		gormstore.Config{
			Name:         "sqlite",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			PromRegistry: d.promRegistry,
			Logger:       d.logger,
		},
	)
	if err != nil {
		return err
	}
	d.Store = store
	d.started = true
	d.logger.Debug(
		"opened sqlite metadata store",
		"component", "database",
		"data_dir", d.dataDir,
	)
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreSqlite) Stop() error {
	return d.Close()
}

// Close shuts down the database connection
func (d *MetadataStoreSqlite) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil
	}
	d.started = false
	return d.Store.Close()
}

// RunMaintenance frees unused space in an on-disk database
func (d *MetadataStoreSqlite) RunMaintenance() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dataDir == "" || !d.started {
		return nil
	}
	d.logger.Debug(
		"running vacuum on sqlite metadata database",
		"component", "database",
	)
	if result := d.DB().Exec("VACUUM"); result.Error != nil {
		return fmt.Errorf("vacuum metadata store: %w", result.Error)
	}
	return nil
}
