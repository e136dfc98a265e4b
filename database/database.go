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

// Package database combines a relational metadata store and a key/value
// blob store behind a single transaction handle.
package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/blinklabs-io/ferry/database/plugin"
	"github.com/blinklabs-io/ferry/database/plugin/blob"
	"github.com/blinklabs-io/ferry/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Config selects the storage plugins. An empty DataDir leaves the plugin
// options untouched, which gives in-memory stores for the default plugins.
type Config struct {
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	DataDir        string
	BlobPlugin     string
	MetadataPlugin string
}

type Database struct {
	logger       *slog.Logger
	promRegistry prometheus.Registerer
	blob         blob.BlobStore
	metadata     metadata.MetadataStore
	metrics      *txnMetrics
	dataDir      string
	recovery     atomic.Pointer[CommitTimestampError]
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

// RunMaintenance reclaims space in both stores. It is safe to call while
// transactions are in flight.
func (d *Database) RunMaintenance() error {
	var err error
	if d.blob != nil {
		if gcErr := d.blob.RunGC(); gcErr != nil {
			err = errors.Join(err, fmt.Errorf("blob gc: %w", gcErr))
		}
	}
	if d.metadata != nil {
		if mErr := d.metadata.RunMaintenance(); mErr != nil {
			err = errors.Join(err, fmt.Errorf("metadata maintenance: %w", mErr))
		}
	}
	d.metrics.maintenance(err)
	return err
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return d.checkCommitTimestamp()
}

// New opens the configured blob and metadata plugins
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	blobPlugin := cfg.BlobPlugin
	if blobPlugin == "" {
		blobPlugin = DefaultBlobPlugin
	}
	metadataPlugin := cfg.MetadataPlugin
	if metadataPlugin == "" {
		metadataPlugin = DefaultMetadataPlugin
	}
	if cfg.DataDir != "" {
		if err := plugin.SetPluginOption(
			plugin.PluginTypeBlob,
			blobPlugin,
			"data-dir",
			cfg.DataDir,
		); err != nil {
			return nil, err
		}
		if err := plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			metadataPlugin,
			"data-dir",
			cfg.DataDir,
		); err != nil {
			return nil, err
		}
	}
	startOpts := plugin.StartOptions{
		Logger:       cfg.Logger,
		PromRegistry: cfg.PromRegistry,
	}
	metadataDb, err := metadata.New(metadataPlugin, startOpts)
	if err != nil {
		return nil, err
	}
	blobDb, err := blob.New(blobPlugin, startOpts)
	if err != nil {
		_ = metadataDb.Close()
		return nil, err
	}
	db := &Database{
		logger:       cfg.Logger,
		promRegistry: cfg.PromRegistry,
		blob:         blobDb,
		metadata:     metadataDb,
		dataDir:      cfg.DataDir,
	}
	if cfg.PromRegistry != nil {
		db.metrics = newTxnMetrics(cfg.PromRegistry)
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	db.logger.Debug(
		"opened database",
		"component", "database",
		"blob", blobPlugin,
		"metadata", metadataPlugin,
		"data_dir", cfg.DataDir,
	)
	return db, nil
}
