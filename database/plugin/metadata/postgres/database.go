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

package postgres

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/ferry/database/plugin/metadata/internal/gormstore"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
)

const (
	defaultMaxOpenConns = 100
	defaultMaxIdleConns = 10
	defaultAppName      = "ferry"
)

// MetadataStorePostgres stores metadata in Postgres.
type MetadataStorePostgres struct {
	gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger

	host     string
	port     uint
	user     string
	password string
	database string
	sslMode  string
	timeZone string
	dsn      string // Data source name (postgres connection string)
	appName  string

	maxOpenConns int
}

// NewWithOptions creates a new database with options. The connection is
// opened by Start.
func NewWithOptions(opts ...PostgresOptionFunc) (*MetadataStorePostgres, error) {
	db := &MetadataStorePostgres{}
	for _, opt := range opts {
		opt(db)
	}
	// Set defaults after options are applied
	if db.host == "" {
		db.host = "localhost"
	}
	if db.port == 0 {
		db.port = 5432
	}
	if db.user == "" {
		db.user = "postgres"
	}
	if db.database == "" {
		db.database = "ferry"
	}
	if db.sslMode == "" {
		db.sslMode = "disable"
	}
	if db.timeZone == "" {
		db.timeZone = "UTC"
	}
	if db.appName == "" {
		db.appName = defaultAppName
	}
	if db.maxOpenConns <= 0 {
		db.maxOpenConns = defaultMaxOpenConns
	}
	if db.logger == nil {
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return db, nil
}

// buildDSN returns the explicit DSN when set, otherwise one assembled from
// the individual connection options
func (d *MetadataStorePostgres) buildDSN() string {
	if dsn := strings.TrimSpace(d.dsn); dsn != "" {
		return dsn
	}
	parts := []string{
		"host=" + d.host,
		"user=" + d.user,
		"password=" + d.password,
		"dbname=" + d.database,
		"port=" + strconv.FormatUint(uint64(d.port), 10),
		"sslmode=" + d.sslMode,
	}
	if d.timeZone != "" {
		parts = append(parts, "TimeZone="+d.timeZone)
	}
	// Shows up in pg_stat_activity
	parts = append(parts, "application_name="+d.appName)
	return strings.Join(parts, " ")
}

// Start implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Start() error {
	store, err := gormstore.Open(
		postgres.Open(d.buildDSN()),
		gormstore.Config{
			Name:            "postgres",
			PrepareStmt:     true,
			MaxOpenConns:    d.maxOpenConns,
			MaxIdleConns:    min(d.maxOpenConns, defaultMaxIdleConns),
			ConnMaxLifetime: time.Hour,
			PromRegistry:    d.promRegistry,
			Logger:          d.logger,
		},
	)
	if err != nil {
		return err
	}
	d.Store = store
	d.logger.Info(
		"connected to postgres metadata store",
		"component", "database",
		"host", d.host,
		"port", d.port,
		"database", d.database,
		"max_open_conns", d.maxOpenConns,
	)
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Stop() error {
	return d.Close()
}

// RunMaintenance refreshes planner statistics
func (d *MetadataStorePostgres) RunMaintenance() error {
	if d.DB() == nil {
		return nil
	}
	return d.DB().Exec("ANALYZE").Error
}
