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

package mysql

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/database/plugin/metadata/internal/gormstore"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	// Server error number for a missing schema
	mysqlErrUnknownDatabase = 1049

	defaultMaxOpenConns = 100
	defaultMaxIdleConns = 10
)

// MetadataStoreMysql stores metadata in MySQL.
type MetadataStoreMysql struct {
	gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger

	host     string
	port     uint
	user     string
	password string
	database string
	tlsMode  string
	timeZone string
	dsn      string // Data source name (MySQL connection string)

	maxOpenConns int
}

// NewWithOptions creates a new database with options. The connection is
// opened by Start.
func NewWithOptions(opts ...MysqlOptionFunc) (*MetadataStoreMysql, error) {
	db := &MetadataStoreMysql{}
	for _, opt := range opts {
		opt(db)
	}
	if db.host == "" {
		db.host = "localhost"
	}
	if db.port == 0 {
		db.port = 3306
	}
	if db.user == "" {
		db.user = "root"
	}
	if db.database == "" {
		db.database = "ferry"
	}
	if db.timeZone == "" {
		db.timeZone = "UTC"
	}
	if db.maxOpenConns <= 0 {
		db.maxOpenConns = defaultMaxOpenConns
	}
	if db.logger == nil {
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return db, nil
}

// buildConfig returns the driver config for the store, parsed from the
// explicit DSN when one is set
func (d *MetadataStoreMysql) buildConfig() (*mysql.Config, error) {
	if dsn := strings.TrimSpace(d.dsn); dsn != "" {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		return cfg, nil
	}
	cfg := mysql.NewConfig()
	cfg.User = d.user
	cfg.Passwd = d.password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.host, strconv.FormatUint(uint64(d.port), 10))
	cfg.DBName = d.database
	cfg.ParseTime = true
	cfg.AllowNativePasswords = true
	if d.timeZone != "" {
		loc, err := time.LoadLocation(d.timeZone)
		if err != nil {
			return nil, fmt.Errorf("load time zone: %w", err)
		}
		cfg.Loc = loc
	}
	if d.tlsMode != "" {
		cfg.TLSConfig = d.tlsMode
	}
	return cfg, nil
}

// open is used for the schema-less admin connection
func (d *MetadataStoreMysql) open(dsn string) (*gorm.DB, error) {
	return gorm.Open(
		gormmysql.Open(dsn),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
			TranslateError:         true,
		},
	)
}

// Start implements the plugin.Plugin interface. A missing schema is created
// on first connect.
func (d *MetadataStoreMysql) Start() error {
	cfg, err := d.buildConfig()
	if err != nil {
		return err
	}
	storeCfg := gormstore.Config{
		Name:            "mysql",
		PrepareStmt:     true,
		MaxOpenConns:    d.maxOpenConns,
		MaxIdleConns:    min(d.maxOpenConns, defaultMaxIdleConns),
		ConnMaxLifetime: time.Hour,
		PromRegistry:    d.promRegistry,
		Logger:          d.logger,
	}
	store, err := gormstore.Open(gormmysql.Open(cfg.FormatDSN()), storeCfg)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if !errors.As(err, &mysqlErr) ||
			mysqlErr.Number != mysqlErrUnknownDatabase {
			return err
		}
		if err := d.createDatabase(cfg); err != nil {
			return err
		}
		store, err = gormstore.Open(gormmysql.Open(cfg.FormatDSN()), storeCfg)
		if err != nil {
			return err
		}
	}
	d.Store = store
	d.logger.Info(
		"connected to mysql metadata store",
		"component", "database",
		"addr", cfg.Addr,
		"database", cfg.DBName,
		"max_open_conns", d.maxOpenConns,
	)
	return nil
}

// createDatabase connects without a schema and creates the configured one
func (d *MetadataStoreMysql) createDatabase(cfg *mysql.Config) error {
	if cfg.DBName == "" {
		return errors.New("mysql: no database name configured")
	}
	adminCfg := cfg.Clone()
	adminCfg.DBName = ""
	adminDb, err := d.open(adminCfg.FormatDSN())
	if err != nil {
		return err
	}
	sqlAdminDb, err := adminDb.DB()
	if err != nil {
		return err
	}
	defer sqlAdminDb.Close()
	stmt := fmt.Sprintf(
		"CREATE DATABASE IF NOT EXISTS `%s`",
		strings.ReplaceAll(cfg.DBName, "`", "``"),
	)
	if result := adminDb.Exec(stmt); result.Error != nil {
		return result.Error
	}
	d.logger.Info(
		"created mysql database",
		"component", "database",
		"database", cfg.DBName,
	)
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Stop() error {
	return d.Close()
}

// RunMaintenance refreshes index statistics for the ledger tables
func (d *MetadataStoreMysql) RunMaintenance() error {
	if d.DB() == nil {
		return nil
	}
	tables := make([]string, 0, len(models.MigrateModels))
	for _, model := range models.MigrateModels {
		if tabler, ok := model.(schema.Tabler); ok {
			tables = append(tables, "`"+tabler.TableName()+"`")
		}
	}
	return d.DB().Exec("ANALYZE TABLE " + strings.Join(tables, ", ")).Error
}
