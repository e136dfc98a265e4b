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

package gormstore

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config describes how a plugin wants its connection opened
type Config struct {
	// Name labels the connection pool metrics
	Name            string
	PrepareStmt     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PromRegistry    prometheus.Registerer
	Logger          *slog.Logger
}

// Open connects through the dialector, applies the pool limits and creates
// the table schemas. Pool statistics are exported when a registry is set.
func Open(dialector gorm.Dialector, cfg Config) (Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	db, err := gorm.Open(
		dialector,
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
			PrepareStmt:            cfg.PrepareStmt,
			TranslateError:         true,
		},
	)
	if err != nil {
		return Store{}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return Store{}, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	store, err := New(db, cfg.Logger)
	if err != nil {
		_ = sqlDB.Close()
		return store, err
	}
	store.registerPoolStats(sqlDB, cfg)
	return store, nil
}

func (s *Store) registerPoolStats(sqlDB *sql.DB, cfg Config) {
	if cfg.PromRegistry == nil {
		return
	}
	collector := collectors.NewDBStatsCollector(sqlDB, cfg.Name)
	if err := cfg.PromRegistry.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			s.logger.Warn(
				"failed to register metadata pool metrics",
				"component", "database",
				"error", err,
			)
		}
		return
	}
	s.promRegistry = cfg.PromRegistry
	s.poolStats = collector
}
