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

// Package ferry assembles the migration ledger service: storage, the token
// vault, the ledger engine, the HTTP API, snapshot publishing and the
// background maintenance scheduler.
package ferry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-co-op/gocron/v2"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/blinklabs-io/ferry/api"
	"github.com/blinklabs-io/ferry/database"
	"github.com/blinklabs-io/ferry/event"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/snapshot/publish"
	"github.com/blinklabs-io/ferry/token"
)

var ErrNotStarted = errors.New("ferry has not been started")

type Ferry struct {
	eventBus       *event.EventBus
	db             *database.Database
	vault          *token.Vault
	ledger         *ledger.Ledger
	api            *api.Server
	publisher      *publish.Publisher
	scheduler      gocron.Scheduler
	activity       *activityFeed
	tracerProvider *sdktrace.TracerProvider
	shutdownFuncs  []func(context.Context) error
	config         Config
	done           chan struct{}
	mu             sync.Mutex
	startOnce      sync.Once
	shutdownOnce   sync.Once
}

func New(cfg Config) (*Ferry, error) {
	f := &Ferry{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	if err := f.configValidate(); err != nil {
		f.eventBus.Stop()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return f, nil
}

// Run starts every component and blocks until ctx is done or Stop is
// called. The caller is expected to call Stop afterward.
func (f *Ferry) Run(ctx context.Context) error {
	if err := f.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-f.done:
	}
	return nil
}

// Start brings up every component and returns once the API is listening
func (f *Ferry) Start(ctx context.Context) error {
	err := errors.New("ferry already started")
	f.startOnce.Do(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		err = f.start(ctx)
	})
	return err
}

func (f *Ferry) start(ctx context.Context) error {
	logger := f.config.logger
	// Configure tracing
	if f.config.tracing {
		if err := f.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        f.config.dataDir,
		BlobPlugin:     f.config.blobPlugin,
		MetadataPlugin: f.config.metadataPlugin,
		Logger:         logger,
		PromRegistry:   f.config.promRegistry,
	})
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		logger.Error(
			"failed to create database",
			"component", "ferry",
			"error", err,
		)
		return fmt.Errorf("failed to open database: %w", err)
	}
	f.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if errors.As(err, &dbErr) {
			// A vault transfer may have committed without its ledger record.
			// There is no safe way to replay it, so the operator must decide.
			logger.Error(
				"database stores disagree on last commit, refusing to start",
				"component", "ferry",
				"metadata_timestamp", dbErr.MetadataTimestamp,
				"blob_timestamp", dbErr.BlobTimestamp,
			)
			return fmt.Errorf("database needs recovery: %w", err)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	// Token vault and ledger
	f.vault = token.NewVault(f.db, logger)
	ledgerCfg := ledger.LedgerConfig{
		Logger:       logger,
		Database:     f.db,
		Transferer:   f.vault,
		EventBus:     f.eventBus,
		PromRegistry: f.config.promRegistry,
		ProgramID:    f.config.programID,
	}
	if f.tracerProvider != nil {
		ledgerCfg.TracerProvider = f.tracerProvider
	}
	l, err := ledger.New(ledgerCfg)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	f.ledger = l
	// Activity feed
	f.activity = newActivityFeed(f.eventBus, logger)
	f.activity.start()
	// Snapshot publishing
	if f.config.uploader != nil {
		f.publisher = publish.NewPublisher(
			f.config.uploader,
			logger,
			f.config.promRegistry,
		)
		if closer, ok := f.config.uploader.(io.Closer); ok {
			f.shutdownFuncs = append(
				f.shutdownFuncs,
				func(context.Context) error { return closer.Close() },
			)
		}
	}
	// Scheduled maintenance
	if err := f.startMaintenance(); err != nil {
		return err
	}
	// HTTP API
	if f.config.apiListenAddress != "" {
		apiCfg := api.ServerConfig{
			ListenAddress:    f.config.apiListenAddress,
			GatewayToken:     f.config.gatewayToken,
			MaxRequestsPerIP: f.config.apiMaxRequestsPerIP,
			MaxConnections:   f.config.apiMaxConnections,
			TlsCertFilePath:  f.config.tlsCertFilePath,
			TlsKeyFilePath:   f.config.tlsKeyFilePath,
			Decimals:         f.config.decimals,
		}
		if f.publisher != nil {
			apiCfg.Publisher = f.publisher
		}
		f.api = api.New(apiCfg, f.ledger, logger)
		if err := f.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API: %w", err)
		}
	}
	logger.Info(
		"ferry started",
		"component", "ferry",
		"program_id", f.ledger.ProgramID().String(),
		"data_dir", f.config.dataDir,
		"api", f.config.apiListenAddress,
		"publishing", f.publisher != nil,
	)
	return nil
}

// Ledger returns the ledger engine, or nil before Start
func (f *Ferry) Ledger() *ledger.Ledger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ledger
}

// EventBus returns the bus ledger events are published on
func (f *Ferry) EventBus() *event.EventBus {
	return f.eventBus
}

// Vault returns the token vault, or nil before Start
func (f *Ferry) Vault() *token.Vault {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vault
}

// PublishSnapshot uploads the registered proof bundle of a migration and
// returns its public URL. Only the migration admin may publish.
func (f *Ferry) PublishSnapshot(
	ctx context.Context,
	migration identity.Identity,
	caller identity.Identity,
) (string, error) {
	f.mu.Lock()
	l, publisher := f.ledger, f.publisher
	f.mu.Unlock()
	if l == nil {
		return "", ErrNotStarted
	}
	if publisher == nil {
		return "", api.ErrPublishDisabled
	}
	m, err := l.GetMigration(ctx, migration)
	if err != nil {
		return "", err
	}
	if caller != m.Admin {
		return "", ledger.ErrUnauthorized
	}
	bundle, err := l.GetSnapshot(ctx, migration)
	if err != nil {
		return "", err
	}
	return publisher.Publish(ctx, m.Name, migration, bundle)
}

func (f *Ferry) Stop() error {
	var err error
	f.shutdownOnce.Do(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		err = f.shutdown()
	})
	return err
}

func (f *Ferry) shutdown() error {
	shutdownTimeout := DefaultShutdownTimeout
	if f.config.shutdownTimeout > 0 {
		shutdownTimeout = f.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	logger := f.config.logger

	logger.Debug("starting graceful shutdown", "component", "ferry")

	// Phase 1: Stop accepting new work
	logger.Debug("shutdown phase 1: stopping new work", "component", "ferry")

	if f.api != nil {
		if stopErr := f.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	if f.scheduler != nil {
		if stopErr := f.scheduler.Shutdown(); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("scheduler shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain event delivery
	logger.Debug("shutdown phase 2: draining events", "component", "ferry")

	if f.activity != nil {
		f.activity.stop()
	}

	if f.eventBus != nil {
		f.eventBus.Stop()
	}

	// Phase 3: Close database
	logger.Debug("shutdown phase 3: closing database", "component", "ferry")

	if f.db != nil {
		if closeErr := f.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 4: Cleanup resources
	logger.Debug("shutdown phase 4: cleanup resources", "component", "ferry")

	// Call registered shutdown functions
	for _, fn := range f.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	f.shutdownFuncs = nil

	logger.Debug("graceful shutdown complete", "component", "ferry")
	close(f.done)
	return err
}
