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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/blinklabs-io/ferry"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/internal/config"
	"github.com/blinklabs-io/ferry/snapshot/publish"
)

// FerryConfig translates the file/env config into library options. It is
// shared by the server and the one-shot CLI commands.
func FerryConfig(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	extra ...ferry.ConfigOptionFunc,
) (ferry.Config, error) {
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return ferry.Config{}, err
	}
	maintenanceInterval, err := cfg.MaintenanceIntervalDuration()
	if err != nil {
		return ferry.Config{}, err
	}
	opts := []ferry.ConfigOptionFunc{
		ferry.WithLogger(logger),
		ferry.WithDatabasePath(cfg.DatabasePath),
		ferry.WithBlobPlugin(cfg.BlobPlugin),
		ferry.WithMetadataPlugin(cfg.MetadataPlugin),
		ferry.WithShutdownTimeout(shutdownTimeout),
		ferry.WithMaintenanceInterval(maintenanceInterval),
		ferry.WithDecimals(cfg.Decimals),
		ferry.WithTracing(cfg.Tracing),
		ferry.WithTracingStdout(cfg.TracingStdout),
	}
	if cfg.ProgramId != "" {
		programID, err := identity.Parse(cfg.ProgramId)
		if err != nil {
			return ferry.Config{}, fmt.Errorf("invalid program ID: %w", err)
		}
		opts = append(opts, ferry.WithProgramID(programID))
	}
	if cfg.SnapshotTarget != "" {
		uploader, err := publish.NewUploader(
			ctx,
			cfg.SnapshotTarget,
			publish.WithRegion(cfg.SnapshotRegion),
			publish.WithEndpoint(cfg.SnapshotEndpoint),
			publish.WithCredentialsFile(cfg.SnapshotCredentialsFile),
			publish.WithPublicBaseURL(cfg.SnapshotPublicBaseUrl),
		)
		if err != nil {
			return ferry.Config{}, fmt.Errorf(
				"failed to configure snapshot publishing: %w",
				err,
			)
		}
		opts = append(opts, ferry.WithSnapshotUploader(uploader))
	}
	opts = append(opts, extra...)
	return ferry.NewConfig(opts...), nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(
		"config loaded",
		"component", "node",
		"database_path", cfg.DatabasePath,
		"blob_plugin", cfg.BlobPlugin,
		"metadata_plugin", cfg.MetadataPlugin,
		"bind_addr", cfg.BindAddr,
		"api_port", cfg.ApiPort,
		"metrics_port", cfg.MetricsPort,
		"snapshot_target", cfg.SnapshotTarget,
	)
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	var apiOpts []ferry.ConfigOptionFunc
	if cfg.ApiPort > 0 {
		apiOpts = append(
			apiOpts,
			ferry.WithApiListenAddress(hostPort(cfg.BindAddr, cfg.ApiPort)),
			ferry.WithGatewayToken(cfg.GatewayToken),
			ferry.WithApiMaxRequestsPerIP(int(cfg.ApiMaxRequestsPerIp)), //nolint:gosec // G115: operator supplied
			ferry.WithApiMaxConnections(int(cfg.ApiMaxConnections)),     //nolint:gosec // G115: operator supplied
			ferry.WithApiTlsCertFilePath(cfg.TlsCertFilePath),
			ferry.WithApiTlsKeyFilePath(cfg.TlsKeyFilePath),
		)
	}
	apiOpts = append(
		apiOpts,
		// Enable metrics with default prometheus registry
		ferry.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	)
	ferryCfg, err := FerryConfig(signalCtx, cfg, logger, apiOpts...)
	if err != nil {
		return err
	}
	shutdownTimeout, _ := cfg.ShutdownTimeoutDuration()
	f, err := ferry.New(ferryCfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		//nolint:contextcheck
		return f.Run(gctx)
	})
	// Metrics and debug listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		metricsAddr := hostPort(cfg.BindAddr, cfg.MetricsPort)
		http.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			//nolint:contextcheck
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	runErr := g.Wait()
	if signalCtx.Err() != nil {
		logger.Info(
			"signal received, initiating graceful shutdown",
			"component", "node",
		)
	} else if runErr != nil {
		logger.Error("node error", "component", "node", "error", runErr)
	}
	if err := f.Stop(); err != nil {
		logger.Error(
			"shutdown errors occurred",
			"component", "node",
			"error", err,
		)
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("shutdown complete", "component", "node")
	return nil
}

func hostPort(host string, port uint) string {
	return net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))
}
