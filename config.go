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

package ferry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/snapshot/publish"
	"github.com/blinklabs-io/ferry/token"
)

const (
	DefaultShutdownTimeout = 30 * time.Second
	// maxDecimals keeps display amounts within what FormatAmount renders
	// exactly for any uint64
	maxDecimals = 19
)

type Config struct {
	promRegistry        prometheus.Registerer
	logger              *slog.Logger
	uploader            publish.Uploader
	dataDir             string
	blobPlugin          string
	metadataPlugin      string
	apiListenAddress    string
	gatewayToken        string
	shutdownTimeout     time.Duration
	maintenanceInterval time.Duration
	programID           identity.Identity
	apiMaxRequestsPerIP int
	apiMaxConnections   int
	tlsCertFilePath     string
	tlsKeyFilePath      string
	decimals            int32
	tracing             bool
	tracingStdout       bool
}

func (f *Ferry) configValidate() error {
	if f.config.shutdownTimeout < 0 {
		return fmt.Errorf(
			"invalid shutdown timeout: %s",
			f.config.shutdownTimeout,
		)
	}
	if f.config.maintenanceInterval < 0 {
		return fmt.Errorf(
			"invalid maintenance interval: %s",
			f.config.maintenanceInterval,
		)
	}
	if f.config.decimals < 0 || f.config.decimals > maxDecimals {
		return fmt.Errorf(
			"invalid token decimals: %d (must be between 0 and %d)",
			f.config.decimals,
			maxDecimals,
		)
	}
	if f.config.apiListenAddress != "" && f.config.gatewayToken == "" {
		// Reads still work, mutations are refused
		f.config.logger.Warn(
			"API enabled without a gateway token, all mutating requests will be rejected",
			"component", "ferry",
		)
	}
	if f.config.apiMaxRequestsPerIP < 0 {
		return fmt.Errorf(
			"invalid API per-address request limit: %d",
			f.config.apiMaxRequestsPerIP,
		)
	}
	if f.config.apiMaxConnections < 0 {
		return fmt.Errorf(
			"invalid API connection limit: %d",
			f.config.apiMaxConnections,
		)
	}
	if (f.config.tlsCertFilePath == "") != (f.config.tlsKeyFilePath == "") {
		return errors.New(
			"TLS requires both a certificate and a key file",
		)
	}
	if f.config.tracingStdout && !f.config.tracing {
		return errors.New("stdout tracing requires tracing to be enabled")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the ferry config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new ferry config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		shutdownTimeout: DefaultShutdownTimeout,
		decimals:        token.DefaultDecimals,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithMaintenanceInterval specifies how often the stores are compacted. Zero disables scheduled maintenance
func WithMaintenanceInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.maintenanceInterval = interval
	}
}

// WithProgramID specifies the identity that migration and authority addresses are derived under
func WithProgramID(programID identity.Identity) ConfigOptionFunc {
	return func(c *Config) {
		c.programID = programID
	}
}

// WithApiListenAddress specifies the listen address for the HTTP API. An empty address disables the API
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithApiMaxRequestsPerIP caps concurrent API requests from one client address. The default of 0 disables the limit
func WithApiMaxRequestsPerIP(limit int) ConfigOptionFunc {
	return func(c *Config) {
		c.apiMaxRequestsPerIP = limit
	}
}

// WithApiMaxConnections caps open API client connections. The default of 0 disables the limit
func WithApiMaxConnections(limit int) ConfigOptionFunc {
	return func(c *Config) {
		c.apiMaxConnections = limit
	}
}

// WithApiTlsCertFilePath specifies the path to the TLS certificate for the API listener. This defaults to empty
func WithApiTlsCertFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsCertFilePath = path
	}
}

// WithApiTlsKeyFilePath specifies the path to the TLS key for the API listener. This defaults to empty
func WithApiTlsKeyFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsKeyFilePath = path
	}
}

// WithGatewayToken specifies the bearer token the API requires before it trusts the caller header
func WithGatewayToken(token string) ConfigOptionFunc {
	return func(c *Config) {
		c.gatewayToken = token
	}
}

// WithSnapshotUploader specifies where snapshot bundles are published. Publishing is disabled without one
func WithSnapshotUploader(uploader publish.Uploader) ConfigOptionFunc {
	return func(c *Config) {
		c.uploader = uploader
	}
}

// WithDecimals specifies the number of fractional digits used when displaying token amounts. The default is 6
func WithDecimals(decimals int32) ConfigOptionFunc {
	return func(c *Config) {
		c.decimals = decimals
	}
}
