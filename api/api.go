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

// Package api serves the migration ledger over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/net/netutil"

	"github.com/blinklabs-io/ferry/token"
)

// HealthServiceName is reported by the gRPC health endpoint
const HealthServiceName = "ferry.v1.MigrationService"

const DefaultListenAddress = ":8080"

// ServerConfig configures the API server. Mutating requests name their
// caller in the X-Ferry-Caller header, which is only trusted when the
// request carries GatewayToken as a bearer token.
type ServerConfig struct {
	Publisher     Publisher
	ListenAddress string
	GatewayToken  string
	// MaxRequestsPerIP caps concurrent requests from one client address,
	// or one IPv6 /64. Zero disables the limit.
	MaxRequestsPerIP int
	// MaxConnections caps open client connections. Zero disables the limit.
	MaxConnections int
	// TLS is served when both files are set, otherwise HTTP/2 is offered in
	// cleartext so gRPC health probes work
	TlsCertFilePath string
	TlsKeyFilePath  string
	// Decimals is used to render display amounts
	Decimals int32
}

// Server is the HTTP API server
type Server struct {
	config     ServerConfig
	logger     *slog.Logger
	backend    Backend
	httpServer *http.Server
	addr       net.Addr
	mu         sync.Mutex
}

// New creates a new API server instance
func New(
	cfg ServerConfig,
	backend Backend,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.Decimals == 0 {
		cfg.Decimals = token.DefaultDecimals
	}
	return &Server{
		config:  cfg,
		logger:  logger,
		backend: backend,
	}
}

// Handler returns the routed API handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(
		grpchealth.NewHandler(
			grpchealth.NewStaticChecker(HealthServiceName),
		),
	)
	mux.Handle(
		grpcreflect.NewHandlerV1(
			grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName),
		),
	)
	mux.Handle(
		grpcreflect.NewHandlerV1Alpha(
			grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName),
		),
	)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/chains", s.handleListChains)
	mux.HandleFunc("GET /v1/migrations", s.handleListMigrations)
	mux.HandleFunc("POST /v1/migrations", s.handleCreateMigration)
	mux.HandleFunc("GET /v1/migrations/{migration}", s.handleGetMigration)
	mux.HandleFunc(
		"POST /v1/migrations/{migration}/finalize",
		s.handleFinalizeMigration,
	)
	mux.HandleFunc(
		"POST /v1/migrations/{migration}/fund",
		s.handleFundMigration,
	)
	mux.HandleFunc(
		"GET /v1/migrations/{migration}/balances/{owner}",
		s.handleGetBalance,
	)
	mux.HandleFunc("GET /v1/migrations/{migration}/claims", s.handleListClaims)
	mux.HandleFunc("POST /v1/migrations/{migration}/claims", s.handleClaim)
	mux.HandleFunc(
		"GET /v1/migrations/{migration}/claims/{claimant}",
		s.handleGetClaim,
	)
	mux.HandleFunc("GET /v1/migrations/{migration}/reserve", s.handleGetReserve)
	mux.HandleFunc(
		"POST /v1/migrations/{migration}/reserve",
		s.handleInitializeReserve,
	)
	mux.HandleFunc(
		"POST /v1/migrations/{migration}/reserve/contributions",
		s.handleContribute,
	)
	mux.HandleFunc(
		"GET /v1/migrations/{migration}/governance",
		s.handleGetTally,
	)
	mux.HandleFunc("POST /v1/migrations/{migration}/votes", s.handleCastVote)
	mux.HandleFunc(
		"GET /v1/migrations/{migration}/snapshot",
		s.handleGetSnapshot,
	)
	mux.HandleFunc(
		"PUT /v1/migrations/{migration}/snapshot",
		s.handleRegisterSnapshot,
	)
	mux.HandleFunc(
		"POST /v1/migrations/{migration}/snapshot/publish",
		s.handlePublishSnapshot,
	)
	mux.HandleFunc(
		"GET /v1/migrations/{migration}/proofs/{claimant}",
		s.handleGetProof,
	)
	if s.config.MaxRequestsPerIP > 0 {
		return s.limitPerIP(newIPLimiter(s.config.MaxRequestsPerIP), mux)
	}
	return mux
}

// Start binds the listener and serves in a background goroutine. The server
// shuts down when ctx is cancelled or Stop is called.
func (s *Server) Start(
	ctx context.Context,
) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	useTLS := s.config.TlsCertFilePath != "" && s.config.TlsKeyFilePath != ""
	handler := s.Handler()
	if !useTLS {
		// Use h2c so we can serve HTTP/2 without TLS
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.mu.Unlock()

	listenConfig := net.ListenConfig{Control: socketControl}
	ln, err := listenConfig.Listen(ctx, "tcp", server.Addr)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	if s.config.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.config.MaxConnections)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	go func() {
		var err error
		if useTLS {
			err = server.ServeTLS(
				ln,
				s.config.TlsCertFilePath,
				s.config.TlsKeyFilePath,
			)
		} else {
			err = server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	s.logger.Info(
		"API listener started on "+ln.Addr().String(),
		"tls", useTLS,
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Addr returns the bound listener address, or nil when the server is not
// running
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(
	ctx context.Context,
) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.addr = nil
	s.mu.Unlock()

	if srv != nil {
		s.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}
