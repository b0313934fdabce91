// Copyright 2026 Blink Labs Software
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

	"github.com/google/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	DefaultListenAddress = ":8080"
	RequestIdHeader      = "X-Request-Id"
)

type ApiConfig struct {
	ListenAddress string
}

// Api is the JSON-over-HTTP front end of the ledger
type Api struct {
	config     ApiConfig
	logger     *slog.Logger
	ledger     Ledger
	readiness  Readiness
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server. The readiness check may be nil when no
// oracle coordinator runs in this process
func New(
	cfg ApiConfig,
	ledger Ledger,
	readiness Readiness,
	logger *slog.Logger,
) *Api {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &Api{
		config:    cfg,
		logger:    logger,
		ledger:    ledger,
		readiness: readiness,
	}
}

// Handler returns the routed HTTP handler
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /api/v1/operational", a.handleGetOperational)
	mux.HandleFunc("POST /api/v1/operational", a.handleSetOperational)
	mux.HandleFunc("GET /api/v1/airlines", a.handleListAirlines)
	mux.HandleFunc("POST /api/v1/airlines", a.handleRegisterAirline)
	mux.HandleFunc("GET /api/v1/airlines/{address}", a.handleGetAirline)
	mux.HandleFunc(
		"POST /api/v1/airlines/{address}/fund",
		a.handleFundAirline,
	)
	mux.HandleFunc("POST /api/v1/flights", a.handleRegisterFlight)
	mux.HandleFunc(
		"GET /api/v1/flights/{airline}/{flight}/{timestamp}",
		a.handleGetFlight,
	)
	mux.HandleFunc(
		"POST /api/v1/flights/{airline}/{flight}/{timestamp}/status",
		a.handleRequestFlightStatus,
	)
	mux.HandleFunc("POST /api/v1/policies", a.handleBuyPolicy)
	mux.HandleFunc("GET /api/v1/policies/{holder}", a.handleGetPolicies)
	mux.HandleFunc("GET /api/v1/balance/{holder}", a.handleGetBalance)
	mux.HandleFunc(
		"POST /api/v1/balance/{holder}/withdraw",
		a.handleWithdraw,
	)
	mux.HandleFunc("POST /api/v1/oracles", a.handleRegisterOracle)
	mux.HandleFunc(
		"POST /api/v1/oracles/responses",
		a.handleSubmitOracleResponse,
	)
	mux.HandleFunc("GET /api/v1/oracles/{address}", a.handleGetOracle)
	return a.withRequestId(mux)
}

// withRequestId tags every request with an ID, reusing one supplied by the
// caller
func (a *Api) withRequestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqId := r.Header.Get(RequestIdHeader)
		if reqId == "" {
			reqId = uuid.NewString()
		}
		w.Header().Set(RequestIdHeader, reqId)
		a.logger.Debug(
			"handling request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", reqId,
		)
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server in a background goroutine
func (a *Api) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr: a.config.ListenAddress,
		// Allow HTTP/2 without TLS
		Handler:           h2c.NewHandler(a.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	a.logger.Info(
		"API listener started on " + ln.Addr().String(),
	)

	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := a.Stop(shutdownCtx); err != nil {
			a.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *Api) Stop(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()
	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}
