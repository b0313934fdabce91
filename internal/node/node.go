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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/flightsurety"
	"github.com/blinklabs-io/flightsurety/internal/config"
	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/blinklabs-io/flightsurety/oracle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource builds the oracle status source selected by the config
func StatusSource(cfg *config.Config) (oracle.StatusSource, error) {
	if cfg.OracleStatus == config.OracleStatusRandom {
		return oracle.NewRandomStatus(cfg.OracleSeed, cfg.OracleLateAirlineBias), nil
	}
	code, err := ledger.ParseStatusCode(cfg.OracleStatus)
	if err != nil {
		return nil, err
	}
	return oracle.FixedStatus(code), nil
}

// NodeOptions converts the config into node options
func NodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) ([]flightsurety.ConfigOptionFunc, error) {
	// Parse shutdown timeout
	shutdownTimeout := 30 * time.Second // Default timeout
	if cfg.ShutdownTimeout != "" {
		var err error
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}
	statusSource, err := StatusSource(cfg)
	if err != nil {
		return nil, err
	}
	apiListenAddress := ""
	if cfg.ApiPort > 0 {
		apiListenAddress = fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort)
	}
	return []flightsurety.ConfigOptionFunc{
		flightsurety.WithLogger(logger),
		flightsurety.WithDatabasePath(cfg.DatabasePath),
		flightsurety.WithBlockCacheSize(cfg.BlockCacheSize),
		flightsurety.WithGenesis(cfg.Genesis()),
		flightsurety.WithApiListenAddress(apiListenAddress),
		flightsurety.WithOracle(cfg.OracleEnabled),
		flightsurety.WithOracleNodes(cfg.OracleNodes, cfg.OracleNodeSeed),
		flightsurety.WithOracleWorkers(cfg.OracleWorkers),
		flightsurety.WithOracleStatusSource(statusSource),
		flightsurety.WithPrometheusRegistry(promRegistry),
		flightsurety.WithTracing(cfg.Tracing),
		flightsurety.WithTracingStdout(cfg.TracingStdout),
		flightsurety.WithShutdownTimeout(shutdownTimeout),
	}, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	// Enable metrics with default prometheus registry
	opts, err := NodeOptions(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	n, err := flightsurety.New(flightsurety.NewConfig(opts...))
	if err != nil {
		return err
	}
	// Metrics listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error(
					fmt.Sprintf("failed to start metrics listener: %s", err),
					"component", "node",
				)
			}
		}()
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	runErr := n.Run(signalCtx)
	if runErr != nil {
		logger.Error("node error", "error", runErr)
	} else {
		logger.Info("signal received, initiating graceful shutdown")
	}
	//nolint:contextcheck
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		30*time.Second,
	)
	defer cancel()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	if err := n.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return errors.Join(runErr, err)
	}
	if runErr == nil {
		logger.Info("shutdown complete")
	}
	return runErr
}
