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

package flightsurety

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/blinklabs-io/flightsurety/oracle"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	statusSource     oracle.StatusSource
	genesis          ledger.GenesisConfig
	dataDir          string
	apiListenAddress string
	oracleNodeSeed   string
	oracleNodeCount  int
	oracleWorkers    int
	blockCacheSize   uint64
	shutdownTimeout  time.Duration
	oracleEnabled    bool
	tracing          bool
	tracingStdout    bool
}

func (n *Node) configValidate() error {
	if n.config.genesis.Owner == "" {
		return errors.New("no ledger owner defined")
	}
	if n.config.genesis.FirstAirline == "" {
		return errors.New("no first airline defined")
	}
	owner, err := ledger.ParseAddress(string(n.config.genesis.Owner))
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	firstAirline, err := ledger.ParseAddress(string(n.config.genesis.FirstAirline))
	if err != nil {
		return fmt.Errorf("first airline: %w", err)
	}
	n.config.genesis.Owner = owner
	n.config.genesis.FirstAirline = firstAirline
	if n.config.oracleNodeCount < 0 {
		return fmt.Errorf(
			"invalid oracle node count: %d",
			n.config.oracleNodeCount,
		)
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new node config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:        slog.New(slog.NewJSONHandler(io.Discard, nil)),
		oracleEnabled: true,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlockCacheSize specifies the journal block cache size in bytes
func WithBlockCacheSize(size uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.blockCacheSize = size
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithGenesis specifies the owner and first airline used to bootstrap an empty ledger
func WithGenesis(genesis ledger.GenesisConfig) ConfigOptionFunc {
	return func(c *Config) {
		c.genesis = genesis
	}
}

// WithApiListenAddress specifies the listen address for the HTTP API. An empty value disables it
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithOracle enables or disables the built-in oracle coordinator. It is enabled by default
func WithOracle(enabled bool) ConfigOptionFunc {
	return func(c *Config) {
		c.oracleEnabled = enabled
	}
}

// WithOracleNodes specifies how many oracle nodes the coordinator runs and the seed their addresses are derived from
func WithOracleNodes(count int, seed string) ConfigOptionFunc {
	return func(c *Config) {
		c.oracleNodeCount = count
		c.oracleNodeSeed = seed
	}
}

// WithOracleWorkers specifies how many submissions the coordinator makes concurrently
func WithOracleWorkers(workers int) ConfigOptionFunc {
	return func(c *Config) {
		c.oracleWorkers = workers
	}
}

// WithOracleStatusSource specifies where oracle nodes get the status they report
func WithOracleStatusSource(source oracle.StatusSource) ConfigOptionFunc {
	return func(c *Config) {
		c.statusSource = source
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
