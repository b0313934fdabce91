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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "flightsurety.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultOracleStatus    = "late_airline"
	// OracleStatusRandom makes oracle nodes report random statuses
	OracleStatusRandom = "random"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	DatabasePath          string  `yaml:"databasePath"          split_words:"true"`
	BindAddr              string  `yaml:"bindAddr"              split_words:"true"`
	Owner                 string  `yaml:"owner"`
	FirstAirline          string  `yaml:"firstAirline"          split_words:"true"`
	FirstAirlineName      string  `yaml:"firstAirlineName"      split_words:"true"`
	OracleStatus          string  `yaml:"oracleStatus"          split_words:"true"`
	OracleNodeSeed        string  `yaml:"oracleNodeSeed"        split_words:"true"`
	ShutdownTimeout       string  `yaml:"shutdownTimeout"       split_words:"true"`
	FirstAirlineFunding   uint64  `yaml:"firstAirlineFunding"   split_words:"true"`
	OracleSeed            uint64  `yaml:"oracleSeed"            split_words:"true"`
	BlockCacheSize        uint64  `yaml:"blockCacheSize"        split_words:"true"`
	OracleLateAirlineBias float64 `yaml:"oracleLateAirlineBias" split_words:"true"`
	OracleNodes           int     `yaml:"oracleNodes"           split_words:"true"`
	OracleWorkers         int     `yaml:"oracleWorkers"         split_words:"true"`
	ApiPort               uint    `yaml:"apiPort"               split_words:"true"`
	MetricsPort           uint    `yaml:"metricsPort"           split_words:"true"`
	OracleEnabled         bool    `yaml:"oracleEnabled"         split_words:"true"`
	Tracing               bool    `yaml:"tracing"`
	TracingStdout         bool    `yaml:"tracingStdout"         split_words:"true"`
}

// defaultConfig returns the settings of a local development ledger. The
// owner and first airline are derived from fixed seeds
func defaultConfig() *Config {
	return &Config{
		DatabasePath:          ".flightsurety",
		BindAddr:              "0.0.0.0",
		Owner:                 string(ledger.NewAddress("owner")),
		FirstAirline:          string(ledger.NewAddress("airline-1")),
		FirstAirlineName:      "First Airline",
		FirstAirlineFunding:   ledger.MinimumFunding,
		OracleEnabled:         true,
		OracleStatus:          DefaultOracleStatus,
		OracleNodeSeed:        "oracle",
		OracleNodes:           20,
		OracleWorkers:         8,
		OracleLateAirlineBias: 0.5,
		ApiPort:               8080,
		MetricsPort:           12798,
		ShutdownTimeout:       DefaultShutdownTimeout,
	}
}

var globalConfig = defaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	cfg := defaultConfig()
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.flightsurety/flightsurety.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".flightsurety", "flightsurety.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/flightsurety/flightsurety.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/flightsurety/flightsurety.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	if err := envconfig.Process("flightsurety", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks the settings and normalizes addresses
func (c *Config) Validate() error {
	owner, err := ledger.ParseAddress(c.Owner)
	if err != nil {
		return fmt.Errorf("invalid owner: %w", err)
	}
	c.Owner = string(owner)
	firstAirline, err := ledger.ParseAddress(c.FirstAirline)
	if err != nil {
		return fmt.Errorf("invalid firstAirline: %w", err)
	}
	c.FirstAirline = string(firstAirline)
	if c.FirstAirlineFunding > 0 && c.FirstAirlineFunding < ledger.MinimumFunding {
		return fmt.Errorf(
			"invalid firstAirlineFunding: %d is below the minimum of %d",
			c.FirstAirlineFunding,
			ledger.MinimumFunding,
		)
	}
	if c.OracleStatus != OracleStatusRandom {
		if _, err := ledger.ParseStatusCode(c.OracleStatus); err != nil {
			return fmt.Errorf("invalid oracleStatus: %w", err)
		}
	}
	if c.OracleNodes < 0 {
		return fmt.Errorf("invalid oracleNodes: %d is negative", c.OracleNodes)
	}
	if c.OracleLateAirlineBias < 0 || c.OracleLateAirlineBias > 1 {
		return fmt.Errorf(
			"invalid oracleLateAirlineBias: %v must be between 0 and 1",
			c.OracleLateAirlineBias,
		)
	}
	if c.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid shutdownTimeout: %w", err)
		}
	}
	return nil
}

// Genesis returns the bootstrap settings for an empty ledger
func (c *Config) Genesis() ledger.GenesisConfig {
	return ledger.GenesisConfig{
		Owner:               ledger.Address(c.Owner),
		FirstAirline:        ledger.Address(c.FirstAirline),
		FirstAirlineName:    c.FirstAirlineName,
		FirstAirlineFunding: c.FirstAirlineFunding,
	}
}
