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

package main

import (
	"github.com/blinklabs-io/flightsurety/internal/config"
	"github.com/spf13/cobra"
)

// nodeFlags override the loaded config for a single run
type nodeFlags struct {
	databasePath string
	oracleStatus string
	oracleSeed   uint64
	oracleNodes  int
	apiPort      uint
	noOracle     bool
}

func (f *nodeFlags) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(
		&f.databasePath,
		"database-path",
		"",
		"directory holding the ledger state and journal",
	)
	flags.StringVar(
		&f.oracleStatus,
		"oracle-status",
		"",
		"status reported by the simulated oracle nodes: a status name or code, or \"random\"",
	)
	flags.Uint64Var(
		&f.oracleSeed,
		"oracle-seed",
		0,
		"seed for the random oracle status source",
	)
	flags.IntVar(
		&f.oracleNodes,
		"oracle-nodes",
		0,
		"number of simulated oracle nodes to register",
	)
	flags.UintVar(
		&f.apiPort,
		"api-port",
		0,
		"port for the JSON API, 0 keeps the configured port",
	)
	flags.BoolVar(
		&f.noOracle,
		"no-oracle",
		false,
		"run without the oracle coordinator",
	)
}

// apply copies the flags given on the command line into cfg and validates
// the result
func (f *nodeFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("database-path") {
		cfg.DatabasePath = f.databasePath
	}
	if flags.Changed("oracle-status") {
		cfg.OracleStatus = f.oracleStatus
	}
	if flags.Changed("oracle-seed") {
		cfg.OracleSeed = f.oracleSeed
	}
	if flags.Changed("oracle-nodes") {
		cfg.OracleNodes = f.oracleNodes
	}
	if flags.Changed("api-port") && f.apiPort > 0 {
		cfg.ApiPort = f.apiPort
	}
	if f.noOracle {
		cfg.OracleEnabled = false
	}
	return cfg.Validate()
}
