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

package oracle_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/flightsurety/event"
	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/blinklabs-io/flightsurety/oracle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorResolvesLateFlight(t *testing.T) {
	var (
		owner     = ledger.NewAddress("owner")
		airline   = ledger.NewAddress("airline-1")
		passenger = ledger.NewAddress("passenger-1")
	)
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		EventBus: bus,
		Genesis: ledger.GenesisConfig{
			Owner:               owner,
			FirstAirline:        airline,
			FirstAirlineName:    "First Air",
			FirstAirlineFunding: ledger.MinimumFunding,
		},
	})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, ls.Close())
	}()

	reg := prometheus.NewRegistry()
	c, err := oracle.NewCoordinator(oracle.CoordinatorConfig{
		Ledger:       ls,
		EventBus:     bus,
		PromRegistry: reg,
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()
	require.Len(t, c.Nodes(), oracle.DefaultNodeCount)
	count, err := ls.OracleCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(oracle.DefaultNodeCount), count)

	key := ledger.FlightKey{Airline: airline, Flight: "FS100", Timestamp: 1_700_000_000}
	require.NoError(t, ls.RegisterFlight(airline, key))
	_, err = ls.BuyPolicy(passenger, key, ledger.Ether)
	require.NoError(t, err)

	// Keep asking until a request lands on an index enough nodes hold
	resolvable := false
	for range ledger.OracleIndexSpace {
		req, err := ls.RequestFlightStatus(passenger, key)
		require.NoError(t, err)
		holders := 0
		for _, node := range c.Nodes() {
			if node.HasIndex(req.Index) {
				holders++
			}
		}
		if holders >= ledger.MinResponses {
			resolvable = true
			break
		}
	}
	require.True(t, resolvable)

	require.Eventually(t, func() bool {
		code, err := ls.GetFlightStatus(key)
		return err == nil && code == ledger.StatusLateAirline
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		balance, err := ls.InsuredBalance(passenger)
		return err == nil && balance == ledger.Ether+ledger.PayoutPremium
	}, 5*time.Second, 10*time.Millisecond)
	expected := `
# HELP flightsurety_oracle_nodes number of oracle nodes managed by the coordinator
# TYPE flightsurety_oracle_nodes gauge
flightsurety_oracle_nodes 20
`
	require.NoError(t, testutil.GatherAndCompare(
		reg,
		strings.NewReader(expected),
		"flightsurety_oracle_nodes",
	))
}

func TestCoordinatorRegistersOnRealLedgerOnce(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		EventBus: bus,
		Genesis: ledger.GenesisConfig{
			Owner:        ledger.NewAddress("owner"),
			FirstAirline: ledger.NewAddress("airline-1"),
		},
	})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, ls.Close())
	}()
	cfg := oracle.CoordinatorConfig{Ledger: ls, EventBus: bus, NodeCount: 5}
	first, err := oracle.NewCoordinator(cfg)
	require.NoError(t, err)
	require.NoError(t, first.Start(context.Background()))
	nodes := first.Nodes()
	first.Stop()

	second, err := oracle.NewCoordinator(cfg)
	require.NoError(t, err)
	require.NoError(t, second.Start(context.Background()))
	defer second.Stop()
	assert.Equal(t, nodes, second.Nodes())
	count, err := ls.OracleCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
}
