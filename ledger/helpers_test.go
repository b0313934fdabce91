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

package ledger_test

import (
	"fmt"
	"testing"

	"github.com/blinklabs-io/flightsurety/event"
	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/stretchr/testify/require"
)

var (
	testOwner        = ledger.NewAddress("owner")
	testFirstAirline = ledger.NewAddress("airline-1")
	testPassenger    = ledger.NewAddress("passenger-1")
)

type testLedgerOption func(*ledger.LedgerStateConfig)

func withEventBus(bus *event.EventBus) testLedgerOption {
	return func(cfg *ledger.LedgerStateConfig) {
		cfg.EventBus = bus
	}
}

func withFirstAirlineFunding(amount uint64) testLedgerOption {
	return func(cfg *ledger.LedgerStateConfig) {
		cfg.Genesis.FirstAirlineFunding = amount
	}
}

func newTestLedger(t *testing.T, opts ...testLedgerOption) *ledger.LedgerState {
	t.Helper()
	cfg := ledger.LedgerStateConfig{
		Genesis: ledger.GenesisConfig{
			Owner:               testOwner,
			FirstAirline:        testFirstAirline,
			FirstAirlineName:    "First Air",
			FirstAirlineFunding: ledger.MinimumFunding,
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ls, err := ledger.NewLedgerState(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, ls.Close())
	})
	return ls
}

func airlineAddress(i int) ledger.Address {
	return ledger.NewAddress(fmt.Sprintf("airline-%d", i))
}

// registerAirlines brings the registered airline count up to count through
// the bootstrap path, funding each new airline
func registerAirlines(t *testing.T, ls *ledger.LedgerState, count int) []ledger.Address {
	t.Helper()
	ret := []ledger.Address{testFirstAirline}
	for i := 2; i <= count; i++ {
		addr := airlineAddress(i)
		res, err := ls.RegisterAirline(testFirstAirline, addr, fmt.Sprintf("Airline %d", i))
		require.NoError(t, err)
		require.True(t, res.Registered)
		require.NoError(t, ls.FundAirline(addr, ledger.MinimumFunding))
		ret = append(ret, addr)
	}
	return ret
}

func testFlight(designator string) ledger.FlightKey {
	return ledger.FlightKey{
		Airline:   testFirstAirline,
		Flight:    designator,
		Timestamp: 1_700_000_000,
	}
}

func registerTestFlight(t *testing.T, ls *ledger.LedgerState, designator string) ledger.FlightKey {
	t.Helper()
	key := testFlight(designator)
	require.NoError(t, ls.RegisterFlight(key.Airline, key))
	return key
}

type testOracle struct {
	address ledger.Address
	indexes [ledger.OracleIndexCount]uint8
}

func (o testOracle) hasIndex(idx uint8) bool {
	for _, i := range o.indexes {
		if i == idx {
			return true
		}
	}
	return false
}

func registerOracles(t *testing.T, ls *ledger.LedgerState, count int) []testOracle {
	t.Helper()
	ret := make([]testOracle, 0, count)
	for i := range count {
		addr := ledger.NewAddress(fmt.Sprintf("oracle-%d", i))
		indexes, err := ls.RegisterOracle(addr, ledger.OracleRegistrationFee)
		require.NoError(t, err)
		ret = append(ret, testOracle{address: addr, indexes: indexes})
	}
	return ret
}

// requestWithHolders issues status requests for key until one is made with
// an index held by at least minHolders of the oracles, and returns that
// request with the matching oracles
func requestWithHolders(
	t *testing.T,
	ls *ledger.LedgerState,
	key ledger.FlightKey,
	oracles []testOracle,
	minHolders int,
) (ledger.OracleRequestEvent, []testOracle) {
	t.Helper()
	for range ledger.OracleIndexSpace {
		req, err := ls.RequestFlightStatus(testPassenger, key)
		require.NoError(t, err)
		var holders []testOracle
		for _, o := range oracles {
			if o.hasIndex(req.Index) {
				holders = append(holders, o)
			}
		}
		if len(holders) >= minHolders {
			return req, holders
		}
	}
	t.Fatalf("no request index held by %d oracles", minHolders)
	return ledger.OracleRequestEvent{}, nil
}

// driveConsensus submits code from matching oracles until the flight status
// is resolved
func driveConsensus(
	t *testing.T,
	ls *ledger.LedgerState,
	key ledger.FlightKey,
	oracles []testOracle,
	code ledger.StatusCode,
) {
	t.Helper()
	req, holders := requestWithHolders(t, ls, key, oracles, ledger.MinResponses)
	for _, o := range holders {
		res, err := ls.SubmitOracleResponse(o.address, req.Index, key, code)
		require.NoError(t, err)
		if res.Resolved {
			return
		}
	}
	t.Fatal("request was not resolved")
}
