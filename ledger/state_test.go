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
	"encoding/json"
	"strings"
	"testing"

	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenesis(t *testing.T) {
	ls := newTestLedger(t)

	owner, err := ls.Owner()
	require.NoError(t, err)
	assert.Equal(t, testOwner, owner)

	operational, err := ls.IsOperational()
	require.NoError(t, err)
	assert.True(t, operational)

	airline, err := ls.GetAirline(testFirstAirline)
	require.NoError(t, err)
	assert.Equal(t, "First Air", airline.Name)
	assert.True(t, airline.IsRegistered)
	assert.True(t, airline.IsFunded)
	assert.Equal(t, ledger.MinimumFunding, airline.FundedAmount)

	treasury, err := ls.Treasury()
	require.NoError(t, err)
	assert.Equal(t, ledger.MinimumFunding, treasury)

	seq, hash, err := ls.Tip()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
	assert.Len(t, hash, 32)
}

func TestGenesisUnfundedFirstAirline(t *testing.T) {
	ls := newTestLedger(t, withFirstAirlineFunding(0))
	airline, err := ls.GetAirline(testFirstAirline)
	require.NoError(t, err)
	assert.True(t, airline.IsRegistered)
	assert.False(t, airline.IsFunded)
}

func TestGenesisRequiresOwner(t *testing.T) {
	_, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		Genesis: ledger.GenesisConfig{FirstAirline: testFirstAirline},
	})
	require.ErrorIs(t, err, ledger.ErrInvalidGenesis)

	_, err = ledger.NewLedgerState(ledger.LedgerStateConfig{
		Genesis: ledger.GenesisConfig{
			Owner:               testOwner,
			FirstAirline:        testFirstAirline,
			FirstAirlineFunding: 1,
		},
	})
	require.ErrorIs(t, err, ledger.ErrInvalidGenesis)
}

func TestReopenKeepsState(t *testing.T) {
	dataDir := t.TempDir()
	cfg := ledger.LedgerStateConfig{
		DataDir: dataDir,
		Genesis: ledger.GenesisConfig{
			Owner:               testOwner,
			FirstAirline:        testFirstAirline,
			FirstAirlineFunding: ledger.MinimumFunding,
		},
	}
	ls, err := ledger.NewLedgerState(cfg)
	require.NoError(t, err)
	key := registerTestFlight(t, ls, "UA123")
	seq, hash, err := ls.Tip()
	require.NoError(t, err)
	require.NoError(t, ls.Close())

	// A different genesis on reopen is ignored
	cfg.Genesis.Owner = ledger.NewAddress("someone-else")
	ls, err = ledger.NewLedgerState(cfg)
	require.NoError(t, err)
	defer ls.Close()
	owner, err := ls.Owner()
	require.NoError(t, err)
	assert.Equal(t, testOwner, owner)
	status, err := ls.GetFlightStatus(key)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusUnknown, status)
	reopenedSeq, reopenedHash, err := ls.Tip()
	require.NoError(t, err)
	assert.Equal(t, seq, reopenedSeq)
	assert.Equal(t, hash, reopenedHash)
	require.NoError(t, ls.Database().VerifyJournal())
}

func TestFailedCallsAreNotJournaled(t *testing.T) {
	ls := newTestLedger(t)
	seq, _, err := ls.Tip()
	require.NoError(t, err)

	_, err = ls.RegisterAirline(ledger.NewAddress("nobody"), airlineAddress(2), "")
	require.ErrorIs(t, err, ledger.ErrAirlineNotRegistered)
	_, err = ls.BuyPolicy(testPassenger, testFlight("XX1"), 1)
	require.ErrorIs(t, err, ledger.ErrFlightNotRegistered)

	after, _, err := ls.Tip()
	require.NoError(t, err)
	assert.Equal(t, seq, after)
}

func TestJournalRecordsCalls(t *testing.T) {
	ls := newTestLedger(t)
	key := registerTestFlight(t, ls, "UA123")
	_, err := ls.BuyPolicy(testPassenger, key, 1)
	require.NoError(t, err)

	db := ls.Database()
	require.NoError(t, db.VerifyJournal())
	entry, err := db.JournalEntry(3)
	require.NoError(t, err)
	assert.Equal(t, "buy_policy", entry.Op)
	assert.Equal(t, string(testPassenger), entry.Sender)
}

func TestOperatingStatus(t *testing.T) {
	ls := newTestLedger(t)

	err := ls.SetOperatingStatus(testFirstAirline, false)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	require.NoError(t, ls.SetOperatingStatus(testOwner, false))
	operational, err := ls.IsOperational()
	require.NoError(t, err)
	assert.False(t, operational)

	// Every other mutating call is rejected while paused
	err = ls.RegisterFlight(testFirstAirline, testFlight("UA123"))
	require.ErrorIs(t, err, ledger.ErrNotOperational)
	_, err = ls.RegisterAirline(testFirstAirline, airlineAddress(2), "Second")
	require.ErrorIs(t, err, ledger.ErrNotOperational)
	err = ls.FundAirline(testFirstAirline, ledger.MinimumFunding)
	require.ErrorIs(t, err, ledger.ErrNotOperational)
	_, err = ls.RegisterOracle(ledger.NewAddress("oracle"), 1)
	require.ErrorIs(t, err, ledger.ErrNotOperational)
	_, err = ls.Withdraw(testPassenger)
	require.ErrorIs(t, err, ledger.ErrNotOperational)

	// Reads keep working
	_, err = ls.GetAirline(testFirstAirline)
	require.NoError(t, err)

	// Repeating the current mode changes nothing
	require.NoError(t, ls.SetOperatingStatus(testOwner, false))
	require.NoError(t, ls.SetOperatingStatus(testOwner, true))
	require.NoError(t, ls.RegisterFlight(testFirstAirline, testFlight("UA123")))
}

func TestLedgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		PromRegistry: reg,
		Genesis: ledger.GenesisConfig{
			Owner:               testOwner,
			FirstAirline:        testFirstAirline,
			FirstAirlineFunding: ledger.MinimumFunding,
		},
	})
	require.NoError(t, err)
	defer ls.Close()

	_, err = ls.RegisterAirline(testFirstAirline, airlineAddress(2), "Second")
	require.NoError(t, err)
	err = ls.FundAirline(airlineAddress(3), ledger.MinimumFunding)
	require.ErrorIs(t, err, ledger.ErrAirlineNotRegistered)

	expected := `
# HELP flightsurety_ledger_airlines_registered number of registered airlines
# TYPE flightsurety_ledger_airlines_registered gauge
flightsurety_ledger_airlines_registered 2
# HELP flightsurety_ledger_ops_total total number of ledger calls by operation and result
# TYPE flightsurety_ledger_ops_total counter
flightsurety_ledger_ops_total{op="fund_airline",result="error"} 1
flightsurety_ledger_ops_total{op="genesis",result="ok"} 1
flightsurety_ledger_ops_total{op="register_airline",result="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(
		reg,
		strings.NewReader(expected),
		"flightsurety_ledger_airlines_registered",
		"flightsurety_ledger_ops_total",
	))
}

func TestParseAddress(t *testing.T) {
	addr := ledger.NewAddress("seed")
	parsed, err := ledger.ParseAddress(strings.ToUpper(string(addr[2:])))
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
	assert.Empty(t, parsed)

	parsed, err = ledger.ParseAddress("0x" + strings.ToUpper(string(addr[2:])))
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	_, err = ledger.ParseAddress("0x1234")
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
	_, err = ledger.ParseAddress("0x" + strings.Repeat("zz", 20))
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
}

func TestAddressUnmarshalText(t *testing.T) {
	addr := ledger.NewAddress("seed")
	var body struct {
		From ledger.Address `json:"from"`
	}
	upper := "0x" + strings.ToUpper(string(addr[2:]))
	require.NoError(t, json.Unmarshal([]byte(`{"from":"`+upper+`"}`), &body))
	assert.Equal(t, addr, body.From)

	err := json.Unmarshal([]byte(`{"from":"not-an-address"}`), &body)
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
}

func TestNonCanonicalAddressesAreRejected(t *testing.T) {
	ls := newTestLedger(t)
	upper := func(a ledger.Address) ledger.Address {
		return ledger.Address("0x" + strings.ToUpper(string(a[2:])))
	}
	candidate := airlineAddress(2)

	_, err := ls.RegisterAirline(testFirstAirline, upper(candidate), "")
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
	_, err = ls.RegisterAirline(upper(testFirstAirline), candidate, "")
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
	_, err = ls.RegisterAirline(ledger.Address("not-an-address"), candidate, "")
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
	count, err := ls.AirlineCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	key := registerTestFlight(t, ls, "UA123")
	_, err = ls.BuyPolicy(upper(testPassenger), key, ledger.Ether)
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
	upperKey := key
	upperKey.Airline = upper(key.Airline)
	_, err = ls.BuyPolicy(testPassenger, upperKey, ledger.Ether)
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
	_, err = ls.RequestFlightStatus(upper(testPassenger), key)
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
	_, err = ls.RegisterOracle(upper(ledger.NewAddress("oracle-0")), ledger.OracleRegistrationFee)
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
	_, err = ls.Withdraw(upper(testPassenger))
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)
}
