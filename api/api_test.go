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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOwner     = ledger.NewAddress("owner")
	testAirline   = ledger.NewAddress("airline-1")
	testPassenger = ledger.NewAddress("passenger-1")
)

type fakeReadiness bool

func (f fakeReadiness) Ready() bool {
	return bool(f)
}

// failingLedger overrides a single call of an otherwise nil Ledger
type failingLedger struct {
	Ledger
	err error
}

func (f *failingLedger) IsOperational() (bool, error) {
	return false, f.err
}

func (f *failingLedger) InsuredBalance(ledger.Address) (uint64, error) {
	return 0, f.err
}

func newTestLedger(t *testing.T) *ledger.LedgerState {
	t.Helper()
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		Genesis: ledger.GenesisConfig{
			Owner:               testOwner,
			FirstAirline:        testAirline,
			FirstAirlineName:    "First Air",
			FirstAirlineFunding: ledger.MinimumFunding,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, ls.Close())
	})
	return ls
}

func newTestServer(t *testing.T, l Ledger, r Readiness) *httptest.Server {
	t.Helper()
	a := New(ApiConfig{}, l, r, nil)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(
	t *testing.T,
	method string,
	url string,
	body any,
	out any,
) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestStartStop(t *testing.T) {
	a := New(
		ApiConfig{ListenAddress: "127.0.0.1:0"},
		newTestLedger(t),
		nil,
		nil,
	)
	require.NoError(t, a.Start(t.Context()))
	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()
	require.Error(t, a.Start(t.Context()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(stopCtx))
	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
	// A second stop is a no-op
	require.NoError(t, a.Stop(stopCtx))
}

func TestHealth(t *testing.T) {
	ls := newTestLedger(t)
	srv := newTestServer(t, ls, fakeReadiness(true))
	var resp HealthResponse
	status := doJSON(t, http.MethodGet, srv.URL+"/health", nil, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.IsHealthy)
	assert.True(t, resp.OracleReady)
	assert.True(t, resp.Operational)

	notReady := newTestServer(t, ls, fakeReadiness(false))
	status = doJSON(t, http.MethodGet, notReady.URL+"/health", nil, &resp)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.False(t, resp.IsHealthy)
}

func TestRequestIdHeader(t *testing.T) {
	srv := newTestServer(t, newTestLedger(t), nil)
	resp, err := http.Get(srv.URL + "/health") //nolint:noctx
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(RequestIdHeader))

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIdHeader, "abc")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc", resp.Header.Get(RequestIdHeader))
}

func TestOperationalOwnerOnly(t *testing.T) {
	srv := newTestServer(t, newTestLedger(t), nil)
	var errResp ErrorResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/operational",
		OperationalRequest{From: testPassenger, Operational: false}, &errResp)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, http.StatusForbidden, errResp.StatusCode)

	var op OperationalResponse
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/operational",
		OperationalRequest{From: testOwner, Operational: false}, &op)
	assert.Equal(t, http.StatusOK, status)
	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/operational", nil, &op)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, op.Operational)

	// Mutations fail while paused
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/flights",
		RegisterFlightRequest{
			From:      testAirline,
			FlightKey: ledger.FlightKey{Airline: testAirline, Flight: "FS1", Timestamp: 1},
		}, &errResp)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestAirlineBallot(t *testing.T) {
	srv := newTestServer(t, newTestLedger(t), nil)
	// Bootstrap three more airlines, each funded by the sponsor's request
	airlines := []ledger.Address{testAirline}
	for i := 2; i <= ledger.BootstrapAirlineCount; i++ {
		addr := ledger.NewAddress(fmt.Sprintf("airline-%d", i))
		var res ledger.RegistrationResult
		status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/airlines",
			RegisterAirlineRequest{From: testAirline, Airline: addr, Name: "Air"}, &res)
		require.Equal(t, http.StatusCreated, status)
		require.True(t, res.Registered)
		var airline ledger.Airline
		status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/airlines/"+addr.String()+"/fund",
			FundAirlineRequest{Amount: ledger.MinimumFunding}, &airline)
		require.Equal(t, http.StatusOK, status)
		require.True(t, airline.IsFunded)
		airlines = append(airlines, addr)
	}

	fifth := ledger.NewAddress("airline-5")
	var res ledger.RegistrationResult
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/airlines",
		RegisterAirlineRequest{From: airlines[0], Airline: fifth, Name: "Fifth"}, &res)
	assert.Equal(t, http.StatusAccepted, status)
	assert.False(t, res.Registered)
	assert.Equal(t, uint64(1), res.Votes)

	var airline AirlineResponse
	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/airlines/"+fifth.String(), nil, &airline)
	assert.Equal(t, http.StatusNotFound, status)

	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/airlines",
		RegisterAirlineRequest{From: airlines[1], Airline: fifth, Name: "Fifth"}, &res)
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, res.Registered)

	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/airlines/"+fifth.String(), nil, &airline)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, airline.IsRegistered)
	assert.False(t, airline.IsFunded)

	var list []ledger.Airline
	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/airlines", nil, &list)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, list, 5)
}

func TestFlightPolicyOracleFlow(t *testing.T) {
	ls := newTestLedger(t)
	srv := newTestServer(t, ls, nil)
	key := ledger.FlightKey{Airline: testAirline, Flight: "FS100", Timestamp: 1_700_000_000}

	var flight FlightResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/flights",
		RegisterFlightRequest{From: testAirline, FlightKey: key}, &flight)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "unknown", flight.StatusName)

	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/flights",
		RegisterFlightRequest{From: testAirline, FlightKey: key}, nil)
	assert.Equal(t, http.StatusConflict, status)

	var policy ledger.Policy
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/policies",
		BuyPolicyRequest{From: testPassenger, Key: key, Price: ledger.Ether}, &policy)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, ledger.Ether+ledger.PayoutPremium, policy.PayoutAmount)

	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/policies",
		BuyPolicyRequest{From: testPassenger, Key: key, Price: 2 * ledger.Ether}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var policies PoliciesResponse
	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/policies/"+testPassenger.String(), nil, &policies)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, policies.Count)

	// Register oracles over HTTP
	oracles := make(map[ledger.Address][]int)
	for i := range 20 {
		addr := ledger.NewAddress(fmt.Sprintf("oracle-%d", i))
		var oresp OracleResponse
		status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/oracles",
			RegisterOracleRequest{From: addr, Fee: ledger.OracleRegistrationFee}, &oresp)
		require.Equal(t, http.StatusCreated, status)
		require.Len(t, oresp.Indexes, ledger.OracleIndexCount)
		oracles[addr] = oresp.Indexes
	}
	var oresp OracleResponse
	some := ledger.NewAddress("oracle-0")
	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/oracles/"+some.String(), nil, &oresp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, oracles[some], oresp.Indexes)

	flightURL := fmt.Sprintf("%s/api/v1/flights/%s/%s/%d", srv.URL, key.Airline, key.Flight, key.Timestamp)
	var holders []ledger.Address
	var req OracleRequestResponse
	for range ledger.OracleIndexSpace {
		status = doJSON(t, http.MethodPost, flightURL+"/status",
			FlightStatusRequest{From: testPassenger}, &req)
		require.Equal(t, http.StatusAccepted, status)
		holders = holders[:0]
		for addr, idx := range oracles {
			for _, i := range idx {
				if i == int(req.Index) {
					holders = append(holders, addr)
					break
				}
			}
		}
		if len(holders) >= ledger.MinResponses {
			break
		}
	}
	require.GreaterOrEqual(t, len(holders), ledger.MinResponses)

	// A non-holder cannot answer
	for addr, idx := range oracles {
		held := false
		for _, i := range idx {
			held = held || i == int(req.Index)
		}
		if !held {
			status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/oracles/responses",
				SubmitResponseRequest{From: addr, Key: key, Index: req.Index, StatusCode: ledger.StatusLateAirline}, nil)
			assert.Equal(t, http.StatusBadRequest, status)
			break
		}
	}

	for _, addr := range holders[:ledger.MinResponses] {
		var res ledger.SubmitResult
		status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/oracles/responses",
			SubmitResponseRequest{From: addr, Key: key, Index: req.Index, StatusCode: ledger.StatusLateAirline}, &res)
		require.Equal(t, http.StatusOK, status)
		require.True(t, res.Accepted)
	}

	status = doJSON(t, http.MethodGet, flightURL, nil, &flight)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ledger.StatusLateAirline, flight.Status)
	assert.Equal(t, "late_airline", flight.StatusName)

	var balance BalanceResponse
	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/balance/"+testPassenger.String(), nil, &balance)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ledger.Ether+ledger.PayoutPremium, balance.Balance)

	var withdrawn WithdrawResponse
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/balance/"+testPassenger.String()+"/withdraw", nil, &withdrawn)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ledger.Ether+ledger.PayoutPremium, withdrawn.Amount)

	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/balance/"+testPassenger.String()+"/withdraw", nil, nil)
	assert.Equal(t, http.StatusPaymentRequired, status)
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t, newTestLedger(t), nil)
	status := doJSON(t, http.MethodGet, srv.URL+"/api/v1/airlines/not-an-address", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = doJSON(t, http.MethodGet,
		srv.URL+"/api/v1/flights/"+testAirline.String()+"/FS1/notanumber", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/policies",
		map[string]any{"unexpected": true}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = doJSON(t, http.MethodGet,
		srv.URL+"/api/v1/flights/"+testAirline.String()+"/FS1/1", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBodyAddressesAreNormalized(t *testing.T) {
	srv := newTestServer(t, newTestLedger(t), nil)
	upper := func(a ledger.Address) string {
		return "0x" + strings.ToUpper(string(a[2:]))
	}
	candidate := ledger.NewAddress("airline-2")

	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/airlines",
		map[string]any{"from": testAirline, "airline": candidate, "name": "Second"}, nil)
	require.Equal(t, http.StatusCreated, status)
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/airlines",
		map[string]any{"from": upper(testAirline), "airline": upper(candidate), "name": "Second"}, nil)
	assert.Equal(t, http.StatusConflict, status)
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/airlines",
		map[string]any{"from": testAirline, "airline": "not-an-address", "name": "Bad"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/airlines",
		map[string]any{"airline": ledger.NewAddress("airline-3"), "name": "Anonymous"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var list []ledger.Airline
	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/airlines", nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 2)
	assert.Equal(t, candidate, list[1].Address)

	flight := map[string]any{"airline": upper(testAirline), "flight": "FS7", "timestamp": 1_700_000_000}
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/flights",
		map[string]any{"from": upper(testOwner), "airline": upper(testAirline), "flight": "FS7", "timestamp": 1_700_000_000}, nil)
	require.Equal(t, http.StatusCreated, status)

	var policy ledger.Policy
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/policies",
		map[string]any{"from": upper(testPassenger), "flight": flight, "price": ledger.Ether}, &policy)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, testPassenger, policy.Holder)
	assert.Equal(t, testAirline, policy.Key.Airline)
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/policies",
		map[string]any{"from": "not-an-address", "flight": flight, "price": ledger.Ether}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	for _, holder := range []string{testPassenger.String(), upper(testPassenger)} {
		var policies PoliciesResponse
		status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/policies/"+holder, nil, &policies)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, 1, policies.Count)
		assert.Equal(t, testPassenger, policies.Holder)
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	fl := &failingLedger{err: errors.New("disk on fire")}
	srv := newTestServer(t, fl, nil)
	var errResp ErrorResponse
	status := doJSON(t, http.MethodGet, srv.URL+"/api/v1/balance/"+testPassenger.String(), nil, &errResp)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, errResp.Message, "disk on fire")

	var health HealthResponse
	status = doJSON(t, http.MethodGet, srv.URL+"/health", nil, &health)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.False(t, health.IsHealthy)
}

func TestErrorStatus(t *testing.T) {
	testDefs := []struct {
		err    error
		status int
	}{
		{ledger.ErrUnauthorized, http.StatusForbidden},
		{ledger.ErrNotOperational, http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", ledger.ErrFlightNotRegistered), http.StatusNotFound},
		{ledger.ErrPolicyExists, http.StatusConflict},
		{ledger.ErrInsufficientFunding, http.StatusPaymentRequired},
		{ledger.ErrInvalidStatusCode, http.StatusBadRequest},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.status, errorStatus(testDef.err), testDef.err.Error())
	}
}
