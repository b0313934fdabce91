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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/flightsurety/ledger"
)

const maxBodySize = 1 << 20

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// errorStatus maps ledger errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotOperational):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrAirlineNotRegistered),
		errors.Is(err, ledger.ErrFlightNotRegistered),
		errors.Is(err, ledger.ErrOracleNotRegistered),
		errors.Is(err, ledger.ErrRequestNotFound),
		errors.Is(err, ledger.ErrPolicyNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAirlineAlreadyRegistered),
		errors.Is(err, ledger.ErrFlightAlreadyRegistered),
		errors.Is(err, ledger.ErrPolicyExists),
		errors.Is(err, ledger.ErrOracleAlreadyRegistered),
		errors.Is(err, ledger.ErrNoFreeOracleIndex):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunding),
		errors.Is(err, ledger.ErrInsufficientFee),
		errors.Is(err, ledger.ErrNothingToWithdraw),
		errors.Is(err, ledger.ErrInsufficientTreasury):
		return http.StatusPaymentRequired
	case errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, ledger.ErrInvalidFlightKey),
		errors.Is(err, ledger.ErrInvalidPrice),
		errors.Is(err, ledger.ErrInvalidStatusCode),
		errors.Is(err, ledger.ErrIndexMismatch),
		errors.Is(err, ledger.ErrAirlineNotFunded),
		errors.Is(err, ledger.ErrAmountOverflow):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeLedgerError reports a failed ledger call. Unexpected errors are
// logged and their text is withheld from the client
func (a *Api) writeLedgerError(w http.ResponseWriter, msg string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		a.logger.Error(
			msg,
			"error", err,
		)
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func pathAddress(
	w http.ResponseWriter,
	r *http.Request,
	name string,
) (ledger.Address, bool) {
	addr, err := ledger.ParseAddress(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return addr, true
}

func pathFlightKey(
	w http.ResponseWriter,
	r *http.Request,
) (ledger.FlightKey, bool) {
	airline, ok := pathAddress(w, r, "airline")
	if !ok {
		return ledger.FlightKey{}, false
	}
	ts, err := strconv.ParseInt(r.PathValue("timestamp"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timestamp")
		return ledger.FlightKey{}, false
	}
	return ledger.FlightKey{
		Airline:   airline,
		Flight:    r.PathValue("flight"),
		Timestamp: ts,
	}, true
}

// handleHealth handles GET /health
func (a *Api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{IsHealthy: true}
	operational, err := a.ledger.IsOperational()
	if err != nil {
		a.logger.Error(
			"failed to get operating status",
			"error", err,
		)
		resp.IsHealthy = false
	}
	resp.Operational = operational
	if a.readiness != nil {
		resp.OracleReady = a.readiness.Ready()
		if !resp.OracleReady {
			resp.IsHealthy = false
		}
	}
	status := http.StatusOK
	if !resp.IsHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (a *Api) handleGetOperational(w http.ResponseWriter, _ *http.Request) {
	operational, err := a.ledger.IsOperational()
	if err != nil {
		a.writeLedgerError(w, "failed to get operating status", err)
		return
	}
	writeJSON(w, http.StatusOK, OperationalResponse{Operational: operational})
}

func (a *Api) handleSetOperational(w http.ResponseWriter, r *http.Request) {
	var req OperationalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.ledger.SetOperatingStatus(req.From, req.Operational); err != nil {
		a.writeLedgerError(w, "failed to set operating status", err)
		return
	}
	writeJSON(w, http.StatusOK, OperationalResponse{Operational: req.Operational})
}

func (a *Api) handleListAirlines(w http.ResponseWriter, _ *http.Request) {
	airlines, err := a.ledger.Airlines()
	if err != nil {
		a.writeLedgerError(w, "failed to list airlines", err)
		return
	}
	if airlines == nil {
		airlines = []ledger.Airline{}
	}
	writeJSON(w, http.StatusOK, airlines)
}

func (a *Api) handleGetAirline(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	airline, err := a.ledger.GetAirline(addr)
	if err != nil {
		a.writeLedgerError(w, "failed to get airline", err)
		return
	}
	votes, err := a.ledger.BallotVotes(addr)
	if err != nil {
		a.writeLedgerError(w, "failed to get airline votes", err)
		return
	}
	writeJSON(w, http.StatusOK, AirlineResponse{Airline: airline, Votes: votes})
}

// handleRegisterAirline handles POST /api/v1/airlines. A ballot that has not
// reached its threshold yet is reported with 202
func (a *Api) handleRegisterAirline(w http.ResponseWriter, r *http.Request) {
	var req RegisterAirlineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := a.ledger.RegisterAirline(req.From, req.Airline, req.Name)
	if err != nil {
		a.writeLedgerError(w, "failed to register airline", err)
		return
	}
	status := http.StatusCreated
	if !res.Registered {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

func (a *Api) handleFundAirline(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	var req FundAirlineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.ledger.FundAirline(addr, req.Amount); err != nil {
		a.writeLedgerError(w, "failed to fund airline", err)
		return
	}
	airline, err := a.ledger.GetAirline(addr)
	if err != nil {
		a.writeLedgerError(w, "failed to get airline", err)
		return
	}
	writeJSON(w, http.StatusOK, airline)
}

func (a *Api) handleRegisterFlight(w http.ResponseWriter, r *http.Request) {
	var req RegisterFlightRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.ledger.RegisterFlight(req.From, req.FlightKey); err != nil {
		a.writeLedgerError(w, "failed to register flight", err)
		return
	}
	a.writeFlight(w, http.StatusCreated, req.FlightKey)
}

func (a *Api) handleGetFlight(w http.ResponseWriter, r *http.Request) {
	key, ok := pathFlightKey(w, r)
	if !ok {
		return
	}
	a.writeFlight(w, http.StatusOK, key)
}

func (a *Api) writeFlight(w http.ResponseWriter, status int, key ledger.FlightKey) {
	flight, err := a.ledger.GetFlight(key)
	if err != nil {
		a.writeLedgerError(w, "failed to get flight", err)
		return
	}
	writeJSON(w, status, FlightResponse{
		Flight:     flight,
		StatusName: flight.Status.String(),
	})
}

func (a *Api) handleRequestFlightStatus(w http.ResponseWriter, r *http.Request) {
	key, ok := pathFlightKey(w, r)
	if !ok {
		return
	}
	var req FlightStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	evt, err := a.ledger.RequestFlightStatus(req.From, key)
	if err != nil {
		a.writeLedgerError(w, "failed to request flight status", err)
		return
	}
	writeJSON(w, http.StatusAccepted, OracleRequestResponse{
		Key:   evt.Key,
		Seq:   evt.Seq,
		Index: evt.Index,
	})
}

func (a *Api) handleBuyPolicy(w http.ResponseWriter, r *http.Request) {
	var req BuyPolicyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	policy, err := a.ledger.BuyPolicy(req.From, req.Key, req.Price)
	if err != nil {
		a.writeLedgerError(w, "failed to buy policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, policy)
}

func (a *Api) handleGetPolicies(w http.ResponseWriter, r *http.Request) {
	holder, ok := pathAddress(w, r, "holder")
	if !ok {
		return
	}
	policies, err := a.ledger.GetPolicies(holder)
	if err != nil {
		a.writeLedgerError(w, "failed to get policies", err)
		return
	}
	if policies == nil {
		policies = []ledger.Policy{}
	}
	writeJSON(w, http.StatusOK, PoliciesResponse{
		Holder:   holder,
		Policies: policies,
		Count:    len(policies),
	})
}

func (a *Api) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	holder, ok := pathAddress(w, r, "holder")
	if !ok {
		return
	}
	balance, err := a.ledger.InsuredBalance(holder)
	if err != nil {
		a.writeLedgerError(w, "failed to get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Holder: holder, Balance: balance})
}

func (a *Api) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	holder, ok := pathAddress(w, r, "holder")
	if !ok {
		return
	}
	amount, err := a.ledger.Withdraw(holder)
	if err != nil {
		a.writeLedgerError(w, "failed to withdraw", err)
		return
	}
	writeJSON(w, http.StatusOK, WithdrawResponse{Holder: holder, Amount: amount})
}

func (a *Api) handleRegisterOracle(w http.ResponseWriter, r *http.Request) {
	var req RegisterOracleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	indexes, err := a.ledger.RegisterOracle(req.From, req.Fee)
	if err != nil {
		a.writeLedgerError(w, "failed to register oracle", err)
		return
	}
	writeJSON(w, http.StatusCreated, newOracleResponse(req.From, indexes))
}

func (a *Api) handleGetOracle(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	indexes, err := a.ledger.GetOracleIndexes(addr)
	if err != nil {
		a.writeLedgerError(w, "failed to get oracle", err)
		return
	}
	writeJSON(w, http.StatusOK, newOracleResponse(addr, indexes))
}

func newOracleResponse(
	addr ledger.Address,
	indexes [ledger.OracleIndexCount]uint8,
) OracleResponse {
	ret := OracleResponse{
		Address: addr,
		Indexes: make([]int, 0, len(indexes)),
	}
	for _, idx := range indexes {
		ret.Indexes = append(ret.Indexes, int(idx))
	}
	return ret
}

func (a *Api) handleSubmitOracleResponse(w http.ResponseWriter, r *http.Request) {
	var req SubmitResponseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := a.ledger.SubmitOracleResponse(
		req.From,
		req.Index,
		req.Key,
		req.StatusCode,
	)
	if err != nil {
		a.writeLedgerError(w, "failed to submit oracle response", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
