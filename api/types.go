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

import "github.com/blinklabs-io/flightsurety/ledger"

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy   bool `json:"is_healthy"`
	OracleReady bool `json:"oracle_ready"`
	Operational bool `json:"operational"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type OperationalRequest struct {
	From        ledger.Address `json:"from"`
	Operational bool           `json:"operational"`
}

type OperationalResponse struct {
	Operational bool `json:"operational"`
}

type RegisterAirlineRequest struct {
	From    ledger.Address `json:"from"`
	Airline ledger.Address `json:"airline"`
	Name    string         `json:"name"`
}

type FundAirlineRequest struct {
	Amount uint64 `json:"amount"`
}

// AirlineResponse is an airline with its pending ballot
type AirlineResponse struct {
	ledger.Airline
	Votes []ledger.Address `json:"votes"`
}

type RegisterFlightRequest struct {
	From ledger.Address `json:"from"`
	ledger.FlightKey
}

type FlightStatusRequest struct {
	From ledger.Address `json:"from"`
}

type FlightResponse struct {
	ledger.Flight
	StatusName string `json:"statusName"`
}

type OracleRequestResponse struct {
	Key   ledger.FlightKey `json:"key"`
	Seq   uint64           `json:"seq"`
	Index uint8            `json:"index"`
}

type BuyPolicyRequest struct {
	From  ledger.Address   `json:"from"`
	Key   ledger.FlightKey `json:"flight"`
	Price uint64           `json:"price"`
}

type PoliciesResponse struct {
	Holder   ledger.Address  `json:"holder"`
	Policies []ledger.Policy `json:"policies"`
	Count    int             `json:"count"`
}

type BalanceResponse struct {
	Holder  ledger.Address `json:"holder"`
	Balance uint64         `json:"balance"`
}

type WithdrawResponse struct {
	Holder ledger.Address `json:"holder"`
	Amount uint64         `json:"amount"`
}

type RegisterOracleRequest struct {
	From ledger.Address `json:"from"`
	Fee  uint64         `json:"fee"`
}

type OracleResponse struct {
	Address ledger.Address `json:"address"`
	Indexes []int          `json:"indexes"`
}

type SubmitResponseRequest struct {
	From       ledger.Address    `json:"from"`
	Key        ledger.FlightKey  `json:"flight"`
	Index      uint8             `json:"index"`
	StatusCode ledger.StatusCode `json:"statusCode"`
}
