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

// Ledger is the set of ledger operations exposed over HTTP. It is satisfied
// by *ledger.LedgerState
type Ledger interface {
	IsOperational() (bool, error)
	SetOperatingStatus(sender ledger.Address, operational bool) error

	Airlines() ([]ledger.Airline, error)
	GetAirline(address ledger.Address) (ledger.Airline, error)
	BallotVotes(candidate ledger.Address) ([]ledger.Address, error)
	RegisterAirline(
		sponsor ledger.Address,
		candidate ledger.Address,
		name string,
	) (ledger.RegistrationResult, error)
	FundAirline(airline ledger.Address, amount uint64) error

	RegisterFlight(sender ledger.Address, key ledger.FlightKey) error
	GetFlight(key ledger.FlightKey) (ledger.Flight, error)
	RequestFlightStatus(
		sender ledger.Address,
		key ledger.FlightKey,
	) (ledger.OracleRequestEvent, error)

	BuyPolicy(
		holder ledger.Address,
		key ledger.FlightKey,
		price uint64,
	) (ledger.Policy, error)
	GetPolicies(holder ledger.Address) ([]ledger.Policy, error)
	InsuredBalance(holder ledger.Address) (uint64, error)
	Withdraw(holder ledger.Address) (uint64, error)

	RegisterOracle(
		sender ledger.Address,
		fee uint64,
	) ([ledger.OracleIndexCount]uint8, error)
	GetOracleIndexes(
		address ledger.Address,
	) ([ledger.OracleIndexCount]uint8, error)
	SubmitOracleResponse(
		sender ledger.Address,
		index uint8,
		key ledger.FlightKey,
		code ledger.StatusCode,
	) (ledger.SubmitResult, error)
}

// Readiness reports whether a dependent service is ready to serve
type Readiness interface {
	Ready() bool
}
