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

package ledger

import "errors"

var (
	ErrNotOperational           = errors.New("ledger is not operational")
	ErrUnauthorized             = errors.New("caller is not authorized")
	ErrInvalidAddress           = errors.New("invalid address")
	ErrInvalidGenesis           = errors.New("invalid genesis config")
	ErrAirlineNotRegistered     = errors.New("airline is not registered")
	ErrAirlineNotFunded         = errors.New("airline is not funded")
	ErrAirlineAlreadyRegistered = errors.New("airline is already registered")
	ErrInsufficientFunding      = errors.New("funding below minimum")
	ErrInvalidFlightKey         = errors.New("invalid flight key")
	ErrFlightNotRegistered      = errors.New("flight is not registered")
	ErrFlightAlreadyRegistered  = errors.New("flight is already registered")
	ErrPolicyExists             = errors.New("policy already exists")
	ErrPolicyNotFound           = errors.New("policy not found")
	ErrInvalidPrice             = errors.New("invalid policy price")
	ErrOracleNotRegistered      = errors.New("oracle is not registered")
	ErrOracleAlreadyRegistered  = errors.New("oracle is already registered")
	ErrInsufficientFee          = errors.New("registration fee below minimum")
	ErrIndexMismatch            = errors.New("index does not match oracle request")
	ErrRequestNotFound          = errors.New("oracle request not found")
	ErrInvalidStatusCode        = errors.New("invalid status code")
	ErrNoFreeOracleIndex        = errors.New("no free oracle index for flight")
	ErrNothingToWithdraw        = errors.New("nothing to withdraw")
	ErrInsufficientTreasury     = errors.New("insufficient treasury funds")
	ErrAmountOverflow           = errors.New("amount overflow")
)
