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

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Amounts are denominated in gwei
const Ether uint64 = 1_000_000_000

const (
	// BootstrapAirlineCount is the number of airlines admitted without a ballot
	BootstrapAirlineCount = 4
	// MinimumFunding is the smallest amount an airline can fund itself with
	MinimumFunding = 10 * Ether
	// OracleRegistrationFee is the smallest fee accepted from an oracle node
	OracleRegistrationFee uint64 = 1
	// MinResponses is the number of agreeing oracle responses that resolves a request
	MinResponses = 3
	// OracleIndexSpace is the number of distinct oracle indices
	OracleIndexSpace = 10
	// OracleIndexCount is the number of indices assigned to each oracle node
	OracleIndexCount = 3
	// MaxPolicyPrice is the most a holder can pay for a single policy
	MaxPolicyPrice = 1 * Ether
	// PayoutPremium is added to the price of a policy to get its payout
	PayoutPremium uint64 = 1
)

const addressLength = 20

// Address identifies a participant on the ledger. It is the 0x-prefixed hex
// encoding of 20 bytes
type Address string

// NewAddress derives a deterministic address from a seed string
func NewAddress(seed string) Address {
	sum := blake2b.Sum256([]byte(seed))
	return Address("0x" + hex.EncodeToString(sum[:addressLength]))
}

// ParseAddress validates and normalizes an address
func ParseAddress(s string) (Address, error) {
	raw, ok := strings.CutPrefix(strings.ToLower(s), "0x")
	if !ok {
		return "", fmt.Errorf("%w: missing 0x prefix", ErrInvalidAddress)
	}
	if len(raw) != addressLength*2 {
		return "", fmt.Errorf("%w: wrong length", ErrInvalidAddress)
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return Address("0x" + raw), nil
}

func (a Address) String() string {
	return string(a)
}

// UnmarshalText accepts any address ParseAddress accepts and stores its
// normalized form
func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// validate rejects addresses that are not in normalized form, so the same
// participant can never appear under two spellings
func (a Address) validate() error {
	addr, err := ParseAddress(string(a))
	if err != nil {
		return err
	}
	if addr != a {
		return fmt.Errorf("%w: %s is not lowercase", ErrInvalidAddress, a)
	}
	return nil
}

// StatusCode is the reported status of a flight
type StatusCode uint8

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

// Valid reports whether the code is one of the known status codes
func (s StatusCode) Valid() bool {
	switch s {
	case StatusUnknown,
		StatusOnTime,
		StatusLateAirline,
		StatusLateWeather,
		StatusLateTechnical,
		StatusLateOther:
		return true
	}
	return false
}

// Resolved reports whether the code is a final flight status
func (s StatusCode) Resolved() bool {
	return s != StatusUnknown && s.Valid()
}

func (s StatusCode) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusOnTime:
		return "on_time"
	case StatusLateAirline:
		return "late_airline"
	case StatusLateWeather:
		return "late_weather"
	case StatusLateTechnical:
		return "late_technical"
	case StatusLateOther:
		return "late_other"
	}
	return "status_" + strconv.Itoa(int(s))
}

// ParseStatusCode accepts a status name as returned by String or a numeric
// code
func ParseStatusCode(s string) (StatusCode, error) {
	for _, code := range []StatusCode{
		StatusUnknown,
		StatusOnTime,
		StatusLateAirline,
		StatusLateWeather,
		StatusLateTechnical,
		StatusLateOther,
	} {
		if s == code.String() {
			return code, nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || !StatusCode(n).Valid() {
		return StatusUnknown, fmt.Errorf("%w: %q", ErrInvalidStatusCode, s)
	}
	return StatusCode(n), nil
}

// FlightKey identifies a single scheduled departure
type FlightKey struct {
	Airline   Address `json:"airline"`
	Flight    string  `json:"flight"`
	Timestamp int64   `json:"timestamp"`
}

func (k FlightKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Airline, k.Flight, k.Timestamp)
}

func (k FlightKey) validate() error {
	if k.Airline == "" || k.Flight == "" {
		return ErrInvalidFlightKey
	}
	return k.Airline.validate()
}

// Airline is the public view of an airline
type Airline struct {
	Address      Address `json:"address"`
	Name         string  `json:"name"`
	FundedAmount uint64  `json:"fundedAmount"`
	IsRegistered bool    `json:"isRegistered"`
	IsFunded     bool    `json:"isFunded"`
}

// Flight is the public view of a flight
type Flight struct {
	Key          FlightKey  `json:"key"`
	Status       StatusCode `json:"status"`
	IsRegistered bool       `json:"isRegistered"`
}

// Policy is the public view of an insurance policy
type Policy struct {
	Holder       Address   `json:"holder"`
	Key          FlightKey `json:"flight"`
	PricePaid    uint64    `json:"pricePaid"`
	PayoutAmount uint64    `json:"payoutAmount"`
	IsPaid       bool      `json:"isPaid"`
	Expired      bool      `json:"expired"`
}

// RegistrationResult describes the outcome of an airline registration call
type RegistrationResult struct {
	Candidate     Address `json:"candidate"`
	Votes         uint64  `json:"votes"`
	VotesRequired uint64  `json:"votesRequired"`
	Registered    bool    `json:"registered"`
	DuplicateVote bool    `json:"duplicateVote"`
}

// SubmitResult describes the outcome of an oracle response submission
type SubmitResult struct {
	Votes      uint64     `json:"votes"`
	StatusCode StatusCode `json:"statusCode"`
	Accepted   bool       `json:"accepted"`
	Duplicate  bool       `json:"duplicate"`
	Resolved   bool       `json:"resolved"`
	// Committed is set when this submission changed the flight status
	Committed bool `json:"committed"`
}

// payout is the amount credited for a policy bought at price
func payout(price uint64) uint64 {
	return price + PayoutPremium
}

func ballotThreshold(registered int64) uint64 {
	return uint64((registered + 1) / 2) //nolint:gosec // count is never negative
}

// MaxAmount is the largest amount the state store can hold, since sqlite
// integers are signed 64-bit
const MaxAmount uint64 = math.MaxInt64

func checkedAdd(a, b uint64) (uint64, error) {
	if a > MaxAmount || b > MaxAmount-a {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}
