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
	"github.com/blinklabs-io/flightsurety/event"
)

const (
	AirlineRegisteredEventType event.EventType = "ledger.airline_registered"
	AirlineVoteEventType       event.EventType = "ledger.airline_vote"
	AirlineFundedEventType     event.EventType = "ledger.airline_funded"
	FlightRegisteredEventType  event.EventType = "ledger.flight_registered"
	FlightStatusInfoEventType  event.EventType = "ledger.flight_status_info"
	OperatingStatusEventType   event.EventType = "ledger.operating_status"
	OracleRegisteredEventType  event.EventType = "ledger.oracle_registered"
	OracleReportEventType      event.EventType = "ledger.oracle_report"
	OracleRequestEventType     event.EventType = "ledger.oracle_request"
	PolicyPayoutEventType      event.EventType = "ledger.policy_payout"
	PolicyPurchasedEventType   event.EventType = "ledger.policy_purchased"
	WithdrawalEventType        event.EventType = "ledger.withdrawal"
)

// AirlineRegisteredEvent is emitted when an airline is admitted
type AirlineRegisteredEvent struct {
	Airline Address
	Sponsor Address
	Name    string
	Seq     uint64
	Votes   uint64
}

// AirlineVoteEvent is emitted when a vote is recorded without admitting the candidate
type AirlineVoteEvent struct {
	Candidate     Address
	Voter         Address
	Seq           uint64
	Votes         uint64
	VotesRequired uint64
}

type AirlineFundedEvent struct {
	Airline Address
	Amount  uint64
	Seq     uint64
}

type FlightRegisteredEvent struct {
	Key FlightKey
	Seq uint64
}

// OracleRequestEvent asks the oracle nodes holding Index to report the
// status of the flight
type OracleRequestEvent struct {
	Key       FlightKey
	Requester Address
	Seq       uint64
	Index     uint8
}

// OracleReportEvent is emitted for every accepted oracle response
type OracleReportEvent struct {
	Key        FlightKey
	Responder  Address
	Seq        uint64
	Votes      uint64
	Index      uint8
	StatusCode StatusCode
}

// FlightStatusInfoEvent is emitted when a request reaches the response
// threshold. Committed is false if the flight already had a final status
type FlightStatusInfoEvent struct {
	Key        FlightKey
	Seq        uint64
	Index      uint8
	StatusCode StatusCode
	Committed  bool
}

type OracleRegisteredEvent struct {
	Oracle  Address
	Seq     uint64
	Indexes [OracleIndexCount]uint8
}

type PolicyPurchasedEvent struct {
	Holder Address
	Key    FlightKey
	Price  uint64
	Payout uint64
	Seq    uint64
}

type PolicyPayoutEvent struct {
	Holder Address
	Key    FlightKey
	Amount uint64
	Seq    uint64
}

type WithdrawalEvent struct {
	Holder Address
	Amount uint64
	Seq    uint64
}

type OperatingStatusEvent struct {
	Sender      Address
	Seq         uint64
	Operational bool
}
