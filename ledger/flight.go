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
	"fmt"

	"github.com/blinklabs-io/flightsurety/database/models"
)

type flightPayload struct {
	Airline   string
	Flight    string
	Timestamp int64
}

func newFlightPayload(key FlightKey) flightPayload {
	return flightPayload{
		Airline:   string(key.Airline),
		Flight:    key.Flight,
		Timestamp: key.Timestamp,
	}
}

// RegisterFlight registers a flight of a registered airline with an unknown
// status. Any participant may register it on the airline's behalf
func (ls *LedgerState) RegisterFlight(sender Address, key FlightKey) error {
	if err := key.validate(); err != nil {
		return err
	}
	err := ls.apply(
		"register_flight",
		sender,
		newFlightPayload(key),
		true,
		func(tx *ledgerTxn) error {
			airline, err := tx.metadata().GetAirline(string(key.Airline), tx.handle())
			if err != nil {
				return err
			}
			if airline == nil || !airline.IsRegistered {
				return fmt.Errorf("airline %s: %w", key.Airline, ErrAirlineNotRegistered)
			}
			existing, err := tx.getFlight(key)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("flight %s: %w", key, ErrFlightAlreadyRegistered)
			}
			flight := &models.Flight{
				Airline:      string(key.Airline),
				Designator:   key.Flight,
				Timestamp:    key.Timestamp,
				StatusCode:   uint8(StatusUnknown),
				IsRegistered: true,
				AddedSeq:     tx.seq,
			}
			if err := tx.metadata().CreateFlight(flight, tx.handle()); err != nil {
				return err
			}
			tx.publish(FlightRegisteredEventType, FlightRegisteredEvent{
				Key: key,
				Seq: tx.seq,
			})
			return nil
		},
	)
	if err != nil {
		return err
	}
	ls.logger.Debug(
		"flight registered",
		"component", "ledger",
		"flight", key.String(),
	)
	return nil
}

func (tx *ledgerTxn) getFlight(key FlightKey) (*models.Flight, error) {
	return tx.metadata().GetFlight(
		string(key.Airline),
		key.Flight,
		key.Timestamp,
		tx.handle(),
	)
}

// requireFlight returns the registered flight for key or ErrFlightNotRegistered
func (tx *ledgerTxn) requireFlight(key FlightKey) (*models.Flight, error) {
	flight, err := tx.getFlight(key)
	if err != nil {
		return nil, err
	}
	if flight == nil || !flight.IsRegistered {
		return nil, fmt.Errorf("flight %s: %w", key, ErrFlightNotRegistered)
	}
	return flight, nil
}

// RequestFlightStatus asks the oracle nodes for the status of a flight. The
// request carries an index that no other open request for this flight uses,
// so responses to outstanding requests never mix. A resolved request drawn
// again is reopened with its earlier responses cleared
func (ls *LedgerState) RequestFlightStatus(
	sender Address,
	key FlightKey,
) (OracleRequestEvent, error) {
	var ret OracleRequestEvent
	if err := key.validate(); err != nil {
		return ret, err
	}
	err := ls.apply(
		"request_flight_status",
		sender,
		newFlightPayload(key),
		true,
		func(tx *ledgerTxn) error {
			if _, err := tx.requireFlight(key); err != nil {
				return err
			}
			requests, err := tx.metadata().GetOracleRequestsByFlight(
				string(key.Airline),
				key.Flight,
				key.Timestamp,
				tx.handle(),
			)
			if err != nil {
				return err
			}
			var used [OracleIndexSpace]bool
			var resolved [OracleIndexSpace]*models.OracleRequest
			open := 0
			for i := range requests {
				req := &requests[i]
				if req.IsOpen {
					used[req.OracleIndex] = true
					open++
					continue
				}
				resolved[req.OracleIndex] = req
			}
			if open >= OracleIndexSpace {
				return fmt.Errorf("flight %s: %w", key, ErrNoFreeOracleIndex)
			}
			index, nonce := requestIndex(
				tx.state.TipHash,
				tx.state.RequestNonce,
				key,
				used,
			)
			tx.state.RequestNonce = nonce
			if prev := resolved[index]; prev != nil {
				if err := tx.metadata().ReopenOracleRequest(
					prev.ID,
					string(sender),
					tx.seq,
					tx.handle(),
				); err != nil {
					return err
				}
			} else {
				req := &models.OracleRequest{
					OracleIndex: index,
					Airline:     string(key.Airline),
					Designator:  key.Flight,
					Timestamp:   key.Timestamp,
					Requester:   string(sender),
					IsOpen:      true,
					AddedSeq:    tx.seq,
				}
				if err := tx.metadata().CreateOracleRequest(req, tx.handle()); err != nil {
					return err
				}
			}
			ret = OracleRequestEvent{
				Key:       key,
				Requester: sender,
				Seq:       tx.seq,
				Index:     index,
			}
			tx.publish(OracleRequestEventType, ret)
			return nil
		},
	)
	if err != nil {
		return OracleRequestEvent{}, err
	}
	ls.logger.Debug(
		"flight status requested",
		"component", "ledger",
		"flight", key.String(),
		"index", ret.Index,
	)
	return ret, nil
}

// commitStatus sets the final status of a flight and settles its policies.
// Only the first final status is kept, later commits report false
func (tx *ledgerTxn) commitStatus(key FlightKey, code StatusCode) (bool, error) {
	flight, err := tx.requireFlight(key)
	if err != nil {
		return false, err
	}
	if StatusCode(flight.StatusCode).Resolved() || !code.Resolved() {
		return false, nil
	}
	if err := tx.metadata().SetFlightStatus(flight.ID, uint8(code), tx.seq, tx.handle()); err != nil {
		return false, err
	}
	if err := tx.creditInsurees(key, code); err != nil {
		return false, err
	}
	return true, nil
}

func flightFromModel(m *models.Flight) Flight {
	return Flight{
		Key: FlightKey{
			Airline:   Address(m.Airline),
			Flight:    m.Designator,
			Timestamp: m.Timestamp,
		},
		Status:       StatusCode(m.StatusCode),
		IsRegistered: m.IsRegistered,
	}
}

// GetFlight returns a registered flight
func (ls *LedgerState) GetFlight(key FlightKey) (Flight, error) {
	m, err := ls.db.Metadata().GetFlight(
		string(key.Airline),
		key.Flight,
		key.Timestamp,
		nil,
	)
	if err != nil {
		return Flight{}, err
	}
	if m == nil || !m.IsRegistered {
		return Flight{}, fmt.Errorf("flight %s: %w", key, ErrFlightNotRegistered)
	}
	return flightFromModel(m), nil
}

// GetFlightStatus returns the status of a registered flight, StatusUnknown
// until oracles agree on one
func (ls *LedgerState) GetFlightStatus(key FlightKey) (StatusCode, error) {
	flight, err := ls.GetFlight(key)
	if err != nil {
		return StatusUnknown, err
	}
	return flight.Status, nil
}

// Flights returns the flights of an airline, or every flight when airline
// is empty
func (ls *LedgerState) Flights(airline Address) ([]Flight, error) {
	rows, err := ls.db.Metadata().GetFlights(string(airline), nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Flight, 0, len(rows))
	for i := range rows {
		ret = append(ret, flightFromModel(&rows[i]))
	}
	return ret, nil
}
