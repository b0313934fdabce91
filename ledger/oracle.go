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

type registerOraclePayload struct {
	Fee uint64
}

// RegisterOracle registers the calling node and assigns it three distinct
// indices derived from the ledger tip, the node count and its address
func (ls *LedgerState) RegisterOracle(
	sender Address,
	fee uint64,
) ([OracleIndexCount]uint8, error) {
	var indexes [OracleIndexCount]uint8
	if err := sender.validate(); err != nil {
		return indexes, err
	}
	err := ls.apply(
		"register_oracle",
		sender,
		registerOraclePayload{Fee: fee},
		true,
		func(tx *ledgerTxn) error {
			if fee < OracleRegistrationFee {
				return fmt.Errorf(
					"%w: %d < %d",
					ErrInsufficientFee,
					fee,
					OracleRegistrationFee,
				)
			}
			existing, err := tx.metadata().GetOracleNode(string(sender), tx.handle())
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("oracle %s: %w", sender, ErrOracleAlreadyRegistered)
			}
			count, err := tx.metadata().CountOracleNodes(tx.handle())
			if err != nil {
				return err
			}
			indexes = oracleIndexes(
				tx.state.TipHash,
				uint64(count), //nolint:gosec // count is never negative
				sender,
			)
			if err := tx.addTreasury(fee); err != nil {
				return err
			}
			node := &models.OracleNode{
				Address:  string(sender),
				Fee:      fee,
				AddedSeq: tx.seq,
				Index0:   indexes[0],
				Index1:   indexes[1],
				Index2:   indexes[2],
			}
			if err := tx.metadata().CreateOracleNode(node, tx.handle()); err != nil {
				return err
			}
			tx.publish(OracleRegisteredEventType, OracleRegisteredEvent{
				Oracle:  sender,
				Seq:     tx.seq,
				Indexes: indexes,
			})
			return nil
		},
	)
	if err != nil {
		return [OracleIndexCount]uint8{}, err
	}
	ls.metrics.oracleNodes.Inc()
	ls.logger.Debug(
		"oracle registered",
		"component", "ledger",
		"oracle", sender,
		"indexes", indexes,
	)
	return indexes, nil
}

// GetOracleIndexes returns the indices assigned to a registered node
func (ls *LedgerState) GetOracleIndexes(
	address Address,
) ([OracleIndexCount]uint8, error) {
	node, err := ls.db.Metadata().GetOracleNode(string(address), nil)
	if err != nil {
		return [OracleIndexCount]uint8{}, err
	}
	if node == nil {
		return [OracleIndexCount]uint8{}, fmt.Errorf(
			"oracle %s: %w",
			address,
			ErrOracleNotRegistered,
		)
	}
	return node.Indexes(), nil
}

// OracleCount returns the number of registered oracle nodes
func (ls *LedgerState) OracleCount() (uint64, error) {
	count, err := ls.db.Metadata().CountOracleNodes(nil)
	if err != nil {
		return 0, err
	}
	return uint64(count), nil //nolint:gosec // count is never negative
}

// OpenRequests returns the status requests that have not reached the
// response threshold
func (ls *LedgerState) OpenRequests() ([]OracleRequestEvent, error) {
	rows, err := ls.db.Metadata().GetOpenOracleRequests(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]OracleRequestEvent, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, OracleRequestEvent{
			Key: FlightKey{
				Airline:   Address(row.Airline),
				Flight:    row.Designator,
				Timestamp: row.Timestamp,
			},
			Requester: Address(row.Requester),
			Seq:       row.AddedSeq,
			Index:     row.OracleIndex,
		})
	}
	return ret, nil
}

type submitResponsePayload struct {
	Airline    string
	Flight     string
	Timestamp  int64
	Index      uint8
	StatusCode uint8
}

// SubmitOracleResponse records the status reported by an oracle node for the
// request identified by index and key. A node is counted once per request,
// and the first status code reported by MinResponses distinct nodes resolves
// the request and is committed to the flight. Submissions to a resolved
// request are accepted without effect
func (ls *LedgerState) SubmitOracleResponse(
	sender Address,
	index uint8,
	key FlightKey,
	code StatusCode,
) (SubmitResult, error) {
	var result SubmitResult
	resolvedNow := false
	if !code.Valid() {
		return result, fmt.Errorf("%w: %d", ErrInvalidStatusCode, code)
	}
	if err := key.validate(); err != nil {
		return result, err
	}
	payload := submitResponsePayload{
		Airline:    string(key.Airline),
		Flight:     key.Flight,
		Timestamp:  key.Timestamp,
		Index:      index,
		StatusCode: uint8(code),
	}
	err := ls.apply(
		"submit_oracle_response",
		sender,
		payload,
		true,
		func(tx *ledgerTxn) error {
			node, err := tx.metadata().GetOracleNode(string(sender), tx.handle())
			if err != nil {
				return err
			}
			if node == nil {
				return fmt.Errorf("oracle %s: %w", sender, ErrOracleNotRegistered)
			}
			if !node.HasIndex(index) {
				return fmt.Errorf(
					"oracle %s index %d: %w",
					sender,
					index,
					ErrIndexMismatch,
				)
			}
			req, err := tx.metadata().GetOracleRequest(
				index,
				string(key.Airline),
				key.Flight,
				key.Timestamp,
				tx.handle(),
			)
			if err != nil {
				return err
			}
			if req == nil {
				return fmt.Errorf(
					"flight %s index %d: %w",
					key,
					index,
					ErrRequestNotFound,
				)
			}
			result.Accepted = true
			if !req.IsOpen {
				result.Resolved = true
				result.StatusCode = StatusCode(req.ResolvedStatus)
				return nil
			}
			added, err := tx.metadata().AddOracleResponse(
				&models.OracleResponse{
					RequestID:  req.ID,
					Responder:  string(sender),
					StatusCode: uint8(code),
					AddedSeq:   tx.seq,
				},
				tx.handle(),
			)
			if err != nil {
				return err
			}
			if !added {
				result.Duplicate = true
				return nil
			}
			votes, err := tx.metadata().CountOracleResponses(req.ID, uint8(code), tx.handle())
			if err != nil {
				return err
			}
			result.StatusCode = code
			result.Votes = uint64(votes) //nolint:gosec // count is never negative
			tx.publish(OracleReportEventType, OracleReportEvent{
				Key:        key,
				Responder:  sender,
				Seq:        tx.seq,
				Votes:      result.Votes,
				Index:      index,
				StatusCode: code,
			})
			if result.Votes < MinResponses {
				return nil
			}
			if err := tx.metadata().ResolveOracleRequest(req.ID, uint8(code), tx.seq, tx.handle()); err != nil {
				return err
			}
			result.Resolved = true
			resolvedNow = true
			committed, err := tx.commitStatus(key, code)
			if err != nil {
				return err
			}
			result.Committed = committed
			tx.publish(FlightStatusInfoEventType, FlightStatusInfoEvent{
				Key:        key,
				Seq:        tx.seq,
				Index:      index,
				StatusCode: code,
				Committed:  committed,
			})
			tx.onCommit(func() {
				ls.metrics.requestsResolved.Inc()
			})
			return nil
		},
	)
	if err != nil {
		return SubmitResult{}, err
	}
	if resolvedNow {
		ls.logger.Info(
			"oracle request resolved",
			"component", "ledger",
			"flight", key.String(),
			"index", index,
			"status", code.String(),
			"committed", result.Committed,
		)
	}
	return result, nil
}
