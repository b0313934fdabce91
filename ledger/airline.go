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

type registerAirlinePayload struct {
	Candidate string
	Name      string
}

// RegisterAirline registers candidate on behalf of sponsor. While fewer than
// BootstrapAirlineCount airlines are registered the candidate is admitted
// immediately. After that each call records the sponsor's vote, and the
// candidate is admitted once the distinct votes reach half the registered
// airlines, rounded up. A repeated vote from the same sponsor changes nothing
func (ls *LedgerState) RegisterAirline(
	sponsor Address,
	candidate Address,
	name string,
) (RegistrationResult, error) {
	result := RegistrationResult{Candidate: candidate}
	if err := candidate.validate(); err != nil {
		return result, err
	}
	payload := registerAirlinePayload{
		Candidate: string(candidate),
		Name:      name,
	}
	err := ls.apply(
		"register_airline",
		sponsor,
		payload,
		true,
		func(tx *ledgerTxn) error {
			sponsorAirline, err := tx.metadata().GetAirline(string(sponsor), tx.handle())
			if err != nil {
				return err
			}
			if sponsorAirline == nil || !sponsorAirline.IsRegistered {
				return fmt.Errorf("sponsor %s: %w", sponsor, ErrAirlineNotRegistered)
			}
			if !sponsorAirline.IsFunded {
				return fmt.Errorf("sponsor %s: %w", sponsor, ErrAirlineNotFunded)
			}
			existing, err := tx.metadata().GetAirline(string(candidate), tx.handle())
			if err != nil {
				return err
			}
			if existing != nil && existing.IsRegistered {
				return fmt.Errorf("candidate %s: %w", candidate, ErrAirlineAlreadyRegistered)
			}
			registered, err := tx.metadata().CountRegisteredAirlines(tx.handle())
			if err != nil {
				return err
			}
			if registered < BootstrapAirlineCount {
				if err := tx.admitAirline(candidate, name); err != nil {
					return err
				}
				result.Registered = true
				tx.publish(AirlineRegisteredEventType, AirlineRegisteredEvent{
					Airline: candidate,
					Sponsor: sponsor,
					Name:    name,
					Seq:     tx.seq,
				})
				return nil
			}
			result.VotesRequired = ballotThreshold(registered)
			added, err := tx.metadata().AddAirlineVote(
				string(candidate),
				string(sponsor),
				tx.seq,
				tx.handle(),
			)
			if err != nil {
				return err
			}
			votes, err := tx.metadata().CountAirlineVotes(string(candidate), tx.handle())
			if err != nil {
				return err
			}
			result.Votes = uint64(votes) //nolint:gosec // count is never negative
			if !added {
				result.DuplicateVote = true
				return nil
			}
			if result.Votes < result.VotesRequired {
				tx.publish(AirlineVoteEventType, AirlineVoteEvent{
					Candidate:     candidate,
					Voter:         sponsor,
					Seq:           tx.seq,
					Votes:         result.Votes,
					VotesRequired: result.VotesRequired,
				})
				return nil
			}
			if err := tx.admitAirline(candidate, name); err != nil {
				return err
			}
			if err := tx.metadata().DeleteAirlineVotes(string(candidate), tx.handle()); err != nil {
				return err
			}
			result.Registered = true
			tx.publish(AirlineRegisteredEventType, AirlineRegisteredEvent{
				Airline: candidate,
				Sponsor: sponsor,
				Name:    name,
				Seq:     tx.seq,
				Votes:   result.Votes,
			})
			return nil
		},
	)
	if err != nil {
		return RegistrationResult{Candidate: candidate}, err
	}
	if result.Registered {
		ls.metrics.airlines.Inc()
		ls.logger.Info(
			"airline registered",
			"component", "ledger",
			"airline", candidate,
			"sponsor", sponsor,
			"votes", result.Votes,
		)
	}
	return result, nil
}

func (tx *ledgerTxn) admitAirline(address Address, name string) error {
	return tx.metadata().CreateAirline(
		&models.Airline{
			Address:      string(address),
			Name:         name,
			IsRegistered: true,
			AddedSeq:     tx.seq,
		},
		tx.handle(),
	)
}

type fundAirlinePayload struct {
	Amount uint64
}

// FundAirline adds amount to the funds of the calling airline. Funds stay
// with the ledger
func (ls *LedgerState) FundAirline(airline Address, amount uint64) error {
	err := ls.apply(
		"fund_airline",
		airline,
		fundAirlinePayload{Amount: amount},
		true,
		func(tx *ledgerTxn) error {
			if amount < MinimumFunding {
				return fmt.Errorf(
					"%w: %d < %d",
					ErrInsufficientFunding,
					amount,
					MinimumFunding,
				)
			}
			existing, err := tx.metadata().GetAirline(string(airline), tx.handle())
			if err != nil {
				return err
			}
			if existing == nil || !existing.IsRegistered {
				return fmt.Errorf("airline %s: %w", airline, ErrAirlineNotRegistered)
			}
			if _, err := checkedAdd(existing.FundedAmount, amount); err != nil {
				return err
			}
			if err := tx.addTreasury(amount); err != nil {
				return err
			}
			if err := tx.metadata().AddAirlineFunding(string(airline), amount, tx.handle()); err != nil {
				return err
			}
			tx.publish(AirlineFundedEventType, AirlineFundedEvent{
				Airline: airline,
				Amount:  amount,
				Seq:     tx.seq,
			})
			return nil
		},
	)
	if err != nil {
		return err
	}
	ls.logger.Info(
		"airline funded",
		"component", "ledger",
		"airline", airline,
		"amount", amount,
	)
	return nil
}

func airlineFromModel(m *models.Airline) Airline {
	return Airline{
		Address:      Address(m.Address),
		Name:         m.Name,
		FundedAmount: m.FundedAmount,
		IsRegistered: m.IsRegistered,
		IsFunded:     m.IsFunded,
	}
}

// GetAirline returns an airline, or ErrAirlineNotRegistered if it is unknown
func (ls *LedgerState) GetAirline(address Address) (Airline, error) {
	m, err := ls.db.Metadata().GetAirline(string(address), nil)
	if err != nil {
		return Airline{}, err
	}
	if m == nil {
		return Airline{}, ErrAirlineNotRegistered
	}
	return airlineFromModel(m), nil
}

// IsAirline reports whether address is a registered airline
func (ls *LedgerState) IsAirline(address Address) (bool, error) {
	m, err := ls.db.Metadata().GetAirline(string(address), nil)
	if err != nil {
		return false, err
	}
	return m != nil && m.IsRegistered, nil
}

// AirlineCount returns the number of registered airlines
func (ls *LedgerState) AirlineCount() (uint64, error) {
	count, err := ls.db.Metadata().CountRegisteredAirlines(nil)
	if err != nil {
		return 0, err
	}
	return uint64(count), nil //nolint:gosec // count is never negative
}

// Airlines returns all registered airlines in registration order
func (ls *LedgerState) Airlines() ([]Airline, error) {
	rows, err := ls.db.Metadata().GetAirlines(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Airline, 0, len(rows))
	for i := range rows {
		ret = append(ret, airlineFromModel(&rows[i]))
	}
	return ret, nil
}

// BallotVotes returns the voters recorded for a pending candidate
func (ls *LedgerState) BallotVotes(candidate Address) ([]Address, error) {
	voters, err := ls.db.Metadata().GetAirlineVoters(string(candidate), nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Address, 0, len(voters))
	for _, v := range voters {
		ret = append(ret, Address(v))
	}
	return ret, nil
}
