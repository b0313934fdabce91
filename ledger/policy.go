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

type buyPolicyPayload struct {
	Airline   string
	Flight    string
	Timestamp int64
	Price     uint64
}

// BuyPolicy insures holder against an airline-caused delay of a registered
// flight. The payout is the price plus PayoutPremium
func (ls *LedgerState) BuyPolicy(
	holder Address,
	key FlightKey,
	price uint64,
) (Policy, error) {
	var ret Policy
	if err := holder.validate(); err != nil {
		return ret, err
	}
	if err := key.validate(); err != nil {
		return ret, err
	}
	payload := buyPolicyPayload{
		Airline:   string(key.Airline),
		Flight:    key.Flight,
		Timestamp: key.Timestamp,
		Price:     price,
	}
	err := ls.apply(
		"buy_policy",
		holder,
		payload,
		true,
		func(tx *ledgerTxn) error {
			if price == 0 || price > MaxPolicyPrice {
				return fmt.Errorf(
					"%w: %d not in (0, %d]",
					ErrInvalidPrice,
					price,
					MaxPolicyPrice,
				)
			}
			if _, err := tx.requireFlight(key); err != nil {
				return err
			}
			existing, err := tx.metadata().GetPolicy(
				string(holder),
				string(key.Airline),
				key.Flight,
				key.Timestamp,
				tx.handle(),
			)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf(
					"holder %s flight %s: %w",
					holder,
					key,
					ErrPolicyExists,
				)
			}
			if err := tx.addTreasury(price); err != nil {
				return err
			}
			policy := &models.Policy{
				Holder:       string(holder),
				Airline:      string(key.Airline),
				Designator:   key.Flight,
				Timestamp:    key.Timestamp,
				PricePaid:    price,
				PayoutAmount: payout(price),
				AddedSeq:     tx.seq,
			}
			if err := tx.metadata().CreatePolicy(policy, tx.handle()); err != nil {
				return err
			}
			ret = policyFromModel(policy)
			tx.publish(PolicyPurchasedEventType, PolicyPurchasedEvent{
				Holder: holder,
				Key:    key,
				Price:  price,
				Payout: policy.PayoutAmount,
				Seq:    tx.seq,
			})
			return nil
		},
	)
	if err != nil {
		return Policy{}, err
	}
	ls.logger.Debug(
		"policy purchased",
		"component", "ledger",
		"holder", holder,
		"flight", key.String(),
		"price", price,
	)
	return ret, nil
}

// creditInsurees settles the open policies of a flight whose status was just
// committed. A late-airline status credits each payout to its holder exactly
// once, any other final status expires the policies
func (tx *ledgerTxn) creditInsurees(key FlightKey, code StatusCode) error {
	policies, err := tx.metadata().GetOpenPoliciesByFlight(
		string(key.Airline),
		key.Flight,
		key.Timestamp,
		tx.handle(),
	)
	if err != nil {
		return err
	}
	for _, policy := range policies {
		if code != StatusLateAirline {
			if err := tx.metadata().ExpirePolicy(policy.ID, tx.handle()); err != nil {
				return err
			}
			continue
		}
		paid, err := tx.metadata().MarkPolicyPaid(policy.ID, tx.handle())
		if err != nil {
			return err
		}
		if !paid {
			continue
		}
		balance, err := tx.metadata().GetInsuredBalance(policy.Holder, tx.handle())
		if err != nil {
			return err
		}
		if _, err := checkedAdd(balance, policy.PayoutAmount); err != nil {
			return fmt.Errorf("balance of %s: %w", policy.Holder, err)
		}
		if err := tx.metadata().AddInsuredBalance(
			policy.Holder,
			policy.PayoutAmount,
			tx.handle(),
		); err != nil {
			return err
		}
		amount := policy.PayoutAmount
		tx.publish(PolicyPayoutEventType, PolicyPayoutEvent{
			Holder: Address(policy.Holder),
			Key:    key,
			Amount: amount,
			Seq:    tx.seq,
		})
		tx.onCommit(func() {
			tx.ls.metrics.payoutsTotal.Inc()
			tx.ls.metrics.payoutAmountTotal.Add(float64(amount))
		})
	}
	return nil
}

// Withdraw pays out the insured balance of holder. The balance is cleared
// and the treasury debited in the same call
func (ls *LedgerState) Withdraw(holder Address) (uint64, error) {
	var amount uint64
	err := ls.apply(
		"withdraw",
		holder,
		struct{}{},
		true,
		func(tx *ledgerTxn) error {
			balance, err := tx.metadata().GetInsuredBalance(string(holder), tx.handle())
			if err != nil {
				return err
			}
			if balance == 0 {
				return fmt.Errorf("holder %s: %w", holder, ErrNothingToWithdraw)
			}
			if tx.state.Treasury < balance {
				return fmt.Errorf(
					"%w: %d < %d",
					ErrInsufficientTreasury,
					tx.state.Treasury,
					balance,
				)
			}
			if err := tx.metadata().ClearInsuredBalance(string(holder), tx.handle()); err != nil {
				return err
			}
			tx.state.Treasury -= balance
			amount = balance
			tx.publish(WithdrawalEventType, WithdrawalEvent{
				Holder: holder,
				Amount: balance,
				Seq:    tx.seq,
			})
			return nil
		},
	)
	if err != nil {
		return 0, err
	}
	ls.metrics.withdrawalsTotal.Inc()
	ls.logger.Info(
		"insured balance withdrawn",
		"component", "ledger",
		"holder", holder,
		"amount", amount,
	)
	return amount, nil
}

func policyFromModel(m *models.Policy) Policy {
	return Policy{
		Holder: Address(m.Holder),
		Key: FlightKey{
			Airline:   Address(m.Airline),
			Flight:    m.Designator,
			Timestamp: m.Timestamp,
		},
		PricePaid:    m.PricePaid,
		PayoutAmount: m.PayoutAmount,
		IsPaid:       m.IsPaid,
		Expired:      m.Expired,
	}
}

// GetPolicy returns the policy holder bought for a flight
func (ls *LedgerState) GetPolicy(holder Address, key FlightKey) (Policy, error) {
	m, err := ls.db.Metadata().GetPolicy(
		string(holder),
		string(key.Airline),
		key.Flight,
		key.Timestamp,
		nil,
	)
	if err != nil {
		return Policy{}, err
	}
	if m == nil {
		return Policy{}, ErrPolicyNotFound
	}
	return policyFromModel(m), nil
}

// GetPolicyCount returns the number of policies bought by holder
func (ls *LedgerState) GetPolicyCount(holder Address) (uint64, error) {
	count, err := ls.db.Metadata().CountPoliciesByHolder(string(holder), nil)
	if err != nil {
		return 0, err
	}
	return uint64(count), nil //nolint:gosec // count is never negative
}

// GetPolicies returns the policies of holder in purchase order
func (ls *LedgerState) GetPolicies(holder Address) ([]Policy, error) {
	rows, err := ls.db.Metadata().GetPoliciesByHolder(string(holder), nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Policy, 0, len(rows))
	for i := range rows {
		ret = append(ret, policyFromModel(&rows[i]))
	}
	return ret, nil
}

// GetPolicyByIndex returns the policy at position index in the purchase
// order of holder
func (ls *LedgerState) GetPolicyByIndex(holder Address, index int) (Policy, error) {
	policies, err := ls.GetPolicies(holder)
	if err != nil {
		return Policy{}, err
	}
	if index < 0 || index >= len(policies) {
		return Policy{}, ErrPolicyNotFound
	}
	return policies[index], nil
}

// InsuredBalance returns the withdrawable credit of holder
func (ls *LedgerState) InsuredBalance(holder Address) (uint64, error) {
	return ls.db.Metadata().GetInsuredBalance(string(holder), nil)
}
