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

package ledger_test

import (
	"testing"

	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutIsPricePlusOne(t *testing.T) {
	ls := newTestLedger(t)
	key := registerTestFlight(t, ls, "UA123")
	for i, price := range []uint64{1, 2, 1000} {
		holder := ledger.NewAddress(string(rune('a' + i)))
		policy, err := ls.BuyPolicy(holder, key, price)
		require.NoError(t, err)
		assert.Equal(t, price+1, policy.PayoutAmount)
		assert.Equal(t, price, policy.PricePaid)
		assert.False(t, policy.IsPaid)

		stored, err := ls.GetPolicy(holder, key)
		require.NoError(t, err)
		assert.Equal(t, policy, stored)
	}
}

func TestDuplicatePurchaseFails(t *testing.T) {
	ls := newTestLedger(t)
	key := registerTestFlight(t, ls, "UA123")
	_, err := ls.BuyPolicy(testPassenger, key, 1)
	require.NoError(t, err)
	_, err = ls.BuyPolicy(testPassenger, key, 5)
	require.ErrorIs(t, err, ledger.ErrPolicyExists)

	count, err := ls.GetPolicyCount(testPassenger)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	policy, err := ls.GetPolicyByIndex(testPassenger, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), policy.PricePaid)
	_, err = ls.GetPolicyByIndex(testPassenger, 1)
	require.ErrorIs(t, err, ledger.ErrPolicyNotFound)
}

func TestBuyPolicyRejections(t *testing.T) {
	ls := newTestLedger(t)
	key := registerTestFlight(t, ls, "UA123")
	_, err := ls.BuyPolicy(testPassenger, key, 0)
	require.ErrorIs(t, err, ledger.ErrInvalidPrice)
	_, err = ls.BuyPolicy(testPassenger, key, ledger.MaxPolicyPrice+1)
	require.ErrorIs(t, err, ledger.ErrInvalidPrice)
	_, err = ls.BuyPolicy(testPassenger, testFlight("NOPE"), 1)
	require.ErrorIs(t, err, ledger.ErrFlightNotRegistered)
	_, err = ls.BuyPolicy(testPassenger, key, ledger.MaxPolicyPrice)
	require.NoError(t, err)
}

func TestPoliciesByHolder(t *testing.T) {
	ls := newTestLedger(t)
	first := registerTestFlight(t, ls, "UA1")
	second := registerTestFlight(t, ls, "UA2")
	_, err := ls.BuyPolicy(testPassenger, first, 10)
	require.NoError(t, err)
	_, err = ls.BuyPolicy(testPassenger, second, 20)
	require.NoError(t, err)
	policies, err := ls.GetPolicies(testPassenger)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, first, policies[0].Key)
	assert.Equal(t, second, policies[1].Key)
	none, err := ls.GetPolicies(ledger.NewAddress("nobody"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLateAirlineCreditsOnce(t *testing.T) {
	ls := newTestLedger(t)
	key := registerTestFlight(t, ls, "UA123")
	oracles := registerOracles(t, ls, 20)
	other := ledger.NewAddress("passenger-2")
	_, err := ls.BuyPolicy(testPassenger, key, 1)
	require.NoError(t, err)
	_, err = ls.BuyPolicy(other, key, 1000)
	require.NoError(t, err)

	driveConsensus(t, ls, key, oracles, ledger.StatusLateAirline)

	balance, err := ls.InsuredBalance(testPassenger)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), balance)
	balance, err = ls.InsuredBalance(other)
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), balance)
	policy, err := ls.GetPolicy(testPassenger, key)
	require.NoError(t, err)
	assert.True(t, policy.IsPaid)

	// A second resolution on the same flight credits nothing
	req, holders := requestWithHolders(t, ls, key, oracles, ledger.MinResponses)
	for _, o := range holders[:ledger.MinResponses] {
		_, err := ls.SubmitOracleResponse(o.address, req.Index, key, ledger.StatusLateAirline)
		require.NoError(t, err)
	}
	balance, err = ls.InsuredBalance(testPassenger)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), balance)
}

func TestNonAirlineStatusExpiresPolicies(t *testing.T) {
	for _, code := range []ledger.StatusCode{
		ledger.StatusOnTime,
		ledger.StatusLateWeather,
		ledger.StatusLateTechnical,
		ledger.StatusLateOther,
	} {
		t.Run(code.String(), func(t *testing.T) {
			ls := newTestLedger(t)
			key := registerTestFlight(t, ls, "UA123")
			oracles := registerOracles(t, ls, 20)
			_, err := ls.BuyPolicy(testPassenger, key, 1)
			require.NoError(t, err)

			driveConsensus(t, ls, key, oracles, code)

			balance, err := ls.InsuredBalance(testPassenger)
			require.NoError(t, err)
			assert.Zero(t, balance)
			policy, err := ls.GetPolicy(testPassenger, key)
			require.NoError(t, err)
			assert.False(t, policy.IsPaid)
			assert.True(t, policy.Expired)
		})
	}
}

func TestWithdraw(t *testing.T) {
	ls := newTestLedger(t)
	key := registerTestFlight(t, ls, "UA123")
	oracles := registerOracles(t, ls, 20)

	_, err := ls.Withdraw(testPassenger)
	require.ErrorIs(t, err, ledger.ErrNothingToWithdraw)

	_, err = ls.BuyPolicy(testPassenger, key, 1000)
	require.NoError(t, err)
	driveConsensus(t, ls, key, oracles, ledger.StatusLateAirline)

	treasury, err := ls.Treasury()
	require.NoError(t, err)
	amount, err := ls.Withdraw(testPassenger)
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), amount)
	balance, err := ls.InsuredBalance(testPassenger)
	require.NoError(t, err)
	assert.Zero(t, balance)
	after, err := ls.Treasury()
	require.NoError(t, err)
	assert.Equal(t, treasury-1001, after)

	// The balance is gone after the first withdrawal
	_, err = ls.Withdraw(testPassenger)
	require.ErrorIs(t, err, ledger.ErrNothingToWithdraw)
}

func TestWithdrawPaysFromPremiums(t *testing.T) {
	// No airline funding, so the treasury only holds premiums and fees
	ls := newTestLedger(t, withFirstAirlineFunding(0))
	key := registerTestFlight(t, ls, "UA123")
	oracles := registerOracles(t, ls, 20)
	_, err := ls.BuyPolicy(testPassenger, key, 1000)
	require.NoError(t, err)
	driveConsensus(t, ls, key, oracles, ledger.StatusLateAirline)

	// Treasury holds 1000 + 20 oracle fees, which covers the 1001 payout
	amount, err := ls.Withdraw(testPassenger)
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), amount)
	treasury, err := ls.Treasury()
	require.NoError(t, err)
	assert.Equal(t, uint64(19), treasury)
}
