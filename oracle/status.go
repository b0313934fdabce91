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

package oracle

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/blinklabs-io/flightsurety/ledger"
)

// StatusSource decides which status a node reports for a request. Where the
// value comes from is up to the source, the ledger treats it as opaque
type StatusSource interface {
	Status(
		ctx context.Context,
		node ledger.Address,
		req ledger.OracleRequestEvent,
	) (ledger.StatusCode, error)
}

// FixedStatus reports the same status for every request
type FixedStatus ledger.StatusCode

func (f FixedStatus) Status(
	context.Context,
	ledger.Address,
	ledger.OracleRequestEvent,
) (ledger.StatusCode, error) {
	return ledger.StatusCode(f), nil
}

var reportableStatuses = []ledger.StatusCode{
	ledger.StatusUnknown,
	ledger.StatusOnTime,
	ledger.StatusLateAirline,
	ledger.StatusLateWeather,
	ledger.StatusLateTechnical,
	ledger.StatusLateOther,
}

// RandomStatus picks a status at random, returning StatusLateAirline with
// probability LateAirlineBias and a uniformly chosen status otherwise
type RandomStatus struct {
	rng             *rand.Rand
	mu              sync.Mutex
	LateAirlineBias float64
}

// NewRandomStatus returns a RandomStatus seeded with seed
func NewRandomStatus(seed uint64, lateAirlineBias float64) *RandomStatus {
	return &RandomStatus{
		rng:             rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // load testing only
		LateAirlineBias: lateAirlineBias,
	}
}

func (r *RandomStatus) Status(
	context.Context,
	ledger.Address,
	ledger.OracleRequestEvent,
) (ledger.StatusCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rng.Float64() < r.LateAirlineBias {
		return ledger.StatusLateAirline, nil
	}
	return reportableStatuses[r.rng.IntN(len(reportableStatuses))], nil
}
