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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	opsTotal          *prometheus.CounterVec
	airlines          prometheus.Gauge
	oracleNodes       prometheus.Gauge
	requestsResolved  prometheus.Counter
	payoutsTotal      prometheus.Counter
	payoutAmountTotal prometheus.Counter
	withdrawalsTotal  prometheus.Counter
	treasury          prometheus.Gauge
	journalTip        prometheus.Gauge
	operational       prometheus.Gauge
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.opsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightsurety_ledger_ops_total",
			Help: "total number of ledger calls by operation and result",
		},
		[]string{"op", "result"},
	)
	m.airlines = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "flightsurety_ledger_airlines_registered",
		Help: "number of registered airlines",
	})
	m.oracleNodes = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "flightsurety_ledger_oracle_nodes",
		Help: "number of registered oracle nodes",
	})
	m.requestsResolved = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "flightsurety_ledger_oracle_requests_resolved_total",
		Help: "total number of oracle requests that reached the response threshold",
	})
	m.payoutsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "flightsurety_ledger_policy_payouts_total",
		Help: "total number of policies paid out",
	})
	m.payoutAmountTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "flightsurety_ledger_policy_payout_amount_total",
		Help: "total amount credited to insured balances",
	})
	m.withdrawalsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "flightsurety_ledger_withdrawals_total",
		Help: "total number of withdrawals",
	})
	m.treasury = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "flightsurety_ledger_treasury",
		Help: "funds currently held by the ledger",
	})
	m.journalTip = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "flightsurety_ledger_journal_tip",
		Help: "sequence number of the last committed ledger call",
	})
	m.operational = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "flightsurety_ledger_operational",
		Help: "whether the ledger accepts mutating calls (0 or 1)",
	})
}
