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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type coordinatorMetrics struct {
	nodes            prometheus.Gauge
	requests         prometheus.Counter
	submissions      *prometheus.CounterVec
	registrationErrs prometheus.Counter
}

func (m *coordinatorMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.nodes = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "flightsurety_oracle_nodes",
		Help: "number of oracle nodes managed by the coordinator",
	})
	m.requests = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "flightsurety_oracle_requests_total",
		Help: "total number of status requests received",
	})
	m.submissions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightsurety_oracle_submissions_total",
			Help: "total number of oracle responses submitted by result",
		},
		[]string{"result"},
	)
	m.registrationErrs = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "flightsurety_oracle_registration_errors_total",
		Help: "total number of failed oracle node registrations",
	})
}
