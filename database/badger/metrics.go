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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const journalMetricNamePrefix = "flightsurety_database_journal_"

type journalMetrics struct {
	appendsTotal prometheus.Counter
	bytesTotal   prometheus.Counter
}

func newJournalMetrics(reg prometheus.Registerer) *journalMetrics {
	factory := promauto.With(reg)
	return &journalMetrics{
		appendsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: journalMetricNamePrefix + "appends_total",
			Help: "Total number of journal entries written",
		}),
		bytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: journalMetricNamePrefix + "bytes_total",
			Help: "Total bytes of encoded journal entries written",
		}),
	}
}
