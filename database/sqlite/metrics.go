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

package sqlite

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metadataMetricNamePrefix = "flightsurety_database_metadata_"

func (d *MetadataStoreSqlite) registerMetrics() {
	sqlDb, err := d.db.DB()
	if err != nil {
		d.logger.Warn(
			"unable to register metadata store metrics",
			"component", "database",
			"error", err,
		)
		return
	}
	factory := promauto.With(d.promRegistry)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metadataMetricNamePrefix + "open_connections",
			Help: "Number of open connections to the metadata store",
		},
		func() float64 {
			return float64(sqlDb.Stats().OpenConnections)
		},
	)
	factory.NewCounterFunc(
		prometheus.CounterOpts{
			Name: metadataMetricNamePrefix + "wait_total",
			Help: "Total number of connections waited for",
		},
		func() float64 {
			return float64(sqlDb.Stats().WaitCount)
		},
	)
}
