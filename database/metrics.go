// Copyright 2025 Blink Labs Software
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

package database

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Commit results
const (
	commitResultOk        = "ok"
	commitResultTimestamp = "timestamp_error"
	commitResultBlob      = "blob_error"
	commitResultMetadata  = "metadata_error"
	commitResultPartial   = "partial"
)

type txnMetrics struct {
	commits      *prometheus.CounterVec
	rollbacks    prometheus.Counter
	txnLifetime  prometheus.Histogram
	maintenances *prometheus.CounterVec
}

func newTxnMetrics(promRegistry prometheus.Registerer) *txnMetrics {
	factory := promauto.With(promRegistry)
	return &txnMetrics{
		commits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_txn_commits_total",
				Help: "read-write transaction commits by result",
			},
			[]string{"result"},
		),
		rollbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "database_txn_rollbacks_total",
			Help: "transactions rolled back before commit",
		}),
		txnLifetime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "database_txn_lifetime_seconds",
			Help:    "time from transaction start to commit or rollback",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		maintenances: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_maintenance_runs_total",
				Help: "maintenance passes by result",
			},
			[]string{"result"},
		),
	}
}

// The nil receiver checks let a database without a registry skip metrics

func (m *txnMetrics) commit(result string, started time.Time) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(result).Inc()
	m.txnLifetime.Observe(time.Since(started).Seconds())
}

func (m *txnMetrics) rollback(started time.Time) {
	if m == nil {
		return
	}
	m.rollbacks.Inc()
	m.txnLifetime.Observe(time.Since(started).Seconds())
}

func (m *txnMetrics) maintenance(err error) {
	if m == nil {
		return
	}
	result := commitResultOk
	if err != nil {
		result = "error"
	}
	m.maintenances.WithLabelValues(result).Inc()
}
