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

package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	operations          *prometheus.CounterVec
	operationDuration   *prometheus.HistogramVec
	claimedAmount       prometheus.Counter
	contributedAmount   prometheus.Counter
	fundedAmount        prometheus.Counter
	migrationsActive    prometheus.Gauge
	migrationsTotal     prometheus.Counter
	lockWaitDuration    prometheus.Histogram
	votesCastTotal      prometheus.Counter
	snapshotsRegistered prometheus.Counter
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.operations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferry_ledger_operations_total",
			Help: "ledger operations by operation and result",
		},
		[]string{"op", "result"},
	)
	m.operationDuration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ferry_ledger_operation_duration_seconds",
			Help:    "ledger operation latency including lock wait",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"op"},
	)
	m.claimedAmount = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ferry_ledger_claimed_amount_total",
		Help: "base units paid out to claimants",
	})
	m.contributedAmount = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ferry_ledger_liquidity_contributed_total",
		Help: "base units contributed to liquidity reserves",
	})
	m.fundedAmount = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ferry_ledger_funded_amount_total",
		Help: "base units minted into migration vaults",
	})
	m.migrationsActive = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "ferry_ledger_migrations_active",
		Help: "migrations currently accepting claims",
	})
	m.migrationsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ferry_ledger_migrations_created_total",
		Help: "migrations created",
	})
	m.lockWaitDuration = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ferry_ledger_lock_wait_seconds",
			Help:    "time spent waiting for record locks",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)
	m.votesCastTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ferry_ledger_votes_cast_total",
		Help: "governance votes cast",
	})
	m.snapshotsRegistered = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ferry_ledger_snapshots_registered_total",
		Help: "snapshot proof bundles registered",
	})
}
