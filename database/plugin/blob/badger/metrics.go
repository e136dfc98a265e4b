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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const badgerMetricNamePrefix = "database_blob_"

type blobMetrics struct {
	gcRuns     prometheus.Counter
	collectors []prometheus.Collector
}

// registerBlobMetrics exports the GC counter and store size gauges. The
// collectors are removed again on Close so that a store can be reopened
// against the same registry.
func (d *BlobStoreBadger) registerBlobMetrics() {
	factory := promauto.With(d.promRegistry)
	d.metrics = &blobMetrics{
		gcRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "gc_runs_total",
			Help: "Total number of badger value log GC passes that rewrote a file",
		}),
	}
	lsmSize := factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: badgerMetricNamePrefix + "lsm_size_bytes",
			Help: "Size of the badger LSM tree",
		},
		func() float64 {
			lsm, _ := d.db.Size()
			return float64(lsm)
		},
	)
	vlogSize := factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: badgerMetricNamePrefix + "vlog_size_bytes",
			Help: "Size of the badger value log",
		},
		func() float64 {
			_, vlog := d.db.Size()
			return float64(vlog)
		},
	)
	d.metrics.collectors = []prometheus.Collector{
		d.metrics.gcRuns,
		lsmSize,
		vlogSize,
	}
}

func (d *BlobStoreBadger) unregisterBlobMetrics() {
	if d.metrics == nil {
		return
	}
	for _, c := range d.metrics.collectors {
		d.promRegistry.Unregister(c)
	}
	d.metrics = nil
}
