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
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type BlobStoreBadgerOptionFunc func(*BlobStoreBadger)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.logger = logger
	}
}

// WithPromRegistry registers the store size gauges and GC counter
func WithPromRegistry(
	registry prometheus.Registerer,
) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.promRegistry = registry
	}
}

// WithDataDir sets the parent directory of the on-disk store. An empty
// value keeps everything in memory.
func WithDataDir(dataDir string) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.dataDir = dataDir
	}
}

// WithCacheSizes sets the block and index cache sizes in bytes. Zero keeps
// the current value.
func WithCacheSizes(block, index uint64) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		if block > 0 {
			b.blockCacheSize = block
		}
		if index > 0 {
			b.indexCacheSize = index
		}
	}
}

// WithTableSizes sets the value log file size, the memtable size and the
// size above which values are moved out of the LSM tree. Zero keeps the
// current value.
func WithTableSizes(
	valueLogFile, memTable, valueThreshold int64,
) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		if valueLogFile > 0 {
			b.valueLogFileSize = valueLogFile
		}
		if memTable > 0 {
			b.memTableSize = memTable
		}
		if valueThreshold > 0 {
			b.valueThreshold = valueThreshold
		}
	}
}

// WithGc controls whether RunGC does any work
func WithGc(enabled bool) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.gcEnabled = enabled
	}
}

// SetInstrumentation implements plugin.Instrumented
func (b *BlobStoreBadger) SetInstrumentation(
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) {
	if logger != nil {
		b.logger = logger
	}
	if promRegistry != nil {
		b.promRegistry = promRegistry
	}
}
