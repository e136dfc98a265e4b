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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeOptionsKeepDefaultsOnZero(t *testing.T) {
	b := &BlobStoreBadger{
		blockCacheSize:   DefaultBlockCacheSize,
		indexCacheSize:   DefaultIndexCacheSize,
		valueLogFileSize: DefaultValueLogFileSize,
		memTableSize:     DefaultMemTableSize,
		valueThreshold:   DefaultValueThreshold,
	}
	WithCacheSizes(0, 1024)(b)
	WithTableSizes(0, 2048, 0)(b)
	assert.Equal(t, uint64(DefaultBlockCacheSize), b.blockCacheSize)
	assert.Equal(t, uint64(1024), b.indexCacheSize)
	assert.Equal(t, int64(DefaultValueLogFileSize), b.valueLogFileSize)
	assert.Equal(t, int64(2048), b.memTableSize)
	assert.Equal(t, int64(DefaultValueThreshold), b.valueThreshold)
}

func TestWithGc(t *testing.T) {
	b := &BlobStoreBadger{gcEnabled: true}
	WithGc(false)(b)
	assert.False(t, b.gcEnabled)
}
