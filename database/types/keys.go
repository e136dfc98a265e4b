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

package types

import (
	"slices"
)

const (
	VaultAccountKeyPrefix    = "va"
	TransferJournalKeyPrefix = "tj"
	SnapshotBundleKeyPrefix  = "sb"
)

// VaultAccountKey is the prefix, then the asset, then the owner
func VaultAccountKey(asset []byte, owner []byte) []byte {
	return slices.Concat([]byte(VaultAccountKeyPrefix), asset, owner)
}

// VaultAssetPrefix covers every vault account of one asset
func VaultAssetPrefix(asset []byte) []byte {
	return slices.Concat([]byte(VaultAccountKeyPrefix), asset)
}

func TransferJournalKey(id []byte) []byte {
	return slices.Concat([]byte(TransferJournalKeyPrefix), id)
}

func SnapshotBundleKey(migration []byte) []byte {
	return slices.Concat([]byte(SnapshotBundleKeyPrefix), migration)
}
