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
	"errors"

	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
)

var ErrSnapshotNotFound = errors.New("snapshot bundle not found")

func (d *Database) GetSnapshotBundle(
	migration identity.Identity,
	txn *Txn,
) (types.SnapshotBundle, error) {
	var ret types.SnapshotBundle
	err := d.blobRead(txn, func(blobTxn types.Txn) error {
		found, err := d.getCbor(
			blobTxn,
			types.SnapshotBundleKey(migration[:]),
			&ret,
		)
		if err != nil {
			return err
		}
		if !found {
			return ErrSnapshotNotFound
		}
		return nil
	})
	return ret, err
}

func (d *Database) SetSnapshotBundle(
	migration identity.Identity,
	bundle types.SnapshotBundle,
	txn *Txn,
) error {
	return d.blobWrite(txn, func(blobTxn types.Txn) error {
		return d.setCbor(blobTxn, types.SnapshotBundleKey(migration[:]), bundle)
	})
}
