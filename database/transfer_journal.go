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
)

var ErrTransferNotFound = errors.New("transfer not found")

func (d *Database) AddTransferJournalEntry(
	entry types.TransferJournalEntry,
	txn *Txn,
) error {
	return d.blobWrite(txn, func(blobTxn types.Txn) error {
		return d.setCbor(blobTxn, types.TransferJournalKey(entry.ID), entry)
	})
}

func (d *Database) GetTransferJournalEntry(
	id []byte,
	txn *Txn,
) (types.TransferJournalEntry, error) {
	var ret types.TransferJournalEntry
	err := d.blobRead(txn, func(blobTxn types.Txn) error {
		found, err := d.getCbor(blobTxn, types.TransferJournalKey(id), &ret)
		if err != nil {
			return err
		}
		if !found {
			return ErrTransferNotFound
		}
		return nil
	})
	return ret, err
}

// ListTransferJournal returns every journal entry in ID order. IDs are time
// ordered, so this is also execution order.
func (d *Database) ListTransferJournal(
	txn *Txn,
) ([]types.TransferJournalEntry, error) {
	var ret []types.TransferJournalEntry
	err := d.blobRead(txn, func(blobTxn types.Txn) error {
		var err error
		ret, err = scanCbor[types.TransferJournalEntry](
			d,
			blobTxn,
			[]byte(types.TransferJournalKeyPrefix),
		)
		return err
	})
	return ret, err
}
