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
	"fmt"

	"github.com/blinklabs-io/ferry/database/types"
	"github.com/fxamacker/cbor/v2"
)

// blobRead runs fn against the blob half of txn, or a short-lived read-only
// transaction when txn is nil
func (d *Database) blobRead(txn *Txn, fn func(types.Txn) error) error {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	if txn.Blob() == nil {
		return types.ErrBlobStoreUnavailable
	}
	return fn(txn.Blob())
}

// blobWrite runs fn against the blob half of txn, or commits it in its own
// transaction when txn is nil
func (d *Database) blobWrite(txn *Txn, fn func(types.Txn) error) error {
	if txn != nil {
		if txn.Blob() == nil {
			return types.ErrBlobStoreUnavailable
		}
		return fn(txn.Blob())
	}
	return NewBlobOnlyTxn(d, true).Do(func(txn *Txn) error {
		if txn.Blob() == nil {
			return types.ErrBlobStoreUnavailable
		}
		return fn(txn.Blob())
	})
}

// getCbor decodes the CBOR value stored at key into dst. It returns false
// when the key does not exist.
func (d *Database) getCbor(blobTxn types.Txn, key []byte, dst any) (bool, error) {
	val, err := d.blob.Get(blobTxn, key)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := cbor.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("decode blob value: %w", err)
	}
	return true, nil
}

func (d *Database) setCbor(blobTxn types.Txn, key []byte, src any) error {
	val, err := cbor.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode blob value: %w", err)
	}
	return d.blob.Set(blobTxn, key, val)
}

// scanCbor decodes every value under prefix, in key order
func scanCbor[T any](d *Database, blobTxn types.Txn, prefix []byte) ([]T, error) {
	it := d.blob.NewIterator(
		blobTxn,
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer it.Close()
	var ret []T
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var tmp T
		if err := cbor.Unmarshal(val, &tmp); err != nil {
			return nil, fmt.Errorf("decode blob value: %w", err)
		}
		ret = append(ret, tmp)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}
