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
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
)

// Uint64 is persisted as a decimal string so the full range survives SQL
// engines that only have signed 64-bit integers
//
//nolint:recvcheck
type Uint64 uint64

func (u Uint64) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

// GormDataType selects a text column
func (Uint64) GormDataType() string {
	return "string"
}

func (u *Uint64) Scan(val any) error {
	var v string
	switch tmp := val.(type) {
	case string:
		v = tmp
	case []byte:
		v = string(tmp)
	case int64:
		if tmp < 0 {
			return fmt.Errorf("negative value for Uint64: %d", tmp)
		}
		*u = Uint64(tmp)
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	tmpUint, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return err
	}
	*u = Uint64(tmpUint)
	return nil
}

// ErrBlobKeyNotFound is returned by blob operations when a key is missing
var ErrBlobKeyNotFound = errors.New("blob key not found")

// ErrTxnWrongType is returned when a transaction has the wrong type
var ErrTxnWrongType = errors.New("invalid transaction type")

// ErrNilTxn is returned when a nil transaction is provided where a valid transaction is required
var ErrNilTxn = errors.New("nil transaction")

// ErrNoStoreAvailable is returned when no blob or metadata store is available
var ErrNoStoreAvailable = errors.New("no store available")

// ErrBlobStoreUnavailable is returned when blob store cannot be accessed
var ErrBlobStoreUnavailable = errors.New("blob store unavailable")

// ErrRecordNotFound is returned by metadata lookups that match no rows
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicateRecord is returned when a unique constraint rejects an insert
var ErrDuplicateRecord = errors.New("duplicate record")

// BlobItem represents a value returned by an iterator
type BlobItem interface {
	Key() []byte
	ValueCopy(dst []byte) ([]byte, error)
}

// BlobIterator provides key iteration over the blob store.
//
// Items returned by Item() must only be accessed while the transaction used
// to create the iterator is still active.
type BlobIterator interface {
	Rewind()
	Seek(prefix []byte)
	Valid() bool
	ValidForPrefix(prefix []byte) bool
	Next()
	Item() BlobItem
	Close()
	Err() error
}

// BlobIteratorOptions configures blob iterator creation
type BlobIteratorOptions struct {
	Prefix  []byte
	Reverse bool
}

// Txn is a simple transaction handle for commit/rollback only.
// Database layer (Txn) coordinates metadata and blob operations separately.
type Txn interface {
	Commit() error
	Rollback() error
}

// VaultAccount is the blob value holding a token balance for one owner of
// one asset
type VaultAccount struct {
	_       struct{} `cbor:",toarray"`
	Asset   []byte
	Owner   []byte
	Balance uint64
}

// TransferJournalEntry records an executed transfer in the blob store
type TransferJournalEntry struct {
	_         struct{} `cbor:",toarray"`
	ID        []byte
	Asset     []byte
	From      []byte
	To        []byte
	Authority []byte
	Amount    uint64
	Timestamp int64
}

// SnapshotClaim is one claimant entry inside a stored snapshot bundle
type SnapshotClaim struct {
	_         struct{} `cbor:",toarray"`
	Claimant  []byte
	Amount    uint64
	LeafIndex uint32
	Proof     [][]byte
}

// SnapshotBundle is the blob value holding every proof for a migration
type SnapshotBundle struct {
	_      struct{} `cbor:",toarray"`
	Root   []byte
	Claims []SnapshotClaim
}
