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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blinklabs-io/ferry/database/types"
)

const commitTimestampBlobKey = "metadata_commit_timestamp"

// The timestamp is stored as 8 big-endian bytes. Shorter values, with the
// leading zeroes trimmed, are accepted on read.
func decodeCommitTimestamp(val []byte) (int64, error) {
	if len(val) > 8 {
		return 0, fmt.Errorf(
			"commit timestamp is %d bytes, expected at most 8",
			len(val),
		)
	}
	var buf [8]byte
	copy(buf[8-len(val):], val)
	return int64(binary.BigEndian.Uint64(buf[:])), nil //nolint:gosec // G115: round-trips a stored int64
}

func (d *BlobStoreBadger) GetCommitTimestamp() (int64, error) {
	txn := d.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck

	val, err := d.Get(txn, []byte(commitTimestampBlobKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return decodeCommitTimestamp(val)
}

func (d *BlobStoreBadger) SetCommitTimestamp(
	timestamp int64,
	txn types.Txn,
) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	return d.Set(
		txn,
		[]byte(commitTimestampBlobKey),
		binary.BigEndian.AppendUint64(nil, uint64(timestamp)), //nolint:gosec // G115: commit times are positive
	)
}
