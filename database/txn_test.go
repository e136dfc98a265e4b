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
	"testing"

	"github.com/blinklabs-io/ferry/database/plugin/metadata"
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMetadataCommit = errors.New("metadata commit refused")

// failingCommitMetadata hands out metadata transactions whose commit always
// fails after the blob half has gone through
type failingCommitMetadata struct {
	metadata.MetadataStore
}

type failingCommitTxn struct {
	types.Txn
}

func (t *failingCommitTxn) Commit() error {
	_ = t.Txn.Rollback()
	return errMetadataCommit
}

func (s *failingCommitMetadata) Transaction() types.Txn {
	return &failingCommitTxn{Txn: s.MetadataStore.Transaction()}
}

func (s *failingCommitMetadata) SetCommitTimestamp(
	timestamp int64,
	txn types.Txn,
) error {
	if f, ok := txn.(*failingCommitTxn); ok {
		txn = f.Txn
	}
	return s.MetadataStore.SetCommitTimestamp(timestamp, txn)
}

func TestPartialCommitRefusesWrites(t *testing.T) {
	db, err := New(&Config{})
	require.NoError(t, err)
	realMetadata := db.metadata
	defer func() {
		db.metadata = realMetadata
		_ = db.Close()
	}()
	require.NoError(t, db.RecoveryError())

	db.metadata = &failingCommitMetadata{MetadataStore: realMetadata}
	key := []byte("partial-commit")
	err = db.Transaction(true).Do(func(txn *Txn) error {
		return db.blob.Set(txn.Blob(), key, []byte{0x01})
	})
	require.ErrorIs(t, err, errMetadataCommit)
	db.metadata = realMetadata

	// The blob half is durable while the metadata half is not
	require.NoError(t, db.blobRead(nil, func(blobTxn types.Txn) error {
		_, err := db.blob.Get(blobTxn, key)
		return err
	}))
	var tsErr CommitTimestampError
	require.ErrorAs(t, db.RecoveryError(), &tsErr)
	assert.NotEqual(t, tsErr.MetadataTimestamp, tsErr.BlobTimestamp)

	// Every later write is refused before it runs
	called := false
	err = db.Transaction(true).Do(func(*Txn) error {
		called = true
		return nil
	})
	require.ErrorAs(t, err, &tsErr)
	assert.False(t, called)
	err = NewBlobOnlyTxn(db, true).Do(func(*Txn) error {
		called = true
		return nil
	})
	require.ErrorAs(t, err, &tsErr)
	assert.False(t, called)

	// A write transaction committed by hand is refused as well
	txn := db.Transaction(true)
	require.NoError(t, db.blob.Set(txn.Blob(), []byte("after"), []byte{0x02}))
	require.ErrorAs(t, txn.Commit(), &tsErr)
	err = db.blobRead(nil, func(blobTxn types.Txn) error {
		_, err := db.blob.Get(blobTxn, []byte("after"))
		return err
	})
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)

	// Reads keep working
	require.NoError(t, db.Transaction(false).Do(func(*Txn) error {
		return nil
	}))
}

func TestMetadataOnlyCommitFailureIsNotPartial(t *testing.T) {
	db, err := New(&Config{})
	require.NoError(t, err)
	defer db.Close()
	txn := &Txn{
		db:          db,
		readWrite:   true,
		metadataTxn: &failingCommitTxn{Txn: db.metadata.Transaction()},
	}
	require.ErrorIs(t, txn.Commit(), errMetadataCommit)
	assert.NoError(t, db.RecoveryError())
}
