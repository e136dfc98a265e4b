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
	"github.com/blinklabs-io/ferry/database/types"
	"github.com/blinklabs-io/ferry/identity"
)

// GetVaultAccount returns the balance record for owner in asset. A missing
// record is returned as a zero balance.
func (d *Database) GetVaultAccount(
	asset identity.Identity,
	owner identity.Identity,
	txn *Txn,
) (types.VaultAccount, error) {
	ret := types.VaultAccount{
		Asset: asset.Bytes(),
		Owner: owner.Bytes(),
	}
	err := d.blobRead(txn, func(blobTxn types.Txn) error {
		_, err := d.getCbor(
			blobTxn,
			types.VaultAccountKey(asset[:], owner[:]),
			&ret,
		)
		return err
	})
	return ret, err
}

func (d *Database) SetVaultAccount(account types.VaultAccount, txn *Txn) error {
	return d.blobWrite(txn, func(blobTxn types.Txn) error {
		return d.setCbor(
			blobTxn,
			types.VaultAccountKey(account.Asset, account.Owner),
			account,
		)
	})
}

// ListVaultAccounts returns every account holding the asset, ordered by owner
func (d *Database) ListVaultAccounts(
	asset identity.Identity,
	txn *Txn,
) ([]types.VaultAccount, error) {
	var ret []types.VaultAccount
	err := d.blobRead(txn, func(blobTxn types.Txn) error {
		var err error
		ret, err = scanCbor[types.VaultAccount](
			d,
			blobTxn,
			types.VaultAssetPrefix(asset[:]),
		)
		return err
	})
	return ret, err
}
