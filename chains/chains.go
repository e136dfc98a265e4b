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

// Package chains holds the registry of well-known source networks, numbered
// the same way as Wormhole, and normalizes their contract addresses into the
// fixed 32-byte form stored on migration records.
package chains

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/ferry/identity"
)

type ChainID uint16

const (
	ChainIDUnset     ChainID = 0
	ChainIDSolana    ChainID = 1
	ChainIDEthereum  ChainID = 2
	ChainIDBSC       ChainID = 4
	ChainIDPolygon   ChainID = 5
	ChainIDAvalanche ChainID = 6
	ChainIDFantom    ChainID = 10
	ChainIDCelo      ChainID = 14
	ChainIDMoonbeam  ChainID = 16
	ChainIDSui       ChainID = 21
	ChainIDAptos     ChainID = 22
	ChainIDArbitrum  ChainID = 23
	ChainIDOptimism  ChainID = 24
	ChainIDBase      ChainID = 30
)

var ErrInvalidAddress = errors.New("invalid source address")

type Chain struct {
	ID   ChainID
	Name string
	// EVM chains use 20-byte hex addresses
	EVM bool
}

var knownChains = []Chain{
	{ID: ChainIDSolana, Name: "solana"},
	{ID: ChainIDEthereum, Name: "ethereum", EVM: true},
	{ID: ChainIDBSC, Name: "bsc", EVM: true},
	{ID: ChainIDPolygon, Name: "polygon", EVM: true},
	{ID: ChainIDAvalanche, Name: "avalanche", EVM: true},
	{ID: ChainIDFantom, Name: "fantom", EVM: true},
	{ID: ChainIDCelo, Name: "celo", EVM: true},
	{ID: ChainIDMoonbeam, Name: "moonbeam", EVM: true},
	{ID: ChainIDSui, Name: "sui"},
	{ID: ChainIDAptos, Name: "aptos"},
	{ID: ChainIDArbitrum, Name: "arbitrum", EVM: true},
	{ID: ChainIDOptimism, Name: "optimism", EVM: true},
	{ID: ChainIDBase, Name: "base", EVM: true},
}

// Known returns a copy of the chain registry
func Known() []Chain {
	return slices.Clone(knownChains)
}

// Lookup returns the registry entry for a chain ID
func Lookup(id ChainID) (Chain, bool) {
	for _, c := range knownChains {
		if c.ID == id {
			return c, true
		}
	}
	return Chain{}, false
}

// ByName returns the registry entry for a chain name, case-insensitively
func ByName(name string) (Chain, bool) {
	for _, c := range knownChains {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Chain{}, false
}

// ParseChainID accepts either a registered chain name or a numeric ID.
// Unregistered numeric IDs are allowed since the ledger treats them as opaque.
func ParseChainID(s string) (ChainID, error) {
	if c, ok := ByName(s); ok {
		return c.ID, nil
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return ChainIDUnset, fmt.Errorf("unknown chain %q", s)
	}
	return ChainID(v), nil
}

func (c ChainID) String() string {
	if chain, ok := Lookup(c); ok {
		return chain.Name
	}
	return "chain-" + strconv.FormatUint(uint64(c), 10)
}

// NormalizeAddress converts a source-network address into 32 bytes. EVM
// addresses are left-padded with zeros. Other networks take either a 32-byte
// hex string or a base58 identity.
func NormalizeAddress(id ChainID, addr string) (identity.Identity, error) {
	addr = strings.TrimSpace(addr)
	if chain, ok := Lookup(id); ok && chain.EVM {
		if !common.IsHexAddress(addr) {
			return identity.Zero, fmt.Errorf(
				"%w: %q is not a valid %s address",
				ErrInvalidAddress,
				addr,
				chain.Name,
			)
		}
		padded := common.LeftPadBytes(common.HexToAddress(addr).Bytes(), identity.Size)
		return identity.FromBytes(padded)
	}
	if strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X") {
		raw := common.FromHex(addr)
		if len(raw) != identity.Size {
			return identity.Zero, fmt.Errorf(
				"%w: %q is %d bytes, expected %d",
				ErrInvalidAddress,
				addr,
				len(raw),
				identity.Size,
			)
		}
		return identity.FromBytes(raw)
	}
	ret, err := identity.Parse(addr)
	if err != nil {
		return identity.Zero, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return ret, nil
}

// DisplayAddress renders a stored 32-byte address in the source network's
// native form
func DisplayAddress(id ChainID, addr identity.Identity) string {
	if chain, ok := Lookup(id); ok && chain.EVM {
		return common.BytesToAddress(addr[:]).Hex()
	}
	if id == ChainIDSolana {
		return addr.String()
	}
	return common.Bytes2Hex(addr[:])
}
