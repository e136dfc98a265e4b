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

package merkle

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTree       = errors.New("merkle tree has no leaves")
	ErrIndexOutOfRange = errors.New("leaf index out of range")
)

// Tree is a sorted-pair Merkle tree built bottom-up. When a level has an odd
// number of nodes the last node is carried up unchanged and contributes no
// proof element at that level.
type Tree struct {
	levels [][]Hash
}

// NewTree builds a tree over the given leaf hashes, in order
func NewTree(leaves []Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	level := make([]Hash, len(leaves))
	copy(level, leaves)
	t := &Tree{levels: [][]Hash{level}}
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, Combine(level[i], level[i+1]))
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t, nil
}

// Root returns the commitment root
func (t *Tree) Root() Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Len returns the number of leaves
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Leaf returns the leaf hash at index
func (t *Tree) Leaf(index int) (Hash, error) {
	if index < 0 || index >= t.Len() {
		return Hash{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return t.levels[0][index], nil
}

// Proof returns the sibling path for the leaf at index, leaf level first
func (t *Tree) Proof(index int) ([]Hash, error) {
	if index < 0 || index >= t.Len() {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	var proof []Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}
	return proof, nil
}
