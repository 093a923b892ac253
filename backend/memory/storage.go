// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Storage is an in-memory backend.Storage implementation. Modifications are
// journaled so that an invocation can be aborted, restoring the state of the
// last commit.
type Storage struct {
	data    map[string][]byte
	journal []undoEntry
}

type undoEntry struct {
	key     string
	value   []byte
	existed bool
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{data: map[string][]byte{}}
}

func (s *Storage) Get(key []byte) ([]byte, bool, error) {
	value, found := s.data[string(key)]
	if !found {
		return nil, false, nil
	}
	return slices.Clone(value), true, nil
}

func (s *Storage) Contains(key []byte) (bool, error) {
	_, found := s.data[string(key)]
	return found, nil
}

func (s *Storage) Set(key, value []byte) ([]byte, bool, error) {
	previous, found := s.data[string(key)]
	s.journal = append(s.journal, undoEntry{key: string(key), value: previous, existed: found})
	if value == nil {
		value = []byte{}
	}
	s.data[string(key)] = slices.Clone(value)
	return slices.Clone(previous), found, nil
}

func (s *Storage) Remove(key []byte) ([]byte, bool, error) {
	previous, found := s.data[string(key)]
	if !found {
		return nil, false, nil
	}
	s.journal = append(s.journal, undoEntry{key: string(key), value: previous, existed: true})
	delete(s.data, string(key))
	return slices.Clone(previous), true, nil
}

// Commit accepts all modifications since the last commit.
func (s *Storage) Commit() error {
	s.journal = s.journal[:0]
	return nil
}

// Abort reverts all modifications since the last commit.
func (s *Storage) Abort() {
	for i := len(s.journal) - 1; i >= 0; i-- {
		entry := s.journal[i]
		if entry.existed {
			s.data[entry.key] = entry.value
		} else {
			delete(s.data, entry.key)
		}
	}
	s.journal = s.journal[:0]
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	return len(s.data)
}

// Keys returns all stored keys in lexicographical order.
func (s *Storage) Keys() [][]byte {
	keys := maps.Keys(s.data)
	slices.Sort(keys)
	res := make([][]byte, 0, len(keys))
	for _, key := range keys {
		res = append(res, []byte(key))
	}
	return res
}
