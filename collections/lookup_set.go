// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package collections

import (
	"github.com/Fantom-foundation/Trove/backend"
	"github.com/Fantom-foundation/Trove/common/codec"
)

// LookupSet is a non-iterable set, implemented as a LookupMap without
// values.
type LookupSet[T any] struct {
	members *LookupMap[T, struct{}]
}

func NewLookupSet[T any](storage backend.Storage, prefix []byte, memberCodec codec.Codec[T]) *LookupSet[T] {
	return &LookupSet[T]{members: NewLookupMap[T, struct{}](storage, prefix, memberCodec, codec.Unit{})}
}

// Insert adds the given value and reports whether it was not present before.
func (s *LookupSet[T]) Insert(value T) (bool, error) {
	_, existed, err := s.members.Insert(value, struct{}{})
	if err != nil {
		return false, err
	}
	return !existed, nil
}

func (s *LookupSet[T]) Contains(value T) (bool, error) {
	return s.members.ContainsKey(value)
}

// Remove deletes the given value and reports whether it was present.
func (s *LookupSet[T]) Remove(value T) (bool, error) {
	_, existed, err := s.members.Remove(value)
	return existed, err
}

func (s *LookupSet[T]) Extend(values ...T) error {
	for _, value := range values {
		if _, err := s.Insert(value); err != nil {
			return err
		}
	}
	return nil
}

func (s *LookupSet[T]) Flush() error {
	return s.members.Flush()
}
