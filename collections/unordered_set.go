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
	"fmt"

	"github.com/Fantom-foundation/Trove/backend"
	"github.com/Fantom-foundation/Trove/common"
	"github.com/Fantom-foundation/Trove/common/codec"
)

// UnorderedSet is an iterable set. Members are listed in a Vector, a
// LookupMap keeps the position of each member in that vector.
type UnorderedSet[T any] struct {
	index    *LookupMap[T, uint64]
	elements *Vector[T]
}

func NewUnorderedSet[T any](storage backend.Storage, prefix []byte, elementCodec codec.Codec[T]) *UnorderedSet[T] {
	keys := NewKeySpace(prefix)
	return &UnorderedSet[T]{
		index:    NewLookupMap[T, uint64](storage, keys.Sub(tagIndex).Prefix(), elementCodec, codec.Uint64{}),
		elements: NewVector[T](storage, keys.Sub(tagKeys).Prefix(), elementCodec),
	}
}

func (s *UnorderedSet[T]) Len() (uint64, error) {
	return s.elements.Len()
}

func (s *UnorderedSet[T]) IsEmpty() (bool, error) {
	return s.elements.IsEmpty()
}

// Insert adds the value and reports whether it was not present before.
func (s *UnorderedSet[T]) Insert(value T) (bool, error) {
	found, err := s.index.ContainsKey(value)
	if err != nil || found {
		return false, err
	}
	length, err := s.elements.Len()
	if err != nil {
		return false, err
	}
	if _, _, err := s.index.Insert(value, length); err != nil {
		return false, err
	}
	if err := s.elements.Push(value); err != nil {
		return false, err
	}
	return true, nil
}

func (s *UnorderedSet[T]) Contains(value T) (bool, error) {
	return s.index.ContainsKey(value)
}

// Remove deletes the value and reports whether it was present.
func (s *UnorderedSet[T]) Remove(value T) (bool, error) {
	position, found, err := s.index.Get(value)
	if err != nil || !found {
		return false, err
	}
	length, err := s.elements.Len()
	if err != nil {
		return false, err
	}
	if position >= length {
		return false, fmt.Errorf("%w: member position %d beyond member count %d", common.ErrInconsistentState, position, length)
	}
	if last := length - 1; position != last {
		moved, err := s.elements.Get(last)
		if err != nil {
			return false, err
		}
		if _, _, err := s.index.Insert(moved, position); err != nil {
			return false, err
		}
	}
	if _, err := s.elements.SwapRemove(position); err != nil {
		return false, err
	}
	if _, _, err := s.index.Remove(value); err != nil {
		return false, err
	}
	return true, nil
}

func (s *UnorderedSet[T]) Extend(values ...T) error {
	for _, value := range values {
		if _, err := s.Insert(value); err != nil {
			return err
		}
	}
	return nil
}

func (s *UnorderedSet[T]) Clear() error {
	values, err := s.elements.ToSlice()
	if err != nil {
		return err
	}
	for _, value := range values {
		if _, _, err := s.index.Remove(value); err != nil {
			return err
		}
	}
	return s.elements.Clear()
}

// Iter returns an iterator over all members in insertion order, as long as
// no member got removed.
func (s *UnorderedSet[T]) Iter() Iterator[T] {
	return s.elements.Iter()
}

func (s *UnorderedSet[T]) ToSlice() ([]T, error) {
	return s.elements.ToSlice()
}

func (s *UnorderedSet[T]) Flush() error {
	return nil
}
