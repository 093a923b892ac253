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

// Vector is an indexed list of elements kept in the storage. Elements are
// stored under their index, the length is stored as a separate value. All
// indexes below the length are occupied; removals fill gaps by moving the
// last element.
type Vector[T any] struct {
	keys     KeySpace
	storage  backend.Storage
	length   uint64
	loaded   bool // < set once the length got read from the storage
	elements *lazyCache[uint64, T]
}

// NewVector creates a vector bound to the given prefix. If the storage
// contains a vector under this prefix, its content is accessible through
// the returned instance.
func NewVector[T any](storage backend.Storage, prefix []byte, elementCodec codec.Codec[T]) *Vector[T] {
	keys := NewKeySpace(prefix)
	return &Vector[T]{
		keys:    keys,
		storage: storage,
		elements: newLazyCache[uint64, T](storage, elementCodec, func(i uint64) []byte {
			return keys.Index(tagElement, i)
		}, false),
	}
}

// Len returns the number of elements without reading any of them.
func (v *Vector[T]) Len() (uint64, error) {
	if v.loaded {
		return v.length, nil
	}
	key := v.keys.Meta(tagLength)
	data, found, err := v.storage.Get(key)
	if err != nil {
		return 0, err
	}
	if found {
		length, err := codec.Uint64{}.Decode(data)
		if err != nil {
			return 0, &common.CodecError{Key: key, Err: err}
		}
		v.length = length
	}
	v.loaded = true
	return v.length, nil
}

func (v *Vector[T]) IsEmpty() (bool, error) {
	length, err := v.Len()
	return length == 0, err
}

// Push appends the given element at the end of the vector.
func (v *Vector[T]) Push(element T) error {
	length, err := v.Len()
	if err != nil {
		return err
	}
	if err := v.elements.put(length, element); err != nil {
		return err
	}
	return v.setLength(length + 1)
}

// Get returns the element at the given index. It fails with
// ErrIndexOutOfRange if the index is not below the length.
func (v *Vector[T]) Get(index uint64) (T, error) {
	var zero T
	if err := v.checkIndex(index); err != nil {
		return zero, err
	}
	return v.get(index)
}

// Replace overwrites the element at the given index and returns the element
// that got replaced.
func (v *Vector[T]) Replace(index uint64, element T) (T, error) {
	var zero T
	if err := v.checkIndex(index); err != nil {
		return zero, err
	}
	previous, found, err := v.elements.set(index, element)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, fmt.Errorf("%w: vector element %d is missing", common.ErrInconsistentState, index)
	}
	return previous, nil
}

// SwapRemove removes the element at the given index and returns it. The
// last element takes the place of the removed one, so the order of elements
// is not preserved.
func (v *Vector[T]) SwapRemove(index uint64) (T, error) {
	var zero T
	if err := v.checkIndex(index); err != nil {
		return zero, err
	}
	last := v.length - 1
	if index == last {
		return v.Pop()
	}
	lastElement, err := v.get(last)
	if err != nil {
		return zero, err
	}
	removed, found, err := v.elements.set(index, lastElement)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, fmt.Errorf("%w: vector element %d is missing", common.ErrInconsistentState, index)
	}
	if _, _, err := v.elements.remove(last); err != nil {
		return zero, err
	}
	if err := v.setLength(last); err != nil {
		return zero, err
	}
	return removed, nil
}

// Pop removes and returns the last element. It fails with
// ErrEmptyCollection if the vector is empty.
func (v *Vector[T]) Pop() (T, error) {
	var zero T
	length, err := v.Len()
	if err != nil {
		return zero, err
	}
	if length == 0 {
		return zero, fmt.Errorf("failed to pop from vector: %w", common.ErrEmptyCollection)
	}
	last, found, err := v.elements.remove(length - 1)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, fmt.Errorf("%w: vector element %d is missing", common.ErrInconsistentState, length-1)
	}
	if err := v.setLength(length - 1); err != nil {
		return zero, err
	}
	return last, nil
}

// Extend appends all given elements in order.
func (v *Vector[T]) Extend(elements ...T) error {
	for _, element := range elements {
		if err := v.Push(element); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes all elements and the length from the storage.
func (v *Vector[T]) Clear() error {
	length, err := v.Len()
	if err != nil {
		return err
	}
	for i := uint64(0); i < length; i++ {
		if _, _, err := v.elements.remove(i); err != nil {
			return err
		}
	}
	return v.setLength(0)
}

// Iter returns an iterator over the elements in index order. It covers the
// indexes below the length at the time of its creation.
func (v *Vector[T]) Iter() Iterator[T] {
	length, err := v.Len()
	return &vectorIterator[T]{vector: v, end: length, err: err}
}

// ToSlice reads all elements into a slice.
func (v *Vector[T]) ToSlice() ([]T, error) {
	return Collect[T](v.Iter())
}

// Flush is a no-op, the vector writes modifications through to the storage.
func (v *Vector[T]) Flush() error {
	return nil
}

func (v *Vector[T]) checkIndex(index uint64) error {
	length, err := v.Len()
	if err != nil {
		return err
	}
	if index >= length {
		return fmt.Errorf("%w: index %d, length %d", common.ErrIndexOutOfRange, index, length)
	}
	return nil
}

func (v *Vector[T]) get(index uint64) (T, error) {
	element, found, err := v.elements.get(index)
	if err != nil {
		return element, err
	}
	if !found {
		return element, fmt.Errorf("%w: vector element %d is missing", common.ErrInconsistentState, index)
	}
	return element, nil
}

func (v *Vector[T]) setLength(length uint64) error {
	key := v.keys.Meta(tagLength)
	var err error
	if length == 0 {
		_, _, err = v.storage.Remove(key)
	} else {
		data, _ := codec.Uint64{}.Encode(length)
		_, _, err = v.storage.Set(key, data)
	}
	if err != nil {
		return err
	}
	v.length = length
	v.loaded = true
	return nil
}

type vectorIterator[T any] struct {
	vector  *Vector[T]
	next    uint64
	end     uint64
	current T
	err     error
}

func (it *vectorIterator[T]) Next() bool {
	if it.err != nil || it.next >= it.end {
		return false
	}
	it.current, it.err = it.vector.get(it.next)
	it.next++
	return it.err == nil
}

func (it *vectorIterator[T]) Value() T {
	return it.current
}

func (it *vectorIterator[T]) Err() error {
	return it.err
}
