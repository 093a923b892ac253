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

import "fmt"

// Iterator is a lazy sequence over the elements of a collection. It is used
// like LevelDB iterators:
//
//	for it.Next() {
//		use(it.Value())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
//
// Elements are read from the storage on demand. Modifying a collection while
// iterating it leads to undefined results.
type Iterator[T any] interface {
	// Next moves to the next element and reports whether there is one. It
	// returns false at the end of the sequence or after an error occurred.
	Next() bool

	// Value returns the current element, valid after Next returned true.
	Value() T

	// Err returns the error that ended the iteration, if any.
	Err() error
}

// Entry is a key/value pair of a map.
type Entry[K any, V any] struct {
	Key   K
	Value V
}

func (e Entry[K, V]) String() string {
	return fmt.Sprintf("Entry: %v -> %v", e.Key, e.Value)
}

// Collect drains the given iterator into a slice.
func Collect[T any](it Iterator[T]) ([]T, error) {
	res := []T{}
	for it.Next() {
		res = append(res, it.Value())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// mappingIterator applies a fallible conversion to the elements of another iterator.
type mappingIterator[S any, T any] struct {
	source  Iterator[S]
	convert func(S) (T, error)
	current T
	err     error
}

func (it *mappingIterator[S, T]) Next() bool {
	if it.err != nil || !it.source.Next() {
		return false
	}
	it.current, it.err = it.convert(it.source.Value())
	return it.err == nil
}

func (it *mappingIterator[S, T]) Value() T {
	return it.current
}

func (it *mappingIterator[S, T]) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.source.Err()
}
