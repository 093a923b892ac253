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
	"encoding/binary"
	"fmt"

	"github.com/Fantom-foundation/Trove/backend"
	"github.com/Fantom-foundation/Trove/common"
	"github.com/Fantom-foundation/Trove/common/codec"
)

// UnorderedMap is an iterable map. Values are kept in a LookupMap together
// with the position of their key in a Vector of keys. Iteration follows the
// key vector; removals move the last key into the freed position.
type UnorderedMap[K any, V any] struct {
	index *LookupMap[K, indexedValue[V]]
	keys  *Vector[K]
}

type indexedValue[V any] struct {
	Index uint64 // < position of the key in the key vector
	Value V
}

// NewUnorderedMap creates an iterable map bound to the given prefix.
func NewUnorderedMap[K any, V any](storage backend.Storage, prefix []byte, keyCodec codec.Codec[K], valueCodec codec.Codec[V]) *UnorderedMap[K, V] {
	keys := NewKeySpace(prefix)
	return &UnorderedMap[K, V]{
		index: NewLookupMap[K, indexedValue[V]](storage, keys.Sub(tagIndex).Prefix(), keyCodec, indexedValueCodec[V]{valueCodec}),
		keys:  NewVector[K](storage, keys.Sub(tagKeys).Prefix(), keyCodec),
	}
}

func (m *UnorderedMap[K, V]) Len() (uint64, error) {
	return m.keys.Len()
}

func (m *UnorderedMap[K, V]) IsEmpty() (bool, error) {
	return m.keys.IsEmpty()
}

// Insert stores the value under the key. A new key is appended to the key
// vector, an existing key keeps its position.
func (m *UnorderedMap[K, V]) Insert(key K, value V) (V, bool, error) {
	var zero V
	current, found, err := m.index.Get(key)
	if err != nil {
		return zero, false, err
	}
	if found {
		if _, _, err := m.index.Insert(key, indexedValue[V]{Index: current.Index, Value: value}); err != nil {
			return zero, false, err
		}
		return current.Value, true, nil
	}
	length, err := m.keys.Len()
	if err != nil {
		return zero, false, err
	}
	if _, _, err := m.index.Insert(key, indexedValue[V]{Index: length, Value: value}); err != nil {
		return zero, false, err
	}
	if err := m.keys.Push(key); err != nil {
		return zero, false, err
	}
	return zero, false, nil
}

func (m *UnorderedMap[K, V]) Get(key K) (V, bool, error) {
	entry, found, err := m.index.Get(key)
	return entry.Value, found, err
}

func (m *UnorderedMap[K, V]) ContainsKey(key K) (bool, error) {
	return m.index.ContainsKey(key)
}

// Remove deletes the key and returns its value. The last key of the key
// vector takes over the position of the removed key.
func (m *UnorderedMap[K, V]) Remove(key K) (V, bool, error) {
	var zero V
	entry, found, err := m.index.Get(key)
	if err != nil || !found {
		return zero, false, err
	}
	length, err := m.keys.Len()
	if err != nil {
		return zero, false, err
	}
	if entry.Index >= length {
		return zero, false, fmt.Errorf("%w: key position %d beyond key count %d", common.ErrInconsistentState, entry.Index, length)
	}
	if last := length - 1; entry.Index != last {
		lastKey, err := m.keys.Get(last)
		if err != nil {
			return zero, false, err
		}
		moved, found, err := m.index.Get(lastKey)
		if err != nil {
			return zero, false, err
		}
		if !found {
			return zero, false, fmt.Errorf("%w: key at position %d has no value", common.ErrInconsistentState, last)
		}
		moved.Index = entry.Index
		if _, _, err := m.index.Insert(lastKey, moved); err != nil {
			return zero, false, err
		}
	}
	if _, err := m.keys.SwapRemove(entry.Index); err != nil {
		return zero, false, err
	}
	if _, _, err := m.index.Remove(key); err != nil {
		return zero, false, err
	}
	return entry.Value, true, nil
}

// Extend inserts all given entries in order.
func (m *UnorderedMap[K, V]) Extend(entries ...Entry[K, V]) error {
	for _, entry := range entries {
		if _, _, err := m.Insert(entry.Key, entry.Value); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes all entries from the storage.
func (m *UnorderedMap[K, V]) Clear() error {
	keys, err := m.keys.ToSlice()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, _, err := m.index.Remove(key); err != nil {
			return err
		}
	}
	return m.keys.Clear()
}

// Iter returns an iterator over all entries in key vector order.
func (m *UnorderedMap[K, V]) Iter() Iterator[Entry[K, V]] {
	return &mappingIterator[K, Entry[K, V]]{
		source: m.keys.Iter(),
		convert: func(key K) (Entry[K, V], error) {
			value, found, err := m.index.Get(key)
			if err != nil {
				return Entry[K, V]{}, err
			}
			if !found {
				return Entry[K, V]{}, fmt.Errorf("%w: listed key has no value", common.ErrInconsistentState)
			}
			return Entry[K, V]{Key: key, Value: value.Value}, nil
		},
	}
}

func (m *UnorderedMap[K, V]) Keys() Iterator[K] {
	return m.keys.Iter()
}

func (m *UnorderedMap[K, V]) Values() Iterator[V] {
	return &mappingIterator[Entry[K, V], V]{
		source:  m.Iter(),
		convert: func(entry Entry[K, V]) (V, error) { return entry.Value, nil },
	}
}

func (m *UnorderedMap[K, V]) ToSlice() ([]Entry[K, V], error) {
	return Collect[Entry[K, V]](m.Iter())
}

func (m *UnorderedMap[K, V]) Flush() error {
	return nil
}

// indexedValueCodec encodes the key position as 8 bytes little-endian,
// followed by the encoded value.
type indexedValueCodec[V any] struct {
	value codec.Codec[V]
}

func (c indexedValueCodec[V]) Encode(entry indexedValue[V]) ([]byte, error) {
	value, err := c.value.Encode(entry.Value)
	if err != nil {
		return nil, err
	}
	res := make([]byte, 0, 8+len(value))
	res = binary.LittleEndian.AppendUint64(res, entry.Index)
	return append(res, value...), nil
}

func (c indexedValueCodec[V]) Decode(data []byte) (indexedValue[V], error) {
	if len(data) < 8 {
		return indexedValue[V]{}, fmt.Errorf("indexed value too short, got %d bytes", len(data))
	}
	value, err := c.value.Decode(data[8:])
	if err != nil {
		return indexedValue[V]{}, err
	}
	return indexedValue[V]{Index: binary.LittleEndian.Uint64(data), Value: value}, nil
}
