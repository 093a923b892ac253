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

// LookupMap is a non-iterable map storing each value in a bucket derived
// from the Keccak256 hash of the encoded key. Two keys with the same hash
// share a bucket; given the strength of the hash this is not handled.
type LookupMap[K any, V any] struct {
	keyCodec codec.Codec[K]
	values   *lazyCache[common.Hash, V]
}

// NewLookupMap creates a map bound to the given prefix.
func NewLookupMap[K any, V any](storage backend.Storage, prefix []byte, keyCodec codec.Codec[K], valueCodec codec.Codec[V]) *LookupMap[K, V] {
	keys := NewKeySpace(prefix)
	return &LookupMap[K, V]{
		keyCodec: keyCodec,
		values: newLazyCache[common.Hash, V](storage, valueCodec, func(bucket common.Hash) []byte {
			return keys.Hash(tagBucket, bucket)
		}, false),
	}
}

// Insert stores the given value under the key. It returns the previously
// stored value and whether there was one.
func (m *LookupMap[K, V]) Insert(key K, value V) (V, bool, error) {
	bucket, err := m.bucket(key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	return m.values.set(bucket, value)
}

// Get returns the value stored under the key and whether there is one.
func (m *LookupMap[K, V]) Get(key K) (V, bool, error) {
	bucket, err := m.bucket(key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	return m.values.get(bucket)
}

func (m *LookupMap[K, V]) ContainsKey(key K) (bool, error) {
	_, found, err := m.Get(key)
	return found, err
}

// Remove deletes the value stored under the key and returns it.
func (m *LookupMap[K, V]) Remove(key K) (V, bool, error) {
	bucket, err := m.bucket(key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	return m.values.remove(bucket)
}

// Extend inserts all given entries in order.
func (m *LookupMap[K, V]) Extend(entries ...Entry[K, V]) error {
	for _, entry := range entries {
		if _, _, err := m.Insert(entry.Key, entry.Value); err != nil {
			return err
		}
	}
	return nil
}

// Flush is a no-op, the map writes modifications through to the storage.
func (m *LookupMap[K, V]) Flush() error {
	return nil
}

func (m *LookupMap[K, V]) bucket(key K) (common.Hash, error) {
	data, err := m.keyCodec.Encode(key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode key: %w", err)
	}
	return common.Keccak256(data), nil
}
