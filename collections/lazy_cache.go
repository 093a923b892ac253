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
	"golang.org/x/exp/slices"
)

// lazyCache is an overlay of the storage entries of a single collection,
// addressed by slot identifiers of type S. Each slot is either unknown (not
// in the entries map), known to be absent, or known to be present. Every
// slot is read from the storage at most once.
//
// Present slots are kept in their encoded form and decoded on each access,
// so values handed in or out never share memory with the cache.
//
// In write-through mode, modifications are forwarded to the storage
// immediately. In deferred mode, they are collected and written by flush in
// the order slots got modified first.
type lazyCache[S comparable, V any] struct {
	storage  backend.Storage
	codec    codec.Codec[V]
	toKey    func(S) []byte
	deferred bool
	entries  map[S]*cacheEntry
	dirty    []S
}

type cacheEntry struct {
	present bool
	raw     []byte // < encoded value, owned by the cache
	dirty   bool
}

func newLazyCache[S comparable, V any](storage backend.Storage, codec codec.Codec[V], toKey func(S) []byte, deferred bool) *lazyCache[S, V] {
	return &lazyCache[S, V]{
		storage:  storage,
		codec:    codec,
		toKey:    toKey,
		deferred: deferred,
		entries:  map[S]*cacheEntry{},
	}
}

// get returns the value of the given slot and whether it is present.
func (c *lazyCache[S, V]) get(slot S) (V, bool, error) {
	var zero V
	key := c.toKey(slot)
	if entry, found := c.entries[slot]; found {
		if !entry.present {
			return zero, false, nil
		}
		value, err := c.decode(key, entry.raw)
		return value, err == nil, err
	}
	data, found, err := c.storage.Get(key)
	if err != nil {
		return zero, false, err
	}
	if !found {
		c.entries[slot] = &cacheEntry{}
		return zero, false, nil
	}
	raw := slices.Clone(data)
	value, err := c.decode(key, raw)
	if err != nil {
		return zero, false, err
	}
	c.entries[slot] = &cacheEntry{present: true, raw: raw}
	return value, true, nil
}

// set updates the value of the given slot and returns the value it replaced.
func (c *lazyCache[S, V]) set(slot S, value V) (V, bool, error) {
	var previous V
	key := c.toKey(slot)
	raw, err := c.encode(key, value)
	if err != nil {
		return previous, false, err
	}

	if c.deferred {
		previous, existed, err := c.get(slot)
		if err != nil {
			return previous, false, err
		}
		c.record(slot, raw)
		return previous, existed, nil
	}

	entry, known := c.entries[slot]
	data, found, err := c.storage.Set(key, raw)
	if err != nil {
		return previous, false, err
	}
	c.entries[slot] = &cacheEntry{present: true, raw: raw}
	if known {
		if !entry.present {
			return previous, false, nil
		}
		data, found = entry.raw, true
	}
	if !found {
		return previous, false, nil
	}
	if previous, err = c.decode(key, data); err != nil {
		return previous, false, err
	}
	return previous, true, nil
}

// put updates the value of the given slot without retrieving the value it
// replaces. Slots not known to the cache are not read from the storage.
func (c *lazyCache[S, V]) put(slot S, value V) error {
	key := c.toKey(slot)
	raw, err := c.encode(key, value)
	if err != nil {
		return err
	}
	if !c.deferred {
		if _, _, err := c.storage.Set(key, raw); err != nil {
			return err
		}
		c.entries[slot] = &cacheEntry{present: true, raw: raw}
		return nil
	}
	c.record(slot, raw)
	return nil
}

// remove marks the given slot absent and returns the value it held.
func (c *lazyCache[S, V]) remove(slot S) (V, bool, error) {
	var zero V
	if c.deferred {
		previous, existed, err := c.get(slot)
		if err != nil || !existed {
			return previous, false, err
		}
		c.record(slot, nil)
		return previous, true, nil
	}

	entry, known := c.entries[slot]
	if known && !entry.present {
		return zero, false, nil
	}
	key := c.toKey(slot)
	data, found, err := c.storage.Remove(key)
	if err != nil {
		return zero, false, err
	}
	c.entries[slot] = &cacheEntry{}
	if known {
		data, found = entry.raw, true
	}
	if !found {
		return zero, false, nil
	}
	previous, err := c.decode(key, data)
	if err != nil {
		return zero, false, err
	}
	return previous, true, nil
}

// flush writes all deferred modifications to the storage.
func (c *lazyCache[S, V]) flush() error {
	for i, slot := range c.dirty {
		entry := c.entries[slot]
		key := c.toKey(slot)
		var err error
		if entry.present {
			_, _, err = c.storage.Set(key, slices.Clone(entry.raw))
		} else {
			_, _, err = c.storage.Remove(key)
		}
		if err != nil {
			c.dirty = c.dirty[i:]
			return fmt.Errorf("failed to flush key 0x%x: %w", key, err)
		}
		entry.dirty = false
	}
	c.dirty = c.dirty[:0]
	return nil
}

// pending returns the number of slots with deferred modifications.
func (c *lazyCache[S, V]) pending() int {
	return len(c.dirty)
}

// record stores a deferred modification, nil raw marks the slot absent.
func (c *lazyCache[S, V]) record(slot S, raw []byte) {
	entry, known := c.entries[slot]
	if !known {
		entry = &cacheEntry{}
		c.entries[slot] = entry
	}
	entry.present, entry.raw = raw != nil, raw
	if !entry.dirty {
		entry.dirty = true
		c.dirty = append(c.dirty, slot)
	}
}

// encode returns an encoding of the value not shared with the caller.
func (c *lazyCache[S, V]) encode(key []byte, value V) ([]byte, error) {
	raw, err := c.codec.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value for key 0x%x: %w", key, err)
	}
	if raw == nil {
		return []byte{}, nil
	}
	return slices.Clone(raw), nil
}

// decode works on a copy of the given data, codecs may return values
// referencing their input.
func (c *lazyCache[S, V]) decode(key, data []byte) (V, error) {
	value, err := c.codec.Decode(slices.Clone(data))
	if err != nil {
		return value, &common.CodecError{Key: key, Err: err}
	}
	return value, nil
}
