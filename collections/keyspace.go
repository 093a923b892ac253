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

	"github.com/Fantom-foundation/Trove/common"
)

// KeySpace derives storage keys for the entries of a collection from the
// collection's prefix. Keys have the form prefix ++ tag ++ payload, where
// each tag is used with payloads of a single fixed width. Thus, distinct
// (tag, payload) pairs never produce the same key within one prefix.
type KeySpace struct {
	prefix []byte
}

// NewKeySpace creates a key space for the given prefix. The prefix is copied.
func NewKeySpace(prefix []byte) KeySpace {
	return KeySpace{prefix: append([]byte{}, prefix...)}
}

// Prefix returns a copy of the prefix of this key space.
func (k KeySpace) Prefix() []byte {
	return append([]byte{}, k.prefix...)
}

// Sub derives the key space of a nested collection.
func (k KeySpace) Sub(tag byte) KeySpace {
	return KeySpace{prefix: k.Meta(tag)}
}

// Meta returns the key of a single per-collection value, like a length.
func (k KeySpace) Meta(tag byte) []byte {
	key := make([]byte, 0, len(k.prefix)+1)
	key = append(key, k.prefix...)
	return append(key, tag)
}

// Index returns the key of an entry addressed by an integer position.
func (k KeySpace) Index(tag byte, index uint64) []byte {
	key := make([]byte, 0, len(k.prefix)+9)
	key = append(key, k.prefix...)
	key = append(key, tag)
	return binary.LittleEndian.AppendUint64(key, index)
}

// Hash returns the key of an entry addressed by a content hash.
func (k KeySpace) Hash(tag byte, hash common.Hash) []byte {
	key := make([]byte, 0, len(k.prefix)+1+len(hash))
	key = append(key, k.prefix...)
	key = append(key, tag)
	return append(key, hash[:]...)
}

// Tags used by the collections of this package. Nested collections get their
// own key space through Sub, so tags only need to be unique per collection type.
const (
	tagLength  = 'l'
	tagElement = 'e'
	tagBucket  = 'h'
	tagIndex   = 'i'
	tagKeys    = 'k'
	tagMeta    = 'm'
	tagNode    = 'n'
)
