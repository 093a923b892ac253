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

	"github.com/Fantom-foundation/Trove/common/codec"
)

// treeNode is a single node of a TreeMap. Children are referenced by id,
// 0 marks a missing child.
type treeNode[K any, V any] struct {
	Key    K
	Value  V
	Left   uint64
	Right  uint64
	Height uint8 // < 1 for leaves
}

// treeNodeCodec encodes nodes as the left and right ids (8 bytes little-endian
// each), the height, the length of the encoded key as uvarint, the encoded
// key and the encoded value.
type treeNodeCodec[K any, V any] struct {
	key   codec.Codec[K]
	value codec.Codec[V]
}

func (c treeNodeCodec[K, V]) Encode(node treeNode[K, V]) ([]byte, error) {
	key, err := c.key.Encode(node.Key)
	if err != nil {
		return nil, err
	}
	value, err := c.value.Encode(node.Value)
	if err != nil {
		return nil, err
	}
	res := make([]byte, 0, 17+binary.MaxVarintLen64+len(key)+len(value))
	res = binary.LittleEndian.AppendUint64(res, node.Left)
	res = binary.LittleEndian.AppendUint64(res, node.Right)
	res = append(res, node.Height)
	res = binary.AppendUvarint(res, uint64(len(key)))
	res = append(res, key...)
	return append(res, value...), nil
}

func (c treeNodeCodec[K, V]) Decode(data []byte) (treeNode[K, V], error) {
	var node treeNode[K, V]
	if len(data) < 17 {
		return node, fmt.Errorf("tree node too short, got %d bytes", len(data))
	}
	node.Left = binary.LittleEndian.Uint64(data[0:8])
	node.Right = binary.LittleEndian.Uint64(data[8:16])
	node.Height = data[16]
	if node.Height == 0 {
		return node, fmt.Errorf("invalid tree node height 0")
	}
	keyLength, n := binary.Uvarint(data[17:])
	if n <= 0 || keyLength > uint64(len(data)-17-n) {
		return node, fmt.Errorf("invalid key length in tree node")
	}
	rest := data[17+n:]
	var err error
	if node.Key, err = c.key.Decode(rest[:keyLength]); err != nil {
		return node, err
	}
	if node.Value, err = c.value.Decode(rest[keyLength:]); err != nil {
		return node, err
	}
	return node, nil
}
