// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package codec

import (
	"encoding/binary"
	"fmt"
)

// Uint64 encodes integers as fixed 8-byte little-endian values.
type Uint64 struct{}

func (Uint64) Encode(value uint64) ([]byte, error) {
	return binary.LittleEndian.AppendUint64(make([]byte, 0, 8), value), nil
}

func (Uint64) Decode(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid length of encoded uint64, wanted 8, got %d", len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

// Bytes is the identity codec for raw byte values.
type Bytes struct{}

func (Bytes) Encode(value []byte) ([]byte, error) {
	return value, nil
}

func (Bytes) Decode(data []byte) ([]byte, error) {
	return data, nil
}

// Unit encodes the empty struct as an empty byte sequence. It is used by
// set-like collections to store presence only.
type Unit struct{}

func (Unit) Encode(struct{}) ([]byte, error) {
	return []byte{}, nil
}

func (Unit) Decode(data []byte) (struct{}, error) {
	if len(data) != 0 {
		return struct{}{}, fmt.Errorf("invalid encoding of unit value, wanted no bytes, got %d", len(data))
	}
	return struct{}{}, nil
}
