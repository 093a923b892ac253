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
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// RLP encodes values using Ethereum's recursive length prefix encoding. It
// supports unsigned integers, booleans, strings, byte slices and arrays, big
// integers as well as structs and slices composed of those. Signed integers
// and maps are not supported, use CBOR for those.
type RLP[T any] struct{}

func (RLP[T]) Encode(value T) ([]byte, error) {
	data, err := rlp.EncodeToBytes(value)
	if err != nil {
		return nil, fmt.Errorf("failed to RLP encode %T: %w", value, err)
	}
	return data, nil
}

func (RLP[T]) Decode(data []byte) (T, error) {
	var value T
	if err := rlp.DecodeBytes(data, &value); err != nil {
		return value, fmt.Errorf("failed to RLP decode %T: %w", value, err)
	}
	return value, nil
}
