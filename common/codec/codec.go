// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package codec provides the byte encodings used by collections to turn
// typed values into storage values and back.
//
// Every codec has to be deterministic, equal values must produce equal bytes,
// and has to reject inputs carrying trailing bytes, so that a decoded value
// always accounts for the full stored byte sequence.
package codec

// Codec converts values of type T to bytes and back.
type Codec[T any] interface {
	// Encode produces the byte representation of the given value.
	Encode(value T) ([]byte, error)
	// Decode parses a byte representation produced by Encode. Inputs not
	// produced by Encode for a value of type T are rejected with an error.
	Decode(data []byte) (T, error)
}
