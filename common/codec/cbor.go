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

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEncMode = mustEncMode(cbor.CoreDetEncOptions())
	cborDecMode = mustDecMode(cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	})
)

// CBOR encodes values using the core deterministic encoding of RFC 8949.
// Map keys are sorted and integers use their shortest form, which makes the
// produced bytes a function of the encoded value only.
type CBOR[T any] struct{}

func (CBOR[T]) Encode(value T) ([]byte, error) {
	data, err := cborEncMode.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to CBOR encode %T: %w", value, err)
	}
	return data, nil
}

func (CBOR[T]) Decode(data []byte) (T, error) {
	var value T
	if err := cborDecMode.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to CBOR decode %T: %w", value, err)
	}
	return value, nil
}

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("invalid CBOR encoding options: %v", err))
	}
	return mode
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	mode, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("invalid CBOR decoding options: %v", err))
	}
	return mode
}
