// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import "fmt"

// CodecError reports that bytes read from the storage could not be decoded
// into the type expected by a collection. It is never a recoverable
// condition: either the storage got corrupted or the data was written
// using a different schema.
type CodecError struct {
	Key []byte // < the storage key the bytes were read from, may be nil
	Err error  // < the error reported by the codec
}

func (e *CodecError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("failed to decode value: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode value stored at 0x%x: %v", e.Key, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// Is makes every CodecError match ErrCodec.
func (e *CodecError) Is(target error) bool {
	return target == ErrCodec
}
