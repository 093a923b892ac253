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

// ConstError is a error type that can be used to define immutable
// error constants.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

const (
	// ErrIndexOutOfRange is reported when a position at or beyond the length
	// of an indexed collection is accessed.
	ErrIndexOutOfRange = ConstError("index out of range")

	// ErrEmptyCollection is reported when an element is taken from an empty collection.
	ErrEmptyCollection = ConstError("collection is empty")

	// ErrInconsistentState is reported when persisted data of a collection
	// references an entry the storage does not contain. This indicates that a
	// previous invocation wrote a partial state or that two collections share
	// a key prefix.
	ErrInconsistentState = ConstError("collection is in an inconsistent state")

	// ErrInvalidRange is reported for ranges whose lower bound is above their upper bound.
	ErrInvalidRange = ConstError("invalid range")

	// ErrCodec is the error all CodecErrors are matching via errors.Is.
	ErrCodec = ConstError("codec failure")
)
