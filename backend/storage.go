// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package backend

//go:generate mockgen -source storage.go -destination storage_mocks.go -package backend

// Storage is the byte-oriented key/value interface offered by the host to a
// program. It is the only source of durability available to collections.
// Implementations are not required to be safe for concurrent use; a host
// serializes all invocations operating on the same storage.
type Storage interface {
	// Get returns the value stored for the given key. If no value is
	// stored, the boolean result is false.
	Get(key []byte) ([]byte, bool, error)

	// Set stores the value for the given key and returns the value stored
	// before, if there was one.
	Set(key, value []byte) ([]byte, bool, error)

	// Remove deletes the value of the given key and returns the deleted
	// value, if there was one.
	Remove(key []byte) ([]byte, bool, error)

	// Contains checks whether a value is stored for the given key.
	Contains(key []byte) (bool, error)
}

// Committer is implemented by storages buffering the modifications of a
// single invocation. Commit makes buffered modifications durable, Abort
// discards them. Both end the current invocation; a new one starts with the
// next modification.
type Committer interface {
	Commit() error
	Abort()
}
