// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package collections provides persistent collection types for programs
// whose only durable state is a byte key/value storage offered by their host.
//
// Every collection is bound to a key prefix chosen by the caller and keeps
// all of its entries in the storage below this prefix. Instances only own a
// cache of the entries accessed during the current invocation; the data in
// the storage is the canonical state. Two live collections must never share
// a prefix, which is not checked.
//
// The following collections are provided:
//
//   - Vector: an indexed list supporting push, pop, replace and swap-remove
//   - LookupMap: a map addressed by the hash of keys, without iteration
//   - LookupSet: a set addressed by the hash of its elements, without iteration
//   - UnorderedMap: a map supporting iteration and size queries
//   - UnorderedSet: a set supporting iteration and size queries
//   - TreeMap: an AVL tree providing ordered iteration and range queries
//
// All collections except the TreeMap write modifications through to the
// storage immediately. The TreeMap buffers modified nodes and its root record
// until Flush is called.
//
// Collections are not safe for concurrent use.
package collections
