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

import (
	"bytes"

	"golang.org/x/exp/constraints"
)

// Comparator defines a total order on values of type K. Compare returns a
// negative number if a < b, zero if a == b and a positive number if a > b.
type Comparator[K any] interface {
	Compare(a, b *K) int
}

// OrderedComparator compares values of types supporting the built-in order operators.
type OrderedComparator[K constraints.Ordered] struct{}

func (OrderedComparator[K]) Compare(a, b *K) int {
	if *a < *b {
		return -1
	}
	if *a > *b {
		return 1
	}
	return 0
}

// BytesComparator orders byte slices lexicographically.
type BytesComparator struct{}

func (BytesComparator) Compare(a, b *[]byte) int {
	return bytes.Compare(*a, *b)
}
