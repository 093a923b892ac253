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
	"errors"
	"fmt"
	"testing"
)

func TestConstError_CanBeUsedAsConstant(t *testing.T) {
	const myErr = ConstError("my error")
	if got, want := myErr.Error(), "my error"; got != want {
		t.Errorf("unexpected message, wanted %s, got %s", want, got)
	}
	wrapped := fmt.Errorf("context: %w", ErrIndexOutOfRange)
	if !errors.Is(wrapped, ErrIndexOutOfRange) {
		t.Errorf("wrapped error not detected")
	}
	if errors.Is(wrapped, ErrEmptyCollection) {
		t.Errorf("wrapped error matches wrong constant")
	}
}

func TestCodecError_MatchesErrCodecAndUnwrapsCause(t *testing.T) {
	cause := errors.New("bad input")
	var err error = &CodecError{Key: []byte{1, 2}, Err: cause}
	err = fmt.Errorf("failed to read element: %w", err)

	if !errors.Is(err, ErrCodec) {
		t.Errorf("codec error should match ErrCodec")
	}
	if !errors.Is(err, cause) {
		t.Errorf("codec error should unwrap to its cause")
	}
	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("failed to extract codec error")
	}
	if got, want := codecErr.Error(), "failed to decode value stored at 0x0102: bad input"; got != want {
		t.Errorf("unexpected message, wanted %q, got %q", want, got)
	}
}

func TestKeccak256_ProducesKnownHashes(t *testing.T) {
	tests := map[string]string{
		"":    "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		"abc": "0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
	}
	for input, want := range tests {
		if got := Keccak256([]byte(input)).String(); got != want {
			t.Errorf("unexpected hash for %q, wanted %s, got %s", input, want, got)
		}
	}
}

func TestKeccak256_DifferentInputsProduceDifferentHashes(t *testing.T) {
	seen := map[Hash]int{}
	for i := 0; i < 1000; i++ {
		hash := Keccak256([]byte(fmt.Sprintf("%d", i)))
		if j, found := seen[hash]; found {
			t.Fatalf("collision between %d and %d", i, j)
		}
		seen[hash] = i
	}
}

func TestOrderedComparator_Compare(t *testing.T) {
	cmp := OrderedComparator[int]{}
	tests := []struct {
		a, b int
		want int
	}{
		{1, 2, -1},
		{2, 1, 1},
		{3, 3, 0},
		{-5, 0, -1},
	}
	for _, test := range tests {
		if got := cmp.Compare(&test.a, &test.b); got != test.want {
			t.Errorf("Compare(%d,%d) = %d, wanted %d", test.a, test.b, got, test.want)
		}
	}
}

func TestBytesComparator_Compare(t *testing.T) {
	cmp := BytesComparator{}
	a, b := []byte{1, 2}, []byte{1, 2, 0}
	if cmp.Compare(&a, &b) >= 0 {
		t.Errorf("prefix should be smaller")
	}
	if cmp.Compare(&b, &a) <= 0 {
		t.Errorf("longer should be bigger")
	}
	if cmp.Compare(&a, &a) != 0 {
		t.Errorf("equal slices should compare equal")
	}
}
