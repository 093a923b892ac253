// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"bytes"
	"testing"

	"github.com/Fantom-foundation/Trove/backend"
)

func TestStorage_ImplementsInterfaces(t *testing.T) {
	var _ backend.Storage = NewStorage()
	var _ backend.Committer = NewStorage()
}

func TestStorage_SetGetRemove(t *testing.T) {
	storage := NewStorage()
	if _, found, _ := storage.Get([]byte{1}); found {
		t.Fatalf("empty storage should not contain keys")
	}
	if _, found, _ := storage.Set([]byte{1}, []byte{10}); found {
		t.Fatalf("no previous value expected")
	}
	prev, found, _ := storage.Set([]byte{1}, []byte{11})
	if !found || !bytes.Equal(prev, []byte{10}) {
		t.Fatalf("unexpected previous value %v", prev)
	}
	value, found, _ := storage.Get([]byte{1})
	if !found || !bytes.Equal(value, []byte{11}) {
		t.Fatalf("unexpected value %v", value)
	}
	prev, found, _ = storage.Remove([]byte{1})
	if !found || !bytes.Equal(prev, []byte{11}) {
		t.Fatalf("unexpected removed value %v", prev)
	}
	if contains, _ := storage.Contains([]byte{1}); contains {
		t.Fatalf("removed key should not be contained")
	}
}

func TestStorage_ReturnedValuesAreCopies(t *testing.T) {
	storage := NewStorage()
	value := []byte{1, 2, 3}
	storage.Set([]byte("k"), value)
	value[0] = 9
	got, _, _ := storage.Get([]byte("k"))
	if got[0] != 1 {
		t.Errorf("stored value was modified through input slice")
	}
	got[1] = 9
	again, _, _ := storage.Get([]byte("k"))
	if again[1] != 2 {
		t.Errorf("stored value was modified through result slice")
	}
}

func TestStorage_AbortRestoresLastCommit(t *testing.T) {
	storage := NewStorage()
	storage.Set([]byte("a"), []byte{1})
	storage.Set([]byte("b"), []byte{2})
	if err := storage.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	storage.Set([]byte("a"), []byte{3})
	storage.Remove([]byte("b"))
	storage.Set([]byte("c"), []byte{4})
	storage.Set([]byte("c"), []byte{5})
	storage.Abort()

	if got, want := storage.Len(), 2; got != want {
		t.Fatalf("unexpected number of keys, wanted %d, got %d", want, got)
	}
	if value, _, _ := storage.Get([]byte("a")); !bytes.Equal(value, []byte{1}) {
		t.Errorf("unexpected value of a: %v", value)
	}
	if value, _, _ := storage.Get([]byte("b")); !bytes.Equal(value, []byte{2}) {
		t.Errorf("unexpected value of b: %v", value)
	}
	if contains, _ := storage.Contains([]byte("c")); contains {
		t.Errorf("c should have been removed by abort")
	}
}

func TestStorage_KeysAreSorted(t *testing.T) {
	storage := NewStorage()
	for _, key := range []string{"c", "a", "b"} {
		storage.Set([]byte(key), nil)
	}
	keys := storage.Keys()
	if len(keys) != 3 || string(keys[0]) != "a" || string(keys[1]) != "b" || string(keys[2]) != "c" {
		t.Errorf("unexpected keys: %q", keys)
	}
}
