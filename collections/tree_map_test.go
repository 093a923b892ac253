// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package collections

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/Fantom-foundation/Trove/backend"
	"github.com/Fantom-foundation/Trove/backend/memory"
	"github.com/Fantom-foundation/Trove/common"
	"github.com/Fantom-foundation/Trove/common/codec"
	"go.uber.org/mock/gomock"
)

func newUintTree(storage backend.Storage) *TreeMap[uint64, string] {
	return NewTreeMap[uint64, string](storage, []byte("t"), common.OrderedComparator[uint64]{}, codec.Uint64{}, codec.RLP[string]{})
}

func insertKeys(t *testing.T, tree *TreeMap[uint64, string], keys ...uint64) {
	t.Helper()
	for _, key := range keys {
		if _, _, err := tree.Insert(key, fmt.Sprintf("%d", key)); err != nil {
			t.Fatalf("failed to insert %d: %v", key, err)
		}
		if err := tree.check(); err != nil {
			t.Fatalf("invalid tree after inserting %d: %v", key, err)
		}
	}
}

func treeKeys[V any](t *testing.T, it Iterator[Entry[uint64, V]]) []uint64 {
	t.Helper()
	entries, err := Collect[Entry[uint64, V]](it)
	if err != nil {
		t.Fatalf("failed to iterate: %v", err)
	}
	keys := make([]uint64, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, entry.Key)
	}
	return keys
}

func TestTreeMap_MinMaxAndOrder(t *testing.T) {
	tree := newUintTree(memory.NewStorage())
	insertKeys(t, tree, 5, 3, 8, 1, 4)
	if min, found, err := tree.Min(); err != nil || !found || min != 1 {
		t.Errorf("unexpected min, wanted 1, got %d, %t, err %v", min, found, err)
	}
	if max, found, err := tree.Max(); err != nil || !found || max != 8 {
		t.Errorf("unexpected max, wanted 8, got %d, %t, err %v", max, found, err)
	}
	common.AssertArraysEqual(t, []uint64{1, 3, 4, 5, 8}, treeKeys(t, tree.Iter()))
	common.AssertArraysEqual(t, []uint64{8, 5, 4, 3, 1}, treeKeys(t, tree.IterRev()))
}

func TestTreeMap_EmptyTree(t *testing.T) {
	tree := newUintTree(memory.NewStorage())
	if _, found, err := tree.Min(); err != nil || found {
		t.Errorf("empty tree should have no min, got %t, err %v", found, err)
	}
	if _, found, err := tree.Max(); err != nil || found {
		t.Errorf("empty tree should have no max, got %t, err %v", found, err)
	}
	if _, found, err := tree.Floor(3); err != nil || found {
		t.Errorf("empty tree should have no floor, got %t, err %v", found, err)
	}
	if _, found, err := tree.Remove(3); err != nil || found {
		t.Errorf("removing from empty tree should find nothing, got %t, err %v", found, err)
	}
	if empty, err := tree.IsEmpty(); err != nil || !empty {
		t.Errorf("tree should be empty, got %t, err %v", empty, err)
	}
	if keys := treeKeys(t, tree.Iter()); len(keys) != 0 {
		t.Errorf("empty tree should not list keys, got %v", keys)
	}
}

func TestTreeMap_InsertReportsPreviousValue(t *testing.T) {
	tree := newUintTree(memory.NewStorage())
	if _, found, err := tree.Insert(1, "a"); err != nil || found {
		t.Errorf("fresh insert should not report a previous value, got %t, err %v", found, err)
	}
	previous, found, err := tree.Insert(1, "b")
	if err != nil || !found || previous != "a" {
		t.Errorf("unexpected previous value, wanted a, got %s, %t, err %v", previous, found, err)
	}
	if value, found, err := tree.Get(1); err != nil || !found || value != "b" {
		t.Errorf("unexpected value, wanted b, got %s, %t, err %v", value, found, err)
	}
	if length, err := tree.Len(); err != nil || length != 1 {
		t.Errorf("unexpected length, wanted 1, got %d, err %v", length, err)
	}
}

func TestTreeMap_SequentialInsertsStayBalanced(t *testing.T) {
	tree := newUintTree(memory.NewStorage())
	const N = 1000
	for i := uint64(0); i < N; i++ {
		if _, _, err := tree.Insert(i, ""); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}
	}
	if err := tree.check(); err != nil {
		t.Fatalf("invalid tree: %v", err)
	}
	root, err := tree.node(tree.meta.root)
	if err != nil {
		t.Fatalf("failed to load root: %v", err)
	}
	// an AVL tree with 1000 nodes is at most 1.44*log2(1000) high
	if root.Height > 14 {
		t.Errorf("tree too high, got %d", root.Height)
	}
}

func TestTreeMap_RemoveNodesWithChildren(t *testing.T) {
	tree := newUintTree(memory.NewStorage())
	insertKeys(t, tree, 50, 30, 70, 20, 40, 60, 80, 35, 45, 65)
	for _, key := range []uint64{30, 50, 70, 35, 20} {
		value, found, err := tree.Remove(key)
		if err != nil || !found || value != fmt.Sprintf("%d", key) {
			t.Fatalf("unexpected remove result for %d, got %s, %t, err %v", key, value, found, err)
		}
		if err := tree.check(); err != nil {
			t.Fatalf("invalid tree after removing %d: %v", key, err)
		}
		if found, err := tree.ContainsKey(key); err != nil || found {
			t.Errorf("removed key %d still present, err %v", key, err)
		}
	}
	common.AssertArraysEqual(t, []uint64{40, 45, 60, 65, 80}, treeKeys(t, tree.Iter()))
}

func TestTreeMap_NeighborQueries(t *testing.T) {
	tree := newUintTree(memory.NewStorage())
	insertKeys(t, tree, 10, 20, 30, 40)
	tests := []struct {
		name  string
		query func(uint64) (uint64, bool, error)
		key   uint64
		want  uint64
		found bool
	}{
		{"floor exact", tree.Floor, 20, 20, true},
		{"floor between", tree.Floor, 25, 20, true},
		{"floor below all", tree.Floor, 5, 0, false},
		{"ceiling exact", tree.Ceiling, 20, 20, true},
		{"ceiling between", tree.Ceiling, 25, 30, true},
		{"ceiling above all", tree.Ceiling, 45, 0, false},
		{"higher exact", tree.Higher, 20, 30, true},
		{"higher of max", tree.Higher, 40, 0, false},
		{"lower exact", tree.Lower, 20, 10, true},
		{"lower of min", tree.Lower, 10, 0, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, found, err := test.query(test.key)
			if err != nil || found != test.found || got != test.want {
				t.Errorf("wanted %d/%t, got %d/%t, err %v", test.want, test.found, got, found, err)
			}
		})
	}
}

func TestTreeMap_RangeIteration(t *testing.T) {
	tree := newUintTree(memory.NewStorage())
	insertKeys(t, tree, 1, 2, 3, 4, 5, 6, 7, 8)
	tests := []struct {
		lower, upper Bound[uint64]
		want         []uint64
	}{
		{Bound[uint64]{}, Bound[uint64]{}, []uint64{1, 2, 3, 4, 5, 6, 7, 8}},
		{Including[uint64](3), Including[uint64](5), []uint64{3, 4, 5}},
		{Excluding[uint64](3), Including[uint64](5), []uint64{4, 5}},
		{Including[uint64](3), Excluding[uint64](5), []uint64{3, 4}},
		{Excluding[uint64](3), Excluding[uint64](5), []uint64{4}},
		{Including[uint64](6), Bound[uint64]{}, []uint64{6, 7, 8}},
		{Bound[uint64]{}, Excluding[uint64](3), []uint64{1, 2}},
		{Including[uint64](4), Including[uint64](4), []uint64{4}},
		{Including[uint64](4), Excluding[uint64](4), []uint64{}},
		{Excluding[uint64](8), Bound[uint64]{}, []uint64{}},
		{Including[uint64](0), Including[uint64](100), []uint64{1, 2, 3, 4, 5, 6, 7, 8}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v..%v", test.lower, test.upper), func(t *testing.T) {
			it, err := tree.Range(test.lower, test.upper)
			if err != nil {
				t.Fatalf("failed to create range: %v", err)
			}
			common.AssertArraysEqual(t, test.want, treeKeys(t, it))
		})
	}
}

func TestTreeMap_InvalidRangesAreRejected(t *testing.T) {
	tree := newUintTree(memory.NewStorage())
	invalid := [][2]Bound[uint64]{
		{Including[uint64](5), Including[uint64](3)},
		{Excluding[uint64](5), Including[uint64](3)},
		{Including[uint64](5), Excluding[uint64](3)},
		{Excluding[uint64](5), Excluding[uint64](3)},
		{Excluding[uint64](4), Excluding[uint64](4)},
	}
	for _, bounds := range invalid {
		if _, err := tree.Range(bounds[0], bounds[1]); !errors.Is(err, common.ErrInvalidRange) {
			t.Errorf("expected invalid range for %v..%v, got %v", bounds[0], bounds[1], err)
		}
	}
}

func TestTreeMap_IterFromExcludesTheGivenKey(t *testing.T) {
	tree := newUintTree(memory.NewStorage())
	insertKeys(t, tree, 10, 20, 30, 40)
	common.AssertArraysEqual(t, []uint64{30, 40}, treeKeys(t, tree.IterFrom(20)))
	common.AssertArraysEqual(t, []uint64{20, 30, 40}, treeKeys(t, tree.IterFrom(15)))
	common.AssertArraysEqual(t, []uint64{10}, treeKeys(t, tree.IterRevFrom(20)))
	common.AssertArraysEqual(t, []uint64{40, 30, 20, 10}, treeKeys(t, tree.IterRevFrom(45)))
}

func TestTreeMap_MatchesReferenceSortedSlice(t *testing.T) {
	storage := memory.NewStorage()
	tree := newUintTree(storage)
	reference := map[uint64]string{}
	r := rand.New(rand.NewSource(99))
	for i := 0; i < 3000; i++ {
		key := uint64(r.Intn(300))
		want, wantFound := reference[key]
		if r.Intn(3) > 0 {
			value := fmt.Sprintf("v%d", i)
			got, found, err := tree.Insert(key, value)
			if err != nil || found != wantFound || got != want {
				t.Fatalf("unexpected insert result for %d, wanted %s/%t, got %s/%t, err %v", key, want, wantFound, got, found, err)
			}
			reference[key] = value
		} else {
			got, found, err := tree.Remove(key)
			if err != nil || found != wantFound || got != want {
				t.Fatalf("unexpected remove result for %d, wanted %s/%t, got %s/%t, err %v", key, want, wantFound, got, found, err)
			}
			delete(reference, key)
		}
		if err := tree.check(); err != nil {
			t.Fatalf("invalid tree after step %d: %v", i, err)
		}
	}

	sorted := make([]uint64, 0, len(reference))
	for key := range reference {
		sorted = append(sorted, key)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for probe := uint64(0); probe < 310; probe++ {
		pos := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= probe })
		wantCeiling, ceilingFound := uint64(0), pos < len(sorted)
		if ceilingFound {
			wantCeiling = sorted[pos]
		}
		if got, found, err := tree.Ceiling(probe); err != nil || found != ceilingFound || got != wantCeiling {
			t.Errorf("unexpected ceiling of %d, wanted %d/%t, got %d/%t, err %v", probe, wantCeiling, ceilingFound, got, found, err)
		}
		pos = sort.Search(len(sorted), func(i int) bool { return sorted[i] > probe })
		wantFloor, floorFound := uint64(0), pos > 0
		if floorFound {
			wantFloor = sorted[pos-1]
		}
		if got, found, err := tree.Floor(probe); err != nil || found != floorFound || got != wantFloor {
			t.Errorf("unexpected floor of %d, wanted %d/%t, got %d/%t, err %v", probe, wantFloor, floorFound, got, found, err)
		}
	}

	if err := tree.Flush(); err != nil {
		t.Fatalf("failed to flush: %v", err)
	}
	reopened := newUintTree(storage)
	if length, err := reopened.Len(); err != nil || length != uint64(len(reference)) {
		t.Errorf("unexpected length, wanted %d, got %d, err %v", len(reference), length, err)
	}
	entries, err := reopened.ToSlice()
	if err != nil {
		t.Fatalf("failed to iterate: %v", err)
	}
	if len(entries) != len(sorted) {
		t.Fatalf("unexpected number of entries, wanted %d, got %d", len(sorted), len(entries))
	}
	for i, entry := range entries {
		if entry.Key != sorted[i] || entry.Value != reference[entry.Key] {
			t.Errorf("unexpected entry at %d, wanted %d -> %s, got %v", i, sorted[i], reference[sorted[i]], entry)
		}
	}
	if err := reopened.check(); err != nil {
		t.Errorf("invalid reopened tree: %v", err)
	}
}

func TestTreeMap_WritesAreDeferredUntilFlush(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := backend.NewMockStorage(ctrl)
	keys := NewKeySpace([]byte("t"))
	storage.EXPECT().Get(keys.Meta(tagMeta)).Return(nil, false, nil)

	tree := newUintTree(storage)
	for _, key := range []uint64{1, 2, 3} {
		if _, _, err := tree.Insert(key, "x"); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}
	}
	if _, _, err := tree.Remove(2); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}

	// node 2 was the root before it got replaced by its successor, node 3
	gomock.InOrder(
		storage.EXPECT().Set(keys.Index(tagNode, 1), gomock.Any()),
		storage.EXPECT().Set(keys.Index(tagNode, 2), gomock.Any()),
		storage.EXPECT().Remove(keys.Index(tagNode, 3)),
		storage.EXPECT().Set(keys.Meta(tagMeta), encodeTreeMeta(treeMeta{root: 2, length: 2, nextId: 4})),
	)
	if err := tree.Flush(); err != nil {
		t.Fatalf("failed to flush: %v", err)
	}
	// a second flush has nothing to write
	if err := tree.Flush(); err != nil {
		t.Fatalf("failed to flush: %v", err)
	}
}

func TestTreeMap_ClearKeepsIssuedIds(t *testing.T) {
	storage := memory.NewStorage()
	tree := newUintTree(storage)
	insertKeys(t, tree, 1, 2, 3)
	if err := tree.Clear(); err != nil {
		t.Fatalf("failed to clear: %v", err)
	}
	if err := tree.Flush(); err != nil {
		t.Fatalf("failed to flush: %v", err)
	}
	if storage.Len() != 1 {
		t.Errorf("only the root record should remain, found %d entries", storage.Len())
	}
	insertKeys(t, tree, 7)
	if tree.meta.root != 4 {
		t.Errorf("ids should not be reused, got root id %d", tree.meta.root)
	}
}

func TestTreeMap_CorruptedNodeIsCodecError(t *testing.T) {
	storage := memory.NewStorage()
	tree := newUintTree(storage)
	insertKeys(t, tree, 1)
	if err := tree.Flush(); err != nil {
		t.Fatalf("failed to flush: %v", err)
	}
	keys := NewKeySpace([]byte("t"))
	storage.Set(keys.Index(tagNode, 1), []byte{1, 2, 3})

	if _, _, err := newUintTree(storage).Get(1); !errors.Is(err, common.ErrCodec) {
		t.Errorf("expected codec error, got %v", err)
	}
}

// check verifies the ordering, the heights, the balance and the length of
// the tree.
func (m *TreeMap[K, V]) check() error {
	if err := m.loadMeta(); err != nil {
		return err
	}
	count, _, err := m.checkNode(m.meta.root, nil, nil)
	if err != nil {
		return err
	}
	if count != m.meta.length {
		return fmt.Errorf("invalid length, recorded %d, counted %d", m.meta.length, count)
	}
	return nil
}

func (m *TreeMap[K, V]) checkNode(id uint64, lower, upper *K) (uint64, uint8, error) {
	if id == 0 {
		return 0, 0, nil
	}
	node, err := m.node(id)
	if err != nil {
		return 0, 0, err
	}
	if lower != nil && m.comparator.Compare(&node.Key, lower) <= 0 {
		return 0, 0, fmt.Errorf("node %d: key %v not above %v", id, node.Key, *lower)
	}
	if upper != nil && m.comparator.Compare(&node.Key, upper) >= 0 {
		return 0, 0, fmt.Errorf("node %d: key %v not below %v", id, node.Key, *upper)
	}
	leftCount, leftHeight, err := m.checkNode(node.Left, lower, &node.Key)
	if err != nil {
		return 0, 0, err
	}
	rightCount, rightHeight, err := m.checkNode(node.Right, &node.Key, upper)
	if err != nil {
		return 0, 0, err
	}
	if diff := int(leftHeight) - int(rightHeight); diff < -1 || diff > 1 {
		return 0, 0, fmt.Errorf("node %d: unbalanced, left height %d, right height %d", id, leftHeight, rightHeight)
	}
	if want := 1 + max(leftHeight, rightHeight); node.Height != want {
		return 0, 0, fmt.Errorf("node %d: invalid height, recorded %d, wanted %d", id, node.Height, want)
	}
	return leftCount + rightCount + 1, node.Height, nil
}

func newBytesTree(storage backend.Storage) *TreeMap[[]byte, []byte] {
	return NewTreeMap[[]byte, []byte](storage, []byte("b"), common.BytesComparator{}, codec.Bytes{}, codec.Bytes{})
}

func TestTreeMap_ModifyingReturnedOrInsertedSlicesDoesNotAffectTheTree(t *testing.T) {
	storage := memory.NewStorage()
	tree := newBytesTree(storage)
	key, value := []byte{10}, []byte{1}
	if _, _, err := tree.Insert(key, value); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	key[0], value[0] = 50, 5
	if _, _, err := tree.Insert([]byte{20}, []byte{2}); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	min, found, err := tree.Min()
	if err != nil || !found {
		t.Fatalf("failed to get min: %t, %v", found, err)
	}
	min[0] = 99
	got, found, err := tree.Get([]byte{10})
	if err != nil || !found {
		t.Fatalf("failed to get value: %t, %v", found, err)
	}
	got[0] = 77

	// the third insert rotates, rewriting the nodes holding the modified slices
	if _, _, err := tree.Insert([]byte{30}, []byte{3}); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	if err := tree.check(); err != nil {
		t.Fatalf("invalid tree: %v", err)
	}
	if err := tree.Flush(); err != nil {
		t.Fatalf("failed to flush: %v", err)
	}

	for _, instance := range []*TreeMap[[]byte, []byte]{tree, newBytesTree(storage)} {
		if err := instance.check(); err != nil {
			t.Errorf("invalid tree: %v", err)
		}
		entries, err := instance.ToSlice()
		if err != nil {
			t.Fatalf("failed to iterate: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("unexpected number of entries, wanted 3, got %d", len(entries))
		}
		for i, want := range []byte{10, 20, 30} {
			if !bytes.Equal(entries[i].Key, []byte{want}) || !bytes.Equal(entries[i].Value, []byte{want / 10}) {
				t.Errorf("unexpected entry at %d, got %v", i, entries[i])
			}
		}
		if value, found, err := instance.Get([]byte{10}); err != nil || !found || !bytes.Equal(value, []byte{1}) {
			t.Errorf("unexpected value of key 10, got %v, %t, err %v", value, found, err)
		}
	}
}
