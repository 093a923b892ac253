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

import "fmt"

// BoundKind defines how a Bound limits a key range.
type BoundKind uint8

const (
	Unbounded BoundKind = iota
	Inclusive
	Exclusive
)

// Bound is one end of a key range. The zero value is unbounded.
type Bound[K any] struct {
	Kind BoundKind
	Key  K
}

// Including creates a bound that includes the given key.
func Including[K any](key K) Bound[K] {
	return Bound[K]{Kind: Inclusive, Key: key}
}

// Excluding creates a bound that excludes the given key.
func Excluding[K any](key K) Bound[K] {
	return Bound[K]{Kind: Exclusive, Key: key}
}

func (b Bound[K]) String() string {
	switch b.Kind {
	case Inclusive:
		return fmt.Sprintf("[%v]", b.Key)
	case Exclusive:
		return fmt.Sprintf("(%v)", b.Key)
	}
	return "unbounded"
}

// treeIterator walks a TreeMap in key order using a stack of node ids. The
// stack holds the nodes whose entry has not been visited yet while their
// subtree towards the iteration direction has.
type treeIterator[K any, V any] struct {
	tree       *TreeMap[K, V]
	lower      Bound[K]
	upper      Bound[K]
	descending bool
	stack      []uint64
	started    bool
	done       bool
	current    Entry[K, V]
	err        error
}

func (m *TreeMap[K, V]) newIterator(lower, upper Bound[K], descending bool) *treeIterator[K, V] {
	return &treeIterator[K, V]{
		tree:       m,
		lower:      lower,
		upper:      upper,
		descending: descending,
	}
}

func (it *treeIterator[K, V]) Next() bool {
	if it.err != nil || it.done {
		return false
	}
	if !it.started {
		it.started = true
		if it.err = it.seek(); it.err != nil {
			return false
		}
	}
	if len(it.stack) == 0 {
		it.done = true
		return false
	}
	id := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	node, err := it.tree.node(id)
	if err != nil {
		it.err = err
		return false
	}
	if !it.withinEnd(&node.Key) {
		it.stack = nil
		it.done = true
		return false
	}
	it.current = Entry[K, V]{Key: node.Key, Value: node.Value}
	next := node.Right
	if it.descending {
		next = node.Left
	}
	if it.err = it.descend(next); it.err != nil {
		return false
	}
	return true
}

func (it *treeIterator[K, V]) Value() Entry[K, V] {
	return it.current
}

func (it *treeIterator[K, V]) Err() error {
	return it.err
}

// seek fills the stack with the path to the first entry within the start
// bound, keeping only nodes within that bound.
func (it *treeIterator[K, V]) seek() error {
	if err := it.tree.loadMeta(); err != nil {
		return err
	}
	for id := it.tree.meta.root; id != 0; {
		node, err := it.tree.node(id)
		if err != nil {
			return err
		}
		if it.withinStart(&node.Key) {
			it.stack = append(it.stack, id)
			id = it.towardsStart(node)
		} else {
			id = it.towardsEnd(node)
		}
	}
	return nil
}

// descend pushes the path from the given node towards the start of the
// iteration onto the stack.
func (it *treeIterator[K, V]) descend(id uint64) error {
	for id != 0 {
		node, err := it.tree.node(id)
		if err != nil {
			return err
		}
		it.stack = append(it.stack, id)
		id = it.towardsStart(node)
	}
	return nil
}

func (it *treeIterator[K, V]) towardsStart(node treeNode[K, V]) uint64 {
	if it.descending {
		return node.Right
	}
	return node.Left
}

func (it *treeIterator[K, V]) towardsEnd(node treeNode[K, V]) uint64 {
	if it.descending {
		return node.Left
	}
	return node.Right
}

func (it *treeIterator[K, V]) withinStart(key *K) bool {
	if it.descending {
		return it.belowUpper(key)
	}
	return it.aboveLower(key)
}

func (it *treeIterator[K, V]) withinEnd(key *K) bool {
	if it.descending {
		return it.aboveLower(key)
	}
	return it.belowUpper(key)
}

func (it *treeIterator[K, V]) aboveLower(key *K) bool {
	switch it.lower.Kind {
	case Inclusive:
		return it.tree.comparator.Compare(key, &it.lower.Key) >= 0
	case Exclusive:
		return it.tree.comparator.Compare(key, &it.lower.Key) > 0
	}
	return true
}

func (it *treeIterator[K, V]) belowUpper(key *K) bool {
	switch it.upper.Kind {
	case Inclusive:
		return it.tree.comparator.Compare(key, &it.upper.Key) <= 0
	case Exclusive:
		return it.tree.comparator.Compare(key, &it.upper.Key) < 0
	}
	return true
}
