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
	"encoding/binary"
	"fmt"

	"github.com/Fantom-foundation/Trove/backend"
	"github.com/Fantom-foundation/Trove/common"
	"github.com/Fantom-foundation/Trove/common/codec"
)

// TreeMap is an ordered map implemented as an AVL tree. Nodes are stored
// individually under their id and refer to their children by id. Modified
// nodes are kept in memory until Flush is called.
type TreeMap[K any, V any] struct {
	keys       KeySpace
	storage    backend.Storage
	comparator common.Comparator[K]
	nodes      *lazyCache[uint64, treeNode[K, V]]
	meta       treeMeta
	loaded     bool
	metaDirty  bool
}

// treeMeta is the persisted root record of a tree.
type treeMeta struct {
	root   uint64
	length uint64
	nextId uint64 // < ids are never reused, 0 is the nil id
}

// NewTreeMap creates an ordered map bound to the given prefix. Keys are
// ordered by the given comparator.
func NewTreeMap[K any, V any](
	storage backend.Storage,
	prefix []byte,
	comparator common.Comparator[K],
	keyCodec codec.Codec[K],
	valueCodec codec.Codec[V],
) *TreeMap[K, V] {
	keys := NewKeySpace(prefix)
	return &TreeMap[K, V]{
		keys:       keys,
		storage:    storage,
		comparator: comparator,
		nodes: newLazyCache[uint64, treeNode[K, V]](storage, treeNodeCodec[K, V]{keyCodec, valueCodec}, func(id uint64) []byte {
			return keys.Index(tagNode, id)
		}, true),
	}
}

func (m *TreeMap[K, V]) Len() (uint64, error) {
	if err := m.loadMeta(); err != nil {
		return 0, err
	}
	return m.meta.length, nil
}

func (m *TreeMap[K, V]) IsEmpty() (bool, error) {
	length, err := m.Len()
	return length == 0, err
}

// Get returns the value associated to the given key.
func (m *TreeMap[K, V]) Get(key K) (V, bool, error) {
	var zero V
	id, err := m.find(key)
	if err != nil || id == 0 {
		return zero, false, err
	}
	node, err := m.node(id)
	if err != nil {
		return zero, false, err
	}
	return node.Value, true, nil
}

func (m *TreeMap[K, V]) ContainsKey(key K) (bool, error) {
	id, err := m.find(key)
	return id != 0, err
}

// Insert associates the value to the key and returns the previous value,
// if there was one.
func (m *TreeMap[K, V]) Insert(key K, value V) (V, bool, error) {
	var zero V
	if err := m.loadMeta(); err != nil {
		return zero, false, err
	}

	path := []uint64{}
	for id := m.meta.root; id != 0; {
		node, err := m.node(id)
		if err != nil {
			return zero, false, err
		}
		c := m.comparator.Compare(&key, &node.Key)
		if c == 0 {
			node.Value = value
			previous, _, err := m.nodes.set(id, node)
			if err != nil {
				return zero, false, err
			}
			return previous.Value, true, nil
		}
		path = append(path, id)
		if c < 0 {
			id = node.Left
		} else {
			id = node.Right
		}
	}

	id := m.meta.nextId
	if err := m.setNode(id, treeNode[K, V]{Key: key, Value: value, Height: 1}); err != nil {
		return zero, false, err
	}
	if len(path) == 0 {
		m.meta.root = id
	} else {
		parentId := path[len(path)-1]
		parent, err := m.node(parentId)
		if err != nil {
			return zero, false, err
		}
		if m.comparator.Compare(&key, &parent.Key) < 0 {
			parent.Left = id
		} else {
			parent.Right = id
		}
		if err := m.setNode(parentId, parent); err != nil {
			return zero, false, err
		}
	}
	m.meta.nextId++
	m.meta.length++
	m.metaDirty = true
	return zero, false, m.rebalancePath(path)
}

// Remove deletes the key and returns the value associated to it. A node
// with two children takes the entry of its in-order successor, which is
// removed instead.
func (m *TreeMap[K, V]) Remove(key K) (V, bool, error) {
	var zero V
	if err := m.loadMeta(); err != nil {
		return zero, false, err
	}

	path := []uint64{}
	id := m.meta.root
	var target treeNode[K, V]
	for id != 0 {
		node, err := m.node(id)
		if err != nil {
			return zero, false, err
		}
		c := m.comparator.Compare(&key, &node.Key)
		if c == 0 {
			target = node
			break
		}
		path = append(path, id)
		if c < 0 {
			id = node.Left
		} else {
			id = node.Right
		}
	}
	if id == 0 {
		return zero, false, nil
	}

	if target.Left != 0 && target.Right != 0 {
		path = append(path, id)
		successorId := target.Right
		successor, err := m.node(successorId)
		if err != nil {
			return zero, false, err
		}
		for successor.Left != 0 {
			path = append(path, successorId)
			successorId = successor.Left
			if successor, err = m.node(successorId); err != nil {
				return zero, false, err
			}
		}
		if err := m.replaceChild(path, successorId, successor.Right); err != nil {
			return zero, false, err
		}
		// the successor's parent may be the target itself, so reload it
		node, err := m.node(id)
		if err != nil {
			return zero, false, err
		}
		node.Key, node.Value = successor.Key, successor.Value
		if err := m.setNode(id, node); err != nil {
			return zero, false, err
		}
		if _, _, err := m.nodes.remove(successorId); err != nil {
			return zero, false, err
		}
	} else {
		child := target.Left
		if child == 0 {
			child = target.Right
		}
		if err := m.replaceChild(path, id, child); err != nil {
			return zero, false, err
		}
		if _, _, err := m.nodes.remove(id); err != nil {
			return zero, false, err
		}
	}
	m.meta.length--
	m.metaDirty = true
	return target.Value, true, m.rebalancePath(path)
}

// Min returns the smallest key of the map.
func (m *TreeMap[K, V]) Min() (K, bool, error) {
	return m.outermost(false)
}

// Max returns the largest key of the map.
func (m *TreeMap[K, V]) Max() (K, bool, error) {
	return m.outermost(true)
}

// Floor returns the largest key less than or equal to the given key.
func (m *TreeMap[K, V]) Floor(key K) (K, bool, error) {
	return m.neighbor(key, true, false)
}

// Ceiling returns the smallest key greater than or equal to the given key.
func (m *TreeMap[K, V]) Ceiling(key K) (K, bool, error) {
	return m.neighbor(key, true, true)
}

// Higher returns the smallest key strictly greater than the given key.
func (m *TreeMap[K, V]) Higher(key K) (K, bool, error) {
	return m.neighbor(key, false, true)
}

// Lower returns the largest key strictly less than the given key.
func (m *TreeMap[K, V]) Lower(key K) (K, bool, error) {
	return m.neighbor(key, false, false)
}

// Iter returns an iterator over all entries in ascending key order.
func (m *TreeMap[K, V]) Iter() Iterator[Entry[K, V]] {
	return m.newIterator(Bound[K]{}, Bound[K]{}, false)
}

// IterRev returns an iterator over all entries in descending key order.
func (m *TreeMap[K, V]) IterRev() Iterator[Entry[K, V]] {
	return m.newIterator(Bound[K]{}, Bound[K]{}, true)
}

// IterFrom iterates in ascending order over the entries with keys greater
// than the given key.
func (m *TreeMap[K, V]) IterFrom(key K) Iterator[Entry[K, V]] {
	return m.newIterator(Excluding(key), Bound[K]{}, false)
}

// IterRevFrom iterates in descending order over the entries with keys
// less than the given key.
func (m *TreeMap[K, V]) IterRevFrom(key K) Iterator[Entry[K, V]] {
	return m.newIterator(Bound[K]{}, Excluding(key), true)
}

// Range iterates in ascending order over the entries with keys between the
// given bounds. It fails with ErrInvalidRange if the lower bound is above
// the upper bound, or both are the same excluded key.
func (m *TreeMap[K, V]) Range(lower, upper Bound[K]) (Iterator[Entry[K, V]], error) {
	if lower.Kind != Unbounded && upper.Kind != Unbounded {
		c := m.comparator.Compare(&lower.Key, &upper.Key)
		if c > 0 || (c == 0 && lower.Kind == Exclusive && upper.Kind == Exclusive) {
			return nil, fmt.Errorf("%w: lower bound %v above upper bound %v", common.ErrInvalidRange, lower, upper)
		}
	}
	return m.newIterator(lower, upper, false), nil
}

func (m *TreeMap[K, V]) ToSlice() ([]Entry[K, V], error) {
	return Collect[Entry[K, V]](m.Iter())
}

// Clear removes all nodes. Ids issued so far remain consumed.
func (m *TreeMap[K, V]) Clear() error {
	if err := m.loadMeta(); err != nil {
		return err
	}
	stack := []uint64{}
	if m.meta.root != 0 {
		stack = append(stack, m.meta.root)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node, err := m.node(id)
		if err != nil {
			return err
		}
		for _, child := range []uint64{node.Left, node.Right} {
			if child != 0 {
				stack = append(stack, child)
			}
		}
		if _, _, err := m.nodes.remove(id); err != nil {
			return err
		}
	}
	m.meta.root, m.meta.length = 0, 0
	m.metaDirty = true
	return nil
}

// Flush writes all modified nodes and the root record to the storage.
func (m *TreeMap[K, V]) Flush() error {
	if err := m.nodes.flush(); err != nil {
		return err
	}
	if !m.metaDirty {
		return nil
	}
	if _, _, err := m.storage.Set(m.keys.Meta(tagMeta), encodeTreeMeta(m.meta)); err != nil {
		return err
	}
	m.metaDirty = false
	return nil
}

func (m *TreeMap[K, V]) loadMeta() error {
	if m.loaded {
		return nil
	}
	key := m.keys.Meta(tagMeta)
	data, found, err := m.storage.Get(key)
	if err != nil {
		return err
	}
	m.meta = treeMeta{nextId: 1}
	if found {
		if m.meta, err = decodeTreeMeta(data); err != nil {
			return &common.CodecError{Key: key, Err: err}
		}
	}
	m.loaded = true
	return nil
}

func (m *TreeMap[K, V]) node(id uint64) (treeNode[K, V], error) {
	node, found, err := m.nodes.get(id)
	if err != nil {
		return node, err
	}
	if !found {
		return node, fmt.Errorf("%w: tree node %d is missing", common.ErrInconsistentState, id)
	}
	return node, nil
}

func (m *TreeMap[K, V]) setNode(id uint64, node treeNode[K, V]) error {
	return m.nodes.put(id, node)
}

func (m *TreeMap[K, V]) height(id uint64) (uint8, error) {
	if id == 0 {
		return 0, nil
	}
	node, err := m.node(id)
	return node.Height, err
}

func (m *TreeMap[K, V]) find(key K) (uint64, error) {
	if err := m.loadMeta(); err != nil {
		return 0, err
	}
	id := m.meta.root
	for id != 0 {
		node, err := m.node(id)
		if err != nil {
			return 0, err
		}
		c := m.comparator.Compare(&key, &node.Key)
		if c == 0 {
			return id, nil
		}
		if c < 0 {
			id = node.Left
		} else {
			id = node.Right
		}
	}
	return 0, nil
}

func (m *TreeMap[K, V]) outermost(right bool) (K, bool, error) {
	var zero K
	if err := m.loadMeta(); err != nil {
		return zero, false, err
	}
	if m.meta.root == 0 {
		return zero, false, nil
	}
	node, err := m.node(m.meta.root)
	for err == nil {
		next := node.Left
		if right {
			next = node.Right
		}
		if next == 0 {
			return node.Key, true, nil
		}
		node, err = m.node(next)
	}
	return zero, false, err
}

// neighbor locates the closest key above (or below) the given key.
func (m *TreeMap[K, V]) neighbor(key K, inclusive bool, above bool) (K, bool, error) {
	var res K
	found := false
	if err := m.loadMeta(); err != nil {
		return res, false, err
	}
	for id := m.meta.root; id != 0; {
		node, err := m.node(id)
		if err != nil {
			return res, false, err
		}
		c := m.comparator.Compare(&node.Key, &key)
		if c == 0 && inclusive {
			return node.Key, true, nil
		}
		if above {
			if c > 0 {
				res, found = node.Key, true
				id = node.Left
			} else {
				id = node.Right
			}
		} else {
			if c < 0 {
				res, found = node.Key, true
				id = node.Right
			} else {
				id = node.Left
			}
		}
	}
	return res, found, nil
}

// replaceChild redirects the reference to the child old of the last node
// on the path, or the root if the path is empty, to the node new.
func (m *TreeMap[K, V]) replaceChild(path []uint64, old, new uint64) error {
	if len(path) == 0 {
		m.meta.root = new
		m.metaDirty = true
		return nil
	}
	parentId := path[len(path)-1]
	parent, err := m.node(parentId)
	if err != nil {
		return err
	}
	if parent.Left == old {
		parent.Left = new
	} else {
		parent.Right = new
	}
	return m.setNode(parentId, parent)
}

// rebalancePath restores the AVL property bottom-up along the given path of
// node ids, starting at the root.
func (m *TreeMap[K, V]) rebalancePath(path []uint64) error {
	for i := len(path) - 1; i >= 0; i-- {
		id := path[i]
		balanced, err := m.balance(id)
		if err != nil {
			return err
		}
		if balanced != id {
			if err := m.replaceChild(path[:i], id, balanced); err != nil {
				return err
			}
		}
	}
	return nil
}

// balance updates the height of the given node and rotates it if its
// subtrees differ in height by more than one. It returns the id of the
// node taking its place.
func (m *TreeMap[K, V]) balance(id uint64) (uint64, error) {
	node, err := m.node(id)
	if err != nil {
		return 0, err
	}
	left, err := m.height(node.Left)
	if err != nil {
		return 0, err
	}
	right, err := m.height(node.Right)
	if err != nil {
		return 0, err
	}

	switch {
	case int(left)-int(right) > 1:
		child, err := m.node(node.Left)
		if err != nil {
			return 0, err
		}
		if inner, outer, err := m.childHeights(child, true); err != nil {
			return 0, err
		} else if inner > outer {
			if node.Left, err = m.rotateLeft(node.Left); err != nil {
				return 0, err
			}
			if err := m.setNode(id, node); err != nil {
				return 0, err
			}
		}
		return m.rotateRight(id)
	case int(right)-int(left) > 1:
		child, err := m.node(node.Right)
		if err != nil {
			return 0, err
		}
		if inner, outer, err := m.childHeights(child, false); err != nil {
			return 0, err
		} else if inner > outer {
			if node.Right, err = m.rotateRight(node.Right); err != nil {
				return 0, err
			}
			if err := m.setNode(id, node); err != nil {
				return 0, err
			}
		}
		return m.rotateLeft(id)
	}

	if height := 1 + max(left, right); height != node.Height {
		node.Height = height
		if err := m.setNode(id, node); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// childHeights returns the heights of the inner and outer subtree of a
// left (or right) child.
func (m *TreeMap[K, V]) childHeights(child treeNode[K, V], leftChild bool) (inner, outer uint8, err error) {
	innerId, outerId := child.Right, child.Left
	if !leftChild {
		innerId, outerId = child.Left, child.Right
	}
	if inner, err = m.height(innerId); err != nil {
		return 0, 0, err
	}
	outer, err = m.height(outerId)
	return inner, outer, err
}

//	    n          l
//	   / \        / \
//	  l   c  ->  a   n
//	 / \            / \
//	a   b          b   c
func (m *TreeMap[K, V]) rotateRight(id uint64) (uint64, error) {
	node, err := m.node(id)
	if err != nil {
		return 0, err
	}
	leftId := node.Left
	left, err := m.node(leftId)
	if err != nil {
		return 0, err
	}
	node.Left = left.Right
	if node.Height, err = m.subtreeHeight(node); err != nil {
		return 0, err
	}
	if err := m.setNode(id, node); err != nil {
		return 0, err
	}
	left.Right = id
	if left.Height, err = m.subtreeHeight(left); err != nil {
		return 0, err
	}
	return leftId, m.setNode(leftId, left)
}

//	  n              r
//	 / \            / \
//	a   r    ->    n   c
//	   / \        / \
//	  b   c      a   b
func (m *TreeMap[K, V]) rotateLeft(id uint64) (uint64, error) {
	node, err := m.node(id)
	if err != nil {
		return 0, err
	}
	rightId := node.Right
	right, err := m.node(rightId)
	if err != nil {
		return 0, err
	}
	node.Right = right.Left
	if node.Height, err = m.subtreeHeight(node); err != nil {
		return 0, err
	}
	if err := m.setNode(id, node); err != nil {
		return 0, err
	}
	right.Left = id
	if right.Height, err = m.subtreeHeight(right); err != nil {
		return 0, err
	}
	return rightId, m.setNode(rightId, right)
}

func (m *TreeMap[K, V]) subtreeHeight(node treeNode[K, V]) (uint8, error) {
	left, err := m.height(node.Left)
	if err != nil {
		return 0, err
	}
	right, err := m.height(node.Right)
	if err != nil {
		return 0, err
	}
	return 1 + max(left, right), nil
}

func encodeTreeMeta(meta treeMeta) []byte {
	res := make([]byte, 0, 24)
	res = binary.LittleEndian.AppendUint64(res, meta.root)
	res = binary.LittleEndian.AppendUint64(res, meta.length)
	return binary.LittleEndian.AppendUint64(res, meta.nextId)
}

func decodeTreeMeta(data []byte) (treeMeta, error) {
	if len(data) != 24 {
		return treeMeta{}, fmt.Errorf("invalid length of tree root record, wanted 24, got %d", len(data))
	}
	return treeMeta{
		root:   binary.LittleEndian.Uint64(data[0:8]),
		length: binary.LittleEndian.Uint64(data[8:16]),
		nextId: binary.LittleEndian.Uint64(data[16:24]),
	}, nil
}
