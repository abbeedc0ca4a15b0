// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tester

import "github.com/pkg/errors"

// Test threads form a tree rooted at the main thread (id 0); children
// appear in fork order. The depth-first pre-order walk over live nodes is
// the canonical scheduling order. The walk is recomputed lazily after every
// add or finish.

type orderNode struct {
	thread   int // -1 once finished
	children []*orderNode
}

type orderTree struct {
	root   *orderNode
	nodes  map[int]*orderNode
	parent map[int]int // never cleared, for ancestry checks
	cache  []int
	dirty  bool
}

func newOrderTree() *orderTree {
	root := &orderNode{thread: 0}
	return &orderTree{
		root:   root,
		nodes:  map[int]*orderNode{0: root},
		parent: map[int]int{0: -1},
	}
}

// add appends id as the last child of parent.
//
func (t *orderTree) add(parent, id int) error {
	p, ok := t.nodes[parent]
	if !ok {
		return errors.Errorf("thread %d has no tree node", parent)
	}
	n := &orderNode{thread: id}
	p.children = append(p.children, n)
	t.nodes[id] = n
	t.parent[id] = parent
	t.dirty = true
	return nil
}

// finish marks id dead. A thread cannot finish while any descendant is
// still alive.
//
func (t *orderTree) finish(id int) error {
	n, ok := t.nodes[id]
	if !ok {
		return errors.Errorf("thread %d has no tree node", id)
	}
	if live(n) > 1 {
		return errors.Errorf("thread %d finished with live child threads", id)
	}
	n.thread = -1
	n.children = nil
	delete(t.nodes, id)
	t.dirty = true
	return nil
}

func live(n *orderNode) int {
	cnt := 0
	if n.thread >= 0 {
		cnt++
	}
	for _, c := range n.children {
		cnt += live(c)
	}
	return cnt
}

// order returns the depth-first pre-order over live threads.
//
func (t *orderTree) order() []int {
	if !t.dirty {
		return t.cache
	}
	t.cache = t.cache[:0]
	var walk func(n *orderNode)
	walk = func(n *orderNode) {
		if n.thread >= 0 {
			t.cache = append(t.cache, n.thread)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	t.dirty = false
	return t.cache
}

// isParentOf reports whether a is an ancestor of b in the fork tree.
// Ancestry outlives thread completion.
//
func (t *orderTree) isParentOf(a, b int) bool {
	for {
		p, ok := t.parent[b]
		if !ok || p < 0 {
			return false
		}
		if p == a {
			return true
		}
		b = p
	}
}
