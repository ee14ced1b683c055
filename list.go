// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package hiwheel

// list is an intrusive, circular, doubly-linked list of *Timer. The
// list head is itself a node (head.next == head.prev == &head when
// empty), the same representation intuitivelabs-wtimer uses for
// timerLst (timer_lst.go) and that craig8196/hitime uses for its
// hitime_node_t lists. All operations are O(1) and allocate nothing.
type list struct {
	head Timer
}

// init (re)initialises l to the empty list.
func (l *list) init() {
	l.head.next = &l.head
	l.head.prev = &l.head
}

// isEmpty reports whether l has no members.
func (l *list) isEmpty() bool {
	return l.head.next == &l.head
}

// count walks l and returns its length. O(n); introspection only.
func (l *list) count() int {
	n := 0
	for v := l.head.next; v != &l.head; v = v.next {
		n++
	}
	return n
}

// nq appends t to the tail of l ("enqueue"). t must be detached.
func (l *list) nq(t *Timer) {
	t.next = &l.head
	t.prev = l.head.prev
	l.head.prev.next = t
	l.head.prev = t
}

// dq removes and returns the head element of l, or nil if l is empty.
func (l *list) dq() *Timer {
	if l.isEmpty() {
		return nil
	}
	t := l.head.next
	unlink(t)
	return t
}

// unlink splices t out of whichever list currently holds it and marks
// it detached (both hooks nil). It needs no reference to the owning
// list — the splice is purely a function of t's own hooks — which is
// what lets Wheel.Stop unlink a timer in O(1) without knowing which
// bin or list it is in.
func unlink(t *Timer) {
	t.prev.next = t.next
	t.next.prev = t.prev
	t.next = nil
	t.prev = nil
}

// spliceAppend moves every element of src to the tail of dst and
// reinitialises src to empty. No-op if src is empty. Mirrors
// intuitivelabs-wtimer's timerLst.mv (timer_lst.go) and the C source's
// list_append/list_move pair.
func spliceAppend(dst, src *list) {
	if src.isEmpty() {
		return
	}
	first := src.head.next
	last := src.head.prev

	first.prev = dst.head.prev
	last.next = &dst.head
	dst.head.prev.next = first
	dst.head.prev = last

	src.init()
}
