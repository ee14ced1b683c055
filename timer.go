// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package hiwheel

// Timer is a single pending timeout, intrusively linked into a Wheel.
// The zero value is a valid, unlinked Timer. A Timer must not be
// copied once it has been passed to Start (its address is what is
// linked into the wheel's lists).
//
// Mirrors intuitivelabs-wtimer's TimerLnk (timers.go), stripped of the
// callback/flags/run-queue machinery that belongs to a scheduler built
// on top of this package, not to the wheel itself.
type Timer struct {
	next *Timer
	prev *Timer

	when uint64
	data interface{}

	// binIdx is the sentinel/bin-index bookkeeping the Wheel uses to
	// make Stop O(1) without a list-membership lookup. See notInBin in
	// wheel.go. It is meaningless while the timer is not linked.
	binIdx int
}

// Set assigns the absolute expiry and opaque user data of a Timer.
// Must not be called on a Timer that is currently linked (Start
// silently ignores a double-start instead of re-validating here, but
// calling Set on a linked timer corrupts its position — see
// Wheel.Touch for the safe way to change an armed timer's expiry).
func (t *Timer) Set(when uint64, data interface{}) {
	t.when = when
	t.data = data
}

// Reset clears a Timer back to its zero value. Only safe to call on a
// Timer that is not linked into any wheel.
func (t *Timer) Reset() {
	*t = Timer{}
}

// When returns the Timer's absolute expiry instant.
func (t *Timer) When() uint64 {
	return t.when
}

// Data returns the opaque pointer/value associated with the Timer.
// The wheel never interprets or dereferences it.
func (t *Timer) Data() interface{} {
	return t.data
}

// linked reports whether t is currently a member of some list (bin,
// expired or processing). Both hooks are nil iff the timer is not
// linked.
func (t *Timer) linked() bool {
	return t.next != nil
}
