// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package hiwheelalloc provides the heap-allocation convenience
// wrappers for "new"/"free" on a wheel and a timer. It exists purely
// for API symmetry with the conceptual surface of the original C
// library and as the canonical place a caller could later swap in a
// pooled/arena allocator; on the Go runtime allocation cannot fail the
// way the C original does ("abort the process with a diagnostic
// message"), so these functions simply cannot return an error.
//
// Grounded on intuitivelabs-wtimer's NewTimer/InitTimer pair
// (wtimer.go), which documents the same tradeoff: embedding a Timer in
// a caller-owned struct and using Init directly is the
// allocation-free, high-performance path; New is the convenience path
// for callers that don't mind the extra allocation.
package hiwheelalloc

import (
	"github.com/craigjacobson/hiwheel"
)

// NewWheel allocates and initializes a Wheel on the heap.
func NewWheel() *hiwheel.Wheel {
	w := &hiwheel.Wheel{}
	w.Init()
	return w
}

// FreeWheel releases w. The caller must have already drained w
// (ExpireAll + GetNext loop) if any timers were still linked; this is
// a caller obligation, not something FreeWheel checks or enforces,
// matching hitime_destroy's own contract.
func FreeWheel(w *hiwheel.Wheel) {
	w.Destroy()
}

// NewTimer allocates a Timer on the heap, preset with when/data.
// High-throughput callers should instead embed hiwheel.Timer directly
// in their own record and call its Set method, avoiding this
// allocation — the same guidance intuitivelabs-wtimer gives for
// TimerLnk.
func NewTimer(when uint64, data interface{}) *hiwheel.Timer {
	t := &hiwheel.Timer{}
	t.Set(when, data)
	return t
}

// FreeTimer is a documentation-only no-op: a Timer allocated by
// NewTimer becomes eligible for garbage collection once the caller
// drops its last reference and it is no longer linked into any Wheel.
// It exists so that code mirroring the conceptual new/free surface has
// a symmetrical call to make.
func FreeTimer(t *hiwheel.Timer) {
	_ = t
}
