// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package hiwheelclock is the monotonic-clock-reader collaborator: an
// external helper that turns real wall time into the opaque uint64
// ticks a hiwheel.Wheel understands. It is not part of the wheel core
// and the core never imports it.
//
// Grounded on intuitivelabs-wtimer's own tick conversion trio
// (WTimer.Now/Ticks/Duration in wtimer.go, and the drift-correcting
// ticker in wtimer_ticker.go), reworked around
// github.com/intuitivelabs/timestamp the same way intuitivelabs-wtimer
// uses it for a monotonic reading immune to wall-clock adjustments.
package hiwheelclock

import (
	"errors"
	"time"

	"github.com/intuitivelabs/timestamp"
)

var ErrTickTooSmall = errors.New("hiwheelclock: tick duration too small")
var ErrTickTooLarge = errors.New("hiwheelclock: tick duration too large")

// Reader converts wall-clock readings into wheel ticks of a fixed
// duration. The zero value is not usable; build one with NewReader.
type Reader struct {
	tick  time.Duration
	ref   timestamp.TS
	ticks uint64
}

// NewReader builds a Reader counting ticks of the given duration,
// rooted at the current monotonic time. Mirrors the bounds
// intuitivelabs-wtimer enforces in WTimer.Init (too-small tick
// durations cause excessive wakeups; too-large ones are almost
// certainly a caller mistake).
func NewReader(tick time.Duration) (*Reader, error) {
	if tick < time.Microsecond {
		return nil, ErrTickTooSmall
	}
	if tick > 24*time.Hour {
		return nil, ErrTickTooLarge
	}
	return &Reader{
		tick: tick,
		ref:  timestamp.Now(),
	}, nil
}

// Now returns the current time as a wheel tick count: the number of
// Reader's configured tick durations elapsed since the Reader was
// created, rounded down.
func (r *Reader) Now() uint64 {
	elapsed := timestamp.Now().Sub(r.ref)
	if elapsed < 0 {
		// Monotonic time should never regress; if it does (e.g. a
		// timestamp source bug), clamp rather than underflow ticks.
		return r.ticks
	}
	ticks := uint64(elapsed / r.tick)
	if ticks > r.ticks {
		r.ticks = ticks
	}
	return r.ticks
}

// ToTicks converts a duration to a tick count, rounding up: rounding
// down would let a caller's "expire in d" request fire up to one tick
// early, which intuitivelabs-wtimer's own TicksRoundUp avoids for the
// same reason (wtimer.go).
func (r *Reader) ToTicks(d time.Duration) uint64 {
	whole := d / r.tick
	if d%r.tick > 0 {
		whole++
	}
	if whole < 0 {
		return 0
	}
	return uint64(whole)
}

// TickDuration returns the configured tick duration.
func (r *Reader) TickDuration() time.Duration {
	return r.tick
}
