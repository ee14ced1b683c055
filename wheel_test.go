// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package hiwheel

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newWheel() *Wheel {
	w := &Wheel{}
	w.Init()
	return w
}

func drainExpired(w *Wheel) []*Timer {
	var out []*Timer
	for {
		tm := w.GetNext()
		if tm == nil {
			break
		}
		out = append(out, tm)
	}
	return out
}

func TestWheelInitState(t *testing.T) {
	w := newWheel()
	assert.Equal(t, uint64(0), w.GetLast())
	assert.Equal(t, uint64(0), w.BinSet())
	assert.Equal(t, MaxWait(), w.GetWait())
	assert.Equal(t, 0, w.CountAll())
}

// TestBubbleUp mirrors the spec's worked bubble-up example: a timer
// placed far in the future migrates through successively lower bins as
// the wheel is advanced, never skipping past expiry.
func TestBubbleUp(t *testing.T) {
	w := newWheel()
	tm := &Timer{}
	tm.Set(0x0F, "bubble")
	w.Start(tm)

	wantBin := highestSetBit(0x0F ^ 0)
	assert.Equal(t, 3, wantBin)
	assert.Equal(t, 1, w.CountBin(wantBin))

	// Advance short of expiry: timer should migrate to a lower bin but
	// remain un-expired.
	expired := w.Timeout(0x08)
	assert.False(t, expired)
	assert.Equal(t, 1, w.CountAll())
	assert.Equal(t, 0, w.CountExpired())

	// Advance to exact expiry.
	expired = w.Timeout(0x0F)
	assert.True(t, expired)
	got := drainExpired(w)
	if assert.Len(t, got, 1) {
		assert.Same(t, tm, got[0])
	}
}

// TestBulkExpire mirrors the spec's bulk-expire scenario: many timers
// with small, closely-spaced expiries all become expired in a single
// Timeout call that jumps far ahead.
func TestBulkExpire(t *testing.T) {
	w := newWheel()
	var timers [4]Timer
	for i := range timers {
		timers[i].Set(uint64(i+1), i)
		w.Start(&timers[i])
	}

	expired := w.Timeout(16)
	assert.True(t, expired)
	assert.Equal(t, 4, w.CountExpired())
	assert.Equal(t, 0, w.CountAll()-w.CountExpired())

	got := drainExpired(w)
	assert.Len(t, got, 4)
}

func TestStartDoubleStartIsNoop(t *testing.T) {
	w := newWheel()
	tm := &Timer{}
	tm.Set(100, nil)
	w.Start(tm)
	firstBin := -1
	for i := 0; i < bins; i++ {
		if w.CountBin(i) == 1 {
			firstBin = i
		}
	}

	w.Start(tm) // second Start while linked: must be a silent no-op

	count := 0
	for i := 0; i < bins; i++ {
		count += w.CountBin(i)
	}
	assert.Equal(t, 1, count, "double Start must not duplicate the timer")
	assert.Equal(t, 1, w.CountBin(firstBin))
}

func TestStopUnlinkedIsNoop(t *testing.T) {
	w := newWheel()
	tm := &Timer{}
	tm.Set(10, nil)

	assert.NotPanics(t, func() { w.Stop(tm) })
	assert.Equal(t, 0, w.CountAll())
}

func TestStopThenStartAgain(t *testing.T) {
	w := newWheel()
	tm := &Timer{}
	tm.Set(10, nil)
	w.Start(tm)
	assert.Equal(t, 1, w.CountAll())

	w.Stop(tm)
	assert.Equal(t, 0, w.CountAll())
	assert.Equal(t, uint64(0), w.BinSet())

	w.Start(tm)
	assert.Equal(t, 1, w.CountAll())
}

func TestStartAtOrBeforeLastExpiresImmediately(t *testing.T) {
	w := newWheel()
	w.Timeout(50)

	tm := &Timer{}
	tm.Set(50, "now")
	w.Start(tm)
	assert.Equal(t, 1, w.CountExpired())

	tm2 := &Timer{}
	tm2.Set(10, "past")
	w.Start(tm2)
	assert.Equal(t, 2, w.CountExpired())
}

func TestTouchRearmsExpiry(t *testing.T) {
	w := newWheel()
	tm := &Timer{}
	tm.Set(1000, nil)
	w.Start(tm)

	w.Touch(tm, 5)
	w.Timeout(5)
	got := drainExpired(w)
	if assert.Len(t, got, 1) {
		assert.Same(t, tm, got[0])
	}
}

func TestStartRangePlacesWithinBounds(t *testing.T) {
	w := newWheel()
	tm := &Timer{}
	w.StartRange(tm, 0x0F, 0x10)

	assert.True(t, tm.When() >= 0x0F && tm.When() <= 0x10)
	assert.True(t, tm.linked())
}

func TestGetWaitNoTimers(t *testing.T) {
	w := newWheel()
	assert.Equal(t, MaxWait(), w.GetWait())
	assert.Equal(t, MaxWait(), w.GetWaitWith(1000))
}

func TestGetWaitReflectsNearestBin(t *testing.T) {
	w := newWheel()
	tm := &Timer{}
	tm.Set(16, nil)
	w.Start(tm)

	wait := w.GetWait()
	assert.True(t, wait > 0 && wait <= 16)
}

func TestGetWaitWithAccountsForElapsed(t *testing.T) {
	w := newWheel()
	tm := &Timer{}
	tm.Set(16, nil)
	w.Start(tm)

	full := w.GetWait()
	partial := w.GetWaitWith(8)
	assert.True(t, partial <= full)
}

func TestTimeoutDeltaSaturatesOnOverflow(t *testing.T) {
	w := newWheel()
	w.Timeout(MaxWait() - 1)
	expired := w.TimeoutDelta(10) // would overflow past MaxWait
	assert.Equal(t, MaxWait(), w.GetLast())
	_ = expired
}

func TestTimeoutRegressionIsNoop(t *testing.T) {
	w := newWheel()
	w.Timeout(100)
	before := w.GetLast()
	w.Timeout(50) // regression: must not move last backwards
	assert.Equal(t, before, w.GetLast())
}

func TestExpireAllDrainsEverything(t *testing.T) {
	w := newWheel()
	for i := 1; i <= 20; i++ {
		tm := &Timer{}
		tm.Set(uint64(i)*37, i)
		w.Start(tm)
	}
	assert.Equal(t, 20, w.CountAll())

	w.ExpireAll()
	assert.Equal(t, 0, w.CountAll()-w.CountExpired())
	assert.Equal(t, 20, w.CountExpired())
	assert.Equal(t, uint64(0), w.BinSet())

	got := drainExpired(w)
	assert.Len(t, got, 20)
	assert.Nil(t, w.GetNext())
}

func TestTimeoutPartialBoundsWorkAndConverges(t *testing.T) {
	w := newWheel()
	for i := 1; i <= 50; i++ {
		tm := &Timer{}
		tm.Set(uint64(i), i)
		w.Start(tm)
	}

	more := w.TimeoutPartial(50, 5)
	calls := 1
	for more {
		more = w.TimeoutPartial(50, 5)
		calls++
		if calls > 1000 {
			t.Fatalf("TimeoutPartial did not converge")
		}
	}
	assert.Equal(t, 50, w.CountExpired())
}

// TestOrderedInsertionAscending inserts timers 1..255 in increasing
// order and verifies they all expire, none lost or duplicated.
func TestOrderedInsertionAscending(t *testing.T) {
	w := newWheel()
	for i := 1; i <= 255; i++ {
		tm := &Timer{}
		tm.Set(uint64(i), i)
		w.Start(tm)
	}
	w.Timeout(255)
	w.ExpireAll()
	seen := make(map[int]bool)
	for {
		tm := w.GetNext()
		if tm == nil {
			break
		}
		v := tm.Data().(int)
		if seen[v] {
			t.Fatalf("timer %d expired twice", v)
		}
		seen[v] = true
	}
	assert.Len(t, seen, 255)
}

// TestOrderedInsertionDescending inserts timers 255..1 in decreasing
// order, exercising the same code paths with different bin-fill order.
func TestOrderedInsertionDescending(t *testing.T) {
	w := newWheel()
	for i := 255; i >= 1; i-- {
		tm := &Timer{}
		tm.Set(uint64(i), i)
		w.Start(tm)
	}
	w.Timeout(255)
	w.ExpireAll()
	count := 0
	for w.GetNext() != nil {
		count++
	}
	assert.Equal(t, 255, count)
}

// TestRandomizedMonotonicity is a property test: for randomized sets of
// timers and randomized monotonic advances, no timer expires twice, no
// timer expires before its own When(), and after a final ExpireAll
// drain every started timer has been returned exactly once.
func TestRandomizedMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		w := newWheel()
		const n = 200
		whens := make([]uint64, n)
		for i := 0; i < n; i++ {
			whens[i] = uint64(rng.Intn(1 << 20))
			tm := &Timer{}
			tm.Set(whens[i], i)
			w.Start(tm)
		}

		var now uint64
		expiredAt := make(map[int]uint64)
		for step := 0; step < 50; step++ {
			now += uint64(rng.Intn(1 << 15))
			w.Timeout(now)
			for {
				tm := w.GetNext()
				if tm == nil {
					break
				}
				idx := tm.Data().(int)
				if _, dup := expiredAt[idx]; dup {
					t.Fatalf("trial %d: timer %d expired twice", trial, idx)
				}
				expiredAt[idx] = now
				if now < whens[idx] {
					t.Fatalf("trial %d: timer %d expired at %d before its When() %d", trial, idx, now, whens[idx])
				}
			}
		}

		w.ExpireAll()
		for {
			tm := w.GetNext()
			if tm == nil {
				break
			}
			idx := tm.Data().(int)
			if _, dup := expiredAt[idx]; dup {
				t.Fatalf("trial %d: timer %d expired twice (final drain)", trial, idx)
			}
			expiredAt[idx] = now
		}

		assert.Len(t, expiredAt, n, "trial %d: not every timer expired", trial)
	}
}

func TestDumpStatsDoesNotPanic(t *testing.T) {
	w := newWheel()
	tm := &Timer{}
	tm.Set(5, nil)
	w.Start(tm)

	assert.NotPanics(t, func() {
		w.DumpStats(discardWriter{})
	})
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
