// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package hiwheel provides a hierarchical timeout wheel: a data
// structure that tracks a large population of pending timer events,
// each identified by an absolute 64-bit expiry instant on a monotonic
// time axis, and efficiently reports which timers have expired as
// time is advanced by the host. Both insertion and Stop are amortized
// O(1); Timeout is amortized O(1) per expiring timer, regardless of
// how far in the future a timer was set.
//
// The Wheel is single-threaded: it has no internal locking. Callers
// needing concurrent access must provide their own synchronization
// around a Wheel value, the same way intuitivelabs/wtimer wraps its
// own internal state behind a mutex. Time units are an opaque uint64;
// the wheel never interprets them — callers must be consistent
// (always ticks, or always milliseconds, or always seconds).
//
// Grounded on craig8196/hitime (original_source/src/hitime.c): bin
// placement by the highest bit at which a timer's expiry differs from
// the wheel's current time, a binset bitmap for O(1) "find lowest
// nonempty bin", and the four-phase advance algorithm implemented
// here as expireFirst/expireBulk/processSetup/processAll.
package hiwheel

const NAME = "hiwheel"

// bins is the number of classification bins: one per bit position of
// a uint64 expiry/last XOR (no 32-bit overflow bin).
const bins = 64

// Wheel is a fixed set of 64 bins plus an expired list and a
// processing scratch list. Bins and lists are circular doubly-linked
// lists whose members are Timer records intrusively linked by the
// Wheel itself. The zero value is not ready to use; call Init first.
type Wheel struct {
	last   uint64
	binset uint64 // bit i set iff bins[i] is non-empty (hitime's binset)

	bins       [bins]list
	expired    list
	processing list

	clock Clock // optional, set via WithClock; nil unless WithClock was passed to NewWheel
}

// Init (re)initialises w to the empty state with last == 0. Any
// timers still linked into w before Init is called are simply
// forgotten by the wheel (their hooks become stale) — draining via
// ExpireAll + GetNext first is the caller's responsibility, exactly as
// Destroy documents below.
func (w *Wheel) Init() {
	w.last = 0
	w.binset = 0
	for i := range w.bins {
		w.bins[i].init()
	}
	w.expired.init()
	w.processing.init()
}

// Destroy releases w's internal state. Timers still linked at the
// time of the call end up with dangling hooks; this is undefined
// behaviour for the caller, not a library-detected error. Provided for
// symmetry with Init and the conceptual new/free surface of the
// original C library; on the Go runtime there is nothing to explicitly
// free.
func (w *Wheel) Destroy() {
	*w = Wheel{}
}

// GetLast returns the most recent "now" the wheel has observed.
func (w *Wheel) GetLast() uint64 {
	return w.last
}

// BinSet returns the bitmap of currently non-empty bins (bit i set iff
// bin i is non-empty). Introspection only, not a stable format.
func (w *Wheel) BinSet() uint64 {
	return w.binset
}

// MaxWait is the sentinel GetWait/GetWaitWith return when no timer is
// pending: the representable maximum (the all-ones uint64).
func MaxWait() uint64 {
	return ^uint64(0)
}

// appendBin appends t to bins[idx] and marks the bin non-empty.
func (w *Wheel) appendBin(t *Timer, idx int) {
	t.binIdx = idx
	w.bins[idx].nq(t)
	w.binset |= uint64(1) << uint(idx)
}

// appendExpired appends t to the expired list. t's bin association
// (if any) is cleared since it no longer belongs to a bin.
func (w *Wheel) appendExpired(t *Timer) {
	t.binIdx = notInBin
	w.expired.nq(t)
}

// binNQ computes the bin for a not-yet-expired timer (t.when > last)
// and appends it there. Per the bin invariant, the index is the
// position of the highest bit at which t.when differs from last.
func (w *Wheel) binNQ(t *Timer) {
	idx := highestSetBit(t.when ^ w.last)
	w.appendBin(t, idx)
}

// notInBin is the sentinel Timer.binIdx value meaning "not currently
// associated with a numbered bin". Stop sets it on detach and
// appendExpired sets it for single timers; timers moved to expired or
// processing by a whole-bin splice (expireFirst, expireBulk,
// processSetup, ExpireAll) keep their former index. Stop tolerates
// that, since it only clears a bin's binset bit once the bin is empty.
const notInBin = -1

// Start links t into the wheel. If t is already linked this is a
// silent no-op (double-start idempotence). If t.When() is already
// <= GetLast(), t goes straight to the expired list; otherwise it is
// placed in the bin selected by the bin invariant.
func (w *Wheel) Start(t *Timer) {
	if t.linked() {
		return
	}
	if t.when <= w.last {
		w.appendExpired(t)
	} else {
		w.binNQ(t)
	}
}

// StartRange links t so that it will be examined at most once between
// min and max: it chooses the when value within [min, max] whose
// trailing bits below the bin granularity are zero, placing t in the
// coarsest bin that still distinguishes min from max.
//
// Deliberately computes b = max ^ min rather than max - min — this
// selects the bit position at which max and min first disagree, which
// is the granularity at which a bin boundary can be placed without the
// timer needing to be re-examined before max. See DESIGN.md for why
// this is preserved verbatim from the source algorithm rather than
// "simplified" to a subtraction.
func (w *Wheel) StartRange(t *Timer, min, max uint64) {
	b := max ^ min
	idx := 0
	if b != 0 {
		idx = highestSetBit(b)
	}
	mask := ^uint64(0) << uint(idx)
	t.when = max & mask
	w.Start(t)
}

// Stop unlinks t if linked; it is always safe to call, including on a
// timer that is not currently linked (silent no-op).
func (w *Wheel) Stop(t *Timer) {
	if !t.linked() {
		return
	}
	idx := t.binIdx
	unlink(t)
	t.binIdx = notInBin
	if idx >= 0 && w.bins[idx].isEmpty() {
		w.binset &^= uint64(1) << uint(idx)
	}
}

// Touch changes t's expiry to when, re-linking it by the Start rules.
// Safe to call whether or not t is currently linked.
func (w *Wheel) Touch(t *Timer, when uint64) {
	w.Stop(t)
	t.when = when
	w.Start(t)
}

// GetWait returns the smallest positive duration that must elapse
// before advancing the wheel could expire a timer: the distance from
// last to the next multiple of 2^i, where i is the lowest non-empty
// bin index. Returns MaxWait() if no timer is pending.
func (w *Wheel) GetWait() uint64 {
	if w.binset == 0 {
		return MaxWait()
	}
	idx := lowestSetBit(w.binset)
	msb := uint64(1) << uint(idx)
	mask := msb - 1
	return msb - (w.last & mask)
}

// GetWaitWith is GetWait computed against a hypothetical now without
// mutating the wheel: max(0, GetWait() - (now - last)).
func (w *Wheel) GetWaitWith(now uint64) uint64 {
	wait := w.GetWait()
	if wait == MaxWait() {
		return wait
	}
	var diff uint64
	if now > w.last {
		diff = now - w.last
	}
	if diff >= wait {
		return 0
	}
	return wait - diff
}

// expireFirst moves bin 0 to expired. Every member of bin 0 has
// when == last+1 (the bin invariant plus monotonic advance), so any
// forward step expires all of it unconditionally.
func (w *Wheel) expireFirst() {
	if !w.bins[0].isEmpty() {
		spliceAppend(&w.expired, &w.bins[0])
		w.binset &^= 1
	}
}

// expireBulk moves bins[1 .. idxMax) to expired: these hold timers
// whose distance from the old last is strictly less than 2^idxMax,
// which the elapsed time already covers.
func (w *Wheel) expireBulk(idxMax int) {
	for i := 1; i < idxMax; i++ {
		if !w.bins[i].isEmpty() {
			spliceAppend(&w.expired, &w.bins[i])
			w.binset &^= uint64(1) << uint(i)
		}
	}
}

// processSetup moves bins[idxMax .. top] to the processing scratch
// list: the boundary bins whose members may or may not have expired
// and must be individually re-evaluated.
func (w *Wheel) processSetup(idxMax, top int) {
	for i := idxMax; i <= top; i++ {
		if !w.bins[i].isEmpty() {
			spliceAppend(&w.processing, &w.bins[i])
			w.binset &^= uint64(1) << uint(i)
		}
	}
}

// processAll drains the processing list one entry at a time,
// classifying each against the (already updated) last: expired
// entries move to expired, the rest are re-binned — always into a
// strictly lower index than the one they came from, since the
// highest differing bit against the old last has now been cleared.
func (w *Wheel) processAll() {
	for {
		t := w.processing.dq()
		if t == nil {
			return
		}
		if t.when <= w.last {
			w.appendExpired(t)
		} else {
			w.binNQ(t)
		}
	}
}

// Timeout advances the wheel to now, moving every timer with
// When() <= now into the expired list, and returns true iff expired
// is non-empty after the call. A regressing or stationary now
// (now <= GetLast()) is a no-op; the return value still reports
// whether anything is waiting to be drained, rather than
// unconditionally false.
func (w *Wheel) Timeout(now uint64) bool {
	if now > w.last {
		w.expireFirst()

		delta := elapsed(now, w.last)
		idxMax := highestSetBit(delta)
		w.expireBulk(idxMax)

		top := highestSetBit(now ^ w.last)
		w.processSetup(idxMax, top)

		w.last = now
		w.processAll()
	}
	return !w.expired.isEmpty()
}

// TimeoutDelta is Timeout(last+delta), saturating to MaxWait() (the
// all-ones value) on overflow instead of wrapping.
func (w *Wheel) TimeoutDelta(delta uint64) bool {
	now := w.last + delta
	if now < w.last { // overflow
		now = MaxWait()
	}
	return w.Timeout(now)
}

// TimeoutPartial bounds the work done in a single call: on the first
// call for a given now it performs the O(<=64) bin-splicing phases
// unconditionally, then processes at most maxOps entries from the
// processing scratch list. It returns true iff processing is still
// non-empty, in which case the caller should call TimeoutPartial again
// with the same or a monotonically increasing now (now <= GetLast() is
// a no-op for the splicing phases, so repeating the same now simply
// continues draining processing) until it returns false. Callers must
// not let appreciable wall time pass between partial calls, since bins
// are already placed against the updated last.
func (w *Wheel) TimeoutPartial(now uint64, maxOps int) bool {
	if now > w.last {
		w.expireFirst()

		delta := elapsed(now, w.last)
		idxMax := highestSetBit(delta)
		w.expireBulk(idxMax)

		top := highestSetBit(now ^ w.last)
		w.processSetup(idxMax, top)

		w.last = now
	}

	for ops := 0; ops < maxOps; ops++ {
		t := w.processing.dq()
		if t == nil {
			break
		}
		if t.when <= w.last {
			w.appendExpired(t)
		} else {
			w.binNQ(t)
		}
	}
	return !w.processing.isEmpty()
}

// ExpireAll moves every linked timer (every bin, plus processing) into
// expired, in ascending bin index order followed by processing. After
// this call every previously-linked timer is either in expired or
// fully detached.
func (w *Wheel) ExpireAll() {
	for i := 0; i < bins; i++ {
		if !w.bins[i].isEmpty() {
			spliceAppend(&w.expired, &w.bins[i])
		}
	}
	w.binset = 0
	if !w.processing.isEmpty() {
		spliceAppend(&w.expired, &w.processing)
	}
}

// GetNext dequeues and returns the head of the expired list, or nil if
// it is empty.
func (w *Wheel) GetNext() *Timer {
	return w.expired.dq()
}

// AdvanceNow calls Timeout with the current reading of w's configured
// clock. Only usable on a Wheel built with WithClock (via NewWheel);
// calling it on a Wheel with no clock configured logs a BUG and
// returns false without advancing anything, since there is no
// recoverable reading to advance to.
func (w *Wheel) AdvanceNow() bool {
	if w.clock == nil {
		BUG("AdvanceNow called on a Wheel with no clock configured")
		return false
	}
	return w.Timeout(w.clock.Now())
}

// CountBin returns the number of timers currently in bins[i]. O(n);
// introspection/testing only.
func (w *Wheel) CountBin(i int) int {
	return w.bins[i].count()
}

// CountExpired returns the number of timers currently queued in
// expired, awaiting GetNext.
func (w *Wheel) CountExpired() int {
	return w.expired.count()
}

// CountAll returns the total number of timers linked into w, across
// every bin, expired and processing.
func (w *Wheel) CountAll() int {
	n := w.expired.count() + w.processing.count()
	for i := range w.bins {
		n += w.bins[i].count()
	}
	return n
}
