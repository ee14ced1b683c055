// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package hiwheel

import (
	"fmt"
	"io"
)

// Stats is a point-in-time snapshot of a Wheel's internal occupancy,
// used both by DumpStats and by the hiwheelmetrics collector (which
// cannot reach into Wheel's unexported fields directly).
type Stats struct {
	Last       uint64
	Expired    int
	Processing int
	BinCounts  [bins]int
}

// Snapshot captures w's current counts. O(n) in the number of linked
// timers; for introspection/metrics use, not the hot path.
func (w *Wheel) Snapshot() Stats {
	var s Stats
	s.Last = w.last
	s.Expired = w.expired.count()
	s.Processing = w.processing.count()
	for i := range w.bins {
		s.BinCounts[i] = w.bins[i].count()
	}
	return s
}

// DumpStats writes a human-readable summary of last, and the counts
// of expired, processing and each non-empty bin, to out. The format is
// diagnostic only, not a stable interface.
func (w *Wheel) DumpStats(out io.Writer) {
	s := w.Snapshot()
	fmt.Fprintf(out, "%s: last=%d expired=%d processing=%d\n",
		NAME, s.Last, s.Expired, s.Processing)
	for i, n := range s.BinCounts {
		if n > 0 {
			fmt.Fprintf(out, "%s:   bin[%02d] = %d\n", NAME, i, n)
		}
	}
}
