// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package hiwheel

// Clock abstracts a monotonic tick source a Wheel can be driven from
// without the caller re-reading and passing now itself. Satisfied by
// *github.com/craigjacobson/hiwheel/clock.Reader.
type Clock interface {
	Now() uint64
}

// Option configures a Wheel built via NewWheel. Grounded on the
// functional-options pattern Krishna8167-tempuscache uses for its
// cache constructor (options.go): each Option mutates the Wheel before
// it is handed back, so adding a knob later never changes NewWheel's
// signature.
type Option func(*Wheel)

// WithClock attaches a Clock to the Wheel, enabling AdvanceNow as a
// convenience over calling Timeout(clock.Now()) directly.
func WithClock(c Clock) Option {
	return func(w *Wheel) {
		w.clock = c
	}
}

// NewWheel allocates and initializes a Wheel on the heap with opts
// applied. Equivalent to Init on a zero Wheel for callers who have no
// options to set.
func NewWheel(opts ...Option) *Wheel {
	w := &Wheel{}
	w.Init()
	for _, opt := range opts {
		opt(w)
	}
	return w
}
