// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package hiwheel

import (
	"github.com/intuitivelabs/slog"
)

// Plog is the package-wide logger, following the same convention as
// the rest of the intuitivelabs stack: a single exported slog.Log
// value that callers can reconfigure (verbosity, sink) before using
// the package.
var Plog slog.Log = slog.Log{
	L:      0,
	Prefix: NAME + ": ",
}

func init() {
	Plog.L = slog.LWARN | slog.LERR | slog.LBUG
}

// DBGon reports whether debug-level logging is currently enabled. Call
// sites guard expensive formatting with this so the hot path stays
// free of work when debug logging is off.
func DBGon() bool {
	return Plog.DBGon()
}

// ERRon reports whether error-level logging is currently enabled.
func ERRon() bool {
	return Plog.ERRon()
}

// WARNon reports whether warning-level logging is currently enabled.
func WARNon() bool {
	return Plog.WARNon()
}

// DBG logs a debug-level, printf-style message.
func DBG(f string, args ...interface{}) {
	Plog.DBG(f, args...)
}

// WARN logs a warning-level, printf-style message.
func WARN(f string, args ...interface{}) {
	Plog.WARN(f, args...)
}

// ERR logs an error-level, printf-style message.
func ERR(f string, args ...interface{}) {
	Plog.ERR(f, args...)
}

// BUG logs an internal-invariant-violation message. Unlike the C
// original this never aborts the process: a broken invariant here is
// undefined behaviour territory caused by caller misuse (e.g. reusing
// a linked Timer), not something the library can safely recover from
// by crashing a process it doesn't own.
func BUG(f string, args ...interface{}) {
	Plog.BUG(f, args...)
}
