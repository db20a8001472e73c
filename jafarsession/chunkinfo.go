// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarsession

import "github.com/btraceio/jafar/jafarfile"

// ChunkInfo is the read-only chunk context exposed to handlers: timing
// metadata, but never the chunk's schema or pools, which stay internal to
// the Session.
type ChunkInfo struct {
	Index         int
	StartNanos    int64
	DurationNanos int64
	Size          int64

	startTicks     int64
	ticksPerSecond int64
}

// None is the unbound sentinel for ChunkInfo. Its Index is -1, so it is
// distinct from the zero value, whose Index 0 names the first chunk.
// Nothing in this package returns None, and Session.Run never delivers it
// to a handler.
var None = ChunkInfo{Index: -1}

// IsNone reports whether this is the unbound sentinel value.
func (ci ChunkInfo) IsNone() bool {
	return ci.Index == -1
}

// TicksToNanos converts ticks (as carried on an event's startTime field)
// into nanoseconds since the recording epoch, using this chunk's clock
// calibration: startTimeNanos + (ticks - startTicks) * 1e9 / ticksPerSecond.
func (ci ChunkInfo) TicksToNanos(ticks int64) int64 {
	if ci.ticksPerSecond == 0 {
		return ci.StartNanos
	}
	return ci.StartNanos + (ticks-ci.startTicks)*1_000_000_000/ci.ticksPerSecond
}

func newChunkInfo(c *jafarfile.Chunk) ChunkInfo {
	return ChunkInfo{
		Index:          c.Index,
		StartNanos:     c.StartNanos,
		DurationNanos:  c.DurationNanos,
		Size:           c.Size,
		startTicks:     c.StartTicks,
		ticksPerSecond: c.TicksPerSecond,
	}
}
