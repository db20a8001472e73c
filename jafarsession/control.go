// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarsession

import "github.com/btraceio/jafar/jafarfile"

// Control is passed to every handler invoked by Session.Run. Calling
// Abort requests that the event loop stop at the next boundary: the
// current handler still runs to completion, but no further event is
// delivered to any handler.
type Control struct {
	aborted bool
}

// Abort marks the run for cancellation.
func (c *Control) Abort() {
	c.aborted = true
}

// Aborted reports whether Abort has been called.
func (c *Control) Aborted() bool {
	return c.aborted
}

// RunOutcomeKind classifies how Session.Run finished.
type RunOutcomeKind int

const (
	// EndOfFile means every chunk in the recording was parsed.
	EndOfFile RunOutcomeKind = iota
	// Aborted means a handler called Control.Abort.
	Aborted
	// RunError means parsing stopped on an unrecoverable error; Err is set.
	RunError
)

func (k RunOutcomeKind) String() string {
	switch k {
	case EndOfFile:
		return "EndOfFile"
	case Aborted:
		return "Aborted"
	case RunError:
		return "Error"
	}
	return "Unknown"
}

// RunOutcome is the result of a Session.Run call.
type RunOutcome struct {
	Kind RunOutcomeKind
	Err  *jafarfile.Error // non-nil iff Kind == RunError
}

func handlerFailed(chunkIndex int, cause error) *jafarfile.Error {
	return &jafarfile.Error{
		Kind:       jafarfile.ErrHandlerFailed,
		Message:    cause.Error(),
		ByteOffset: -1,
		ChunkIndex: chunkIndex,
		Cause:      cause,
	}
}
