// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarsession

import (
	"io"

	"github.com/btraceio/jafar/jafarfile"
)

// Iter is a pull-based alternative to Run: repeated Next() calls advance
// a current-value field, and Err reports why iteration stopped.
type Iter struct {
	session *Session
	parser  *jafarfile.ChunkParser
	dec     *jafarfile.EventDecoder
	info    ChunkInfo

	// Event is the event produced by the most recent successful Next call.
	Event *jafarfile.DecodedEvent

	err error
}

// Next advances to the next event, returning false at end of file or on
// error; check Err to distinguish the two.
func (it *Iter) Next() bool {
	for {
		if it.dec != nil {
			ev, err := it.dec.Next()
			if err == nil {
				it.Event = ev
				return true
			}
			if err != io.EOF {
				it.err = err
				return false
			}
			it.dec = nil
		}

		chunk, schema, pools, done, err := it.parser.Next()
		if err != nil {
			it.err = err
			return false
		}
		if done {
			return false
		}
		it.info = newChunkInfo(chunk)
		it.dec = jafarfile.NewEventDecoder(it.session.reader, chunk, schema, pools)
	}
}

// ChunkInfo returns the chunk context for the current Event.
func (it *Iter) ChunkInfo() ChunkInfo {
	return it.info
}

// Err returns the error that stopped iteration, or nil at a clean end of
// file.
func (it *Iter) Err() error {
	return it.err
}
