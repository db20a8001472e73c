// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jafarsession orchestrates a full recording parse on top of
// package jafarfile: it walks every chunk via a jafarfile.ChunkParser,
// decodes each chunk's events via a jafarfile.EventDecoder, and dispatches
// them to handlers registered by the caller, either as untyped field maps
// or, via package jafartype, as populated Go structs.
//
// A Session is single-threaded: Run must not be called concurrently with
// itself, and handlers run synchronously on the calling goroutine between
// field reads. Creating independent Sessions concurrently is safe.
package jafarsession

import (
	"io"

	"github.com/btraceio/jafar/jafarfile"
	"github.com/btraceio/jafar/jafartype"
)

// HandlerID identifies a registered handler for later Deregister calls.
type HandlerID uint64

// UntypedHandlerFunc receives every event, whether or not a typed handler
// is also registered for its type: the event's declared class name and
// its decoded field map.
type UntypedHandlerFunc func(className string, fields map[string]interface{}, info ChunkInfo, ctrl *Control) error

// TypedHandlerFunc receives a pointer to the struct type declared by the
// TypeHandle it was registered with; the caller type-asserts it back.
type TypedHandlerFunc func(record interface{}, info ChunkInfo, ctrl *Control) error

type handlerEntry struct {
	id        HandlerID
	untypedFn UntypedHandlerFunc
	handle    *jafartype.TypeHandle
	typedFn   TypedHandlerFunc
}

// closer is satisfied by the handle jafarfile.Open returns.
type closer interface {
	Close() error
}

// Session is one recording's parse session: the mapped reader, the
// registered handler set, and Run/Close lifecycle state.
type Session struct {
	reader      *jafarfile.RecordingReader
	closer      closer
	handlers    []*handlerEntry
	nextID      HandlerID
	closed      bool
	ranges      *ranges
	ctx         *ParsingContext
	diagnostics []*jafarfile.Error
}

// OpenRecording memory-maps path and returns a Session ready for handler
// registration and Run, drawing its typed handlers' binding cache from a
// fresh, private ParsingContext. Use ParsingContext.OpenRecording instead
// to share that cache across several Sessions.
func OpenRecording(path string) (*Session, error) {
	return NewParsingContext().OpenRecording(path)
}

// Context returns the ParsingContext this Session was opened from.
func (s *Session) Context() *ParsingContext {
	return s.ctx
}

// Diagnostics returns every recoverable error encountered so far: events
// whose declared size was corrupted, reported here (with their byte
// offset) rather than silently discarded. Run still abandons the rest of
// a chunk on a recoverable error and continues with the next one, but
// reports the first one recorded here as the overall RunOutcome once the
// recording is otherwise exhausted.
func (s *Session) Diagnostics() []*jafarfile.Error {
	return s.diagnostics
}

// RegisterUntyped registers fn to run for every event, subject to
// Deregister. The order handlers observe events in a chunk is their
// registration order.
func (s *Session) RegisterUntyped(fn UntypedHandlerFunc) HandlerID {
	s.nextID++
	s.handlers = append(s.handlers, &handlerEntry{id: s.nextID, untypedFn: fn})
	return s.nextID
}

// RegisterTyped registers fn to run only for events whose declared class
// matches handle.ClassName, decoded via handle.Decode before fn is
// called.
func (s *Session) RegisterTyped(handle *jafartype.TypeHandle, fn TypedHandlerFunc) HandlerID {
	s.nextID++
	s.handlers = append(s.handlers, &handlerEntry{id: s.nextID, handle: handle, typedFn: fn})
	return s.nextID
}

// Deregister removes a previously registered handler. Deregistering an
// unknown or already-removed id is a no-op.
func (s *Session) Deregister(id HandlerID) {
	for i, h := range s.handlers {
		if h.id == id {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return
		}
	}
}

// Run iterates every chunk in order, dispatching each event to every
// registered handler, until end of file, until a handler calls
// Control.Abort, or until an unrecoverable error. A recoverable error
// (jafarfile.Recoverable) abandons the rest of its chunk and continues
// with the next one, recorded in Diagnostics; if the recording otherwise
// runs to completion, Run reports the first such diagnostic as a
// RunError rather than a plain EndOfFile, so a corrupted event is never
// silently absorbed into a clean-looking result.
func (s *Session) Run() RunOutcome {
	parser := jafarfile.NewChunkParser(s.reader)
	ctrl := &Control{}

	for {
		chunk, schema, pools, done, err := parser.Next()
		if err != nil {
			e, _ := err.(*jafarfile.Error)
			return RunOutcome{Kind: RunError, Err: e}
		}
		if done {
			if len(s.diagnostics) > 0 {
				return RunOutcome{Kind: RunError, Err: s.diagnostics[0]}
			}
			return RunOutcome{Kind: EndOfFile}
		}

		info := newChunkInfo(chunk)
		dec := jafarfile.NewEventDecoder(s.reader, chunk, schema, pools)
		for {
			ev, err := dec.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				if jafarfile.Recoverable(err) {
					e, _ := err.(*jafarfile.Error)
					s.diagnostics = append(s.diagnostics, e)
					break
				}
				e, _ := err.(*jafarfile.Error)
				return RunOutcome{Kind: RunError, Err: e}
			}

			if outcome, stop := s.dispatch(ev, info, ctrl, chunk.Index); stop {
				return outcome
			}
			if ctrl.Aborted() {
				return RunOutcome{Kind: Aborted}
			}
		}
	}
}

func (s *Session) dispatch(ev *jafarfile.DecodedEvent, info ChunkInfo, ctrl *Control, chunkIndex int) (RunOutcome, bool) {
	for _, h := range s.handlers {
		if h.untypedFn != nil {
			if err := h.untypedFn(ev.Class.Name, ev.Fields, info, ctrl); err != nil {
				return RunOutcome{Kind: RunError, Err: handlerFailed(chunkIndex, err)}, true
			}
		} else if ev.Class.Name == h.handle.ClassName {
			dst := h.handle.New()
			if err := h.handle.Decode(ev, dst); err != nil {
				return RunOutcome{Kind: RunError, Err: handlerFailed(chunkIndex, err)}, true
			}
			if err := h.typedFn(dst, info, ctrl); err != nil {
				return RunOutcome{Kind: RunError, Err: handlerFailed(chunkIndex, err)}, true
			}
		}
		if ctrl.Aborted() {
			break
		}
	}
	return RunOutcome{}, false
}

// Iter returns a pull-based iterator over every event in the recording,
// an alternative to the handler-registry form of Run.
func (s *Session) Iter() *Iter {
	return &Iter{session: s, parser: jafarfile.NewChunkParser(s.reader)}
}

// ChunkAt returns the ChunkInfo covering the given nanosecond timestamp,
// if any, without decoding any event in the recording. The first call
// scans every chunk header (cheap: fixed-size, no metadata or constant
// pool decode) to build the lookup; subsequent calls reuse it.
func (s *Session) ChunkAt(nanos int64) (ChunkInfo, bool) {
	if s.ranges == nil {
		chunks, err := jafarfile.ScanHeaders(s.reader)
		if err != nil {
			return ChunkInfo{}, false
		}
		r := &ranges{}
		for _, c := range chunks {
			r.add(uint64(c.StartNanos), uint64(c.StartNanos+c.DurationNanos), c)
		}
		s.ranges = r
	}
	v, ok := s.ranges.get(uint64(nanos))
	if !ok {
		return ChunkInfo{}, false
	}
	return newChunkInfo(v.(*jafarfile.Chunk)), true
}

// Close releases the mapped recording. Idempotent: a second Close is a
// no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.closer.Close()
}
