// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jafarfile is a streaming parser for Java Flight Recorder (JFR)
// binary recordings.
//
// A recording is a sequence of independent chunks, each carrying its own
// metadata schema and constant pools followed by a stream of events encoded
// against that schema. Parsing starts with Open or New to memory-map a
// recording, then ChunkParser.Next walks the chunks one at a time, decoding
// each chunk's metadata and constant pools lazily and handing events to an
// EventDecoder.
//
// This package is the low-level core: it has no notion of a "session" or of
// statically-typed event views. See package jafartype for the typed-view
// layer and package jafarsession for the multi-chunk orchestration built on
// top of this package.
package jafarfile // import "github.com/btraceio/jafar/jafarfile"
