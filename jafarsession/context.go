// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarsession

import (
	"github.com/btraceio/jafar/jafarfile"
	"github.com/btraceio/jafar/jafartype"
)

// ParsingContext owns the caches that amortize work across every Session
// opened through it: today, the fingerprint-to-binding cache that every
// TypeHandle declared via Declare shares. A ParsingContext has no
// per-recording state of its own, so it is safe to share between
// Sessions parsing different recordings, including concurrently; its
// caches grow only as new event shapes are seen and are discarded only
// when the caller calls Clear.
type ParsingContext struct {
	cache *jafartype.Cache
}

// NewParsingContext returns an empty ParsingContext.
func NewParsingContext() *ParsingContext {
	return &ParsingContext{cache: jafartype.NewCache()}
}

// Declare returns a TypeHandle for className bound to sample's type,
// backed by this context's shared binding cache: two handles declared
// through the same ParsingContext for the same Go type and class name
// reuse one cached Binding once either has decoded an event of that
// shape, even across different Sessions.
func (c *ParsingContext) Declare(className string, sample interface{}) *jafartype.TypeHandle {
	return jafartype.DeclareWithCache(className, sample, c.cache)
}

// Clear discards every binding cached so far. Call it between batches of
// recordings known not to share event schemas with what came before, to
// bound memory rather than accumulate bindings for shapes no longer in
// use.
func (c *ParsingContext) Clear() {
	c.cache.Clear()
}

// CacheLen reports how many distinct structural shapes this context's
// binding cache currently holds.
func (c *ParsingContext) CacheLen() int {
	return c.cache.Len()
}

// OpenRecording memory-maps path and returns a Session whose typed
// handlers draw their binding cache from c.
func (c *ParsingContext) OpenRecording(path string) (*Session, error) {
	reader, closer, err := jafarfile.Open(path)
	if err != nil {
		return nil, err
	}
	return &Session{reader: reader, closer: closer, ctx: c}, nil
}
