// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jafartype layers statically-typed event views on top of
// package jafarfile's untyped DecodedEvent.
//
// A caller declares the Go struct shape it wants for one event class with
// Declare, then calls TypeHandle.Decode per event. Because a chunk's
// metadata schema can assign different class ids, and even different
// field layouts, to the "same" event class across chunks (or across
// recordings), Decode keys its field binding on a structural fingerprint
// of the class rather than on the class id, and only rebuilds the
// reflect-based binding when that fingerprint actually changes.
package jafartype

import (
	"crypto/sha256"
	"fmt"

	"github.com/btraceio/jafar/jafarfile"
)

// Fingerprint identifies a MetadataClass's shape: its own fields plus the
// shape of every class reachable through them. Two classes with the same
// Fingerprint can share a Binding.
type Fingerprint [sha256.Size]byte

// MetadataFingerprint computes root's structural fingerprint by walking
// its field graph in declaration order. Declaration order comes from the
// metadata event's own element tree, so the result is deterministic
// across calls on the same chunk and stable across any two chunks whose
// producer emitted classes in the same order, without depending on map
// iteration order anywhere.
func MetadataFingerprint(root *jafarfile.MetadataClass) Fingerprint {
	h := sha256.New()
	visited := make(map[uint64]bool)
	var walk func(c *jafarfile.MetadataClass)
	walk = func(c *jafarfile.MetadataClass) {
		if c == nil || visited[c.ID] {
			return
		}
		visited[c.ID] = true
		fmt.Fprintf(h, "class %s super=%s fields=%d\n", c.Name, c.SuperType, len(c.Fields))
		for _, f := range c.Fields {
			typeName := ""
			if f.Type != nil {
				typeName = f.Type.Name
			}
			fmt.Fprintf(h, "field %s type=%s cp=%t dim=%d\n", f.Name, typeName, f.HasConstantPool, f.Dimension)
		}
		for _, f := range c.Fields {
			walk(f.Type)
		}
	}
	walk(root)
	var out Fingerprint
	copy(out[:], h.Sum(nil))
	return out
}
