// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafartype

import (
	"fmt"
	"reflect"

	"github.com/btraceio/jafar/jafarfile"
)

// TypeHandle binds a Go struct type to one JFR event class name. Declare
// it once per event type of interest and reuse it across an entire
// Session's lifetime: its binding cache amortizes the reflect-based field
// resolution across every chunk, and across every recording, that
// produces the class under that shape.
type TypeHandle struct {
	ClassName string
	goType    reflect.Type
	cache     *Cache
}

// Declare returns a TypeHandle for className, using sample's type (a
// struct or a pointer to one; only the type is inspected) as the
// destination shape, with a private binding cache. Exported fields are
// matched against the event class's fields by name, or by an explicit
// `jfr:"name"` tag; a tag of the form `jfr:"name,raw"` binds the field to
// the unresolved constant-pool index rather than the value it resolves
// to (see DecodedEvent.RawRefs), for accessors typed uint64 or []uint64.
func Declare(className string, sample interface{}) *TypeHandle {
	return DeclareWithCache(className, sample, NewCache())
}

// DeclareWithCache is Declare, but backed by cache instead of a private
// one: every TypeHandle sharing cache reuses the same cached Binding for
// a given structural shape. jafarsession.ParsingContext uses this to
// share one cache across TypeHandles spanning several Sessions.
func DeclareWithCache(className string, sample interface{}, cache *Cache) *TypeHandle {
	t := reflect.TypeOf(sample)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return &TypeHandle{ClassName: className, goType: t, cache: cache}
}

// New returns a freshly allocated, zero-valued pointer to h's declared
// struct type, suitable as the dst argument to Decode.
func (h *TypeHandle) New() interface{} {
	return reflect.New(h.goType).Interface()
}

// Decode populates dst, which must be a non-nil pointer to h's declared
// struct type, from ev. The first event of a given structural shape pays
// for a reflect-based binding; every subsequent event of the same shape
// reuses it.
func (h *TypeHandle) Decode(ev *jafarfile.DecodedEvent, dst interface{}) error {
	if ev.Class.Name != h.ClassName {
		return fmt.Errorf("jafartype: event class %q does not match handle for %q", ev.Class.Name, h.ClassName)
	}
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.IsNil() || dv.Elem().Type() != h.goType {
		return fmt.Errorf("jafartype: dst must be a non-nil *%s", h.goType)
	}

	fp := MetadataFingerprint(ev.Class)
	b, ok := h.cache.get(fp)
	if !ok {
		b = buildBinding(h.goType, ev.Class)
		h.cache.put(fp, b)
	}
	b.Apply(dv.Elem(), ev.Fields, ev.RawRefs)
	return nil
}
