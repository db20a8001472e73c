// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafartype

import (
	"reflect"
	"strings"

	"github.com/btraceio/jafar/jafarfile"
)

// fieldBinding is one struct field's resolved correspondence to a
// MetadataField, computed once per Fingerprint and reused for every
// event of that shape.
type fieldBinding struct {
	structIndex int
	jfrField    *jafarfile.MetadataField
	raw         bool     // bind to the unresolved CP index instead of the value
	nested      *Binding // set when the field is itself a bound struct
	elemNested  *Binding // set when the field is a slice of bound structs
}

// Binding is a cached correspondence between a Go struct type and one
// MetadataClass shape, built by reflect.Type introspection exactly once
// per Fingerprint: after the first event of a given shape, applying the
// binding to subsequent events does no further reflection over field
// names, only indexed Field() access.
type Binding struct {
	bindings []fieldBinding
}

func isStructClass(name string) bool {
	switch name {
	case "int", "long", "short", "byte", "char", "boolean", "float", "double", "string":
		return false
	default:
		return true
	}
}

// buildBinding walks goType's exported fields and, for each one whose
// name (or `jfr:"..."` tag) matches a field declared on class, records
// how to populate it. Struct-typed and slice-of-struct-typed fields are
// bound recursively against the corresponding nested MetadataClass. A Go
// field with no JFR counterpart, or a JFR field with no Go counterpart,
// is silently left alone: the declared struct is allowed to be a strict
// subset of the event's schema.
//
// A tag of the form `jfr:"name,raw"` against a constant-pool-backed
// field binds to the field's raw, unresolved index (see
// DecodedEvent.RawRefs) instead of its resolved value, regardless of the
// accessor's own nominal Go type; the raw option is ignored on a field
// that is not constant-pool-backed.
func buildBinding(goType reflect.Type, class *jafarfile.MetadataClass) *Binding {
	b := &Binding{}
	for i := 0; i < goType.NumField(); i++ {
		sf := goType.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		name, raw := parseFieldTag(sf)
		if name == "" {
			name = sf.Name
		}
		var jf *jafarfile.MetadataField
		for _, cf := range class.Fields {
			if cf.Name == name {
				jf = cf
				break
			}
		}
		if jf == nil || jf.Type == nil {
			continue
		}

		fb := fieldBinding{structIndex: i, jfrField: jf, raw: raw && jf.HasConstantPool}
		if !fb.raw {
			ft := sf.Type
			if jf.Dimension > 0 && ft.Kind() == reflect.Slice {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && isStructClass(jf.Type.Name) {
				nested := buildBinding(ft, jf.Type)
				if jf.Dimension > 0 {
					fb.elemNested = nested
				} else {
					fb.nested = nested
				}
			}
		}
		b.bindings = append(b.bindings, fb)
	}
	return b
}

func parseFieldTag(sf reflect.StructField) (name string, raw bool) {
	tag := sf.Tag.Get("jfr")
	if tag == "" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "raw" {
			raw = true
		}
	}
	return parts[0], raw
}

// Apply copies fields (a jafarfile.DecodedEvent.Fields map) into dst, a
// settable reflect.Value of the struct type this Binding was built for.
// rawRefs (a jafarfile.DecodedEvent.RawRefs map) supplies the unresolved
// constant-pool index for any field bound with the raw tag option; it may
// be nil if no bound field uses it.
func (b *Binding) Apply(dst reflect.Value, fields map[string]interface{}, rawRefs map[string]interface{}) {
	for _, fb := range b.bindings {
		if fb.raw {
			idx, ok := rawRefs[fb.jfrField.Name]
			if !ok {
				continue
			}
			assignScalar(dst.Field(fb.structIndex), idx)
			continue
		}

		raw, ok := fields[fb.jfrField.Name]
		if !ok || raw == nil {
			continue
		}
		fv := dst.Field(fb.structIndex)

		if fb.jfrField.Dimension > 0 {
			arr, ok := raw.([]interface{})
			if !ok {
				continue
			}
			slice := reflect.MakeSlice(fv.Type(), len(arr), len(arr))
			for i, elem := range arr {
				if fb.elemNested != nil {
					if m, ok := elem.(map[string]interface{}); ok {
						fb.elemNested.Apply(slice.Index(i), m, nil)
					}
					continue
				}
				assignScalar(slice.Index(i), elem)
			}
			fv.Set(slice)
			continue
		}

		if fb.nested != nil {
			if m, ok := raw.(map[string]interface{}); ok {
				fb.nested.Apply(fv, m, nil)
			}
			continue
		}
		assignScalar(fv, raw)
	}
}

func assignScalar(dst reflect.Value, raw interface{}) {
	rv := reflect.ValueOf(raw)
	if !rv.IsValid() {
		return
	}
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return
	}
	if rv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
	}
}
