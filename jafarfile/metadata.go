// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarfile

import "strconv"

// MetadataClass describes one JFR type declared in a chunk's metadata
// event. Class ids are unique within a chunk but are not stable across
// chunks.
type MetadataClass struct {
	ID          uint64
	Name        string
	SuperType   string
	Fields      []*MetadataField
	Annotations []Annotation
	Settings    []Setting
}

// MetadataField describes one field of a MetadataClass.
type MetadataField struct {
	Name            string
	TypeID          uint64
	Type            *MetadataClass // resolved by decodeMetadata; never nil after a successful decode
	Dimension       int            // 0 = scalar, 1 = array
	HasConstantPool bool
	Signed          bool // whether a primitive value needs zigzag decoding
	Annotations     []Annotation
}

// Annotation is an annotation attached to a class or field, keyed by the
// id of the annotation's own class.
type Annotation struct {
	ClassID uint64
	Values  map[string]string
}

// Setting is a declared event-setting control (e.g. "enabled", "period")
// attached to an event class.
type Setting struct {
	Name  string
	Value string
}

// MetadataSchema is the decoded class/field/annotation graph for one
// chunk.
type MetadataSchema struct {
	Strings       []string
	Classes       map[uint64]*MetadataClass
	ClassesByName map[string]*MetadataClass
}

// ClassByName looks up a MetadataClass by its JFR type name, e.g.
// "jdk.ExecutionSample".
func (s *MetadataSchema) ClassByName(name string) (*MetadataClass, bool) {
	c, ok := s.ClassesByName[name]
	return c, ok
}

// metadataElement is the generic XML-like tree node the metadata event is
// serialized as: a string-indexed name, a set of string-indexed
// attributes, and child elements.
type metadataElement struct {
	Name     string
	Attrs    map[string]string
	Children []*metadataElement
}

func (e *metadataElement) childrenNamed(name string) []*metadataElement {
	var out []*metadataElement
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (e *metadataElement) attrUint64(key string) uint64 {
	v, _ := strconv.ParseUint(e.Attrs[key], 10, 64)
	return v
}

func (e *metadataElement) attrBool(key string) bool {
	return e.Attrs[key] == "true"
}

func (e *metadataElement) attrInt(key string) int {
	v, _ := strconv.Atoi(e.Attrs[key])
	return v
}

// decodeMetadata decodes the metadata event's payload. r must be
// positioned at the start of the payload, sized to exactly the event's
// length.
func decodeMetadata(r *RecordingReader) (*MetadataSchema, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	strs := make([]string, n)
	for i := range strs {
		s, _, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		strs[i] = s
	}

	root, err := decodeElement(r, strs)
	if err != nil {
		return nil, err
	}

	schema := &MetadataSchema{
		Strings:       strs,
		Classes:       make(map[uint64]*MetadataClass),
		ClassesByName: make(map[string]*MetadataClass),
	}
	collectClasses(root, schema)

	for _, class := range schema.Classes {
		for _, field := range class.Fields {
			typ, ok := schema.Classes[field.TypeID]
			if !ok {
				return nil, newError(ErrMalformedMetadata, -1,
					"field %s.%s refers to unresolved type id %d", class.Name, field.Name, field.TypeID)
			}
			field.Type = typ
			field.Signed = isSignedPrimitive(typ.Name)
		}
	}
	return schema, nil
}

func decodeElement(r *RecordingReader, strs []string) (*metadataElement, error) {
	nameIdx, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	attrCount, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]string, attrCount)
	for i := uint64(0); i < attrCount; i++ {
		keyIdx, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		valIdx, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		attrs[stringAt(strs, keyIdx)] = stringAt(strs, valIdx)
	}
	childCount, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	children := make([]*metadataElement, childCount)
	for i := range children {
		children[i], err = decodeElement(r, strs)
		if err != nil {
			return nil, err
		}
	}
	return &metadataElement{Name: stringAt(strs, nameIdx), Attrs: attrs, Children: children}, nil
}

func stringAt(strs []string, idx uint64) string {
	if idx >= uint64(len(strs)) {
		return ""
	}
	return strs[idx]
}

// collectClasses walks the decoded element tree looking for "class"
// elements at any depth (real recordings nest them under a "metadata" ->
// "region"-style wrapper, but the wrapper names vary by producer, so this
// walk does not assume a fixed depth).
func collectClasses(e *metadataElement, schema *MetadataSchema) {
	for _, child := range e.Children {
		if child.Name == "class" {
			class := decodeClass(child)
			schema.Classes[class.ID] = class
			schema.ClassesByName[class.Name] = class
		} else {
			collectClasses(child, schema)
		}
	}
}

func decodeClass(e *metadataElement) *MetadataClass {
	class := &MetadataClass{
		ID:        e.attrUint64("id"),
		Name:      e.Attrs["name"],
		SuperType: e.Attrs["superType"],
	}
	for _, fe := range e.childrenNamed("field") {
		field := &MetadataField{
			Name:            fe.Attrs["name"],
			TypeID:          fe.attrUint64("class"),
			Dimension:       fe.attrInt("dimension"),
			HasConstantPool: fe.attrBool("constantPool"),
		}
		for _, ae := range fe.childrenNamed("annotation") {
			field.Annotations = append(field.Annotations, decodeAnnotation(ae))
		}
		class.Fields = append(class.Fields, field)
	}
	for _, ae := range e.childrenNamed("annotation") {
		class.Annotations = append(class.Annotations, decodeAnnotation(ae))
	}
	for _, se := range e.childrenNamed("setting") {
		class.Settings = append(class.Settings, Setting{Name: se.Attrs["name"], Value: se.Attrs["defaultValue"]})
	}
	return class
}

func decodeAnnotation(e *metadataElement) Annotation {
	values := make(map[string]string, len(e.Attrs)-1)
	for k, v := range e.Attrs {
		if k == "class" {
			continue
		}
		values[k] = v
	}
	return Annotation{ClassID: e.attrUint64("class"), Values: values}
}

// fixupConstantPoolFields marks every field whose resolved type has a pool
// present in pools, for producers that omit the "constantPool" metadata
// attribute and instead only imply it by emitting a pool for that type.
func fixupConstantPoolFields(schema *MetadataSchema, pools *ConstantPools) {
	for _, class := range schema.Classes {
		for _, field := range class.Fields {
			if field.HasConstantPool {
				continue
			}
			if field.Type != nil && pools.hasPool(field.Type.ID) {
				field.HasConstantPool = true
			}
		}
	}
}

func isSignedPrimitive(name string) bool {
	switch name {
	case "int", "long", "short", "byte":
		return true
	default:
		return false
	}
}
