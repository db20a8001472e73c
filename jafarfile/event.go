// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarfile

import "io"

// DecodedEvent is one event decoded against its MetadataClass: an
// untyped field map, keyed by field name, plus the event's raw
// StartTicks. Converting StartTicks into wall-clock time takes the
// chunk's calibration (Chunk.TicksToNanos), which is not carried here.
type DecodedEvent struct {
	TypeID     uint64
	Class      *MetadataClass
	StartTicks int64
	Fields     map[string]interface{}

	// RawRefs carries, for every top-level constant-pool-backed field,
	// the unresolved index the event actually encoded: a uint64 for a
	// scalar field, a []uint64 for an array field. It exists so a raw
	// accessor binding (see jafartype) can surface the index itself
	// instead of the value Fields already resolved it to. Fields nested
	// inside a struct- or array-valued field are not represented here.
	RawRefs map[string]interface{}
}

// EventDecoder walks one chunk's event stream from chunk.DataStart to
// chunk.End(), decoding each event into a DecodedEvent. Metadata and
// constant-pool checkpoint events are consumed silently: ChunkParser
// already decoded them out of band from their declared offsets, and they
// reappear here only because they are physically interleaved with the
// ordinary events.
type EventDecoder struct {
	reader *RecordingReader
	chunk  *Chunk
	schema *MetadataSchema
	pools  *ConstantPools
	pos    int64
}

// NewEventDecoder returns an EventDecoder starting at chunk.DataStart.
func NewEventDecoder(reader *RecordingReader, chunk *Chunk, schema *MetadataSchema, pools *ConstantPools) *EventDecoder {
	return &EventDecoder{reader: reader, chunk: chunk, schema: schema, pools: pools, pos: chunk.DataStart}
}

// Next decodes the next event, or returns io.EOF once the chunk is
// exhausted. A corrupted event's error propagates to the caller exactly
// as encountered, at the byte offset the event started at; Recoverable
// reports whether the caller may treat it as chunk-local (abandon the
// rest of this chunk) rather than aborting the whole recording.
func (d *EventDecoder) Next() (*DecodedEvent, error) {
	for {
		if d.pos >= d.chunk.End() {
			return nil, io.EOF
		}
		typeID, payload, next, err := readEventEnvelope(d.reader, d.pos)
		if err != nil {
			return nil, err
		}
		if next > d.chunk.End() {
			return nil, newError(ErrCorruptedEvent, d.pos, "event of size %d runs past chunk end", next-d.pos)
		}
		d.pos = next

		if typeID == reservedTypeMetadata || typeID == reservedTypeCheckpoint {
			continue
		}
		class, ok := d.schema.Classes[typeID]
		if !ok {
			continue // ErrUnknownEvent: event-local, already skipped via d.pos = next
		}

		fields := make(map[string]interface{}, len(class.Fields))
		rawRefs := make(map[string]interface{})
		if err := decodeClassFields(payload, d.schema, class, d.pools, fields, rawRefs); err != nil {
			return nil, err
		}
		startTicks, _ := fields["startTime"].(int64)
		return &DecodedEvent{TypeID: typeID, Class: class, StartTicks: startTicks, Fields: fields, RawRefs: rawRefs}, nil
	}
}

// decodeClassFields decodes every field declared by class from r into
// out, keyed by field name. r must be scoped to exactly the bytes this
// class's fields occupy (an event payload, or a constant-pool entry's
// byte range). rawOut, if non-nil, additionally receives the unresolved
// constant-pool index of every constant-pool-backed field at this level
// (a uint64, or []uint64 for an array field); nested decodeClassFields
// calls for struct-valued fields pass rawOut as nil, since RawRefs only
// tracks the event's own top-level fields.
func decodeClassFields(r *RecordingReader, schema *MetadataSchema, class *MetadataClass, pools *ConstantPools, out map[string]interface{}, rawOut map[string]interface{}) error {
	for _, field := range class.Fields {
		v, raw, hasRaw, err := decodeField(r, schema, field, pools)
		if err != nil {
			return err
		}
		out[field.Name] = v
		if hasRaw && rawOut != nil {
			rawOut[field.Name] = raw
		}
	}
	return nil
}

func decodeField(r *RecordingReader, schema *MetadataSchema, field *MetadataField, pools *ConstantPools) (value interface{}, raw interface{}, hasRaw bool, err error) {
	if field.Dimension > 0 {
		n, err := r.ReadVarint()
		if err != nil {
			return nil, nil, false, err
		}
		vals := make([]interface{}, n)
		var raws []uint64
		if field.HasConstantPool {
			raws = make([]uint64, n)
		}
		for i := range vals {
			v, idx, hasCP, err := decodeFieldValue(r, schema, field, pools)
			if err != nil {
				return nil, nil, false, err
			}
			vals[i] = v
			if hasCP {
				raws[i] = idx
			}
		}
		if raws != nil {
			return vals, raws, true, nil
		}
		return vals, nil, false, nil
	}
	v, idx, hasCP, err := decodeFieldValue(r, schema, field, pools)
	if err != nil {
		return nil, nil, false, err
	}
	if hasCP {
		return v, idx, true, nil
	}
	return v, nil, false, nil
}

// decodeFieldValue decodes one scalar occurrence of field. When field is
// constant-pool-backed, it additionally returns the raw index that was
// read off the wire (cpIndex, hasCP=true), independent of whether that
// index actually resolved to a value.
func decodeFieldValue(r *RecordingReader, schema *MetadataSchema, field *MetadataField, pools *ConstantPools) (value interface{}, cpIndex uint64, hasCP bool, err error) {
	if field.HasConstantPool {
		idx, err := r.ReadVarint()
		if err != nil {
			return nil, 0, false, err
		}
		if idx == 0 {
			return nil, 0, true, nil
		}
		pool, ok := pools.GetPool(field.Type.ID)
		if !ok {
			return nil, idx, true, nil // ErrMissingConstantPool: field-local null
		}
		v, err := pool.Get(idx)
		if err != nil {
			return nil, idx, true, err
		}
		return v, idx, true, nil
	}
	v, err := decodeClassValue(r, schema, field.Type, pools)
	return v, 0, false, err
}

// decodeClassValue decodes one scalar value of the given class: a
// primitive, the "string" sentinel type, or (recursively) a nested
// struct with no constant pool of its own.
func decodeClassValue(r *RecordingReader, schema *MetadataSchema, class *MetadataClass, pools *ConstantPools) (interface{}, error) {
	switch class.Name {
	case "int", "long", "short", "byte":
		u, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		return zigzag(u), nil
	case "char":
		u, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		return uint16(u), nil
	case "boolean":
		return r.ReadBool()
	case "float":
		return r.ReadF32()
	case "double":
		return r.ReadF64()
	case "string":
		s, cpRef, err := r.ReadString()
		if err != nil {
			var e *Error
			if asError(err, &e) && e.Kind == ErrMalformedString {
				return nil, nil
			}
			return nil, err
		}
		if cpRef == 0 {
			return s, nil
		}
		strClass, ok := schema.ClassByName("string")
		if !ok {
			return nil, nil
		}
		pool, ok := pools.GetPool(strClass.ID)
		if !ok {
			return nil, nil
		}
		v, err := pool.Get(cpRef)
		if err != nil {
			return nil, err
		}
		sv, _ := v.(string)
		return sv, nil
	default:
		m := make(map[string]interface{}, len(class.Fields))
		if err := decodeClassFields(r, schema, class, pools, m, nil); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// skipClassFields advances r past every field class declares, without
// allocating any decoded value. It is the no-allocation counterpart of
// decodeClassFields, used to discover a constant-pool entry's byte extent
// during the checkpoint walk and, symmetrically, could skip any event
// whose declared type is of no interest to the caller.
func skipClassFields(r *RecordingReader, schema *MetadataSchema, class *MetadataClass) error {
	for _, field := range class.Fields {
		if err := skipField(r, schema, field); err != nil {
			return err
		}
	}
	return nil
}

func skipField(r *RecordingReader, schema *MetadataSchema, field *MetadataField) error {
	if field.Dimension > 0 {
		n, err := r.ReadVarint()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := skipFieldValue(r, schema, field); err != nil {
				return err
			}
		}
		return nil
	}
	return skipFieldValue(r, schema, field)
}

func skipFieldValue(r *RecordingReader, schema *MetadataSchema, field *MetadataField) error {
	if field.HasConstantPool {
		_, err := r.ReadVarint()
		return err
	}
	return skipClassValue(r, schema, field.Type)
}

func skipClassValue(r *RecordingReader, schema *MetadataSchema, class *MetadataClass) error {
	switch class.Name {
	case "int", "long", "short", "byte", "char":
		_, err := r.ReadVarint()
		return err
	case "boolean":
		_, err := r.ReadBool()
		return err
	case "float":
		_, err := r.ReadF32()
		return err
	case "double":
		_, err := r.ReadF64()
		return err
	case "string":
		return r.SkipString()
	default:
		return skipClassFields(r, schema, class)
	}
}
