// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarfile

import "encoding/binary"

// Shared fixture-building helpers for this package's tests: enough of an
// encoder to construct small, valid (or deliberately invalid) recordings
// byte-for-byte, mirroring the decode side in reader.go/chunk.go/
// metadata.go/cpool.go exactly.

func encodeVarint(v uint64) []byte {
	var out []byte
	for i := 0; i < 8; i++ {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
	return append(out, byte(v))
}

func encodeString(s string) []byte {
	out := []byte{stringTagUTF8}
	out = append(out, encodeVarint(uint64(len(s)))...)
	return append(out, s...)
}

// buildEvent wraps payload in the generic (size, typeId) event envelope,
// computing size as a fixed point since the size varint's own length
// contributes to the total it describes.
func buildEvent(typeID uint64, payload []byte) []byte {
	typeBytes := encodeVarint(typeID)
	sizeLen := 1
	for {
		total := sizeLen + len(typeBytes) + len(payload)
		sb := encodeVarint(uint64(total))
		if len(sb) == sizeLen {
			out := append([]byte{}, sb...)
			out = append(out, typeBytes...)
			out = append(out, payload...)
			return out
		}
		sizeLen = len(sb)
	}
}

// elem is a metadata element-tree node under construction.
type elem struct {
	name     string
	attrs    [][2]string
	children []elem
}

type interner struct {
	index map[string]int
	order []string
}

func newInterner() *interner {
	return &interner{index: map[string]int{}}
}

func (in *interner) intern(s string) int {
	if i, ok := in.index[s]; ok {
		return i
	}
	i := len(in.order)
	in.index[s] = i
	in.order = append(in.order, s)
	return i
}

func encodeElement(e elem, in *interner) []byte {
	var buf []byte
	buf = append(buf, encodeVarint(uint64(in.intern(e.name)))...)
	buf = append(buf, encodeVarint(uint64(len(e.attrs)))...)
	for _, kv := range e.attrs {
		buf = append(buf, encodeVarint(uint64(in.intern(kv[0])))...)
		buf = append(buf, encodeVarint(uint64(in.intern(kv[1])))...)
	}
	buf = append(buf, encodeVarint(uint64(len(e.children)))...)
	for _, c := range e.children {
		buf = append(buf, encodeElement(c, in)...)
	}
	return buf
}

// encodeMetadata builds a full metadata event payload (string table plus
// element tree) for a "metadata" root wrapping the given class elements.
func encodeMetadata(classes []elem) []byte {
	in := newInterner()
	root := elem{name: "metadata", children: classes}
	treeBytes := encodeElement(root, in)

	var payload []byte
	payload = append(payload, encodeVarint(uint64(len(in.order)))...)
	for _, s := range in.order {
		payload = append(payload, encodeString(s)...)
	}
	payload = append(payload, treeBytes...)
	return payload
}

func classElem(id uint64, name, superType string, fields []elem) elem {
	return elem{
		name: "class",
		attrs: [][2]string{
			{"id", itoa(id)},
			{"name", name},
			{"superType", superType},
		},
		children: fields,
	}
}

func fieldElem(name string, classID uint64, dimension int, hasCP bool) elem {
	return elem{
		name: "field",
		attrs: [][2]string{
			{"name", name},
			{"class", itoa(classID)},
			{"dimension", itoa(uint64(dimension))},
			{"constantPool", boolStr(hasCP)},
		},
	}
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var b []byte
	for v > 0 {
		b = append([]byte{byte('0' + v%10)}, b...)
		v /= 10
	}
	return string(b)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// primitiveClasses returns the built-in scalar classes every test schema
// needs: ids are caller-assigned so tests can pick stable, readable
// numbers.
func primitiveClasses(ids map[string]uint64) []elem {
	var out []elem
	for name, id := range ids {
		out = append(out, classElem(id, name, "", nil))
	}
	return out
}

// chunkSpec describes one chunk to encode via encodeChunk.
type chunkSpec struct {
	major, minor                           uint16
	metadataPayload                        []byte
	checkpointPayload                      []byte
	events                                 [][]byte
	startNanos, durationNanos              int64
	startTicks, ticksPerSecond             int64
	features                               uint32
	corruptFirstEventSize                  bool // test hook: scenario 5
}

func encodeChunk(spec chunkSpec) []byte {
	metaEvent := buildEvent(reservedTypeMetadata, spec.metadataPayload)
	cpEvent := buildEvent(reservedTypeCheckpoint, spec.checkpointPayload)

	body := append([]byte{}, metaEvent...)
	body = append(body, cpEvent...)
	firstEventOffsetInBody := len(body)
	for _, e := range spec.events {
		body = append(body, e...)
	}

	if spec.corruptFirstEventSize && len(spec.events) > 0 {
		// Overwrite the first ordinary event's size varint (a single
		// byte for the small fixtures these tests use) with a value
		// that claims far more bytes than actually follow it.
		body[firstEventOffsetInBody] = 0x7f
	}

	metaOffset := int64(chunkHeaderSize)
	cpOffset := metaOffset + int64(len(metaEvent))
	size := cpOffset + int64(len(cpEvent)) + int64(len(body)-firstEventOffsetInBody)

	header := make([]byte, 0, chunkHeaderSize)
	header = append(header, chunkMagic[:]...)
	header = binary.BigEndian.AppendUint16(header, spec.major)
	header = binary.BigEndian.AppendUint16(header, spec.minor)
	header = binary.BigEndian.AppendUint64(header, uint64(size))
	header = binary.BigEndian.AppendUint64(header, uint64(cpOffset))
	header = binary.BigEndian.AppendUint64(header, uint64(metaOffset))
	header = binary.BigEndian.AppendUint64(header, uint64(spec.startNanos))
	header = binary.BigEndian.AppendUint64(header, uint64(spec.durationNanos))
	header = binary.BigEndian.AppendUint64(header, uint64(spec.startTicks))
	header = binary.BigEndian.AppendUint64(header, uint64(spec.ticksPerSecond))
	header = binary.BigEndian.AppendUint32(header, spec.features)

	return append(header, body...)
}
