// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarfile

import "encoding/binary"

var chunkMagic = [4]byte{'F', 'L', 'R', 0}

// Reserved type ids of the metadata event and the constant-pool checkpoint
// events that every chunk's event stream carries, interleaved with the
// rest. EventDecoder skips any event with one of these ids, even where the
// schema also declares a class with that id.
const (
	reservedTypeMetadata   = 0
	reservedTypeCheckpoint = 1
)

// chunkHeaderSize is the fixed byte length of everything up to and
// including the features field; DataStart is computed from it.
const chunkHeaderSize = 4 + 2 + 2 + 8 + 8 + 8 + 8 + 8 + 8 + 8 + 4

// Chunk is one self-contained segment of a recording: fixed header,
// metadata event, constant-pool checkpoints, then a run of ordinary
// events, all relative to Start.
type Chunk struct {
	Index int
	Start int64
	Size  int64

	Major, Minor uint16

	CPOffset       int64 // chunk-relative
	MetadataOffset int64 // chunk-relative
	StartNanos     int64
	DurationNanos  int64
	StartTicks     int64
	TicksPerSecond int64
	Features       uint32

	DataStart int64 // absolute offset just past the header, where the event stream (metadata and checkpoint events included) begins
}

// End returns the absolute offset one past this chunk, i.e. the start of
// the next chunk or the end of the recording.
func (c *Chunk) End() int64 {
	return c.Start + c.Size
}

// TicksToNanos converts a raw ticks value (as carried on per-event
// startTime fields) into epoch nanoseconds, using this chunk's clock
// calibration: StartNanos + (ticks - StartTicks) * 1e9 / TicksPerSecond.
func (c *Chunk) TicksToNanos(ticks int64) int64 {
	if c.TicksPerSecond == 0 {
		return c.StartNanos
	}
	elapsedTicks := ticks - c.StartTicks
	return c.StartNanos + (elapsedTicks*1_000_000_000)/c.TicksPerSecond
}

// readChunkHeader decodes the fixed header at absolute offset pos. The
// header itself is always big-endian, matching every JFR recording seen
// in the wild; Features bit 0 then selects the byte order for this
// chunk's own event stream (reader.SetByteOrder is applied by the
// caller).
func readChunkHeader(reader *RecordingReader, pos int64, index int) (*Chunk, error) {
	r, err := reader.Slice(pos, reader.Length()-pos)
	if err != nil {
		return nil, err
	}
	r.SetByteOrder(binary.BigEndian)

	magic, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if magic[0] != chunkMagic[0] || magic[1] != chunkMagic[1] || magic[2] != chunkMagic[2] || magic[3] != chunkMagic[3] {
		return nil, newError(ErrBadMagic, pos, "chunk %d: bad magic", index)
	}
	major, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	minor, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	if major > 2 {
		return nil, newError(ErrUnsupportedVersion, pos, "chunk %d: unsupported version %d.%d", index, major, minor)
	}
	size, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	cpOffset, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	metaOffset, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	startNanos, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	durationNanos, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	startTicks, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	ticksPerSecond, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	features, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	if size <= 0 || pos+size > reader.Length() {
		return nil, newError(ErrCorruptedChunkHeader, pos, "chunk %d: size %d runs past end of recording", index, size)
	}
	if cpOffset <= 0 || cpOffset >= size || metaOffset <= 0 || metaOffset >= size {
		return nil, newError(ErrCorruptedChunkHeader, pos, "chunk %d: cpOffset/metadataOffset outside chunk bounds", index)
	}

	return &Chunk{
		Index:          index,
		Start:          pos,
		Size:           size,
		Major:          major,
		Minor:          minor,
		CPOffset:       cpOffset,
		MetadataOffset: metaOffset,
		StartNanos:     startNanos,
		DurationNanos:  durationNanos,
		StartTicks:     startTicks,
		TicksPerSecond: ticksPerSecond,
		Features:       features,
		DataStart:      pos + chunkHeaderSize,
	}, nil
}

func byteOrderFor(features uint32) binary.ByteOrder {
	if features&0x1 != 0 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// readEventEnvelope reads the generic (size, typeId) header shared by
// every event, metadata event and checkpoint alike, and returns a reader
// scoped to exactly that event's payload plus the absolute offset of the
// next event.
func readEventEnvelope(reader *RecordingReader, pos int64) (typeID uint64, payload *RecordingReader, next int64, err error) {
	r, err := reader.Slice(pos, reader.Length()-pos)
	if err != nil {
		return 0, nil, 0, err
	}
	size, err := r.ReadVarint()
	if err != nil {
		return 0, nil, 0, err
	}
	if size < 2 {
		return 0, nil, 0, newError(ErrCorruptedEvent, pos, "event size %d too small for any header", size)
	}
	tid, err := r.ReadVarint()
	if err != nil {
		return 0, nil, 0, err
	}
	headerLen := r.Position()
	payloadSize := int64(size) - headerLen
	if payloadSize < 0 {
		return 0, nil, 0, newError(ErrCorruptedEvent, pos, "event size %d smaller than its own header", size)
	}
	payload, err = reader.Slice(pos+headerLen, payloadSize)
	if err != nil {
		return 0, nil, 0, newError(ErrCorruptedEvent, pos, "event of size %d runs past chunk end", size)
	}
	return tid, payload, pos + int64(size), nil
}

func decodeMetadataAt(reader *RecordingReader, chunk *Chunk) (*MetadataSchema, error) {
	_, payload, _, err := readEventEnvelope(reader, chunk.Start+chunk.MetadataOffset)
	if err != nil {
		return nil, err
	}
	return decodeMetadata(payload)
}

// ChunkParser walks a recording one chunk at a time. Each call to Next
// decodes the next chunk's header, metadata and constant pools (sealing
// every reachable pool entry before returning) and leaves the event
// stream positioned at chunk.DataStart, ready for an EventDecoder.
type ChunkParser struct {
	reader *RecordingReader
	pos    int64
	index  int
	done   bool
}

// NewChunkParser returns a ChunkParser over the whole recording reader.
func NewChunkParser(reader *RecordingReader) *ChunkParser {
	return &ChunkParser{reader: reader}
}

// ScanHeaders walks every chunk header in the recording without decoding
// any metadata or constant pools, for building a lightweight chunk index
// (e.g. a timestamp-to-chunk lookup) far more cheaply than a full parse.
func ScanHeaders(reader *RecordingReader) ([]*Chunk, error) {
	var chunks []*Chunk
	pos := int64(0)
	index := 0
	for pos < reader.Length() {
		c, err := readChunkHeader(reader, pos, index)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
		pos = c.End()
		index++
	}
	return chunks, nil
}

// Next decodes the next chunk, or returns done=true once the recording is
// exhausted. A non-nil error here is never chunk-local: it always means
// the recording as a whole is rejected.
func (p *ChunkParser) Next() (chunk *Chunk, schema *MetadataSchema, pools *ConstantPools, done bool, err error) {
	if p.done || p.pos >= p.reader.Length() {
		return nil, nil, nil, true, nil
	}

	chunk, err = readChunkHeader(p.reader, p.pos, p.index)
	if err != nil {
		p.done = true
		return nil, nil, nil, true, err
	}
	p.reader.SetByteOrder(byteOrderFor(chunk.Features))

	schema, err = decodeMetadataAt(p.reader, chunk)
	if err != nil {
		p.done = true
		return nil, nil, nil, true, err
	}

	pools, err = loadConstantPools(p.reader, chunk, schema)
	if err != nil {
		p.done = true
		return nil, nil, nil, true, err
	}
	fixupConstantPoolFields(schema, pools)
	if err := pools.sealAll(); err != nil {
		p.done = true
		return nil, nil, nil, true, err
	}

	p.pos = chunk.End()
	p.index++
	return chunk, schema, pools, false, nil
}
