// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarfile

import (
	"encoding/binary"
	"math"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// A RecordingReader is a random-access byte source over an entire JFR
// recording, or over an independent sub-range of one returned by Slice.
//
// RecordingReader never copies the bytes it reads: every typed reader and
// every Slice aliases the same backing array, exactly as a memory-mapped
// file aliases the pages it was mapped from. A value outlives the
// RecordingReader only as long as its backing array does.
//
// A RecordingReader is not safe for concurrent use; each chunk, and each
// sub-region decoded within a chunk, uses its own RecordingReader value.
type RecordingReader struct {
	data  []byte
	order binary.ByteOrder
	pos   int64
}

// mappedRecording owns the memory-mapped region backing the top-level
// RecordingReader returned by Open.
type mappedRecording struct {
	m mmap.MMap
	f *os.File
}

func (r *mappedRecording) Close() error {
	uerr := r.m.Unmap()
	ferr := r.f.Close()
	if uerr != nil {
		return uerr
	}
	return ferr
}

// Open memory-maps the named recording file read-only and returns a
// RecordingReader over the whole thing, plus an io.Closer that unmaps (and
// closes the underlying file) when the caller is done.
//
// The returned RecordingReader defaults to big-endian, which is what every
// JFR recording in the wild uses; SetByteOrder overrides this once a
// chunk's feature flags have been decoded.
func Open(name string) (*RecordingReader, *mappedRecording, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return New(m), &mappedRecording{m: m, f: f}, nil
}

// New wraps an already-available byte slice (typically a memory-mapped
// region, but any byte slice works, which is how tests construct small
// in-memory recordings) in a RecordingReader positioned at offset 0.
func New(data []byte) *RecordingReader {
	return &RecordingReader{data: data, order: binary.BigEndian}
}

// ByteOrder returns the byte order typed reads are currently decoded with.
func (r *RecordingReader) ByteOrder() binary.ByteOrder {
	return r.order
}

// SetByteOrder normalizes the byte order used by subsequent typed reads.
// This is set once, at chunk-decode start, from the chunk's feature
// flags.
func (r *RecordingReader) SetByteOrder(order binary.ByteOrder) {
	r.order = order
}

// Position returns the current absolute cursor, relative to the start of
// this RecordingReader's own view (not the whole recording, if this
// RecordingReader came from Slice).
func (r *RecordingReader) Position() int64 {
	return r.pos
}

// SetPosition moves the cursor to an absolute offset within this view.
func (r *RecordingReader) SetPosition(pos int64) error {
	if pos < 0 || pos > int64(len(r.data)) {
		return Truncated(pos, 0)
	}
	r.pos = pos
	return nil
}

// Skip advances the cursor by n bytes, which may be negative.
func (r *RecordingReader) Skip(n int64) error {
	return r.SetPosition(r.pos + n)
}

// Remaining returns the number of bytes between the cursor and the end of
// this view.
func (r *RecordingReader) Remaining() int64 {
	return int64(len(r.data)) - r.pos
}

// Length returns the total size of this view, independent of the cursor.
func (r *RecordingReader) Length() int64 {
	return int64(len(r.data))
}

// Slice returns an independent RecordingReader over [pos, pos+size) of this
// view, with its own cursor starting at 0. The returned reader aliases the
// same backing array; no bytes are copied.
func (r *RecordingReader) Slice(pos, size int64) (*RecordingReader, error) {
	if pos < 0 || size < 0 || pos+size > int64(len(r.data)) {
		return nil, Truncated(pos, int(size))
	}
	return &RecordingReader{data: r.data[pos : pos+size], order: r.order}, nil
}

func (r *RecordingReader) need(n int) ([]byte, error) {
	if r.Remaining() < int64(n) {
		return nil, Truncated(r.pos, n-int(r.Remaining()))
	}
	b := r.data[r.pos : r.pos+int64(n)]
	r.pos += int64(n)
	return b, nil
}

// ReadBytes returns the next n bytes as a slice into the backing array,
// without copying, and advances the cursor.
func (r *RecordingReader) ReadBytes(n int) ([]byte, error) {
	return r.need(n)
}

// PeekByte returns the byte at the cursor without advancing it.
func (r *RecordingReader) PeekByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, Truncated(r.pos, 1)
	}
	return r.data[r.pos], nil
}

// ReadU8 reads a single unsigned byte.
func (r *RecordingReader) ReadU8() (uint8, error) {
	b, err := r.need(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBool reads a single byte as a boolean: zero is false, anything else
// is true.
func (r *RecordingReader) ReadBool() (bool, error) {
	b, err := r.ReadU8()
	return b != 0, err
}

// ReadI16 reads a 2-byte signed integer, byte-order-normalized.
func (r *RecordingReader) ReadI16() (int16, error) {
	b, err := r.need(2)
	if err != nil {
		return 0, err
	}
	return int16(r.order.Uint16(b)), nil
}

// ReadU16 reads a 2-byte unsigned integer, byte-order-normalized.
func (r *RecordingReader) ReadU16() (uint16, error) {
	b, err := r.need(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

// ReadI32 reads a 4-byte signed integer, byte-order-normalized.
func (r *RecordingReader) ReadI32() (int32, error) {
	b, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return int32(r.order.Uint32(b)), nil
}

// ReadU32 reads a 4-byte unsigned integer, byte-order-normalized.
func (r *RecordingReader) ReadU32() (uint32, error) {
	b, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

// ReadI64 reads an 8-byte signed integer, byte-order-normalized.
func (r *RecordingReader) ReadI64() (int64, error) {
	b, err := r.need(8)
	if err != nil {
		return 0, err
	}
	return int64(r.order.Uint64(b)), nil
}

// ReadU64 reads an 8-byte unsigned integer, byte-order-normalized.
func (r *RecordingReader) ReadU64() (uint64, error) {
	b, err := r.need(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

// ReadF32 reads a 4-byte IEEE-754 float, byte-order-normalized.
func (r *RecordingReader) ReadF32() (float32, error) {
	bits, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// ReadF64 reads an 8-byte IEEE-754 double, byte-order-normalized.
func (r *RecordingReader) ReadF64() (float64, error) {
	bits, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// ReadVarint reads an unsigned LEB128-like varint: seven data bits per
// byte with the high bit as a continuation flag, for up to eight bytes; a
// ninth byte, if reached, contributes all eight of its bits with no
// continuation flag. Consumes at most 9 bytes.
func (r *RecordingReader) ReadVarint() (uint64, error) {
	var result uint64
	for i := 0; i < 8; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return result, nil
		}
	}
	b, err := r.ReadU8()
	if err != nil {
		return 0, err
	}
	result |= uint64(b) << 56
	return result, nil
}

// zigzag decodes a zigzag-encoded signed value read as an unsigned
// varint, as used by signed int/long/short/byte fields (char is read
// unsigned).
func zigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}
