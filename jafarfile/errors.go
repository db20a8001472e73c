// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarfile

import "fmt"

// ErrorKind classifies a parse failure. Each kind's doc comment below says
// whether it aborts the whole recording, aborts only the current chunk,
// or is absorbed into a nullable field value.
type ErrorKind int

const (
	// ErrIo wraps a failure from the underlying byte source. Not recoverable.
	ErrIo ErrorKind = iota

	// ErrTruncated means a read ran past the end of the mapped region
	// or the current slice. Not recoverable.
	ErrTruncated

	// ErrBadMagic means a file or chunk magic did not match. Not recoverable.
	ErrBadMagic

	// ErrUnsupportedVersion means the chunk version is outside the
	// range this parser understands. Not recoverable.
	ErrUnsupportedVersion

	// ErrCorruptedChunkHeader means the chunk's own offsets are
	// self-inconsistent (e.g. cpOffset or metadataOffset outside the
	// chunk). Not recoverable.
	ErrCorruptedChunkHeader

	// ErrCorruptedEvent means an event's size is non-positive or would
	// run past the chunk end. Chunk-local: the event loop abandons the
	// rest of the chunk and the parser resumes at the next chunk.
	ErrCorruptedEvent

	// ErrMalformedString means a string tag byte did not match any of
	// the known encodings. Field-local: the field decodes as null.
	ErrMalformedString

	// ErrMalformedMetadata means the metadata event's class/field graph
	// could not be fully resolved. Not recoverable.
	ErrMalformedMetadata

	// ErrUnknownEvent means an event's type ID has no corresponding
	// MetadataClass in the chunk's schema. Event-local: the event's
	// declared byte range is skipped.
	ErrUnknownEvent

	// ErrMissingConstantPool means a CP-referenced field's class has no
	// pool in this chunk. Field-local: the accessor returns null.
	ErrMissingConstantPool

	// ErrCpDanglingRef means a constant-pool index was referenced but
	// never registered by a checkpoint. Field-local: the accessor
	// returns null. Pool.Get returns no error for it; it only records,
	// inside ConstantPools, which pools saw a dangling index.
	ErrCpDanglingRef

	// ErrHandlerFailed wraps an error returned by a user-supplied handler
	// (or by decoding into a typed handler's destination). Propagated to
	// Session.Run; parsing stops. A handler panic is not recovered.
	ErrHandlerFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrIo:
		return "Io"
	case ErrTruncated:
		return "Truncated"
	case ErrBadMagic:
		return "BadMagic"
	case ErrUnsupportedVersion:
		return "UnsupportedVersion"
	case ErrCorruptedChunkHeader:
		return "CorruptedChunkHeader"
	case ErrCorruptedEvent:
		return "CorruptedEvent"
	case ErrMalformedString:
		return "MalformedString"
	case ErrMalformedMetadata:
		return "MalformedMetadata"
	case ErrUnknownEvent:
		return "UnknownEvent"
	case ErrMissingConstantPool:
		return "MissingConstantPool"
	case ErrCpDanglingRef:
		return "CpDanglingRef"
	case ErrHandlerFailed:
		return "HandlerFailed"
	}
	return "Unknown"
}

// Error carries a kind plus whatever positional context was available
// when it was raised. All fields besides Kind and Message are optional; a
// zero value (or -1, for ByteOffset and ChunkIndex) means "not
// applicable".
type Error struct {
	Kind       ErrorKind
	Message    string
	ByteOffset int64 // -1 if not applicable
	ChunkIndex int   // -1 if not applicable
	TypeID     uint64
	FieldName  string
	Cause      error
}

func (e *Error) Error() string {
	if e.ByteOffset >= 0 {
		return fmt.Sprintf("jafar: %s: %s (offset %d)", e.Kind, e.Message, e.ByteOffset)
	}
	return fmt.Sprintf("jafar: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, offset int64, format string, args ...interface{}) *Error {
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		ByteOffset: offset,
		ChunkIndex: -1,
	}
}

// Truncated reports an out-of-bounds read at the given absolute offset,
// needing n more bytes than were available.
func Truncated(offset int64, needed int) *Error {
	e := newError(ErrTruncated, offset, "need %d more bytes", needed)
	return e
}

// Recoverable reports whether err (chunk-local kinds only) permits the
// parser to abandon the current chunk and continue with the next one,
// as opposed to aborting the whole run.
func Recoverable(err error) bool {
	var e *Error
	if !asError(err, &e) {
		return false
	}
	switch e.Kind {
	case ErrCorruptedEvent:
		return true
	default:
		return false
	}
}

func asError(err error, out **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*out = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
