// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarfile

import "unicode/utf16"

// String encoding tags.
const (
	stringTagNull    = 0
	stringTagEmpty   = 1
	stringTagCPRef   = 2
	stringTagUTF8    = 3
	stringTagCharArr = 4
	stringTagLatin1  = 5
)

// ReadString decodes one tagged string. cpRef is the constant-pool index
// for a tag-2 string, which the caller resolves against the pool of the
// schema's "string" class; it is meaningless for any other tag.
func (r *RecordingReader) ReadString() (s string, cpRef uint64, err error) {
	tag, err := r.ReadU8()
	if err != nil {
		return "", 0, err
	}
	switch tag {
	case stringTagNull:
		return "", 0, nil

	case stringTagEmpty:
		return "", 0, nil

	case stringTagCPRef:
		idx, err := r.ReadVarint()
		if err != nil {
			return "", 0, err
		}
		return "", idx, nil

	case stringTagUTF8:
		n, err := r.ReadVarint()
		if err != nil {
			return "", 0, err
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return "", 0, err
		}
		return string(b), 0, nil

	case stringTagCharArr:
		n, err := r.ReadVarint()
		if err != nil {
			return "", 0, err
		}
		units := make([]uint16, n)
		for i := range units {
			u, err := r.ReadVarint()
			if err != nil {
				return "", 0, err
			}
			units[i] = uint16(u)
		}
		return string(utf16.Decode(units)), 0, nil

	case stringTagLatin1:
		n, err := r.ReadVarint()
		if err != nil {
			return "", 0, err
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return "", 0, err
		}
		return latin1ToUTF8(b), 0, nil
	}
	return "", 0, newError(ErrMalformedString, r.pos-1, "unknown string tag %d", tag)
}

// SkipString consumes the same bytes ReadString would, without allocating
// a Go string.
func (r *RecordingReader) SkipString() error {
	tag, err := r.ReadU8()
	if err != nil {
		return err
	}
	switch tag {
	case stringTagNull, stringTagEmpty:
		return nil

	case stringTagCPRef:
		_, err := r.ReadVarint()
		return err

	case stringTagUTF8, stringTagLatin1:
		n, err := r.ReadVarint()
		if err != nil {
			return err
		}
		return r.Skip(int64(n))

	case stringTagCharArr:
		n, err := r.ReadVarint()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if _, err := r.ReadVarint(); err != nil {
				return err
			}
		}
		return nil
	}
	return newError(ErrMalformedString, r.pos-1, "unknown string tag %d", tag)
}

func latin1ToUTF8(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
