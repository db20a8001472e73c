// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarfile

// byteRange is an entry's undecoded location, registered during the
// checkpoint walk and decoded lazily on first Get.
type byteRange struct {
	pos, size int64
}

// Pool is the per-class table of one chunk's ConstantPools: an
// indexId -> value mapping for a single MetadataClass.
type Pool struct {
	classID   uint64
	owner     *ConstantPools
	ranges    map[uint64]byteRange
	values    map[uint64]interface{}
	resolving map[uint64]bool // indices currently being decoded, for cycle detection
}

// Get resolves index to its decoded value. Index 0 is the canonical null
// reference for every pool and is never dereferenced. If index was never
// registered by a checkpoint, Get returns (nil, nil), which the caller
// treats as a field-local null, and marks this pool's class in the
// ConstantPools as having seen a dangling index. That mark is not
// surfaced outside ConstantPools; no error is reported for it.
func (p *Pool) Get(index uint64) (interface{}, error) {
	if index == 0 {
		return nil, nil
	}
	if v, ok := p.values[index]; ok {
		return v, nil
	}
	if p.resolving[index] {
		// Cyclic reference (e.g. a Symbol referencing another Symbol
		// that, transitively, references the first): return the
		// partially-constructed placeholder already installed below.
		// The second caller observes it as-is; once the original
		// call finishes, further lookups see the fully populated map
		// because it's the same map value.
		return p.values[index], nil
	}

	rng, ok := p.ranges[index]
	if !ok {
		p.owner.reportDanglingOnce(p.classID)
		return nil, nil
	}

	class, ok := p.owner.schema.Classes[p.classID]
	if !ok {
		return nil, nil
	}

	placeholder := make(map[string]interface{}, len(class.Fields))
	p.resolving[index] = true
	p.values[index] = placeholder

	r, err := p.owner.reader.Slice(rng.pos, rng.size)
	if err != nil {
		delete(p.resolving, index)
		return nil, err
	}
	if err := decodeClassFields(r, p.owner.schema, class, p.owner, placeholder, nil); err != nil {
		delete(p.resolving, index)
		return nil, err
	}
	delete(p.resolving, index)
	return placeholder, nil
}

// ConstantPools is the mapping classId -> Pool for one chunk. It is built
// once per chunk by loadConstantPools and released at the chunk boundary.
type ConstantPools struct {
	reader   *RecordingReader // reader over the whole recording, absolute offsets
	schema   *MetadataSchema
	pools    map[uint64]*Pool
	reported map[uint64]bool // classIDs whose pool saw a dangling index this chunk
}

func newConstantPools(reader *RecordingReader, schema *MetadataSchema) *ConstantPools {
	return &ConstantPools{
		reader:   reader,
		schema:   schema,
		pools:    make(map[uint64]*Pool),
		reported: make(map[uint64]bool),
	}
}

// GetPool returns the Pool for classID, or (nil, false) if this chunk
// declared no pool at all for that class: field-local, the accessor
// returns null.
func (c *ConstantPools) GetPool(classID uint64) (*Pool, bool) {
	p, ok := c.pools[classID]
	return p, ok
}

func (c *ConstantPools) hasPool(classID uint64) bool {
	_, ok := c.pools[classID]
	return ok
}

func (c *ConstantPools) reportDanglingOnce(classID uint64) {
	c.reported[classID] = true
}

func (c *ConstantPools) ensurePool(classID uint64) *Pool {
	p, ok := c.pools[classID]
	if !ok {
		p = &Pool{
			classID:   classID,
			owner:     c,
			ranges:    make(map[uint64]byteRange),
			values:    make(map[uint64]interface{}),
			resolving: make(map[uint64]bool),
		}
		c.pools[classID] = p
	}
	return p
}

// sealAll materializes every registered index of every pool so that a
// hard I/O or truncation failure surfaces at chunk-decode time rather
// than on first access. Field-local failures (a dangling index, a
// missing pool referenced from within an entry) resolve to nil and do
// not reject the chunk; only a hard I/O or truncation failure does.
func (c *ConstantPools) sealAll() error {
	for _, p := range c.pools {
		for idx := range p.ranges {
			if _, err := p.Get(idx); err != nil {
				var e *Error
				if asError(err, &e) && (e.Kind == ErrIo || e.Kind == ErrTruncated) {
					return err
				}
			}
		}
	}
	return nil
}

// checkpoint is what the loader keeps of an on-disk CP checkpoint record:
// readCheckpoint reads size/startTime/duration/typeMask off the wire but
// does not keep them; delta is the backward offset to the prior checkpoint
// (0 terminates the chain).
type checkpoint struct {
	pos       int64
	delta     uint64
	poolSpecs []poolSpec
}

type poolSpec struct {
	classID uint64
	entries []indexedEntry
}

type indexedEntry struct {
	index uint64
	start int64
	size  int64
}

// loadConstantPools walks the checkpoint chain anchored at chunk's
// constant-pool offset and registers every entry's byte range, without
// decoding any of them. Decoding happens lazily via Pool.Get.
func loadConstantPools(reader *RecordingReader, chunk *Chunk, schema *MetadataSchema) (*ConstantPools, error) {
	cps := newConstantPools(reader, schema)
	if chunk.CPOffset == 0 {
		return cps, nil
	}

	// Walk earliest-to-latest: follow delta pointers onto a stack, then
	// pop and register in chronological order. Order of registration
	// doesn't actually matter for correctness since resolution is lazy,
	// but walking oldest-first mirrors how a forward reader would
	// encounter the chain.
	var chain []*checkpoint
	pos := chunk.Start + chunk.CPOffset
	seen := map[int64]bool{}
	for pos != 0 {
		if seen[pos] {
			return nil, newError(ErrCorruptedChunkHeader, pos, "constant pool checkpoint chain cycles back on itself")
		}
		seen[pos] = true
		ck, err := readCheckpoint(reader, pos, schema)
		if err != nil {
			return nil, err
		}
		chain = append(chain, ck)
		if ck.delta == 0 {
			break
		}
		pos = ck.pos - int64(ck.delta)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, ps := range chain[i].poolSpecs {
			pool := cps.ensurePool(ps.classID)
			for _, e := range ps.entries {
				pool.ranges[e.index] = byteRange{pos: e.start, size: e.size}
			}
		}
	}
	return cps, nil
}

func readCheckpoint(reader *RecordingReader, pos int64, schema *MetadataSchema) (*checkpoint, error) {
	r, err := reader.Slice(pos, reader.Length()-pos)
	if err != nil {
		return nil, err
	}
	eventSize, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	if _, err := r.ReadVarint(); err != nil { // typeId, always the reserved checkpoint type
		return nil, err
	}
	if _, err := r.ReadVarint(); err != nil { // startTime
		return nil, err
	}
	if _, err := r.ReadVarint(); err != nil { // duration
		return nil, err
	}
	delta, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	if _, err := r.ReadVarint(); err != nil { // typeMask
		return nil, err
	}
	poolCount, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}

	ck := &checkpoint{pos: pos, delta: delta}
	for i := uint64(0); i < poolCount; i++ {
		classID, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		count, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		ps := poolSpec{classID: classID}
		class := schema.Classes[classID]
		for j := uint64(0); j < count; j++ {
			index, err := r.ReadVarint()
			if err != nil {
				return nil, err
			}
			start := pos + r.Position()
			if class != nil {
				if err := skipClassFields(r, schema, class); err != nil {
					return nil, err
				}
			}
			size := (pos + r.Position()) - start
			ps.entries = append(ps.entries, indexedEntry{index: index, start: start, size: size})
		}
		ck.poolSpecs = append(ck.poolSpecs, ps)
	}
	_ = eventSize
	return ck, nil
}
