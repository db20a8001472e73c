// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarsession

import "sort"

// ranges stores values associated with disjoint [lo, hi) ranges of
// nanosecond timestamps and supports O(log n) point lookup. A Session
// uses one to map an arbitrary recording timestamp back to the chunk
// that covers it.
type ranges struct {
	rs     []rangeEnt
	sorted bool
}

type rangeEnt struct {
	lo, hi uint64
	val    interface{}
}

// add inserts val for [lo, hi). Undefined if [lo, hi) overlaps a range
// already present.
func (r *ranges) add(lo, hi uint64, val interface{}) {
	r.rs = append(r.rs, rangeEnt{lo, hi, val})
	r.sorted = false
}

// get returns the value whose range contains idx, if any.
func (r *ranges) get(idx uint64) (val interface{}, ok bool) {
	if r == nil {
		return nil, false
	}
	rs := r.rs
	if !r.sorted {
		sort.Slice(rs, func(i, j int) bool { return rs[i].lo < rs[j].lo })
		r.sorted = true
	}
	i := sort.Search(len(rs), func(i int) bool { return idx < rs[i].hi })
	if i < len(rs) && rs[i].lo <= idx && idx < rs[i].hi {
		return rs[i].val, true
	}
	return nil, false
}
