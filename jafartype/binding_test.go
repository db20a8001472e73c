// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafartype

import (
	"testing"

	"github.com/btraceio/jafar/jafarfile"
)

func scalarClasses() (intClass, stringClass *jafarfile.MetadataClass) {
	return &jafarfile.MetadataClass{ID: 1, Name: "int"},
		&jafarfile.MetadataClass{ID: 2, Name: "string"}
}

func sampleSchema(sampleID uint64) (*jafarfile.MetadataClass, *jafarfile.MetadataClass) {
	intClass, stringClass := scalarClasses()
	frame := &jafarfile.MetadataClass{
		ID:   3,
		Name: "jdk.types.StackFrame",
		Fields: []*jafarfile.MetadataField{
			{Name: "method", TypeID: stringClass.ID, Type: stringClass},
			{Name: "line", TypeID: intClass.ID, Type: intClass},
		},
	}
	sample := &jafarfile.MetadataClass{
		ID:   sampleID,
		Name: "jdk.ExecutionSample",
		Fields: []*jafarfile.MetadataField{
			{Name: "depth", TypeID: intClass.ID, Type: intClass},
			{Name: "frames", TypeID: frame.ID, Type: frame, Dimension: 1},
		},
	}
	return sample, frame
}

type frameDst struct {
	Method string `jfr:"method"`
	Line   int64  `jfr:"line"`
}

type sampleDst struct {
	Depth  int64      `jfr:"depth"`
	Frames []frameDst `jfr:"frames"`
}

func sampleEventFields() map[string]interface{} {
	return map[string]interface{}{
		"depth": int64(3),
		"frames": []interface{}{
			map[string]interface{}{"method": "main", "line": int64(10)},
			map[string]interface{}{"method": "compute", "line": int64(20)},
		},
	}
}

func TestTypeHandleDecodeScalarNestedAndArrayFields(t *testing.T) {
	sample, _ := sampleSchema(100)
	handle := Declare("jdk.ExecutionSample", sampleDst{})

	ev := &jafarfile.DecodedEvent{Class: sample, Fields: sampleEventFields()}
	dst := handle.New().(*sampleDst)
	if err := handle.Decode(ev, dst); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if dst.Depth != 3 {
		t.Fatalf("Depth = %d, want 3", dst.Depth)
	}
	if len(dst.Frames) != 2 {
		t.Fatalf("len(Frames) = %d, want 2", len(dst.Frames))
	}
	if dst.Frames[0].Method != "main" || dst.Frames[0].Line != 10 {
		t.Fatalf("Frames[0] = %+v", dst.Frames[0])
	}
	if dst.Frames[1].Method != "compute" || dst.Frames[1].Line != 20 {
		t.Fatalf("Frames[1] = %+v", dst.Frames[1])
	}
}

func TestTypeHandleWrongClassRejected(t *testing.T) {
	sample, _ := sampleSchema(100)
	handle := Declare("jdk.ExecutionSample", sampleDst{})
	ev := &jafarfile.DecodedEvent{Class: sample, Fields: sampleEventFields()}
	ev.Class = &jafarfile.MetadataClass{Name: "jdk.OtherEvent"}
	if err := handle.Decode(ev, handle.New()); err == nil {
		t.Fatalf("expected error decoding mismatched class")
	}
}

// Two classes with identical shape but different ids produce the same
// Fingerprint, and a TypeHandle's binding cache is built once and reused
// across both (checked directly since this is a white-box test).
func TestFingerprintEqualityImpliesCacheHit(t *testing.T) {
	sampleA, _ := sampleSchema(100)
	sampleB, _ := sampleSchema(200) // same shape, different class id

	fpA := MetadataFingerprint(sampleA)
	fpB := MetadataFingerprint(sampleB)
	if fpA != fpB {
		t.Fatalf("fingerprints differ for structurally identical classes")
	}

	handle := Declare("jdk.ExecutionSample", sampleDst{})

	evA := &jafarfile.DecodedEvent{Class: sampleA, Fields: sampleEventFields()}
	dstA := handle.New().(*sampleDst)
	if err := handle.Decode(evA, dstA); err != nil {
		t.Fatalf("Decode A: %v", err)
	}
	if len(handle.cache.m) != 1 {
		t.Fatalf("cache size after first decode = %d, want 1", len(handle.cache.m))
	}

	evB := &jafarfile.DecodedEvent{Class: sampleB, Fields: sampleEventFields()}
	dstB := handle.New().(*sampleDst)
	if err := handle.Decode(evB, dstB); err != nil {
		t.Fatalf("Decode B: %v", err)
	}
	if len(handle.cache.m) != 1 {
		t.Fatalf("cache size after second decode (same shape) = %d, want 1 (hit, not rebuilt)", len(handle.cache.m))
	}
	if dstB.Depth != dstA.Depth || len(dstB.Frames) != len(dstA.Frames) {
		t.Fatalf("decode via cached binding diverged: %+v vs %+v", dstA, dstB)
	}
}

type rawRefDst struct {
	StackTraceID uint64 `jfr:"stackTrace,raw"`
}

// A field tagged ,raw binds to the unresolved constant-pool index itself,
// not the value Fields already resolved it to.
func TestRawConstantPoolIndexBinding(t *testing.T) {
	stClass := &jafarfile.MetadataClass{ID: 50, Name: "jdk.types.StackTrace"}
	sample := &jafarfile.MetadataClass{
		ID:   401,
		Name: "jdk.ExecutionSample",
		Fields: []*jafarfile.MetadataField{
			{Name: "stackTrace", TypeID: stClass.ID, Type: stClass, HasConstantPool: true},
		},
	}

	handle := Declare("jdk.ExecutionSample", rawRefDst{})
	ev := &jafarfile.DecodedEvent{
		Class:   sample,
		Fields:  map[string]interface{}{"stackTrace": map[string]interface{}{"depth": int64(3)}},
		RawRefs: map[string]interface{}{"stackTrace": uint64(42)},
	}
	dst := handle.New().(*rawRefDst)
	if err := handle.Decode(ev, dst); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dst.StackTraceID != 42 {
		t.Fatalf("StackTraceID = %d, want 42 (raw CP index, not the resolved value)", dst.StackTraceID)
	}
}

// A class whose shape actually differs (extra field) gets its own cache
// entry rather than reusing the first binding.
func TestFingerprintChangeRebuildsBinding(t *testing.T) {
	sampleA, _ := sampleSchema(100)
	intClass, _ := scalarClasses()
	sampleC := &jafarfile.MetadataClass{
		ID:   300,
		Name: "jdk.ExecutionSample",
		Fields: []*jafarfile.MetadataField{
			{Name: "depth", TypeID: intClass.ID, Type: intClass},
			{Name: "weight", TypeID: intClass.ID, Type: intClass}, // extra field changes the shape
		},
	}

	if MetadataFingerprint(sampleA) == MetadataFingerprint(sampleC) {
		t.Fatalf("fingerprints should differ: shapes are not the same")
	}

	handle := Declare("jdk.ExecutionSample", sampleDst{})
	_ = handle.Decode(&jafarfile.DecodedEvent{Class: sampleA, Fields: sampleEventFields()}, handle.New())
	_ = handle.Decode(&jafarfile.DecodedEvent{Class: sampleC, Fields: map[string]interface{}{"depth": int64(1), "weight": int64(2)}}, handle.New())

	if len(handle.cache.m) != 2 {
		t.Fatalf("cache size = %d, want 2 distinct bindings for distinct shapes", len(handle.cache.m))
	}
}
