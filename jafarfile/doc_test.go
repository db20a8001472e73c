// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jafarfile

import (
	"fmt"
	"io"
	"log"
)

func Example() {
	reader, closer, err := Open("recording.jfr")
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	parser := NewChunkParser(reader)
	for {
		chunk, schema, pools, done, err := parser.Next()
		if err != nil {
			log.Fatal(err)
		}
		if done {
			break
		}

		class, ok := schema.ClassByName("jdk.ExecutionSample")
		if !ok {
			continue
		}
		dec := NewEventDecoder(reader, chunk, schema, pools)
		for {
			ev, err := dec.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Fatal(err)
			}
			if ev.Class == class {
				fmt.Printf("sample: %+v\n", ev.Fields)
			}
		}
	}
}
