// Copyright 2026 The Jafar Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command jafardump dumps events out of a JFR recording.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/btraceio/jafar/jafarfile"
	"github.com/btraceio/jafar/jafarsession"
)

var (
	eventType string
	limit     int
)

func dump(cmd *cobra.Command, args []string) error {
	path := args[0]

	s, err := jafarsession.OpenRecording(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer s.Close()

	count := 0
	s.RegisterUntyped(func(className string, fields map[string]interface{}, info jafarsession.ChunkInfo, ctrl *jafarsession.Control) error {
		if eventType != "" && className != eventType {
			return nil
		}
		startTicks, _ := fields["startTime"].(int64)
		fmt.Printf("chunk=%d t=%dns %s %+v\n", info.Index, info.TicksToNanos(startTicks), className, fields)
		count++
		if limit > 0 && count >= limit {
			ctrl.Abort()
		}
		return nil
	})

	outcome := s.Run()
	switch outcome.Kind {
	case jafarsession.EndOfFile, jafarsession.Aborted:
		fmt.Printf("%d event(s), %s\n", count, outcome.Kind)
		return nil
	default:
		return outcome.Err
	}
}

func listTypes(cmd *cobra.Command, args []string) error {
	path := args[0]
	reader, closer, err := jafarfile.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer closer.Close()

	parser := jafarfile.NewChunkParser(reader)
	seen := map[string]bool{}
	for {
		chunk, schema, _, done, err := parser.Next()
		if err != nil {
			return err
		}
		if done {
			break
		}
		for _, class := range schema.Classes {
			if !seen[class.Name] {
				seen[class.Name] = true
				fmt.Printf("chunk %d: %s\n", chunk.Index, class.Name)
			}
		}
	}
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "jafardump",
		Short: "Inspect Java Flight Recorder recordings",
		Long:  "jafardump dumps events and declared types out of a JFR recording.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("jafardump 0.1.0")
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump [recording.jfr]",
		Short: "Dump decoded events",
		Args:  cobra.ExactArgs(1),
		RunE:  dump,
	}
	dumpCmd.Flags().StringVarP(&eventType, "type", "t", "", "only dump events of this declared class name")
	dumpCmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many events (0 = no limit)")

	typesCmd := &cobra.Command{
		Use:   "types [recording.jfr]",
		Short: "List declared classes, each under the first chunk that declares it",
		Args:  cobra.ExactArgs(1),
		RunE:  listTypes,
	}

	rootCmd.AddCommand(versionCmd, dumpCmd, typesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
