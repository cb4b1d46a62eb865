// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cznic/bfmalloc"
)

// newRunCmd replays a trace file of allocator operations, one per line:
//
//	a <id> <size>          allocate size bytes, remember the result as id
//	f <id>                 free the block named id
//	r <id> <size>          resize the block named id to size bytes
//	z <id> <nmemb> <size>  zero-allocate nmemb*size bytes as id
//
// Blank lines and lines starting with '#' are ignored. After the trace runs
// to completion, CheckHeap(verbose) is run and any violations are printed.
func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace-file>",
		Short: "Replay an allocator trace and report consistency violations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(args[0], v.GetInt("heap-size"), v.GetBool("verbose"))
		},
	}
	return cmd
}

func runTrace(path string, heapSize int, verbose bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("bfmallocctl: %w", err)
	}
	defer f.Close()

	provider, err := bfmalloc.NewMmapProvider(heapSize)
	if err != nil {
		return fmt.Errorf("bfmallocctl: %w", err)
	}
	defer provider.Close()

	a := bfmalloc.New(provider)
	a.Trace = os.Stdout
	if err := a.Init(); err != nil {
		return fmt.Errorf("bfmallocctl: %w", err)
	}

	live := map[string]unsafe.Pointer{}

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		if err := applyOp(a, live, fields); err != nil {
			return fmt.Errorf("bfmallocctl: line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("bfmallocctl: %w", err)
	}

	violations := a.CheckHeap(verbose)
	if len(violations) == 0 {
		fmt.Println("heap ok")
		return nil
	}
	for _, v := range violations {
		fmt.Println(v.String())
	}
	return fmt.Errorf("bfmallocctl: %d consistency violation(s)", len(violations))
}

func applyOp(a *bfmalloc.Allocator, live map[string]unsafe.Pointer, fields []string) error {
	op, id := fields[0], fields[1]
	switch op {
	case "a":
		size, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return err
		}
		live[id] = a.Allocate(uint32(size))
	case "f":
		a.Free(live[id])
		delete(live, id)
	case "r":
		size, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return err
		}
		live[id] = a.Resize(live[id], uint32(size))
	case "z":
		nmemb, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return err
		}
		size, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return err
		}
		live[id] = a.ZeroAllocate(uint32(nmemb), uint32(size))
	default:
		return fmt.Errorf("unknown op %q", op)
	}
	return nil
}
