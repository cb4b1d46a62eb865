// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.
// Further modifications: reworked from a per-size-class page allocator into
// a single reserve-then-bump region backing a boundary-tag heap.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

package bfmalloc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapProvider is the default Provider: it reserves maxBytes of anonymous,
// read/write virtual memory once (so the region never moves) and satisfies
// Extend by bumping a high-water mark within it — the mmap-backed analogue
// of sbrk, matching the "contiguous, monotonically-growing" region the
// allocator requires.
type MmapProvider struct {
	region    []byte
	base      uintptr
	committed int
}

// NewMmapProvider reserves maxBytes of address space for the heap to grow
// into. maxBytes bounds the total the allocator can ever request; Extend
// fails once it is exhausted.
func NewMmapProvider(maxBytes int) (*MmapProvider, error) {
	b, err := unix.Mmap(-1, 0, maxBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("bfmalloc: mmap reserve: %w", err)
	}
	return &MmapProvider{region: b, base: addrOfSlice(b)}, nil
}

// Close releases the reserved region. Not necessary at process exit.
func (m *MmapProvider) Close() error {
	if m.region == nil {
		return nil
	}
	err := unix.Munmap(m.region)
	m.region = nil
	return err
}

func (m *MmapProvider) Extend(n int) (uintptr, error) {
	if m.committed+n > len(m.region) {
		return 0, ErrOutOfMemory
	}
	addr := m.base + uintptr(m.committed)
	m.committed += n
	return addr, nil
}

func (m *MmapProvider) Low() uintptr  { return m.base }
func (m *MmapProvider) High() uintptr { return m.base + uintptr(m.committed) }
func (m *MmapProvider) Size() int     { return m.committed }
