// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.
// Further modifications: reworked from a per-size-class page allocator into
// a single reserve-then-bump region backing a boundary-tag heap.

//go:build windows

package bfmalloc

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// MmapProvider is the default Provider on Windows. CreateFileMapping is
// asked for a section of maxBytes up front and MapViewOfFile maps all of it
// in one go, so the region's base address never changes; Extend then just
// bumps a high-water mark the same way the Unix provider does.
type MmapProvider struct {
	handle    windows.Handle
	base      uintptr
	size      int
	committed int
}

// NewMmapProvider reserves maxBytes of address space for the heap to grow
// into. maxBytes bounds the total the allocator can ever request; Extend
// fails once it is exhausted.
func NewMmapProvider(maxBytes int) (*MmapProvider, error) {
	maxSizeHigh := uint32(int64(maxBytes) >> 32)
	maxSizeLow := uint32(int64(maxBytes) & 0xFFFFFFFF)

	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, maxSizeHigh, maxSizeLow, nil)
	if err != nil {
		return nil, fmt.Errorf("bfmalloc: CreateFileMapping: %w", err)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(maxBytes))
	if err != nil {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("bfmalloc: MapViewOfFile: %w", err)
	}

	return &MmapProvider{handle: h, base: addr, size: maxBytes}, nil
}

// Close releases the mapped view and its handle. Not necessary at process
// exit.
func (m *MmapProvider) Close() error {
	if m.base == 0 {
		return nil
	}
	if err := windows.UnmapViewOfFile(m.base); err != nil {
		return err
	}
	m.base = 0
	return windows.CloseHandle(m.handle)
}

func (m *MmapProvider) Extend(n int) (uintptr, error) {
	if m.committed+n > m.size {
		return 0, ErrOutOfMemory
	}
	addr := m.base + uintptr(m.committed)
	m.committed += n
	return addr, nil
}

func (m *MmapProvider) Low() uintptr  { return m.base }
func (m *MmapProvider) High() uintptr { return m.base + uintptr(m.committed) }
func (m *MmapProvider) Size() int     { return m.committed }
