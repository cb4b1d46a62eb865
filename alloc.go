// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bfmalloc implements a boundary-tag, explicit-free-list, first-fit
// heap allocator over a contiguous, monotonically-growing region of memory
// supplied by a Provider.
//
// The allocator is not safe for concurrent use — a single logical actor is
// expected to drive Allocate/Free/Resize/ZeroAllocate/CheckHeap in program
// order, same as the classic sbrk-backed allocator it is modeled on.
package bfmalloc

import (
	"fmt"
	"io"
	"math"
	"unsafe"
)

// Allocator manages one heap. Its zero value is not ready for use — call New
// and then Init.
type Allocator struct {
	provider     Provider
	base         uintptr // address of the prologue's (zero-size) payload
	freelistHead uint32  // offset from base; 0 == empty

	// Trace, if non-nil, receives CheckHeap's verbose diagnostic output.
	// A swappable io.Writer rather than a package-level trace const, so
	// callers can route it wherever they like (or leave it nil for silence).
	Trace io.Writer
}

// New returns an Allocator that will grow into p once Init is called.
func New(p Provider) *Allocator {
	return &Allocator{provider: p}
}

// Init lays out the pad/prologue/epilogue sentinels and performs the first
// heap extension. It returns an error (the Go analogue of the source's
// "0 | -1" return convention) if the provider cannot supply the initial 16
// bytes or the first extension fails.
func (a *Allocator) Init() error {
	addr, err := a.provider.Extend(4 * wsize)
	if err != nil {
		return fmt.Errorf("bfmalloc: init: %w", err)
	}

	putWord(addr+0*wsize, 0)                       // alignment pad
	putWord(addr+1*wsize, packHeader(dsize, true))  // prologue header
	putWord(addr+2*wsize, packHeader(dsize, true))  // prologue footer
	putWord(addr+3*wsize, packHeader(0, true))      // epilogue header

	a.base = addr + 2*wsize
	a.freelistHead = 0

	if a.extendHeap(chunkSize/wsize) == 0 {
		return fmt.Errorf("bfmalloc: init: %w", ErrOutOfMemory)
	}
	return nil
}

// adjustSize maps a caller-visible payload request to an 8-byte-aligned
// block size that leaves room for header and footer.
func adjustSize(n uintptr) uintptr {
	if n <= dsize {
		return minBlockSize
	}
	return (n + dsize + 7) &^ 7
}

// Allocate returns a payload pointer to at least size usable bytes, or nil
// on an invalid request (size == 0) or out-of-memory.
func (a *Allocator) Allocate(size uint32) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	asize := adjustSize(uintptr(size))
	if bp := a.findFit(asize); bp != 0 {
		a.place(bp, asize)
		return unsafe.Pointer(bp)
	}

	extendWords := asize
	if chunkSize > extendWords {
		extendWords = chunkSize
	}
	extendWords /= wsize

	bp := a.extendHeap(extendWords)
	if bp == 0 {
		return nil
	}
	a.place(bp, asize)
	return unsafe.Pointer(bp)
}

// findFit walks the free list in MRU order and returns the first block
// whose size is at least asize, or 0 if none fits.
func (a *Allocator) findFit(asize uintptr) uintptr {
	for off := a.freelistHead; off != 0; {
		bp := a.addrOf(off)
		if blockSize(bp) >= asize {
			return bp
		}
		off = a.nextOffset(bp)
	}
	return 0
}

// place marks a free block of at least asize bytes as allocated, splitting
// off and re-inserting the remainder if it would itself be a legal block.
// Precondition: bp is currently on the free list.
func (a *Allocator) place(bp uintptr, asize uintptr) {
	a.unlink(bp)
	csize := blockSize(bp)
	if csize-asize >= minBlockSize {
		writeBlock(bp, asize, true)
		rem := nextBlock(bp)
		writeBlock(rem, csize-asize, false)
		a.insertHead(rem)
		return
	}
	writeBlock(bp, csize, true)
}

// extendHeap asks the provider for words*4 (rounded up to an even word
// count) more bytes, installs the result as a new free block coalesced with
// whatever free block preceded it, and returns its (possibly merged)
// payload pointer, or 0 on provider failure.
func (a *Allocator) extendHeap(words uintptr) uintptr {
	if words%2 != 0 {
		words++
	}
	size := words * wsize

	addr, err := a.provider.Extend(int(size))
	if err != nil {
		return 0
	}

	bp := addr // reuses the old epilogue's word as this block's header
	writeBlock(bp, size, false)
	putWord(headerAddr(nextBlock(bp)), packHeader(0, true)) // new epilogue

	putWord(bp, 0)
	putWord(bp+wsize, 0)

	bp = a.coalesce(bp)
	a.insertHead(bp)
	return bp
}

// Free releases the block at p. A nil p is a no-op.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	bp := uintptr(p)
	size := blockSize(bp)
	writeBlock(bp, size, false)
	putWord(bp, 0)
	putWord(bp+wsize, 0)
	bp = a.coalesce(bp)
	a.insertHead(bp)
}

// Resize grows or shrinks the block at p to hold size bytes, returning the
// (possibly new) payload pointer, or nil on invalid request or OOM. On a nil
// p it behaves as Allocate; on size == 0 it behaves as Free and returns nil.
// On out-of-memory during growth, p is left untouched.
func (a *Allocator) Resize(p unsafe.Pointer, size uint32) unsafe.Pointer {
	if p == nil {
		return a.Allocate(size)
	}
	if size == 0 {
		a.Free(p)
		return nil
	}

	bp := uintptr(p)
	old := blockSize(bp)
	asize := adjustSize(uintptr(size))

	if old >= asize {
		if old-asize < minBlockSize {
			return p
		}
		writeBlock(bp, asize, true)
		rem := nextBlock(bp)
		writeBlock(rem, old-asize, false)
		putWord(rem, 0)
		putWord(rem+wsize, 0)
		rem = a.coalesce(rem)
		a.insertHead(rem)
		return p
	}

	newP := a.Allocate(size)
	if newP == nil {
		return nil
	}
	copyMemory(uintptr(newP), bp, old)
	a.Free(p)
	return newP
}

// ZeroAllocate allocates room for nmemb elements of size bytes each and
// zero-fills the result. It returns nil if the product overflows a uint32.
func (a *Allocator) ZeroAllocate(nmemb, size uint32) unsafe.Pointer {
	bytes := uint64(nmemb) * uint64(size)
	if bytes > math.MaxUint32 {
		return nil
	}
	p := a.Allocate(uint32(bytes))
	if p == nil {
		return nil
	}
	zeroMemory(uintptr(p), uintptr(bytes))
	return p
}

func copyMemory(dst, src uintptr, n uintptr) {
	for i := uintptr(0); i < n; i++ {
		*(*byte)(unsafe.Pointer(dst + i)) = *(*byte)(unsafe.Pointer(src + i))
	}
}

func zeroMemory(addr uintptr, n uintptr) {
	for i := uintptr(0); i < n; i++ {
		*(*byte)(unsafe.Pointer(addr + i)) = 0
	}
}
