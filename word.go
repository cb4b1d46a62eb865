// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bfmalloc

import "unsafe"

// Word size and alignment constants. A block is a header word, a payload,
// and a footer word; sizes are always a multiple of dsize.
const (
	wsize = 4 // header/footer word size, bytes
	dsize = 8 // doubleword: the allocator's alignment unit, bytes

	allocBit = 0x1
	sizeMask = ^uintptr(0x7)

	minBlockSize = 2 * dsize // header + footer + 2 link words
	chunkSize    = 256       // extend_heap default request, bytes
)

// packHeader packs a block size and allocated bit into a header/footer word.
// size must already be a multiple of 8.
func packHeader(size uintptr, allocated bool) uint32 {
	v := uint32(size)
	if allocated {
		v |= allocBit
	}
	return v
}

func getWord(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

func putWord(addr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = v
}

func sizeOfHeader(h uint32) uintptr { return uintptr(h) & sizeMask }
func allocOfHeader(h uint32) bool   { return h&allocBit != 0 }

// headerAddr and footerAddr return the address of the header/footer word
// for the block whose payload starts at bp.
func headerAddr(bp uintptr) uintptr { return bp - wsize }

func footerAddr(bp uintptr) uintptr {
	return bp + sizeOfHeader(getWord(headerAddr(bp))) - dsize
}

func blockSize(bp uintptr) uintptr   { return sizeOfHeader(getWord(headerAddr(bp))) }
func isAllocated(bp uintptr) bool    { return allocOfHeader(getWord(headerAddr(bp))) }

// nextBlock returns the payload address of the block physically following
// bp. At the last real block this lands on the epilogue.
func nextBlock(bp uintptr) uintptr { return bp + blockSize(bp) }

// prevBlock returns the payload address of the block physically preceding
// bp, read from that block's footer. At the first real block this lands on
// the prologue.
func prevBlock(bp uintptr) uintptr {
	prevFooter := bp - dsize
	return bp - sizeOfHeader(getWord(prevFooter))
}

// writeBlock stamps both header and footer of the block at bp with size and
// the allocated bit, so the two always agree. size is the size the block is
// being (re)written to — the footer address is derived from it directly
// rather than from whatever the header currently holds.
func writeBlock(bp uintptr, size uintptr, allocated bool) {
	h := packHeader(size, allocated)
	putWord(headerAddr(bp), h)
	putWord(bp+size-dsize, h)
}
