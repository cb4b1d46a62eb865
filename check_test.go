// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bfmalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHeapFreshHeapIsClean(t *testing.T) {
	a := newTestAllocator(t)
	assert.Empty(t, a.CheckHeap(false))

	p := a.Allocate(100)
	require.NotNil(t, p)
	assert.Empty(t, a.CheckHeap(false))

	a.Free(p)
	assert.Empty(t, a.CheckHeap(false))
}

// Deliberately corrupting a footer so it no longer matches the header must
// be caught.
func TestCheckHeapDetectsHeaderFooterMismatch(t *testing.T) {
	a := newTestAllocator(t)
	p := a.Allocate(64)
	require.NotNil(t, p)

	putWord(footerAddr(uintptr(p)), packHeader(blockSize(uintptr(p))+8, true))

	violations := a.CheckHeap(false)
	require.NotEmpty(t, violations)
	found := false
	for _, v := range violations {
		if v.Kind == "header/footer" {
			found = true
		}
	}
	assert.True(t, found)
}

// Two physically adjacent free blocks that were never coalesced must be
// reported.
func TestCheckHeapDetectsUncoalescedNeighbors(t *testing.T) {
	a := newTestAllocator(t)

	p1 := a.Allocate(32)
	p2 := a.Allocate(32)
	require.NotNil(t, p1)
	require.NotNil(t, p2)

	// Mark both free directly, bypassing Free's coalesce step, to simulate
	// a hypothetical coalescing bug.
	writeBlock(uintptr(p1), blockSize(uintptr(p1)), false)
	writeBlock(uintptr(p2), blockSize(uintptr(p2)), false)

	violations := a.CheckHeap(false)
	found := false
	for _, v := range violations {
		if v.Kind == "coalescing" {
			found = true
		}
	}
	assert.True(t, found)
}

// An allocated-looking block wrongly left on the free list must be
// reported.
func TestCheckHeapDetectsAllocatedBlockOnFreeList(t *testing.T) {
	a := newTestAllocator(t)

	p := a.Allocate(32)
	require.NotNil(t, p)

	// Splice p onto the free list without clearing its allocated bit.
	a.insertHead(uintptr(p))

	violations := a.CheckHeap(false)
	found := false
	for _, v := range violations {
		if v.Kind == "free-list" {
			found = true
		}
	}
	assert.True(t, found)
}
