// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bfmalloc

import "fmt"

// Violation describes one consistency-check finding. CheckHeap never
// mutates the heap; it only reports.
type Violation struct {
	Kind string // e.g. "header/footer", "alignment", "free-list"
	Addr uintptr
	Msg  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s at %#x: %s", v.Kind, v.Addr, v.Msg)
}

// CheckHeap walks the physical block chain and the free list, checking
// header/footer agreement, alignment, coalescing, and free-list membership,
// and returns every violation found. If verbose and a.Trace is set, each
// block and every violation is also written to Trace — the same opt-in
// diagnostic printing convention used elsewhere in this package.
func (a *Allocator) CheckHeap(verbose bool) []Violation {
	var violations []Violation
	report := func(kind string, addr uintptr, format string, args ...interface{}) {
		v := Violation{Kind: kind, Addr: addr, Msg: fmt.Sprintf(format, args...)}
		violations = append(violations, v)
		if verbose && a.Trace != nil {
			fmt.Fprintln(a.Trace, v.String())
		}
	}

	low, high := a.provider.Low(), a.provider.High()

	freeCountPhysical := 0
	bp := a.base
	for blockSize(bp) > 0 {
		if verbose && a.Trace != nil {
			a.printBlock(bp)
		}

		if bp%dsize != 0 {
			report("alignment", bp, "not doubleword aligned")
		}
		if bp < low || bp >= high {
			report("bounds", bp, "block outside heap [%#x, %#x)", low, high)
		}
		h := getWord(headerAddr(bp))
		f := getWord(footerAddr(bp))
		if h != f {
			report("header/footer", bp, "header %#x != footer %#x", h, f)
		}
		if !isAllocated(bp) {
			freeCountPhysical++
			if !isAllocated(prevBlock(bp)) || !isAllocated(nextBlock(bp)) {
				report("coalescing", bp, "adjacent free blocks were not coalesced")
			}
		}

		bp = nextBlock(bp)
	}

	if blockSize(bp) != 0 || !isAllocated(bp) {
		report("epilogue", bp, "bad epilogue header")
	}

	freeCountList := 0
	seen := map[uintptr]bool{}
	for off := a.freelistHead; off != 0; {
		linkBp := a.addrOf(off)
		if linkBp < low || linkBp >= high {
			report("bounds", linkBp, "free-list link outside heap bounds")
			break
		}
		if isAllocated(linkBp) {
			report("free-list", linkBp, "allocated block found on free list")
		}
		if seen[linkBp] {
			report("free-list", linkBp, "cycle detected in free list")
			break
		}
		seen[linkBp] = true

		next := a.nextOffset(linkBp)
		if next != 0 {
			nextBp := a.addrOf(next)
			if a.prevOffset(nextBp) != off {
				report("free-list", linkBp, "next.prev does not point back")
			}
		}
		freeCountList++
		off = next
	}

	if freeCountPhysical != freeCountList {
		report("free-list", 0, "physical free-block count %d != free-list length %d", freeCountPhysical, freeCountList)
	}

	return violations
}

func (a *Allocator) printBlock(bp uintptr) {
	size := blockSize(bp)
	if size == 0 {
		fmt.Fprintf(a.Trace, "%#x: epilogue block\n", bp)
		return
	}
	alloc := 'f'
	if isAllocated(bp) {
		alloc = 'a'
	}
	f := getWord(footerAddr(bp))
	falloc := 'f'
	if allocOfHeader(f) {
		falloc = 'a'
	}
	fmt.Fprintf(a.Trace, "%#x -> header = [%d:%c], footer = [%d:%c]\n", bp, size, alloc, sizeOfHeader(f), falloc)
	if !isAllocated(bp) {
		fmt.Fprintf(a.Trace, "\tprev = %#x, next = %#x\n", a.prevOffset(bp), a.nextOffset(bp))
	}
}
