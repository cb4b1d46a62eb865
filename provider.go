// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bfmalloc

import "errors"

// ErrOutOfMemory is returned (or, from the four public allocator
// operations, surfaced as a nil pointer) when the backing provider cannot
// grow the heap any further.
var ErrOutOfMemory = errors.New("bfmalloc: backing provider exhausted")

// Provider is the backing memory provider the allocator grows into: a
// contiguous, monotonically-growing region of virtual memory. It is an
// external collaborator — the allocator calls only Extend; Low/High/Size
// exist for the consistency checker's bounds validation.
type Provider interface {
	// Extend grows the region by n bytes and returns the address of the
	// first new byte. It returns ErrOutOfMemory (or a wrapped form of it)
	// if the region cannot grow further.
	Extend(n int) (uintptr, error)

	// Low returns the address of the first byte of the region.
	Low() uintptr

	// High returns the address one past the last committed byte.
	High() uintptr

	// Size returns the number of bytes currently committed.
	Size() int
}
