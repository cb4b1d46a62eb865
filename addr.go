// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bfmalloc

import "unsafe"

// addrOfSlice returns the address of a byte slice's backing array. b must be
// non-empty and must not be moved or resliced past its cap afterward — the
// allocator depends on the region never relocating.
func addrOfSlice(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}
