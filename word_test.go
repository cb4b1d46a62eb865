// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bfmalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		size      uintptr
		allocated bool
	}{
		{16, false},
		{16, true},
		{256, false},
		{2008, true},
		{0, true}, // epilogue
	}
	for _, c := range cases {
		h := packHeader(c.size, c.allocated)
		assert.Equal(t, c.size, sizeOfHeader(h))
		assert.Equal(t, c.allocated, allocOfHeader(h))
	}
}

func TestAdjustSize(t *testing.T) {
	cases := []struct {
		n, want uintptr
	}{
		{0, 16}, // adjustSize itself is never called with 0; Allocate rejects first
		{1, 16},
		{8, 16},
		{9, 24},
		{15, 24},
		{16, 24},
		{17, 32},
		{50, 64},
		{100, 112},
		{2000, 2008},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, adjustSize(c.n), "adjustSize(%d)", c.n)
	}
}
