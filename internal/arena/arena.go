// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arena provides the page table that the mixer fills.
//
// The arena is a single secure allocation split into fixed-length pages of
// 64-bit words. Pages are addressed by index and never resized. Concurrent
// writers must touch disjoint pages; ordering between a page's writer and its
// readers is the caller's business.
package arena

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/dark-bio/keystretch-go/internal/securemem"
)

var (
	// ErrPageLength is returned when the page length is not a power of two
	// of at least 8 words.
	ErrPageLength = errors.New("arena: page length must be a power of two of at least 8 words")

	// ErrPageCount is returned when fewer than two pages are requested or the
	// table would not be addressable.
	ErrPageCount = errors.New("arena: invalid page count")
)

// Arena is a flat table of equally sized pages.
type Arena struct {
	buf        *securemem.Buffer
	words      []uint64
	pageLength int
	numPages   int
}

// New allocates an arena of numPages pages of pageLength words each.
func New(pageLength, numPages int, alloc securemem.Allocator) (*Arena, error) {
	if pageLength < 8 || pageLength&(pageLength-1) != 0 {
		return nil, ErrPageLength
	}
	if numPages < 2 || uint64(numPages) > math.MaxUint32 || numPages > math.MaxInt/8/pageLength {
		return nil, fmt.Errorf("%w: %d", ErrPageCount, numPages)
	}
	buf, err := alloc(pageLength * numPages * 8)
	if err != nil {
		return nil, err
	}
	return &Arena{
		buf:        buf,
		words:      buf.Words(),
		pageLength: pageLength,
		numPages:   numPages,
	}, nil
}

// PageLength returns the number of words per page.
func (a *Arena) PageLength() int {
	return a.pageLength
}

// NumPages returns the number of pages.
func (a *Arena) NumPages() int {
	return a.numPages
}

// Page returns page i. The slice is capped so appends cannot spill into the
// next page.
func (a *Arena) Page(i int) []uint64 {
	start := i * a.pageLength
	return a.words[start : start+a.pageLength : start+a.pageLength]
}

// Load fills page i from little-endian bytes. Panics if the material is not
// exactly one page long.
func (a *Arena) Load(i int, material []byte) {
	if len(material) != a.pageLength*8 {
		panic("arena: page material size mismatch")
	}
	page := a.Page(i)
	for j := range page {
		page[j] = binary.LittleEndian.Uint64(material[j*8:])
	}
}

// Words returns the whole table as one slice, or nil once released.
func (a *Arena) Words() []uint64 {
	return a.words
}

// Wipe zeroes every page.
func (a *Arena) Wipe() {
	a.buf.Wipe()
}

// Release wipes the arena and returns its storage.
func (a *Arena) Release() error {
	a.words = nil
	return a.buf.Release()
}
