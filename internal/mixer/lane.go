// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mixer

import (
	"encoding/binary"
	"errors"
	"unsafe"

	"github.com/dark-bio/keystretch-go/internal/securemem"
)

const (
	// LaneWords is the number of 64-bit words in a serialized lane.
	LaneWords = 9

	// LaneSize is the size of a serialized lane in bytes.
	LaneSize = LaneWords * 8
)

// Lane is the running mixing state of one line of work: eight accumulator
// words and the last source word observed.
type Lane struct {
	K    [8]uint64
	Last uint64
}

// LaneTable is a fixed set of lanes living in secure memory. The in-memory
// layout matches the serialized form word for word: K[0..7] then Last.
type LaneTable struct {
	buf   *securemem.Buffer
	lanes []Lane
}

// NewLaneTable allocates a zeroed table of n lanes. The lane count must be a
// power of two so lanes can be selected with a mask.
func NewLaneTable(n int, alloc securemem.Allocator) (*LaneTable, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, errors.New("mixer: lane count must be a power of two")
	}
	buf, err := alloc(n * LaneSize)
	if err != nil {
		return nil, err
	}
	words := buf.Words()
	return &LaneTable{
		buf:   buf,
		lanes: unsafe.Slice((*Lane)(unsafe.Pointer(unsafe.SliceData(words))), n),
	}, nil
}

// Len returns the number of lanes.
func (t *LaneTable) Len() int {
	return len(t.lanes)
}

// Size returns the serialized size of the table in bytes.
func (t *LaneTable) Size() int {
	return len(t.lanes) * LaneSize
}

// Lane returns a pointer to lane i.
func (t *LaneTable) Lane(i int) *Lane {
	return &t.lanes[i]
}

// Words returns the raw word view of the whole table.
func (t *LaneTable) Words() []uint64 {
	return t.buf.Words()
}

// Lock pins the table into RAM, see securemem.Buffer.Lock.
func (t *LaneTable) Lock() error {
	return t.buf.Lock()
}

// Seed loads the table from little-endian key material. Panics if the
// material is not exactly Size bytes.
func (t *LaneTable) Seed(material []byte) {
	if len(material) != t.Size() {
		panic("mixer: lane seed size mismatch")
	}
	words := t.buf.Words()
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(material[i*8:])
	}
}

// Encode serializes the table little-endian into out. Panics if out is not
// exactly Size bytes.
func (t *LaneTable) Encode(out []byte) {
	if len(out) != t.Size() {
		panic("mixer: lane encoding size mismatch")
	}
	for i, w := range t.buf.Words() {
		binary.LittleEndian.PutUint64(out[i*8:], w)
	}
}

// Wipe zeroes every lane.
func (t *LaneTable) Wipe() {
	t.buf.Wipe()
}

// Release wipes the table and frees its storage. The table must not be used
// afterwards.
func (t *LaneTable) Release() error {
	t.lanes = nil
	return t.buf.Release()
}
