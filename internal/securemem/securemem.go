// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package securemem provides off-heap buffers for sensitive data that are
// guaranteed to be zeroed before their storage is handed back to the OS.
//
// On Unix the memory comes from an anonymous private mapping, on Windows from
// VirtualAlloc. Other platforms fall back to the Go heap. Mappings are kept
// out of core dumps where the platform supports it, and may optionally be
// locked into RAM to keep them out of swap.
package securemem

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"
)

// ErrInvalidSize is returned when a buffer size is not a positive multiple of
// the word size.
var ErrInvalidSize = errors.New("securemem: size must be a positive multiple of 8")

// Allocator creates a buffer of the requested size in bytes.
type Allocator func(size int) (*Buffer, error)

// Buffer is an owned region of memory viewable both as bytes and as 64-bit
// words. The zero-on-release contract holds on every path: Release wipes
// before freeing, and a buffer that is dropped without Release is wiped and
// freed by a runtime cleanup.
type Buffer struct {
	mem   []byte
	words []uint64

	locked   bool
	released atomic.Bool
	cleanup  runtime.Cleanup
	hasClean bool
}

// region is the state needed to free a mapping without referencing the
// owning Buffer, as required by runtime.AddCleanup.
type region struct {
	mem []byte
}

func (r region) release() {
	clear(r.mem)
	_ = osFree(r.mem)
}

// Alloc reserves size bytes of zeroed memory. The size must be a positive
// multiple of 8.
func Alloc(size int) (*Buffer, error) {
	if size <= 0 || size%8 != 0 {
		return nil, ErrInvalidSize
	}
	mem, offHeap, err := osAlloc(size)
	if err != nil {
		return nil, fmt.Errorf("securemem: allocate %d bytes: %w", size, err)
	}
	osExclude(mem)

	b := &Buffer{
		mem:   mem,
		words: unsafe.Slice((*uint64)(unsafe.Pointer(unsafe.SliceData(mem))), size/8),
	}
	if offHeap {
		b.cleanup = runtime.AddCleanup(b, region.release, region{mem: mem})
		b.hasClean = true
	}
	return b, nil
}

// Lock pins the buffer into physical memory so it is never written to swap.
// Failure is not fatal for callers that treat locking as best effort; the
// buffer stays fully usable either way.
func (b *Buffer) Lock() error {
	if b.released.Load() {
		return errors.New("securemem: buffer released")
	}
	if b.locked {
		return nil
	}
	if err := osLock(b.mem); err != nil {
		return fmt.Errorf("securemem: lock %d bytes: %w", len(b.mem), err)
	}
	b.locked = true
	return nil
}

// Locked reports whether Lock succeeded.
func (b *Buffer) Locked() bool {
	return b.locked
}

// Len returns the buffer size in bytes, or 0 after Release.
func (b *Buffer) Len() int {
	return len(b.mem)
}

// Bytes returns the byte view of the buffer. The slice must not be used after
// Release.
func (b *Buffer) Bytes() []byte {
	return b.mem
}

// Words returns the 64-bit word view of the buffer. The slice aliases Bytes
// in native byte order and must not be used after Release.
func (b *Buffer) Words() []uint64 {
	return b.words
}

// Wipe zeroes the whole buffer.
func (b *Buffer) Wipe() {
	clear(b.words)
	runtime.KeepAlive(b)
}

// Release wipes the buffer and returns its storage. It is idempotent; calls
// after the first are no-ops.
func (b *Buffer) Release() error {
	if b.released.Swap(true) {
		return nil
	}
	b.Wipe()

	var err error
	if b.hasClean {
		b.cleanup.Stop()
		if ferr := osFree(b.mem); ferr != nil {
			err = fmt.Errorf("securemem: free %d bytes: %w", len(b.mem), ferr)
		}
	}
	b.mem, b.words, b.locked = nil, nil, false
	return err
}
