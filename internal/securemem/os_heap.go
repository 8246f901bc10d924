// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !unix && !windows

package securemem

import (
	"errors"
	"unsafe"
)

// osAlloc falls back to the Go heap. The buffer is word-backed so the word
// view is always aligned; the garbage collector owns the storage.
func osAlloc(size int) ([]byte, bool, error) {
	words := make([]uint64, size/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), size), false, nil
}

func osFree(mem []byte) error {
	return nil
}

func osLock(mem []byte) error {
	return errors.ErrUnsupported
}
