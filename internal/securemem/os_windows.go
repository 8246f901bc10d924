// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows

package securemem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func osAlloc(size int) ([]byte, bool, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, false, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), true, nil
}

// osFree releases the whole reservation; VirtualFree with MEM_RELEASE also
// drops any VirtualLock held on it.
func osFree(mem []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(unsafe.SliceData(mem))), 0, windows.MEM_RELEASE)
}

func osLock(mem []byte) error {
	return windows.VirtualLock(uintptr(unsafe.Pointer(unsafe.SliceData(mem))), uintptr(len(mem)))
}
