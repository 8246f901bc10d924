// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package securemem

import "golang.org/x/sys/unix"

func osAlloc(size int) ([]byte, bool, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, false, err
	}
	return mem, true, nil
}

// osFree unmaps the region, which also drops any lock held on it.
func osFree(mem []byte) error {
	return unix.Munmap(mem)
}

func osLock(mem []byte) error {
	return unix.Mlock(mem)
}
