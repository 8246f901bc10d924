// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keystretch

import "github.com/dark-bio/keystretch-go/pbkdf"

// PHSParams returns the fixed profile used by PHS: the base initial stretch,
// 16 KiB pages and two threads, with tCost as the CPU work multiplier and
// mCost as the memory size in MiB. The key size is outLen, clamped so that
// oversized requests fail validation instead of wrapping.
func PHSParams(outLen int, tCost, mCost uint32) *Params {
	keySize := uint32(MaxKeySize + 1)
	if outLen >= 0 && outLen <= MaxKeySize {
		keySize = uint32(outLen)
	}
	return &Params{
		InitialHashingFactor: 0,
		CPUWorkMultiplier:    tCost,
		MemorySize:           uint64(mCost) << 20,
		PageSize:             16 << 10,
		Threads:              2,
		KeySize:              keySize,
		FreeMemory:           true,
		Hash:                 pbkdf.SHA256,
	}
}

// PHS is the password hashing competition calling convention. It fills out
// with a key derived from in and salt using the PHSParams profile. len(out)
// must be a valid key size.
//
// Returns 0 on success and 1 on failure, in which case out is left untouched.
func PHS(out, in, salt []byte, tCost, mCost uint32) int {
	key, err := Key(in, salt, PHSParams(len(out), tCost, mCost))
	if err != nil {
		return 1
	}
	copy(out, key)
	clear(key)
	return 0
}
