// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package securemem

import "golang.org/x/sys/unix"

// osExclude keeps the mapping out of core dumps. The hint is advisory, so
// failures are ignored.
func osExclude(mem []byte) {
	_ = unix.Madvise(mem, unix.MADV_DONTDUMP)
}
