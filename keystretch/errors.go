// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keystretch

import "errors"

var (
	// ErrInvalidParameter is returned when the parameters, password or salt
	// are out of range. It is detected before any work or allocation.
	ErrInvalidParameter = errors.New("keystretch: invalid parameter")

	// ErrAllocationFailure is returned when the arena or lane table could
	// not be allocated.
	ErrAllocationFailure = errors.New("keystretch: allocation failure")

	// ErrThreadLaunchFailure is returned when the worker pool could not be
	// started or a worker failed while mixing.
	ErrThreadLaunchFailure = errors.New("keystretch: thread launch failure")
)
