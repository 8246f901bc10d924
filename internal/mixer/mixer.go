// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mixer implements the page-filling recurrence at the heart of the
// key stretcher.
//
// A page fill reads a source page at addresses taken from the secret lane
// state and writes a destination page, advancing the lane as it goes. All
// arithmetic is on uint64 and wraps modulo 2^64.
package mixer

// Engine fills one page from another while advancing a lane.
//
// The whole page fill is performed repeats times, each pass overwriting dst
// and continuing from the lane state left by the previous one. Both pages
// must have the same power-of-two length, which must be a multiple of 8.
type Engine interface {
	FillPage(dst, src []uint64, lane *Lane, repeats int)
}

// Unrolled is the production engine: eight lane words per step, each read
// address masked out of its own lane word.
type Unrolled struct{}

// FillPage implements Engine.
func (Unrolled) FillPage(dst, src []uint64, lane *Lane, repeats int) {
	checkPages(dst, src)
	mask := uint64(len(src) - 1)

	k0, k1, k2, k3 := lane.K[0], lane.K[1], lane.K[2], lane.K[3]
	k4, k5, k6, k7 := lane.K[4], lane.K[5], lane.K[6], lane.K[7]
	last := lane.Last

	for range repeats {
		for i := 0; i < len(dst); i += 8 {
			p0, p1, p2, p3 := src[k0&mask], src[k1&mask], src[k2&mask], src[k3&mask]
			p4, p5, p6, p7 := src[k4&mask], src[k5&mask], src[k6&mask], src[k7&mask]

			k0 += (p0 * k1) ^ last
			k1 += (p1 * k2) ^ p0
			k2 += (p2 * k3) ^ p1
			k3 += (p3 * k4) ^ p2
			k4 += (p4 * k5) ^ p3
			k5 += (p5 * k6) ^ p4
			k6 += (p6 * k7) ^ p5
			k7 += (p7 * k0) ^ p6
			last = p7

			out := dst[i : i+8 : i+8]
			out[0], out[1], out[2], out[3] = k0, k1, k2, k3
			out[4], out[5], out[6], out[7] = k4, k5, k6, k7
		}
	}
	lane.K = [8]uint64{k0, k1, k2, k3, k4, k5, k6, k7}
	lane.Last = last
}

// Reference is the single-lane recurrence with sequential source addressing.
// It only serves as a differential oracle for Unrolled: on a constant source
// page, where addressing cannot matter, both must agree bit for bit.
type Reference struct{}

// FillPage implements Engine.
func (Reference) FillPage(dst, src []uint64, lane *Lane, repeats int) {
	checkPages(dst, src)
	for range repeats {
		for i, p := range src {
			j := i & 7
			lane.K[j] += (p * lane.K[(j+1)&7]) ^ lane.Last
			dst[i] = lane.K[j]
			lane.Last = p
		}
	}
}

func checkPages(dst, src []uint64) {
	n := len(src)
	if n != len(dst) || n < 8 || n&(n-1) != 0 {
		panic("mixer: pages must share a power-of-two length of at least 8 words")
	}
}
