// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keystretch

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/dark-bio/keystretch-go/pbkdf"
)

const (
	// MaxThreads is the largest supported worker count. It is also the fixed
	// number of mixing lanes, which is why the derived key does not depend on
	// the number of threads used to compute it.
	MaxThreads = 16

	MaxInitialHashingFactor = 1 << 20
	MaxCPUWorkMultiplier    = 1 << 20
	MaxMemorySize           = 100 << 32

	MinPageSize = 1 << 8
	MaxPageSize = 1 << 28

	MinKeySize = 8
	MaxKeySize = 1 << 20

	MinSaltSize = 4
	MaxSaltSize = 512
)

// Params are the cost and hygiene settings of a derivation.
type Params struct {
	// InitialHashingFactor adds 1024 PBKDF2 iterations per unit on top of a
	// base of 4096 to the initial password stretch.
	InitialHashingFactor uint32

	// CPUWorkMultiplier is the number of times each page is filled, adding
	// compute cost without more memory. Must be at least 1.
	CPUWorkMultiplier uint32

	// MemorySize is the arena size in bytes. It is rounded down to whole
	// pages and must hold at least two.
	MemorySize uint64

	// PageSize is the page size in bytes, a power of two.
	PageSize uint32

	// Threads is the number of workers, between 1 and MaxThreads.
	Threads uint8

	// KeySize is the derived key length in bytes, a power of two.
	KeySize uint32

	// ClearPassword zeroes the caller's password slice right after the
	// initial stretch. The password cannot be read back afterwards.
	ClearPassword bool

	// ClearMemory zeroes the whole arena before returning. Costs roughly a
	// third of the mixing time.
	ClearMemory bool

	// FreeMemory returns the arena and lane storage to the OS before
	// returning. Without it the storage is wiped and freed by a runtime
	// cleanup once the garbage collector gets to it.
	FreeMemory bool

	// Hash is the PBKDF2 pseudorandom function used by every expansion step.
	Hash pbkdf.Hash
}

// DefaultParams returns a 64 MiB profile on two threads producing 32-byte
// keys, with the arena cleared and freed on return.
func DefaultParams() *Params {
	return &Params{
		InitialHashingFactor: 0,
		CPUWorkMultiplier:    1,
		MemorySize:           64 << 20,
		PageSize:             16 << 10,
		Threads:              2,
		KeySize:              32,
		ClearMemory:          true,
		FreeMemory:           true,
		Hash:                 pbkdf.SHA256,
	}
}

// Validate checks the parameters against the given password and salt. All
// failures wrap ErrInvalidParameter.
func (p *Params) Validate(password, salt []byte) error {
	switch {
	case p.InitialHashingFactor > MaxInitialHashingFactor:
		return fmt.Errorf("%w: initial hashing factor %d above %d", ErrInvalidParameter, p.InitialHashingFactor, MaxInitialHashingFactor)
	case p.CPUWorkMultiplier < 1 || p.CPUWorkMultiplier > MaxCPUWorkMultiplier:
		return fmt.Errorf("%w: cpu work multiplier %d outside [1, %d]", ErrInvalidParameter, p.CPUWorkMultiplier, MaxCPUWorkMultiplier)
	case !powerOfTwo(p.PageSize):
		return fmt.Errorf("%w: page size %d is not a power of two", ErrInvalidParameter, p.PageSize)
	case p.PageSize < MinPageSize || p.PageSize > MaxPageSize:
		return fmt.Errorf("%w: page size %d outside [%d, %d]", ErrInvalidParameter, p.PageSize, MinPageSize, MaxPageSize)
	case p.MemorySize < 2*uint64(p.PageSize):
		return fmt.Errorf("%w: memory size %d holds fewer than two %d-byte pages", ErrInvalidParameter, p.MemorySize, p.PageSize)
	case p.MemorySize > MaxMemorySize:
		return fmt.Errorf("%w: memory size %d above %d", ErrInvalidParameter, p.MemorySize, uint64(MaxMemorySize))
	case p.MemorySize > math.MaxInt:
		return fmt.Errorf("%w: memory size %d exceeds the address space", ErrInvalidParameter, p.MemorySize)
	case p.Threads < 1 || p.Threads > MaxThreads:
		return fmt.Errorf("%w: thread count %d outside [1, %d]", ErrInvalidParameter, p.Threads, MaxThreads)
	case !powerOfTwo(p.KeySize):
		return fmt.Errorf("%w: key size %d is not a power of two", ErrInvalidParameter, p.KeySize)
	case p.KeySize < MinKeySize || p.KeySize > MaxKeySize:
		return fmt.Errorf("%w: key size %d outside [%d, %d]", ErrInvalidParameter, p.KeySize, MinKeySize, MaxKeySize)
	case len(salt) < MinSaltSize || len(salt) > MaxSaltSize:
		return fmt.Errorf("%w: salt size %d outside [%d, %d]", ErrInvalidParameter, len(salt), MinSaltSize, MaxSaltSize)
	case len(password) == 0:
		return fmt.Errorf("%w: empty password", ErrInvalidParameter)
	case !p.Hash.Available():
		return fmt.Errorf("%w: unknown hash %d", ErrInvalidParameter, uint8(p.Hash))
	}
	return nil
}

// LogValue implements slog.LogValuer. Only public cost settings are logged.
func (p *Params) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("initial_iterations", uint64(p.iterations())),
		slog.Uint64("cpu_work_multiplier", uint64(p.CPUWorkMultiplier)),
		slog.Uint64("memory_size", p.MemorySize),
		slog.Uint64("page_size", uint64(p.PageSize)),
		slog.Int("threads", int(p.Threads)),
		slog.Uint64("key_size", uint64(p.KeySize)),
		slog.String("hash", p.Hash.String()),
	)
}

// iterations is the PBKDF2 round count of the initial stretch.
func (p *Params) iterations() int {
	return 4096 + int(p.InitialHashingFactor)*1024
}

// numPages is the number of whole pages that fit in MemorySize.
func (p *Params) numPages() int {
	return int(p.MemorySize / uint64(p.PageSize))
}

func powerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}
