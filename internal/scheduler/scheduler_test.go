// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheduler

import (
	"slices"
	"sync/atomic"
	"testing"

	"github.com/dark-bio/keystretch-go/internal/arena"
	"github.com/dark-bio/keystretch-go/internal/mixer"
	"github.com/dark-bio/keystretch-go/internal/securemem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const (
	testLanes      = 16
	testPageLength = 64
	testPages      = 300
)

type fixture struct {
	arena *arena.Arena
	lanes *mixer.LaneTable
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	a, err := arena.New(testPageLength, testPages, securemem.Alloc)
	require.NoError(t, err)
	t.Cleanup(func() { a.Release() })

	lanes, err := mixer.NewLaneTable(testLanes, securemem.Alloc)
	require.NoError(t, err)
	t.Cleanup(func() { lanes.Release() })

	seed := make([]byte, lanes.Size())
	for i := range seed {
		seed[i] = byte(i*131 + 17)
	}
	lanes.Seed(seed)

	page := make([]byte, testPageLength*8)
	for i := range page {
		page[i] = byte(i*29 + 3)
	}
	a.Load(0, page)

	return &fixture{arena: a, lanes: lanes}
}

func (f *fixture) config(threads int) Config {
	return Config{
		Arena:   f.arena,
		Lanes:   f.lanes,
		Engine:  mixer.Unrolled{},
		Threads: threads,
		Repeats: 2,
		Margin:  testLanes,
	}
}

// sequential fills the fixture one page after another on the calling
// goroutine.
func (f *fixture) sequential(margin uint64) {
	for to := uint64(1); to < testPages; to++ {
		lane := f.lanes.Lane(int(to % testLanes))
		from := Source(lane.K[0], to, margin)
		mixer.Unrolled{}.FillPage(f.arena.Page(int(to)), f.arena.Page(int(from)), lane, 2)
	}
}

func TestRunMatchesSequential(t *testing.T) {
	want := newFixture(t)
	want.sequential(testLanes)

	for _, threads := range []int{1, 2, 3, 4, 7, 16} {
		got := newFixture(t)
		require.NoError(t, Run(got.config(threads)), "threads=%d", threads)

		assert.True(t, slices.Equal(want.arena.Words(), got.arena.Words()), "threads=%d: arena differs", threads)
		assert.True(t, slices.Equal(want.lanes.Words(), got.lanes.Words()), "threads=%d: lanes differ", threads)
	}
}

func TestRunTraceIsAcyclic(t *testing.T) {
	for _, margin := range []int{0, 5, testLanes} {
		f := newFixture(t)

		var (
			sources = make([]int, testPages)
			visits  = make([]atomic.Int32, testPages)
		)
		cfg := f.config(4)
		cfg.Margin = margin
		cfg.Trace = func(to, from int) {
			visits[to].Add(1)
			sources[to] = from
		}
		require.NoError(t, Run(cfg))

		assert.Zero(t, visits[0].Load(), "page 0 must not be filled")
		for to := 1; to < testPages; to++ {
			require.Equal(t, int32(1), visits[to].Load(), "margin=%d: page %d fill count", margin, to)

			from := sources[to]
			require.Less(t, from, to, "margin=%d: page %d reads ahead", margin, to)
			if to > margin {
				require.LessOrEqual(t, from, to-margin-1, "margin=%d: page %d reads inside the margin", margin, to)
			} else {
				require.Zero(t, from, "margin=%d: page %d must read page 0", margin, to)
			}
		}
	}
}

func TestRunFewerPagesThanWorkers(t *testing.T) {
	a, err := arena.New(8, 2, securemem.Alloc)
	require.NoError(t, err)
	defer a.Release()

	lanes, err := mixer.NewLaneTable(testLanes, securemem.Alloc)
	require.NoError(t, err)
	defer lanes.Release()

	var filled []int
	err = Run(Config{
		Arena:   a,
		Lanes:   lanes,
		Engine:  mixer.Unrolled{},
		Threads: 16,
		Repeats: 1,
		Trace:   func(to, from int) { filled = append(filled, to) },
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, filled)
}

func TestRunLaunchFailure(t *testing.T) {
	f := newFixture(t)

	var launched int
	cfg := f.config(4)
	cfg.tryGo = func(g *errgroup.Group, fn func() error) bool {
		if launched == 2 {
			return false
		}
		launched++
		return g.TryGo(fn)
	}
	err := Run(cfg)
	require.ErrorIs(t, err, ErrLaunch)
	assert.Equal(t, 2, launched)
}

// faulty panics on its nth fill.
type faulty struct {
	fills atomic.Int32
	nth   int32
}

func (e *faulty) FillPage(dst, src []uint64, lane *mixer.Lane, repeats int) {
	if e.fills.Add(1) == e.nth {
		panic("injected fault")
	}
	mixer.Unrolled{}.FillPage(dst, src, lane, repeats)
}

func TestRunWorkerPanic(t *testing.T) {
	for _, threads := range []int{1, 3, 16} {
		f := newFixture(t)

		cfg := f.config(threads)
		cfg.Engine = &faulty{nth: 40}

		err := Run(cfg)
		require.ErrorIs(t, err, ErrWorker, "threads=%d", threads)
		assert.Contains(t, err.Error(), "injected fault")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	f := newFixture(t)

	for _, mutate := range []func(*Config){
		func(c *Config) { c.Arena = nil },
		func(c *Config) { c.Lanes = nil },
		func(c *Config) { c.Engine = nil },
		func(c *Config) { c.Threads = 0 },
		func(c *Config) { c.Repeats = 0 },
		func(c *Config) { c.Margin = -1 },
	} {
		cfg := f.config(2)
		mutate(&cfg)
		assert.Error(t, Run(cfg))
	}
}

func TestSource(t *testing.T) {
	tests := []struct {
		k0, to, margin, want uint64
	}{
		{12345, 1, 16, 0},
		{12345, 16, 16, 0},
		{12345, 17, 16, 0},
		{12345, 18, 16, 1},
		{12345, 100, 16, 12345 % 84},
		{^uint64(0), 1000, 0, ^uint64(0) % 1000},
	}
	for _, tt := range tests {
		if got := Source(tt.k0, tt.to, tt.margin); got != tt.want {
			t.Errorf("Source(%d, %d, %d) = %d, want %d", tt.k0, tt.to, tt.margin, got, tt.want)
		}
	}
}
