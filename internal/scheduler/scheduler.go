// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scheduler runs the mixing engine over an arena with a fixed pool of
// workers while keeping the result independent of the pool size.
//
// Pages are issued strictly in order through a token that circulates around a
// ring of workers: only the token holder may claim the next ticket, and it
// passes the token on before doing the work. Each page is mixed with the lane
// of its index modulo the lane count and reads a source page chosen from that
// lane. Workers publish a completion flag per page and wait on it before
// reading a page or reusing a lane, so every fill sees exactly the state a
// sequential run would.
package scheduler

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/dark-bio/keystretch-go/internal/arena"
	"github.com/dark-bio/keystretch-go/internal/mixer"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

// spinBudget is the number of failed polls before a waiting worker yields.
const spinBudget = 256

var (
	// ErrLaunch is returned when the worker pool could not be started.
	ErrLaunch = errors.New("scheduler: failed to launch worker")

	// ErrWorker is returned when a worker died while filling a page.
	ErrWorker = errors.New("scheduler: worker failed")
)

// Config describes one run.
type Config struct {
	Arena   *arena.Arena
	Lanes   *mixer.LaneTable
	Engine  mixer.Engine
	Threads int // Number of workers, at least 1
	Repeats int // Passes per page fill, at least 1

	// Margin keeps sources at least Margin+1 pages behind the page being
	// filled so workers rarely wait on each other. Correctness never depends
	// on it.
	Margin int

	// Trace, if set, is called once per page with the page and its source
	// before the fill. It is called concurrently from the workers.
	Trace func(to, from int)

	// tryGo launches a worker, swapped out in tests to simulate failures.
	tryGo func(g *errgroup.Group, f func() error) bool
}

// slot is the per-worker token holder. Tokens of neighbouring workers never
// share a cache line.
type slot struct {
	token atomic.Bool
	_     cpu.CacheLinePad
	next  *slot
}

type run struct {
	arena   *arena.Arena
	lanes   *mixer.LaneTable
	engine  mixer.Engine
	repeats int
	margin  uint64
	trace   func(to, from int)

	ticket atomic.Uint64
	_      cpu.CacheLinePad
	abort  atomic.Bool
	_      cpu.CacheLinePad

	done  []atomic.Bool
	slots []slot
}

// Run fills pages 1 to NumPages-1 of the arena. Page 0 must already be
// loaded and the lanes seeded. The lanes are left in their final state.
func Run(cfg Config) error {
	if cfg.Arena == nil || cfg.Lanes == nil || cfg.Engine == nil {
		return errors.New("scheduler: arena, lanes and engine are required")
	}
	if cfg.Threads < 1 {
		return fmt.Errorf("scheduler: invalid thread count %d", cfg.Threads)
	}
	if cfg.Repeats < 1 {
		return fmt.Errorf("scheduler: invalid repeat count %d", cfg.Repeats)
	}
	if cfg.Margin < 0 {
		return fmt.Errorf("scheduler: invalid margin %d", cfg.Margin)
	}
	r := &run{
		arena:   cfg.Arena,
		lanes:   cfg.Lanes,
		engine:  cfg.Engine,
		repeats: cfg.Repeats,
		margin:  uint64(cfg.Margin),
		trace:   cfg.Trace,
		done:    make([]atomic.Bool, cfg.Arena.NumPages()),
		slots:   make([]slot, cfg.Threads),
	}
	defer r.reset()

	r.ticket.Store(1)
	r.done[0].Store(true)
	for i := range r.slots {
		r.slots[i].next = &r.slots[(i+1)%len(r.slots)]
	}
	r.slots[0].token.Store(true)

	tryGo := cfg.tryGo
	if tryGo == nil {
		tryGo = (*errgroup.Group).TryGo
	}
	var g errgroup.Group
	g.SetLimit(cfg.Threads)

	for i := range r.slots {
		s := &r.slots[i]
		if !tryGo(&g, func() error { return r.work(s) }) {
			r.abort.Store(true)
			_ = g.Wait()
			return fmt.Errorf("%w: %d of %d started", ErrLaunch, i, cfg.Threads)
		}
	}
	return g.Wait()
}

// work is the worker loop. Workers that stop because another one failed
// return nil so the failing worker's error is the one reported.
func (r *run) work(s *slot) (err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	defer func() {
		if p := recover(); p != nil {
			r.abort.Store(true)
			err = fmt.Errorf("%w: %v", ErrWorker, p)
		}
	}()
	var (
		numPages = uint64(r.arena.NumPages())
		numLanes = uint64(r.lanes.Len())
	)
	for {
		if !r.await(&s.token) {
			return nil
		}
		s.token.Store(false)
		to := r.ticket.Add(1) - 1
		s.next.token.Store(true)

		if to >= numPages {
			return nil
		}
		// The lane was last advanced by page to-numLanes
		if to >= numLanes && !r.await(&r.done[to-numLanes]) {
			return nil
		}
		lane := r.lanes.Lane(int(to & (numLanes - 1)))

		from := Source(lane.K[0], to, r.margin)
		if !r.await(&r.done[from]) {
			return nil
		}
		if r.trace != nil {
			r.trace(int(to), int(from))
		}
		r.engine.FillPage(r.arena.Page(int(to)), r.arena.Page(int(from)), lane, r.repeats)
		r.done[to].Store(true)
	}
}

// await spins until flag is set, yielding the processor every spinBudget
// polls. It returns false if the run was aborted first.
func (r *run) await(flag *atomic.Bool) bool {
	for miss := 0; !flag.Load(); {
		if r.abort.Load() {
			return false
		}
		if miss++; miss >= spinBudget {
			miss = 0
			runtime.Gosched()
		}
	}
	return true
}

func (r *run) reset() {
	for i := range r.done {
		r.done[i].Store(false)
	}
	for i := range r.slots {
		r.slots[i].token.Store(false)
		r.slots[i].next = nil
	}
	r.ticket.Store(0)
}

// Source returns the page that page to reads from, given the first word of
// its lane. For pages past the margin the source is drawn from the pages at
// least margin+1 behind; closer to the start everything reads page 0.
func Source(k0, to, margin uint64) uint64 {
	span := uint64(1)
	if to > margin {
		span = to - margin
	}
	return k0 % span
}
