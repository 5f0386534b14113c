// Package shmemtest provides an in-process stand-in for a SHMEM job: a World
// of PEs that satisfy api.OpenSHMEM inside one process. It exists for tests
// and demos that must run without a vendor library and is never registered
// as a selectable backend.
//
// Each PE owns a heap of the same size. As with a real symmetric heap, PEs
// must allocate collectively and in the same order; an address on one PE is
// translated to the same offset on the target PE.
package shmemtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/srediag/xshmem/adapter"
	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/internal/shm"
)

// DefaultHeapSize is the per-PE heap size used when WithHeapSize is not given.
const DefaultHeapSize = 1 << 20

var (
	ErrNotInitialized = errors.New("shmemtest: PE not initialized")
	ErrFinalized      = errors.New("shmemtest: PE already finalized")
	ErrInvalidPE      = errors.New("shmemtest: target PE out of range")
	ErrNotSymmetric   = errors.New("shmemtest: address is not in the symmetric heap")
	ErrAborted        = errors.New("shmemtest: world aborted")
)

// Option configures a World.
type Option func(*config)

type config struct {
	heapSize int
	lib      api.Library
}

// WithHeapSize sets the per-PE heap size in bytes.
func WithHeapSize(n int) Option {
	return func(c *config) { c.heapSize = n }
}

// WithLibrary sets the library PEs report from Library. The default is api.SHMEM.
func WithLibrary(lib api.Library) Option {
	return func(c *config) { c.lib = lib }
}

// World is a group of PEs sharing one process.
type World struct {
	pes     []*PE
	barrier *barrier
	lib     api.Library
}

// NewWorld maps a heap for each of n PEs.
func NewWorld(ctx context.Context, n int, opts ...Option) (*World, error) {
	if n <= 0 {
		return nil, fmt.Errorf("shmemtest: world size %d must be positive", n)
	}
	cfg := config{heapSize: DefaultHeapSize, lib: api.SHMEM}
	for _, opt := range opts {
		opt(&cfg)
	}
	w := &World{
		pes:     make([]*PE, 0, n),
		barrier: newBarrier(n),
		lib:     cfg.lib,
	}
	for rank := 0; rank < n; rank++ {
		region, err := shm.MapRegion(ctx, shm.MapOptions{Size: cfg.heapSize})
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("shmemtest: map heap for PE %d: %w", rank, err)
		}
		w.pes = append(w.pes, &PE{
			world:  w,
			rank:   rank,
			region: region,
			heap:   shm.NewHeap(region.Addr),
		})
	}
	return w, nil
}

// Size returns the number of PEs.
func (w *World) Size() int {
	return len(w.pes)
}

// PE returns the PE with the given rank.
func (w *World) PE(rank int) *PE {
	return w.pes[rank]
}

// Constructor returns an adapter.Constructor yielding the PE with the given
// rank, so a World can stand behind a private adapter.Registry.
func (w *World) Constructor(rank int) adapter.Constructor {
	return func() api.OpenSHMEM { return w.pes[rank] }
}

// Abort breaks the world's barrier; PEs blocked in or later entering
// BarrierAll or Finalize fail with ErrAborted.
func (w *World) Abort(cause error) {
	w.barrier.abort(cause)
}

// Run calls fn concurrently once per PE and waits for all of them. The first
// failure, a panic, or cancellation of ctx aborts the world so peers blocked
// in a barrier return instead of hanging.
func (w *World) Run(ctx context.Context, fn func(ctx context.Context, pe api.OpenSHMEM) error) error {
	stop := context.AfterFunc(ctx, func() { w.Abort(ctx.Err()) })
	defer stop()

	errs := make([]error, len(w.pes))
	var wg sync.WaitGroup
	for i, pe := range w.pes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runPE(ctx, pe, fn); err != nil {
				errs[i] = fmt.Errorf("PE %d: %w", i, err)
				w.Abort(err)
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func runPE(ctx context.Context, pe *PE, fn func(context.Context, api.OpenSHMEM) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, pe)
}

// Close unmaps every heap. PEs must not be used afterwards.
func (w *World) Close() error {
	var errs []error
	for _, pe := range w.pes {
		if err := shm.UnmapRegion(context.Background(), pe.region); err != nil {
			errs = append(errs, fmt.Errorf("PE %d: %w", pe.rank, err))
		}
	}
	return errors.Join(errs...)
}

type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	n       int
	arrived int
	gen     uint64
	err     error
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) wait() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	gen := b.gen
	b.arrived++
	if b.arrived == b.n {
		b.arrived = 0
		b.gen++
		b.cond.Broadcast()
		return nil
	}
	for gen == b.gen && b.err == nil {
		b.cond.Wait()
	}
	if gen == b.gen {
		return b.err
	}
	return nil
}

func (b *barrier) abort(cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		b.err = fmt.Errorf("%w: %v", ErrAborted, cause)
	}
	b.cond.Broadcast()
}
