package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	queuepkg "github.com/Workiva/go-datastructures/queue"
	"github.com/panjf2000/ants/v2"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/srediag/xshmem/internal/logger"
)

// ErrClosed is reported by events submitted after Close.
var ErrClosed = errors.New("queue closed")

var internalLogger = logger.New("queue", os.Stdout)

// Kernel is a single task.
type Kernel func(ctx context.Context) error

// IndexedKernel is one work item of a ParallelFor range.
type IndexedKernel func(ctx context.Context, i int) error

// Device describes the processor kernels execute on.
type Device struct {
	Name         string
	Vendor       string
	ComputeUnits int
}

// Option configures a Queue.
type Option func(*options)

type options struct {
	workers int
	inOrder bool
	device  *Device
}

// WithWorkers bounds the number of concurrently running work items. The
// default is the device's compute unit count.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithInOrder makes the queue run submissions one at a time in submission order.
func WithInOrder(inOrder bool) Option {
	return func(o *options) { o.inOrder = inOrder }
}

// WithDevice overrides device detection.
func WithDevice(d Device) Option {
	return func(o *options) { o.device = &d }
}

// Queue submits kernels to a worker pool.
type Queue struct {
	pool    *ants.Pool
	device  Device
	inOrder bool

	pending    *queuepkg.Queue
	dispatched chan struct{}

	mu     sync.Mutex
	closed bool
	events sync.WaitGroup
}

type task struct {
	ctx   context.Context
	n     int
	fn    IndexedKernel
	event *Event
}

// New creates a queue.
func New(opts ...Option) (*Queue, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	dev := detectDevice()
	if o.device != nil {
		dev = *o.device
	}
	workers := o.workers
	if workers <= 0 {
		workers = dev.ComputeUnits
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	q := &Queue{
		pool:    pool,
		device:  dev,
		inOrder: o.inOrder,
	}
	if q.inOrder {
		q.pending = queuepkg.New(16)
		q.dispatched = make(chan struct{})
		go q.dispatch()
	}
	internalLogger.Debugf("queue on %q: %d workers, in-order=%t", dev.Name, workers, q.inOrder)
	return q, nil
}

func detectDevice() Device {
	dev := Device{Name: "host", ComputeUnits: runtime.NumCPU()}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		if infos[0].ModelName != "" {
			dev.Name = infos[0].ModelName
		}
		dev.Vendor = infos[0].VendorID
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		dev.ComputeUnits = n
	}
	return dev
}

// Device returns the device the queue executes on.
func (q *Queue) Device() Device {
	return q.device
}

// InOrder reports whether submissions are serialized.
func (q *Queue) InOrder() bool {
	return q.inOrder
}

// SingleTask submits one kernel invocation.
func (q *Queue) SingleTask(ctx context.Context, k Kernel) *Event {
	return q.submit(ctx, 1, func(ctx context.Context, _ int) error { return k(ctx) })
}

// ParallelFor submits k for every index in [0, n).
func (q *Queue) ParallelFor(ctx context.Context, n int, k IndexedKernel) *Event {
	return q.submit(ctx, n, k)
}

func (q *Queue) submit(ctx context.Context, n int, fn IndexedKernel) *Event {
	ev := newEvent()
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		ev.complete(ErrClosed)
		return ev
	}
	q.events.Add(1)
	q.mu.Unlock()

	t := &task{ctx: ctx, n: n, fn: fn, event: ev}
	if q.inOrder {
		if err := q.pending.Put(t); err != nil {
			q.finish(t, fmt.Errorf("enqueue kernel: %w", err))
		}
		return ev
	}
	go q.run(t)
	return ev
}

func (q *Queue) dispatch() {
	defer close(q.dispatched)
	for {
		items, err := q.pending.Get(1)
		if err != nil {
			if !errors.Is(err, queuepkg.ErrDisposed) {
				internalLogger.Errorf("dispatch: %v", err)
			}
			return
		}
		for _, item := range items {
			q.run(item.(*task))
		}
	}
}

// run executes every work item of t on the pool and completes its event.
func (q *Queue) run(t *task) {
	if err := t.ctx.Err(); err != nil {
		q.finish(t, err)
		return
	}
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	record := func(err error) {
		if err != nil {
			errOnce.Do(func() { firstErr = err })
		}
	}
	for i := 0; i < t.n; i++ {
		wg.Add(1)
		err := q.pool.Submit(func() {
			defer wg.Done()
			record(invoke(t.ctx, t.fn, i))
		})
		if err != nil {
			wg.Done()
			record(fmt.Errorf("submit work item %d: %w", i, err))
			break
		}
	}
	wg.Wait()
	q.finish(t, firstErr)
}

func invoke(ctx context.Context, fn IndexedKernel, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kernel panicked at index %d: %v", i, r)
		}
	}()
	return fn(ctx, i)
}

func (q *Queue) finish(t *task, err error) {
	t.event.complete(err)
	q.events.Done()
}

// Wait blocks until every submitted kernel has completed.
func (q *Queue) Wait() {
	q.events.Wait()
}

// Close waits for outstanding kernels and releases the worker pool. Later
// submissions complete with ErrClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.events.Wait()
	if q.inOrder {
		q.pending.Dispose()
		<-q.dispatched
	}
	q.pool.Release()
}
