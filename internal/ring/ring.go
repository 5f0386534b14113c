// Package ring implements the put/verify exchange used by the example
// programs: every PE writes its rank into the next PE's buffer and checks
// that it received the rank of the previous one.
package ring

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/internal/logger"
	"github.com/srediag/xshmem/pkg/queue"
)

// Mode selects where the put is issued from.
type Mode string

const (
	// ModeHost issues one Put of all elements from the calling goroutine.
	ModeHost Mode = "host"
	// ModeDevice issues one IntP per element from kernels on a queue.
	ModeDevice Mode = "device"
)

// DefaultElements matches the buffer length of the device example.
const DefaultElements = 10

var ErrNotInitialized = errors.New("ring: handle reports no PEs, call Init first")

var internalLogger = logger.New("ring", os.Stdout)

// ParseMode accepts "host" or "device".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHost, ModeDevice:
		return Mode(s), nil
	}
	return "", fmt.Errorf("ring: unknown mode %q", s)
}

// Options configures Exchange.
type Options struct {
	Elements int
	Mode     Mode
}

// Report is one PE's view of the exchange.
type Report struct {
	PE         int
	NPEs       int
	Expected   int32
	Mismatches []int
}

// Verify returns an error naming the first mismatching index, if any.
func (r *Report) Verify() error {
	if len(r.Mismatches) == 0 {
		return nil
	}
	return fmt.Errorf("PE %d: expected %d, %d element(s) differ starting at index %d",
		r.PE, r.Expected, len(r.Mismatches), r.Mismatches[0])
}

// Exchange runs the ring on an initialized handle. q is required in device
// mode. Every PE of the job must call Exchange with the same options.
//
// The symmetric buffer is never dereferenced on the host: results are copied
// back with Get, so device-memory backends work unchanged. Kernel calls into
// the library are serialized.
func Exchange(ctx context.Context, h api.OpenSHMEM, q *queue.Queue, opts Options) (*Report, error) {
	n := opts.Elements
	if n <= 0 {
		n = DefaultElements
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeHost
	}
	if mode == ModeDevice && q == nil {
		return nil, errors.New("ring: device mode needs a queue")
	}

	me, npes := h.MyPE(), h.NPEs()
	if npes <= 0 {
		return nil, ErrNotInitialized
	}
	next := (me + 1) % npes
	report := &Report{PE: me, NPEs: npes, Expected: int32((me - 1 + npes) % npes)}

	dst, err := h.Calloc(uintptr(n), api.IntSize)
	if err != nil {
		return nil, fmt.Errorf("ring: allocate %d ints: %w", n, err)
	}
	defer func() {
		if ferr := h.Free(dst); ferr != nil {
			internalLogger.Warnf("free ring buffer: %v", ferr)
		}
	}()

	if err := h.BarrierAll(); err != nil {
		return nil, err
	}

	switch mode {
	case ModeHost:
		src := make([]int32, n)
		for i := range src {
			src[i] = int32(me)
		}
		err = h.Put(dst, src, next)
	case ModeDevice:
		dev := &serialDevice{dev: h}
		err = q.ParallelFor(ctx, n, func(_ context.Context, i int) error {
			return dev.IntP(elem(dst, i), int32(me), next)
		}).Wait()
	default:
		err = fmt.Errorf("ring: unknown mode %q", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("ring: %s put: %w", mode, err)
	}

	if err := h.BarrierAll(); err != nil {
		return nil, err
	}

	// dst may be device memory; only the library may read it.
	got := make([]int32, n)
	if err := h.Get(got, dst, me); err != nil {
		return nil, fmt.Errorf("ring: copy back: %w", err)
	}
	if mode == ModeDevice {
		check := make([]bool, n)
		err := q.ParallelFor(ctx, n, func(_ context.Context, i int) error {
			check[i] = got[i] != report.Expected
			return nil
		}).Wait()
		if err != nil {
			return nil, fmt.Errorf("ring: verify: %w", err)
		}
		for i, bad := range check {
			if bad {
				report.Mismatches = append(report.Mismatches, i)
			}
		}
	} else {
		for i, v := range got {
			if v != report.Expected {
				report.Mismatches = append(report.Mismatches, i)
			}
		}
	}

	// Free is collective, so line up before the deferred release.
	if err := h.BarrierAll(); err != nil {
		return nil, err
	}
	return report, nil
}

// serialDevice funnels kernel calls through one lock. Backends are
// initialized without requesting SHMEM_THREAD_MULTIPLE, while queue kernels
// run on many goroutines.
type serialDevice struct {
	mu  sync.Mutex
	dev api.DeviceAPI
}

func (d *serialDevice) IntP(dest unsafe.Pointer, value int32, pe int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev.IntP(dest, value, pe)
}

func elem(base unsafe.Pointer, i int) unsafe.Pointer {
	return unsafe.Add(base, uintptr(i)*api.IntSize)
}
