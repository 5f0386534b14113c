package shmemtest

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/internal/shm"
)

// PE is one processing element of a World.
type PE struct {
	world  *World
	rank   int
	region *shm.MappedRegion
	heap   *shm.Heap

	initialized atomic.Bool
	finalized   atomic.Bool
}

var _ api.OpenSHMEM = (*PE)(nil)

func (p *PE) Library() api.Library { return p.world.lib }

func (p *PE) Init() error {
	if p.finalized.Load() {
		return ErrFinalized
	}
	if !p.initialized.CompareAndSwap(false, true) {
		return fmt.Errorf("shmemtest: PE %d initialized twice", p.rank)
	}
	return nil
}

// Finalize synchronizes with every other PE, like shmem_finalize.
func (p *PE) Finalize() error {
	if err := p.ready(); err != nil {
		return err
	}
	err := p.world.barrier.wait()
	p.finalized.Store(true)
	return err
}

func (p *PE) ready() error {
	if p.finalized.Load() {
		return ErrFinalized
	}
	if !p.initialized.Load() {
		return ErrNotInitialized
	}
	return nil
}

// MyPE returns -1 outside Init/Finalize.
func (p *PE) MyPE() int {
	if p.ready() != nil {
		return -1
	}
	return p.rank
}

// NPEs returns 0 outside Init/Finalize.
func (p *PE) NPEs() int {
	if p.ready() != nil {
		return 0
	}
	return len(p.world.pes)
}

// remote resolves n ints at the symmetric address addr on PE pe.
func (p *PE) remote(addr unsafe.Pointer, n int, pe int) ([]byte, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if pe < 0 || pe >= len(p.world.pes) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidPE, pe, len(p.world.pes))
	}
	off, ok := p.heap.Offset(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %p", ErrNotSymmetric, addr)
	}
	return p.world.pes[pe].heap.Bytes(off, uintptr(n)*api.IntSize)
}

func int32Bytes(s []int32) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), uintptr(len(s))*api.IntSize)
}

func (p *PE) Put(dest unsafe.Pointer, source []int32, pe int) error {
	dst, err := p.remote(dest, len(source), pe)
	if err != nil {
		return err
	}
	copy(dst, int32Bytes(source))
	return nil
}

func (p *PE) Get(dest []int32, source unsafe.Pointer, pe int) error {
	src, err := p.remote(source, len(dest), pe)
	if err != nil {
		return err
	}
	copy(int32Bytes(dest), src)
	return nil
}

func (p *PE) IntP(dest unsafe.Pointer, value int32, pe int) error {
	return p.Put(dest, []int32{value}, pe)
}

func (p *PE) BarrierAll() error {
	if err := p.ready(); err != nil {
		return err
	}
	return p.world.barrier.wait()
}

func (p *PE) Malloc(size uintptr) (unsafe.Pointer, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	off, err := p.heap.Alloc(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrOutOfSymmetricMemory, err)
	}
	return p.heap.Pointer(off), nil
}

func (p *PE) Calloc(count, size uintptr) (unsafe.Pointer, error) {
	if size != 0 && count > ^uintptr(0)/size {
		return nil, fmt.Errorf("%w: calloc(%d, %d) overflows", api.ErrOutOfSymmetricMemory, count, size)
	}
	ptr, err := p.Malloc(count * size)
	if err != nil || ptr == nil {
		return ptr, err
	}
	clear(unsafe.Slice((*byte)(ptr), count*size))
	return ptr, nil
}

// Free releases ptr. Unlike the vendor libraries, the double rejects
// pointers that did not come from this PE's heap.
func (p *PE) Free(ptr unsafe.Pointer) error {
	if err := p.ready(); err != nil {
		return err
	}
	if ptr == nil {
		return nil
	}
	off, ok := p.heap.Offset(ptr)
	if !ok {
		return fmt.Errorf("%w: %p", ErrNotSymmetric, ptr)
	}
	return p.heap.Free(off)
}

// HeapStats reports the PE's heap usage.
func (p *PE) HeapStats() shm.HeapStats {
	return p.heap.Stats()
}
