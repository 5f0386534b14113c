package shm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"unsafe"
)

// HeapAlign is the alignment of every block returned by Heap.Alloc.
const HeapAlign = 16

var (
	ErrHeapExhausted = errors.New("symmetric heap exhausted")
	ErrInvalidFree   = errors.New("pointer was not allocated from this heap")
)

type span struct {
	off  uintptr
	size uintptr
}

// Heap is a first-fit allocator over a fixed memory region. Identical
// sequences of Alloc and Free on two heaps of the same size yield identical
// offsets, which is what makes the heaps symmetric.
type Heap struct {
	mu    sync.Mutex
	mem   []byte
	base  uintptr
	live  map[uintptr]uintptr // offset -> size
	free  []span              // sorted by offset, coalesced
	inUse uintptr
}

// HeapStats reports heap usage.
type HeapStats struct {
	Capacity uintptr
	InUse    uintptr
	Blocks   int
}

// NewHeap manages mem. The caller keeps mem alive for the heap's lifetime.
func NewHeap(mem []byte) *Heap {
	h := &Heap{
		mem:  mem,
		live: make(map[uintptr]uintptr),
	}
	if len(mem) > 0 {
		h.base = uintptr(unsafe.Pointer(&mem[0]))
		h.free = []span{{off: 0, size: uintptr(len(mem))}}
	}
	return h
}

func alignUp(n uintptr) uintptr {
	return (n + HeapAlign - 1) &^ (HeapAlign - 1)
}

// Alloc reserves size bytes and returns their offset.
func (h *Heap) Alloc(size uintptr) (uintptr, error) {
	if size == 0 {
		size = 1
	}
	if size > uintptr(len(h.mem)) {
		return 0, fmt.Errorf("alloc %d bytes: %w", size, ErrHeapExhausted)
	}
	size = alignUp(size)
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.free {
		if s.size < size {
			continue
		}
		off := s.off
		if s.size == size {
			h.free = append(h.free[:i], h.free[i+1:]...)
		} else {
			h.free[i] = span{off: s.off + size, size: s.size - size}
		}
		h.live[off] = size
		h.inUse += size
		return off, nil
	}
	return 0, fmt.Errorf("alloc %d bytes: %w", size, ErrHeapExhausted)
}

// Free releases the block starting at off.
func (h *Heap) Free(off uintptr) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	size, ok := h.live[off]
	if !ok {
		return fmt.Errorf("free offset %#x: %w", off, ErrInvalidFree)
	}
	delete(h.live, off)
	h.inUse -= size

	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].off > off })
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = span{off: off, size: size}

	// merge with the next span, then with the previous one
	if i+1 < len(h.free) && h.free[i].off+h.free[i].size == h.free[i+1].off {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].off+h.free[i-1].size == h.free[i].off {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
	return nil
}

// Offset translates ptr into an offset if it points inside the heap.
func (h *Heap) Offset(ptr unsafe.Pointer) (uintptr, bool) {
	p := uintptr(ptr)
	if ptr == nil || p < h.base || p >= h.base+uintptr(len(h.mem)) {
		return 0, false
	}
	return p - h.base, true
}

// Pointer returns the address of off.
func (h *Heap) Pointer(off uintptr) unsafe.Pointer {
	return unsafe.Pointer(&h.mem[off])
}

// Bytes returns the n bytes at off, or an error when they leave the heap.
func (h *Heap) Bytes(off, n uintptr) ([]byte, error) {
	if off > uintptr(len(h.mem)) || n > uintptr(len(h.mem))-off {
		return nil, fmt.Errorf("range [%#x, +%d) outside heap of %d bytes", off, n, len(h.mem))
	}
	return h.mem[off : off+n : off+n], nil
}

// Stats returns a snapshot of heap usage.
func (h *Heap) Stats() HeapStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HeapStats{
		Capacity: uintptr(len(h.mem)),
		InUse:    h.inUse,
		Blocks:   len(h.live),
	}
}
