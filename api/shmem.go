// Package api defines public API contracts for xshmem.
package api

import "unsafe"

// OpenSHMEM is the capability set every backend adapter provides.
//
// A handle is bound to exactly one Library for its whole lifetime. Init must
// be called once before any other operation and Finalize once after all
// communication completes; calls outside that window behave however the
// vendor library defines them. Pointers returned by Malloc or Calloc belong
// to the handle's backend and must be released through the same backend.
type OpenSHMEM interface {
	DeviceAPI

	// Library returns the backend this handle forwards to.
	Library() Library

	Init() error
	Finalize() error

	// Malloc allocates size bytes from the symmetric heap. It is collective.
	Malloc(size uintptr) (unsafe.Pointer, error)
	// Calloc allocates count*size zeroed bytes from the symmetric heap.
	Calloc(count, size uintptr) (unsafe.Pointer, error)
	Free(ptr unsafe.Pointer) error

	// BarrierAll synchronizes all PEs and completes outstanding puts.
	BarrierAll() error
}

// DeviceAPI is the subset of OpenSHMEM that may be invoked from a kernel
// submitted to an accelerator queue.
type DeviceAPI interface {
	MyPE() int
	NPEs() int

	// Put writes len(source) ints from source into the symmetric object dest
	// on PE pe. Completion and ordering are those of the backend.
	Put(dest unsafe.Pointer, source []int32, pe int) error
	// Get reads len(dest) ints from the symmetric object source on PE pe.
	Get(dest []int32, source unsafe.Pointer, pe int) error
	// IntP writes a single int into dest on PE pe.
	IntP(dest unsafe.Pointer, value int32, pe int) error
}

// Int32s views n ints of symmetric memory starting at ptr.
func Int32s(ptr unsafe.Pointer, n int) []int32 {
	if ptr == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*int32)(ptr), n)
}

// IntSize is the size in bytes of the C int moved by Put, Get and IntP.
const IntSize = unsafe.Sizeof(int32(0))
