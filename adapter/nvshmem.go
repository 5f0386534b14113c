//go:build nvshmem && cgo

package adapter

/*
#cgo LDFLAGS: -lnvshmem_host -lcudart
#include <nvshmem.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/srediag/xshmem/api"
)

func init() {
	Default.Register(api.NVSHMEM, func() api.OpenSHMEM { return NVSHMEM{} })
}

// NVSHMEM forwards to NVIDIA NVSHMEM. Symmetric memory lives on the GPU, so
// pointers from Malloc must not be dereferenced on the host.
type NVSHMEM struct{}

func (NVSHMEM) Library() api.Library { return api.NVSHMEM }

func (NVSHMEM) Init() error {
	internalLogger.Debugf("nvshmem_init")
	C.nvshmem_init()
	return nil
}

func (NVSHMEM) Finalize() error {
	internalLogger.Debugf("nvshmem_finalize")
	C.nvshmem_finalize()
	return nil
}

func (NVSHMEM) MyPE() int { return int(C.nvshmem_my_pe()) }

func (NVSHMEM) NPEs() int { return int(C.nvshmem_n_pes()) }

func (NVSHMEM) Put(dest unsafe.Pointer, source []int32, pe int) error {
	C.nvshmem_int_put((*C.int)(dest), (*C.int)(unsafe.Pointer(unsafe.SliceData(source))), C.size_t(len(source)), C.int(pe))
	return nil
}

func (NVSHMEM) Get(dest []int32, source unsafe.Pointer, pe int) error {
	C.nvshmem_int_get((*C.int)(unsafe.Pointer(unsafe.SliceData(dest))), (*C.int)(source), C.size_t(len(dest)), C.int(pe))
	return nil
}

func (NVSHMEM) IntP(dest unsafe.Pointer, value int32, pe int) error {
	C.nvshmem_int_p((*C.int)(dest), C.int(value), C.int(pe))
	return nil
}

func (NVSHMEM) BarrierAll() error {
	C.nvshmem_barrier_all()
	return nil
}

func (NVSHMEM) Malloc(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, nil
	}
	ptr := C.nvshmem_malloc(C.size_t(size))
	if ptr == nil {
		return nil, fmt.Errorf("nvshmem_malloc(%d): %w", size, api.ErrOutOfSymmetricMemory)
	}
	return ptr, nil
}

func (NVSHMEM) Calloc(count, size uintptr) (unsafe.Pointer, error) {
	if count == 0 || size == 0 {
		return nil, nil
	}
	ptr := C.nvshmem_calloc(C.size_t(count), C.size_t(size))
	if ptr == nil {
		return nil, fmt.Errorf("nvshmem_calloc(%d, %d): %w", count, size, api.ErrOutOfSymmetricMemory)
	}
	return ptr, nil
}

func (NVSHMEM) Free(ptr unsafe.Pointer) error {
	C.nvshmem_free(ptr)
	return nil
}
