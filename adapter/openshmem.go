//go:build shmem && cgo

package adapter

/*
#cgo LDFLAGS: -loshmem
#include <shmem.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/srediag/xshmem/api"
)

func init() {
	Default.Register(api.SHMEM, func() api.OpenSHMEM { return OpenSHMEM{} })
}

// OpenSHMEM forwards to a standard OpenSHMEM library (SOS, OSHMEM, ...).
type OpenSHMEM struct{}

func (OpenSHMEM) Library() api.Library { return api.SHMEM }

func (OpenSHMEM) Init() error {
	internalLogger.Debugf("shmem_init")
	C.shmem_init()
	return nil
}

func (OpenSHMEM) Finalize() error {
	internalLogger.Debugf("shmem_finalize")
	C.shmem_finalize()
	return nil
}

func (OpenSHMEM) MyPE() int { return int(C.shmem_my_pe()) }

func (OpenSHMEM) NPEs() int { return int(C.shmem_n_pes()) }

func (OpenSHMEM) Put(dest unsafe.Pointer, source []int32, pe int) error {
	C.shmem_int_put((*C.int)(dest), (*C.int)(unsafe.Pointer(unsafe.SliceData(source))), C.size_t(len(source)), C.int(pe))
	return nil
}

func (OpenSHMEM) Get(dest []int32, source unsafe.Pointer, pe int) error {
	C.shmem_int_get((*C.int)(unsafe.Pointer(unsafe.SliceData(dest))), (*C.int)(source), C.size_t(len(dest)), C.int(pe))
	return nil
}

func (OpenSHMEM) IntP(dest unsafe.Pointer, value int32, pe int) error {
	C.shmem_int_p((*C.int)(dest), C.int(value), C.int(pe))
	return nil
}

func (OpenSHMEM) BarrierAll() error {
	C.shmem_barrier_all()
	return nil
}

func (OpenSHMEM) Malloc(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, nil
	}
	ptr := C.shmem_malloc(C.size_t(size))
	if ptr == nil {
		return nil, fmt.Errorf("shmem_malloc(%d): %w", size, api.ErrOutOfSymmetricMemory)
	}
	return ptr, nil
}

func (OpenSHMEM) Calloc(count, size uintptr) (unsafe.Pointer, error) {
	if count == 0 || size == 0 {
		return nil, nil
	}
	ptr := C.shmem_calloc(C.size_t(count), C.size_t(size))
	if ptr == nil {
		return nil, fmt.Errorf("shmem_calloc(%d, %d): %w", count, size, api.ErrOutOfSymmetricMemory)
	}
	return ptr, nil
}

func (OpenSHMEM) Free(ptr unsafe.Pointer) error {
	C.shmem_free(ptr)
	return nil
}
