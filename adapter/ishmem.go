//go:build ishmem && cgo

package adapter

/*
#cgo CXXFLAGS: -fsycl
#cgo LDFLAGS: -lishmem -lsycl -lstdc++
#include "ishmem_bridge.h"
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/srediag/xshmem/api"
)

func init() {
	Default.Register(api.ISHMEM, func() api.OpenSHMEM { return ISHMEM{} })
}

// ISHMEM forwards to Intel SHMEM. The library is C++/SYCL only, so calls go
// through the extern "C" bridge in ishmem_bridge.cpp.
type ISHMEM struct{}

func (ISHMEM) Library() api.Library { return api.ISHMEM }

func (ISHMEM) Init() error {
	internalLogger.Debugf("ishmem_init")
	C.xshmem_ishmem_init()
	return nil
}

func (ISHMEM) Finalize() error {
	internalLogger.Debugf("ishmem_finalize")
	C.xshmem_ishmem_finalize()
	return nil
}

func (ISHMEM) MyPE() int { return int(C.xshmem_ishmem_my_pe()) }

func (ISHMEM) NPEs() int { return int(C.xshmem_ishmem_n_pes()) }

func (ISHMEM) Put(dest unsafe.Pointer, source []int32, pe int) error {
	C.xshmem_ishmem_int_put((*C.int)(dest), (*C.int)(unsafe.Pointer(unsafe.SliceData(source))), C.size_t(len(source)), C.int(pe))
	return nil
}

func (ISHMEM) Get(dest []int32, source unsafe.Pointer, pe int) error {
	C.xshmem_ishmem_int_get((*C.int)(unsafe.Pointer(unsafe.SliceData(dest))), (*C.int)(source), C.size_t(len(dest)), C.int(pe))
	return nil
}

func (ISHMEM) IntP(dest unsafe.Pointer, value int32, pe int) error {
	C.xshmem_ishmem_int_p((*C.int)(dest), C.int(value), C.int(pe))
	return nil
}

func (ISHMEM) BarrierAll() error {
	C.xshmem_ishmem_barrier_all()
	return nil
}

func (ISHMEM) Malloc(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, nil
	}
	ptr := C.xshmem_ishmem_malloc(C.size_t(size))
	if ptr == nil {
		return nil, fmt.Errorf("ishmem_malloc(%d): %w", size, api.ErrOutOfSymmetricMemory)
	}
	return ptr, nil
}

func (ISHMEM) Calloc(count, size uintptr) (unsafe.Pointer, error) {
	if count == 0 || size == 0 {
		return nil, nil
	}
	ptr := C.xshmem_ishmem_calloc(C.size_t(count), C.size_t(size))
	if ptr == nil {
		return nil, fmt.Errorf("ishmem_calloc(%d, %d): %w", count, size, api.ErrOutOfSymmetricMemory)
	}
	return ptr, nil
}

func (ISHMEM) Free(ptr unsafe.Pointer) error {
	C.xshmem_ishmem_free(ptr)
	return nil
}
