//go:build rocshmem && cgo

package adapter

/*
#cgo CXXFLAGS: -D__HIP_PLATFORM_AMD__
#cgo LDFLAGS: -lrocshmem -lamdhip64 -lstdc++
#include "rocshmem_bridge.h"
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/srediag/xshmem/api"
)

func init() {
	Default.Register(api.ROCSHMEM, func() api.OpenSHMEM { return ROCSHMEM{} })
}

// ROCSHMEM forwards to AMD ROC_SHMEM through rocshmem_bridge.cpp.
type ROCSHMEM struct{}

func (ROCSHMEM) Library() api.Library { return api.ROCSHMEM }

func (ROCSHMEM) Init() error {
	internalLogger.Debugf("roc_shmem_init")
	C.xshmem_rocshmem_init()
	return nil
}

func (ROCSHMEM) Finalize() error {
	internalLogger.Debugf("roc_shmem_finalize")
	C.xshmem_rocshmem_finalize()
	return nil
}

func (ROCSHMEM) MyPE() int { return int(C.xshmem_rocshmem_my_pe()) }

func (ROCSHMEM) NPEs() int { return int(C.xshmem_rocshmem_n_pes()) }

func (ROCSHMEM) Put(dest unsafe.Pointer, source []int32, pe int) error {
	C.xshmem_rocshmem_int_put((*C.int)(dest), (*C.int)(unsafe.Pointer(unsafe.SliceData(source))), C.size_t(len(source)), C.int(pe))
	return nil
}

func (ROCSHMEM) Get(dest []int32, source unsafe.Pointer, pe int) error {
	C.xshmem_rocshmem_int_get((*C.int)(unsafe.Pointer(unsafe.SliceData(dest))), (*C.int)(source), C.size_t(len(dest)), C.int(pe))
	return nil
}

func (ROCSHMEM) IntP(dest unsafe.Pointer, value int32, pe int) error {
	C.xshmem_rocshmem_int_p((*C.int)(dest), C.int(value), C.int(pe))
	return nil
}

func (ROCSHMEM) BarrierAll() error {
	C.xshmem_rocshmem_barrier_all()
	return nil
}

func (ROCSHMEM) Malloc(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, nil
	}
	ptr := C.xshmem_rocshmem_malloc(C.size_t(size))
	if ptr == nil {
		return nil, fmt.Errorf("roc_shmem_malloc(%d): %w", size, api.ErrOutOfSymmetricMemory)
	}
	return ptr, nil
}

func (ROCSHMEM) Calloc(count, size uintptr) (unsafe.Pointer, error) {
	if count == 0 || size == 0 {
		return nil, nil
	}
	ptr := C.xshmem_rocshmem_calloc(C.size_t(count), C.size_t(size))
	if ptr == nil {
		return nil, fmt.Errorf("roc_shmem_calloc(%d, %d): %w", count, size, api.ErrOutOfSymmetricMemory)
	}
	return ptr, nil
}

func (ROCSHMEM) Free(ptr unsafe.Pointer) error {
	C.xshmem_rocshmem_free(ptr)
	return nil
}
