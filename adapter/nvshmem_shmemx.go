//go:build nvshmem && shmemx && cgo

package adapter

/*
#include <nvshmem.h>
#include <nvshmemx.h>

static int xshmem_nvshmemx_init_attr(unsigned int flags, void *mpi_comm) {
	nvshmemx_init_attr_t attr = NVSHMEMX_INIT_ATTR_INITIALIZER;
	attr.mpi_comm = mpi_comm;
	return nvshmemx_init_attr(flags, &attr);
}
*/
import "C"

import "github.com/srediag/xshmem/api"

// InitAttr calls nvshmemx_init_attr with attr.Flags and attr.MPIComm.
func (NVSHMEM) InitAttr(attr *api.InitAttr) error {
	if attr == nil {
		attr = &api.InitAttr{}
	}
	internalLogger.Debugf("nvshmemx_init_attr flags=%#x", attr.Flags)
	if status := C.xshmem_nvshmemx_init_attr(C.uint(attr.Flags), attr.MPIComm); status != 0 {
		return &api.NativeError{Op: "nvshmemx_init_attr", Code: int(status)}
	}
	return nil
}
