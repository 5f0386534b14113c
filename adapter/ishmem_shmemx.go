//go:build ishmem && shmemx && cgo

package adapter

// #include "ishmem_bridge.h"
import "C"

import "github.com/srediag/xshmem/api"

// InitAttr calls ishmemx_init_attr. ISHMEM reports no status; failures abort
// inside the library.
func (ISHMEM) InitAttr(attr *api.InitAttr) error {
	if attr == nil {
		attr = &api.InitAttr{Runtime: api.RuntimeMPI, InitializeRuntime: true}
	}
	initRuntime := 0
	if attr.InitializeRuntime {
		initRuntime = 1
	}
	internalLogger.Debugf("ishmemx_init_attr runtime=%d initialize_runtime=%t", attr.Runtime, attr.InitializeRuntime)
	C.xshmem_ishmemx_init_attr(C.int(attr.Runtime), C.int(initRuntime), attr.MPIComm)
	return nil
}
