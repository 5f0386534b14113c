// Package api defines public API contracts for xshmem.
package api

import "unsafe"

// Runtime selects the launcher runtime a vendor library bootstraps through.
type Runtime int

const (
	RuntimeDefault Runtime = iota
	RuntimeMPI
	RuntimeOpenSHMEM
	RuntimePMI
)

// InitAttr holds vendor-specific initialization attributes. Backends read
// only the fields they understand.
type InitAttr struct {
	// Flags is passed through as the vendor flags word (NVSHMEM).
	Flags uint32
	// Runtime and InitializeRuntime map onto ishmemx_attr_t.
	Runtime           Runtime
	InitializeRuntime bool
	// MPIComm points at an MPI_Comm owned by the caller.
	MPIComm unsafe.Pointer
}

// AttrInitializer is implemented by backends built with the shmemx tag that
// expose attribute-based initialization. Callers use it in place of Init.
type AttrInitializer interface {
	InitAttr(attr *InitAttr) error
}
