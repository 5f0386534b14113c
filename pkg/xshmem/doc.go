// Package xshmem selects a SHMEM backend and hands back a handle that
// forwards every call to it.
//
// A backend is chosen at run time through a Selector:
//
//	h, err := xshmem.NewFromEnv() // SHMEM_LIBRARY, or SHMEM when unset
//	if err != nil {
//		// no adapter for the requested library was compiled in
//	}
//	if err := h.Init(); err != nil {
//		// ...
//	}
//	defer h.Finalize()
//	fmt.Println("Hello from PE", h.MyPE(), "out of", h.NPEs())
//
// or at build time by binding a Static wrapper to an adapter type:
//
//	var h xshmem.Static[adapter.NVSHMEM]
//
// Which adapters exist is decided by build tags; see package adapter.
package xshmem
