// Package adapter provides the per-vendor SHMEM adapters and the registry the
// selector resolves them from.
//
// Each vendor adapter lives in a file guarded by its build tag (shmem,
// nvshmem, ishmem, rocshmem) plus cgo; the shmemx tag adds attribute-based
// initialization where the vendor offers it. A build without any tag
// registers nothing.
package adapter

import (
	"os"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/internal/logger"
)

// Constructor returns a fresh handle for one backend.
type Constructor func() api.OpenSHMEM

// Registry maps libraries to the constructors compiled into the binary.
type Registry struct {
	ctors cmap.ConcurrentMap[string, Constructor]
}

// Default holds the adapters enabled at build time.
var Default = NewRegistry()

var internalLogger = logger.New("adapter", os.Stdout)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: cmap.New[Constructor]()}
}

// Register binds ctor to lib, replacing any previous binding.
func (r *Registry) Register(lib api.Library, ctor Constructor) {
	if ctor == nil {
		panic("adapter: Register constructor is nil for " + lib.String())
	}
	r.ctors.Set(lib.String(), ctor)
}

// Lookup returns the constructor bound to lib.
func (r *Registry) Lookup(lib api.Library) (Constructor, bool) {
	if !lib.Valid() {
		return nil, false
	}
	return r.ctors.Get(lib.String())
}

// Enabled lists the registered libraries in declaration order.
func (r *Registry) Enabled() []api.Library {
	libs := make([]api.Library, 0, r.ctors.Count())
	for _, name := range r.ctors.Keys() {
		if lib, err := api.ParseLibrary(name); err == nil {
			libs = append(libs, lib)
		}
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i] < libs[j] })
	return libs
}
