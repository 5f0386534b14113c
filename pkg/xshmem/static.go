package xshmem

import (
	"unsafe"

	"github.com/srediag/xshmem/api"
)

// Static binds the capability set to the policy type P at compile time.
// For the zero-size adapter types the zero value is ready to use:
//
//	var h xshmem.Static[adapter.OpenSHMEM]
type Static[P api.OpenSHMEM] struct {
	backend P
}

// Bind returns a Static forwarding to p.
func Bind[P api.OpenSHMEM](p P) *Static[P] {
	return &Static[P]{backend: p}
}

// Backend returns the bound policy value.
func (s *Static[P]) Backend() P { return s.backend }

func (s *Static[P]) Library() api.Library { return s.backend.Library() }
func (s *Static[P]) Init() error          { return s.backend.Init() }
func (s *Static[P]) Finalize() error      { return s.backend.Finalize() }
func (s *Static[P]) MyPE() int            { return s.backend.MyPE() }
func (s *Static[P]) NPEs() int            { return s.backend.NPEs() }
func (s *Static[P]) BarrierAll() error    { return s.backend.BarrierAll() }

func (s *Static[P]) Put(dest unsafe.Pointer, source []int32, pe int) error {
	return s.backend.Put(dest, source, pe)
}

func (s *Static[P]) Get(dest []int32, source unsafe.Pointer, pe int) error {
	return s.backend.Get(dest, source, pe)
}

func (s *Static[P]) IntP(dest unsafe.Pointer, value int32, pe int) error {
	return s.backend.IntP(dest, value, pe)
}

func (s *Static[P]) Malloc(size uintptr) (unsafe.Pointer, error) { return s.backend.Malloc(size) }

func (s *Static[P]) Calloc(count, size uintptr) (unsafe.Pointer, error) {
	return s.backend.Calloc(count, size)
}

func (s *Static[P]) Free(ptr unsafe.Pointer) error { return s.backend.Free(ptr) }

// InitAttr forwards to P's attribute initializer, or reports that P has none.
func (s *Static[P]) InitAttr(attr *api.InitAttr) error {
	return InitAttr(s.backend, attr)
}

// Device returns the device-callable view, safe to capture in kernels.
func (s *Static[P]) Device() Device[P] {
	return Device[P]{backend: s.backend}
}

// Device exposes only the operations that may run inside a kernel. It is a
// value type so kernels capture it by copy.
type Device[P api.OpenSHMEM] struct {
	backend P
}

var _ api.DeviceAPI = Device[api.OpenSHMEM]{}

func (d Device[P]) MyPE() int { return d.backend.MyPE() }
func (d Device[P]) NPEs() int { return d.backend.NPEs() }

func (d Device[P]) Put(dest unsafe.Pointer, source []int32, pe int) error {
	return d.backend.Put(dest, source, pe)
}

func (d Device[P]) Get(dest []int32, source unsafe.Pointer, pe int) error {
	return d.backend.Get(dest, source, pe)
}

func (d Device[P]) IntP(dest unsafe.Pointer, value int32, pe int) error {
	return d.backend.IntP(dest, value, pe)
}
