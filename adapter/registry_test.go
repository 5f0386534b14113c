package adapter

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/suite"

	"github.com/srediag/xshmem/api"
)

type stubBackend struct {
	lib api.Library
}

func (b stubBackend) Library() api.Library                          { return b.lib }
func (stubBackend) Init() error                                     { return nil }
func (stubBackend) Finalize() error                                 { return nil }
func (stubBackend) MyPE() int                                       { return 0 }
func (stubBackend) NPEs() int                                       { return 1 }
func (stubBackend) Put(unsafe.Pointer, []int32, int) error          { return nil }
func (stubBackend) Get([]int32, unsafe.Pointer, int) error          { return nil }
func (stubBackend) IntP(unsafe.Pointer, int32, int) error           { return nil }
func (stubBackend) BarrierAll() error                               { return nil }
func (stubBackend) Malloc(uintptr) (unsafe.Pointer, error)          { return nil, nil }
func (stubBackend) Calloc(uintptr, uintptr) (unsafe.Pointer, error) { return nil, nil }
func (stubBackend) Free(unsafe.Pointer) error                       { return nil }

type RegistryTestSuite struct {
	suite.Suite
	r *Registry
}

func (s *RegistryTestSuite) SetupTest() {
	s.r = NewRegistry()
}

func (s *RegistryTestSuite) TestRegisterAndLookup() {
	s.r.Register(api.ISHMEM, func() api.OpenSHMEM { return stubBackend{lib: api.ISHMEM} })

	ctor, ok := s.r.Lookup(api.ISHMEM)
	s.Require().True(ok)
	s.Equal(api.ISHMEM, ctor().Library())

	_, ok = s.r.Lookup(api.SHMEM)
	s.False(ok)
	_, ok = s.r.Lookup(api.Library(-1))
	s.False(ok)
}

func (s *RegistryTestSuite) TestEnabledIsSorted() {
	for _, lib := range []api.Library{api.ROCSHMEM, api.SHMEM, api.NVSHMEM} {
		s.r.Register(lib, func() api.OpenSHMEM { return stubBackend{lib: lib} })
	}
	s.Equal([]api.Library{api.SHMEM, api.NVSHMEM, api.ROCSHMEM}, s.r.Enabled())
}

func (s *RegistryTestSuite) TestRegisterReplaces() {
	s.r.Register(api.SHMEM, func() api.OpenSHMEM { return stubBackend{lib: api.NVSHMEM} })
	s.r.Register(api.SHMEM, func() api.OpenSHMEM { return stubBackend{lib: api.SHMEM} })
	ctor, ok := s.r.Lookup(api.SHMEM)
	s.Require().True(ok)
	s.Equal(api.SHMEM, ctor().Library())
	s.Len(s.r.Enabled(), 1)
}

func (s *RegistryTestSuite) TestRegisterNilPanics() {
	s.Panics(func() { s.r.Register(api.SHMEM, nil) })
}

func (s *RegistryTestSuite) TestConcurrentRegister() {
	var wg sync.WaitGroup
	for _, lib := range api.Libraries() {
		wg.Add(1)
		go func(lib api.Library) {
			defer wg.Done()
			s.r.Register(lib, func() api.OpenSHMEM { return stubBackend{lib: lib} })
			_, _ = s.r.Lookup(lib)
		}(lib)
	}
	wg.Wait()
	s.Equal(api.Libraries(), s.r.Enabled())
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}
