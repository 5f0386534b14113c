package xshmem

import (
	"sync"
	"unsafe"

	"github.com/srediag/xshmem/api"
)

// fakeBackend records calls and returns the configured errors.
type fakeBackend struct {
	lib api.Library

	mu      sync.Mutex
	calls   []string
	initErr []error
	putErr  error
	attrs   []*api.InitAttr
}

func (f *fakeBackend) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Library() api.Library { return f.lib }

func (f *fakeBackend) Init() error {
	f.record("init")
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.initErr) == 0 {
		return nil
	}
	err := f.initErr[0]
	f.initErr = f.initErr[1:]
	return err
}

func (f *fakeBackend) Finalize() error { f.record("finalize"); return nil }
func (f *fakeBackend) MyPE() int       { f.record("my_pe"); return 0 }
func (f *fakeBackend) NPEs() int       { f.record("n_pes"); return 1 }

func (f *fakeBackend) Put(unsafe.Pointer, []int32, int) error {
	f.record("put")
	return f.putErr
}

func (f *fakeBackend) Get([]int32, unsafe.Pointer, int) error { f.record("get"); return nil }
func (f *fakeBackend) IntP(unsafe.Pointer, int32, int) error  { f.record("int_p"); return nil }
func (f *fakeBackend) BarrierAll() error                      { f.record("barrier_all"); return nil }

func (f *fakeBackend) Malloc(size uintptr) (unsafe.Pointer, error) {
	f.record("malloc")
	if size == 0 {
		return nil, nil
	}
	return unsafe.Pointer(&make([]byte, size)[0]), nil
}

func (f *fakeBackend) Calloc(count, size uintptr) (unsafe.Pointer, error) {
	f.record("calloc")
	return f.Malloc(count * size)
}

func (f *fakeBackend) Free(unsafe.Pointer) error { f.record("free"); return nil }

// attrBackend additionally supports vendor attribute initialization.
type attrBackend struct {
	fakeBackend
}

func (f *attrBackend) InitAttr(attr *api.InitAttr) error {
	f.record("init_attr")
	f.mu.Lock()
	f.attrs = append(f.attrs, attr)
	f.mu.Unlock()
	return nil
}

func unsafePtrAt(base unsafe.Pointer, i int) unsafe.Pointer {
	return unsafe.Add(base, uintptr(i)*api.IntSize)
}
