// Package shm contains the memory-mapping helpers and the symmetric heap
// allocator behind the in-process test backend.
package shm

// MappedRegion represents a memory-mapped region.
type MappedRegion struct {
	Addr []byte

	fd    int
	path  string
	owner bool
}

// MapOptions defines options for mapping memory.
type MapOptions struct {
	// Name selects a named region under /dev/shm. Empty means an anonymous
	// private mapping.
	Name   string
	Size   int
	Create bool
}

// Function implementations are provided in platform-specific files (platform_linux.go, platform_other.go).
