//go:build !linux

package shm

import (
	"context"
	"errors"
)

// MapRegion allocates a heap-backed region. Named regions need /dev/shm and
// are only supported on Linux.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Size <= 0 {
		return nil, errors.New("invalid region size")
	}
	if opts.Name != "" {
		return nil, errors.New("named regions are not supported on this platform")
	}
	return &MappedRegion{Addr: make([]byte, opts.Size), fd: -1}, nil
}

// UnmapRegion releases the region.
func UnmapRegion(ctx context.Context, region *MappedRegion) error {
	if region != nil {
		region.Addr = nil
	}
	return nil
}
