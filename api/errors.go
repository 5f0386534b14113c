// Package api defines public API contracts for xshmem.
package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedLibrary matches every UnsupportedLibraryError.
	ErrUnsupportedLibrary = errors.New("unsupported SHMEM library")
	// ErrOutOfSymmetricMemory is returned when a backend allocation yields NULL.
	ErrOutOfSymmetricMemory = errors.New("symmetric heap allocation failed")
	// ErrInitAttrUnsupported is returned when a backend was built without
	// attribute-based initialization.
	ErrInitAttrUnsupported = errors.New("attribute-based initialization not supported")
)

// UnsupportedLibraryError reports a requested library that has no compiled-in adapter.
type UnsupportedLibraryError struct {
	Name string
}

func (e *UnsupportedLibraryError) Error() string {
	return fmt.Sprintf("unsupported SHMEM library %q", e.Name)
}

func (e *UnsupportedLibraryError) Is(target error) bool {
	return target == ErrUnsupportedLibrary
}

// NativeError carries a non-zero status code returned by a vendor routine.
type NativeError struct {
	Op   string
	Code int
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("%s failed with status %d", e.Op, e.Code)
}
