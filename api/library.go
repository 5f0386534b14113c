// Package api defines public API contracts for xshmem.
package api

import "strconv"

// Library identifies one vendor SHMEM implementation.
type Library int

const (
	SHMEM Library = iota
	NVSHMEM
	ISHMEM
	ROCSHMEM
)

// EnvLibrary names the environment variable consulted when no library is given.
const EnvLibrary = "SHMEM_LIBRARY"

// DefaultLibrary is used when EnvLibrary is unset.
const DefaultLibrary = SHMEM

var libraryNames = [...]string{
	SHMEM:    "SHMEM",
	NVSHMEM:  "NVSHMEM",
	ISHMEM:   "ISHMEM",
	ROCSHMEM: "ROCSHMEM",
}

func (l Library) String() string {
	if l.Valid() {
		return libraryNames[l]
	}
	return "Library(" + strconv.Itoa(int(l)) + ")"
}

// Valid reports whether l is one of the known libraries.
func (l Library) Valid() bool {
	return l >= SHMEM && int(l) < len(libraryNames)
}

// Libraries returns every known library in declaration order.
func Libraries() []Library {
	libs := make([]Library, len(libraryNames))
	for i := range libraryNames {
		libs[i] = Library(i)
	}
	return libs
}

// ParseLibrary matches name against the library spellings exactly.
func ParseLibrary(name string) (Library, error) {
	for i, n := range libraryNames {
		if n == name {
			return Library(i), nil
		}
	}
	return 0, &UnsupportedLibraryError{Name: name}
}

// MarshalText implements encoding.TextMarshaler.
func (l Library) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, &UnsupportedLibraryError{Name: l.String()}
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Library) UnmarshalText(text []byte) error {
	lib, err := ParseLibrary(string(text))
	if err != nil {
		return err
	}
	*l = lib
	return nil
}
