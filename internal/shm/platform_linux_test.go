//go:build linux

package shm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapNamedRegion(t *testing.T) {
	if _, err := os.Stat("/dev/shm"); err != nil {
		t.Skipf("/dev/shm unavailable: %v", err)
	}
	ctx := context.Background()
	name := fmt.Sprintf("xshmem-test-%d", os.Getpid())

	owner, err := MapRegion(ctx, MapOptions{Name: name, Size: 4096, Create: true})
	require.NoError(t, err)
	peer, err := MapRegion(ctx, MapOptions{Name: name, Size: 4096})
	require.NoError(t, err)

	owner.Addr[10] = 42
	assert.Equal(t, byte(42), peer.Addr[10])

	require.NoError(t, UnmapRegion(ctx, peer))
	_, err = os.Stat(filepath.Join("/dev/shm", name))
	assert.NoError(t, err, "a non-owner must not unlink the region")

	require.NoError(t, UnmapRegion(ctx, owner))
	_, err = os.Stat(filepath.Join("/dev/shm", name))
	assert.True(t, os.IsNotExist(err))
}
