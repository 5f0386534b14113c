package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/xshmem/adapter"
	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/pkg/shmemtest"
	"github.com/srediag/xshmem/pkg/xshmem"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHelloSimulated(t *testing.T) {
	out := &syncBuffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--simulate", "3", "--library", "NVSHMEM", "--log-level", "error"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.ElementsMatch(t, []string{
		"Hello from PE 0 out of 3",
		"Hello from PE 1 out of 3",
		"Hello from PE 2 out of 3",
	}, lines)
}

func TestHelloRejectsUnknownLibrary(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&syncBuffer{})
	cmd.SetErr(&syncBuffer{})
	cmd.SetArgs([]string{"--simulate", "2", "--library", "MPI"})

	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, api.ErrUnsupportedLibrary)
}

func TestHelloFinalizesOnce(t *testing.T) {
	ctx := context.Background()
	w, err := shmemtest.NewWorld(ctx, 1)
	require.NoError(t, err)
	defer w.Close()

	reg := adapter.NewRegistry()
	reg.Register(api.SHMEM, w.Constructor(0))
	out := &syncBuffer{}
	cmd := newRootCmd(xshmem.WithRegistry(reg))
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--library", "SHMEM", "--log-level", "error"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Equal(t, "Hello from PE 0 out of 1\n", out.String())
	assert.ErrorIs(t, w.PE(0).Finalize(), shmemtest.ErrFinalized)
}
