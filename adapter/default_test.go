//go:build !shmem && !nvshmem && !ishmem && !rocshmem

package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRegistryEmptyWithoutTags(t *testing.T) {
	assert.Empty(t, Default.Enabled())
}
