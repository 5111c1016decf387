package apps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingHandle struct{ canceled int }

func (h *countingHandle) Cancel() { h.canceled++ }

func TestCancelRegistry(t *testing.T) {
	reg := NewCancelRegistry()
	h := &countingHandle{}

	assert.False(t, reg.Cancel("https://example.test/a"), "canceling an unregistered url reports false")

	reg.Set("https://example.test/a", h)
	assert.Equal(t, 1, reg.Len())

	assert.True(t, reg.Cancel("https://example.test/a"))
	assert.Equal(t, 1, h.canceled)

	reg.Remove("https://example.test/a")
	assert.Equal(t, 0, reg.Len())
}

func TestCancelRegistryLastWriterWins(t *testing.T) {
	reg := NewCancelRegistry()
	first := &countingHandle{}
	second := &countingHandle{}

	reg.Set("https://example.test/a", first)
	reg.Set("https://example.test/a", second)

	assert.True(t, reg.Cancel("https://example.test/a"))
	assert.Equal(t, 0, first.canceled, "the overwritten handle is never reachable again")
	assert.Equal(t, 1, second.canceled)
}
