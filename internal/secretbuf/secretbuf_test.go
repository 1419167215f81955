package secretbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_RoundTrip(t *testing.T) {
	t.Parallel()
	b := NewString("s3cr3t")
	require.False(t, b.Empty())
	assert.Equal(t, "s3cr3t", b.String())
	assert.Equal(t, []byte("s3cr3t"), b.Bytes())
}

func TestBuffer_Clear(t *testing.T) {
	t.Parallel()
	b := NewString("s3cr3t")
	b.Clear()
	assert.True(t, b.Empty())
	assert.Equal(t, "", b.String())
}

func TestBuffer_Clone(t *testing.T) {
	t.Parallel()
	b := NewString("s3cr3t")
	c := b.Clone()
	b.Clear()
	assert.True(t, b.Empty())
	assert.Equal(t, "s3cr3t", c.String(), "clone must be independent of the original")
}

func TestBuffer_NilSafe(t *testing.T) {
	t.Parallel()
	var b *Buffer
	assert.True(t, b.Empty())
	assert.Equal(t, "", b.String())
	assert.Nil(t, b.Bytes())
	assert.Nil(t, b.Clone())
	b.Clear() // must not panic
}

func TestBuffer_SetWipesPrevious(t *testing.T) {
	t.Parallel()
	b := NewString("first")
	prev := b.data
	b.Set([]byte("second"))
	assert.Equal(t, "second", b.String())
	assert.Equal(t, make([]byte, len("first")), prev, "previous bytes must be zeroed")
}
