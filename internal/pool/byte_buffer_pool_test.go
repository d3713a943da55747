package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(64)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 64, bb.Cap())
}

func TestByteBuffer_GrowAndExtend(t *testing.T) {
	bb := NewByteBuffer(4)
	bb.Grow(100)
	assert.GreaterOrEqual(t, bb.Cap(), 100)

	ok := bb.Extend(10)
	assert.True(t, ok)
	assert.Equal(t, 10, bb.Len())
}

func TestByteBuffer_ExtendOrGrow(t *testing.T) {
	bb := NewByteBuffer(0)
	bb.ExtendOrGrow(32)
	assert.Equal(t, 32, bb.Len())
}

func TestByteBuffer_WriteAndWriteTo(t *testing.T) {
	bb := NewByteBuffer(0)
	n, err := bb.Write([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	var out bytes.Buffer
	written, err := bb.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(7), written)
	assert.Equal(t, "payload", out.String())
}

func TestByteBufferPool_GetPut(t *testing.T) {
	p := NewByteBufferPool(16, 64)

	bb := p.Get()
	require.NotNil(t, bb)
	bb.Write([]byte("data"))
	p.Put(bb)

	bb2 := p.Get()
	require.NotNil(t, bb2)
	assert.Equal(t, 0, bb2.Len(), "pooled buffer must be reset before reuse")
}

func TestByteBufferPool_DiscardsOversizedBuffers(t *testing.T) {
	p := NewByteBufferPool(4, 8)

	bb := p.Get()
	bb.Grow(100)
	p.Put(bb) // larger than maxThreshold, should be discarded rather than pooled

	bb2 := p.Get()
	require.NotNil(t, bb2)
}

func TestGetPutPacketBuffer(t *testing.T) {
	bb := GetPacketBuffer()
	require.NotNil(t, bb)
	bb.Write([]byte("x"))
	PutPacketBuffer(bb)
}
