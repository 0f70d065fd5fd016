package gpu_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/cubeview/gpu"
	"github.com/stretchr/testify/assert"
)

func TestMat4BytesRoundTrip(t *testing.T) {
	m := mgl32.Perspective(mgl32.DegToRad(45), 4.0/3.0, 0.1, 100).Mul4(mgl32.Translate3D(1, -2, 3))
	b := gpu.Mat4Bytes(m)

	assert.Len(t, b, gpu.Mat4Size)
	assert.Equal(t, m, gpu.BytesMat4(b))
}

func TestMat4BytesColumnMajor(t *testing.T) {
	b := gpu.Mat4Bytes(mgl32.Translate3D(5, 0, 0))
	// translation x lives in column 3, row 0: float index 12
	assert.Equal(t, []byte{0x00, 0x00, 0xa0, 0x40}, b[48:52])
}

type countingHandle struct{ n *int }

func (c *countingHandle) Release() { *c.n++ }

func TestReleaseSkipsNil(t *testing.T) {
	n := 0
	var typedNil *countingHandle
	gpu.Release(nil, typedNil, &countingHandle{n: &n}, &countingHandle{n: &n})
	assert.Equal(t, 2, n)
}

func TestParsePresentMode(t *testing.T) {
	mode, ok := gpu.ParsePresentMode("mailbox")
	assert.True(t, ok)
	assert.Equal(t, gpu.PresentModeMailbox, mode)

	_, ok = gpu.ParsePresentMode("tearing")
	assert.False(t, ok)
}
