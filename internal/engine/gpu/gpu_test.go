package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesVec3(t *testing.T) {
	v := []mgl32.Vec3{{1, 2, 3}, {4, 5, 6}}
	b := Bytes(v)
	require.Len(t, b, 24)

	// Second vector, first component, little endian float32.
	got := math.Float32frombits(binary.LittleEndian.Uint32(b[12:16]))
	assert.Equal(t, float32(4), got)
}

func TestBytesEmpty(t *testing.T) {
	assert.Nil(t, Bytes([]uint16(nil)))
	assert.Nil(t, Bytes([]mgl32.Mat4{}))
}

func TestSizeOf(t *testing.T) {
	assert.Equal(t, 64*3, SizeOf[mgl32.Mat4](3))
	assert.Equal(t, 2*10, SizeOf[uint16](10))
	assert.Equal(t, 8, SizeOf[mgl32.Vec2](1))
}

func TestBufferTargetString(t *testing.T) {
	assert.Equal(t, "array", ArrayBuffer.String())
	assert.Equal(t, "element", ElementBuffer.String())
	assert.Equal(t, "unknown", BufferTarget(9).String())
}
