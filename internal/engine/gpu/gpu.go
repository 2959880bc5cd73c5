// Package gpu defines the boundary between the rendering core and the graphics API.
//
// Everything the mesh store and render queue do to the GPU goes through Device:
// buffer allocation and updates, vertex attribute binding, indexed draws (instanced
// and not) and blend state. The OpenGL implementation lives in glgpu; tests use the
// recording device in gputest.
package gpu

import (
	"image"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Buffer is a GPU buffer handle. Zero is never a valid buffer.
type Buffer uint32

// Texture is a GPU texture handle. Zero is never a valid texture.
type Texture uint32

// VertexArray is a vertex attribute layout handle.
type VertexArray uint32

// BufferTarget selects what a buffer is bound as.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementBuffer
)

// String returns the target name.
func (t BufferTarget) String() string {
	switch t {
	case ArrayBuffer:
		return "array"
	case ElementBuffer:
		return "element"
	default:
		return "unknown"
	}
}

// BlendFactor is a fixed-function blend factor.
type BlendFactor int

const (
	FactorZero BlendFactor = iota
	FactorOne
	FactorSrcColor
	FactorSrcAlpha
	FactorOneMinusSrcAlpha
	FactorDstColor
)

// BlendFunc is a source/destination blend factor pair.
type BlendFunc struct {
	Src BlendFactor
	Dst BlendFactor
}

// RasterState carries per-layer pipeline switches.
type RasterState struct {
	TwoSided   bool
	DepthTest  bool
	DepthWrite bool
	Unshaded   bool
	Unfogged   bool
}

// DefaultRasterState is single-sided, depth tested and depth written.
var DefaultRasterState = RasterState{DepthTest: true, DepthWrite: true}

// Geometry groups the buffers of one mesh so they can be bound together.
type Geometry struct {
	VertexArray VertexArray
	Positions   Buffer
	UVs         Buffer
	Normals     Buffer
	Indices     Buffer
	Instances   Buffer
}

// DrawRange is an indexed triangle-list range. BaseIndex counts indices, not bytes.
type DrawRange struct {
	Count      int
	BaseIndex  int
	BaseVertex int
}

// Device is the set of GPU operations the rendering core issues.
type Device interface {
	CreateVertexArray() VertexArray
	DeleteVertexArray(va VertexArray)

	// CreateBuffer allocates size bytes of storage. A size of zero creates the
	// handle without storage.
	CreateBuffer(target BufferTarget, size int) Buffer
	// WriteBuffer copies data into an already allocated buffer at offset bytes.
	WriteBuffer(b Buffer, target BufferTarget, offset int, data []byte)
	// ReplaceBuffer respecifies the whole buffer storage with data.
	ReplaceBuffer(b Buffer, target BufferTarget, data []byte)
	DeleteBuffer(b Buffer)

	// BindGeometry binds position/uv/normal/index buffers. When instanced is set,
	// the instance buffer is bound as four per-instance vec4 attributes.
	BindGeometry(g Geometry, instanced bool)

	CreateTexture(img *image.RGBA) Texture
	SetTextureWrap(t Texture, repeatS, repeatT bool)
	BindTexture(t Texture)
	DeleteTexture(t Texture)

	SetProjectionView(m mgl32.Mat4)
	SetModelViewProjection(m mgl32.Mat4)
	// SetAlphaTest sets the alpha discard threshold; negative disables the test.
	SetAlphaTest(threshold float32)
	SetRasterState(s RasterState)
	SetBlendFunc(f BlendFunc)
	DisableBlend()

	DrawIndexed(r DrawRange)
	DrawIndexedInstanced(r DrawRange, instances int)
}

// Bytes reinterprets a slice of plain values as its backing bytes without copying.
func Bytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

// SizeOf returns the byte size of n values of T.
func SizeOf[T any](n int) int {
	var zero T
	return n * int(unsafe.Sizeof(zero))
}
