// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-mdx/internal/engine/gpu"
)

// Op names a recorded device call.
type Op string

const (
	OpCreateVertexArray    Op = "CreateVertexArray"
	OpDeleteVertexArray    Op = "DeleteVertexArray"
	OpCreateBuffer         Op = "CreateBuffer"
	OpWriteBuffer          Op = "WriteBuffer"
	OpReplaceBuffer        Op = "ReplaceBuffer"
	OpDeleteBuffer         Op = "DeleteBuffer"
	OpBindGeometry         Op = "BindGeometry"
	OpCreateTexture        Op = "CreateTexture"
	OpSetTextureWrap       Op = "SetTextureWrap"
	OpBindTexture          Op = "BindTexture"
	OpDeleteTexture        Op = "DeleteTexture"
	OpSetProjectionView    Op = "SetProjectionView"
	OpSetMVP               Op = "SetModelViewProjection"
	OpSetAlphaTest         Op = "SetAlphaTest"
	OpSetRasterState       Op = "SetRasterState"
	OpSetBlendFunc         Op = "SetBlendFunc"
	OpDisableBlend         Op = "DisableBlend"
	OpDrawIndexed          Op = "DrawIndexed"
	OpDrawIndexedInstanced Op = "DrawIndexedInstanced"
)

// Call is one recorded device call. Only the fields relevant to Op are set.
type Call struct {
	Op        Op
	Buffer    gpu.Buffer
	Target    gpu.BufferTarget
	Size      int
	Offset    int
	Data      []byte
	Texture   gpu.Texture
	Geometry  gpu.Geometry
	Instanced bool
	Matrix    mgl32.Mat4
	Alpha     float32
	Raster    gpu.RasterState
	Blend     gpu.BlendFunc
	Range     gpu.DrawRange
	Instances int
	RepeatS   bool
	RepeatT   bool
}

// Recorder implements gpu.Device by appending every call to Calls.
// Handles are allocated from a counter starting at 1.
type Recorder struct {
	Calls []Call

	next    uint32
	buffers map[gpu.Buffer]int
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{buffers: make(map[gpu.Buffer]int)}
}

func (r *Recorder) handle() uint32 {
	r.next++
	return r.next
}

func (r *Recorder) record(c Call) {
	r.Calls = append(r.Calls, c)
}

// Reset forgets recorded calls but keeps handle allocation state.
func (r *Recorder) Reset() {
	r.Calls = nil
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op Op) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Filter returns the recorded calls of op in order.
func (r *Recorder) Filter(op Op) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// BufferSize returns the current storage size of b in bytes.
func (r *Recorder) BufferSize(b gpu.Buffer) int {
	return r.buffers[b]
}

func (r *Recorder) CreateVertexArray() gpu.VertexArray {
	va := gpu.VertexArray(r.handle())
	r.record(Call{Op: OpCreateVertexArray})
	return va
}

func (r *Recorder) DeleteVertexArray(va gpu.VertexArray) {
	r.record(Call{Op: OpDeleteVertexArray})
}

func (r *Recorder) CreateBuffer(target gpu.BufferTarget, size int) gpu.Buffer {
	b := gpu.Buffer(r.handle())
	r.buffers[b] = size
	r.record(Call{Op: OpCreateBuffer, Buffer: b, Target: target, Size: size})
	return b
}

func (r *Recorder) WriteBuffer(b gpu.Buffer, target gpu.BufferTarget, offset int, data []byte) {
	r.record(Call{Op: OpWriteBuffer, Buffer: b, Target: target, Offset: offset, Size: len(data), Data: append([]byte(nil), data...)})
}

func (r *Recorder) ReplaceBuffer(b gpu.Buffer, target gpu.BufferTarget, data []byte) {
	r.buffers[b] = len(data)
	r.record(Call{Op: OpReplaceBuffer, Buffer: b, Target: target, Size: len(data), Data: append([]byte(nil), data...)})
}

func (r *Recorder) DeleteBuffer(b gpu.Buffer) {
	delete(r.buffers, b)
	r.record(Call{Op: OpDeleteBuffer, Buffer: b})
}

func (r *Recorder) BindGeometry(g gpu.Geometry, instanced bool) {
	r.record(Call{Op: OpBindGeometry, Geometry: g, Instanced: instanced})
}

func (r *Recorder) CreateTexture(img *image.RGBA) gpu.Texture {
	t := gpu.Texture(r.handle())
	r.record(Call{Op: OpCreateTexture, Texture: t})
	return t
}

func (r *Recorder) SetTextureWrap(t gpu.Texture, repeatS, repeatT bool) {
	r.record(Call{Op: OpSetTextureWrap, Texture: t, RepeatS: repeatS, RepeatT: repeatT})
}

func (r *Recorder) BindTexture(t gpu.Texture) {
	r.record(Call{Op: OpBindTexture, Texture: t})
}

func (r *Recorder) DeleteTexture(t gpu.Texture) {
	r.record(Call{Op: OpDeleteTexture, Texture: t})
}

func (r *Recorder) SetProjectionView(m mgl32.Mat4) {
	r.record(Call{Op: OpSetProjectionView, Matrix: m})
}

func (r *Recorder) SetModelViewProjection(m mgl32.Mat4) {
	r.record(Call{Op: OpSetMVP, Matrix: m})
}

func (r *Recorder) SetAlphaTest(threshold float32) {
	r.record(Call{Op: OpSetAlphaTest, Alpha: threshold})
}

func (r *Recorder) SetRasterState(s gpu.RasterState) {
	r.record(Call{Op: OpSetRasterState, Raster: s})
}

func (r *Recorder) SetBlendFunc(f gpu.BlendFunc) {
	r.record(Call{Op: OpSetBlendFunc, Blend: f})
}

func (r *Recorder) DisableBlend() {
	r.record(Call{Op: OpDisableBlend})
}

func (r *Recorder) DrawIndexed(dr gpu.DrawRange) {
	r.record(Call{Op: OpDrawIndexed, Range: dr})
}

func (r *Recorder) DrawIndexedInstanced(dr gpu.DrawRange, instances int) {
	r.record(Call{Op: OpDrawIndexedInstanced, Range: dr, Instances: instances})
}

var _ gpu.Device = (*Recorder)(nil)
