// Package glgpu implements gpu.Device on OpenGL 4.1 core.
//
// A Device owns the single MDX shader program. It must be created after the GL
// context is current and used only from the thread that owns that context.
package glgpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdx/internal/engine/gpu"
	"github.com/Faultbox/midgard-mdx/internal/logger"
)

// Vertex attribute locations shared with shaders/mdx.vert.
const (
	attribPosition = 0
	attribTexCoord = 1
	attribNormal   = 2
	attribInstance = 3 // four consecutive vec4 columns
)

// Device issues gpu.Device operations as OpenGL calls.
type Device struct {
	program uint32

	locProjectionView int32
	locMVP            int32
	locInstanced      int32
	locAlphaTest      int32
	locUnshaded       int32
	locTexture        int32

	log *zap.Logger
}

// New initializes OpenGL and compiles the MDX program.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{log: logger.Named("gl")}
	d.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	program, err := compileProgram(vertexSource, fragmentSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create mdx program: %w", err)
	}
	d.program = program
	d.locProjectionView = uniform(program, "uProjectionView")
	d.locMVP = uniform(program, "uMVP")
	d.locInstanced = uniform(program, "uInstanced")
	d.locAlphaTest = uniform(program, "uAlphaTest")
	d.locUnshaded = uniform(program, "uUnshaded")
	d.locTexture = uniform(program, "uTexture")

	gl.UseProgram(program)
	gl.Uniform1i(d.locTexture, 0)
	gl.Uniform1f(d.locAlphaTest, -1)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	return d, nil
}

// Close deletes the shader program.
func (d *Device) Close() {
	if d.program != 0 {
		gl.DeleteProgram(d.program)
		d.program = 0
	}
}

// Viewport sets the drawable area.
func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Clear clears color and depth and restores the state a frame starts from.
func (d *Device) Clear() {
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(d.program)
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (d *Device) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(&data[0])
}

func (d *Device) CreateVertexArray() gpu.VertexArray {
	var va uint32
	gl.GenVertexArrays(1, &va)
	return gpu.VertexArray(va)
}

func (d *Device) DeleteVertexArray(va gpu.VertexArray) {
	id := uint32(va)
	gl.DeleteVertexArrays(1, &id)
}

// CreateBuffer stages every buffer through ARRAY_BUFFER. Binding
// ELEMENT_ARRAY_BUFFER would rewrite the index binding of the current VAO.
func (d *Device) CreateBuffer(_ gpu.BufferTarget, size int) gpu.Buffer {
	var b uint32
	gl.GenBuffers(1, &b)
	if size > 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, b)
		gl.BufferData(gl.ARRAY_BUFFER, size, nil, gl.STATIC_DRAW)
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	}
	return gpu.Buffer(b)
}

func (d *Device) WriteBuffer(b gpu.Buffer, _ gpu.BufferTarget, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.BufferSubData(gl.ARRAY_BUFFER, offset, len(data), ptr(data))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (d *Device) ReplaceBuffer(b gpu.Buffer, _ gpu.BufferTarget, data []byte) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.BufferData(gl.ARRAY_BUFFER, len(data), ptr(data), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (d *Device) DeleteBuffer(b gpu.Buffer) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

func vertexAttrib(loc uint32, b gpu.Buffer, size int32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.EnableVertexAttribArray(loc)
	gl.VertexAttribPointer(loc, size, gl.FLOAT, false, 0, nil)
	gl.VertexAttribDivisor(loc, 0)
}

// BindGeometry binds the mesh VAO and points it at the mesh buffers. The
// instance matrix occupies four vec4 attributes advancing once per instance.
func (d *Device) BindGeometry(g gpu.Geometry, instanced bool) {
	gl.BindVertexArray(uint32(g.VertexArray))
	vertexAttrib(attribPosition, g.Positions, 3)
	vertexAttrib(attribTexCoord, g.UVs, 2)
	vertexAttrib(attribNormal, g.Normals, 3)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(g.Indices))

	if instanced {
		const stride = int32(16 * 4)
		gl.BindBuffer(gl.ARRAY_BUFFER, uint32(g.Instances))
		for i := uint32(0); i < 4; i++ {
			loc := attribInstance + i
			gl.EnableVertexAttribArray(loc)
			gl.VertexAttribPointer(loc, 4, gl.FLOAT, false, stride, gl.PtrOffset(int(i)*16))
			gl.VertexAttribDivisor(loc, 1)
		}
	} else {
		for i := uint32(0); i < 4; i++ {
			gl.DisableVertexAttribArray(attribInstance + i)
		}
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	gl.UseProgram(d.program)
	gl.Uniform1i(d.locInstanced, boolToInt(instanced))
}

func (d *Device) CreateTexture(img *image.RGBA) gpu.Texture {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	w, h := img.Rect.Dx(), img.Rect.Dy()
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.GenerateMipmap(gl.TEXTURE_2D)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return gpu.Texture(tex)
}

func wrapMode(repeat bool) int32 {
	if repeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func (d *Device) SetTextureWrap(t gpu.Texture, repeatS, repeatT bool) {
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode(repeatS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode(repeatT))
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (d *Device) BindTexture(t gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *Device) DeleteTexture(t gpu.Texture) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (d *Device) SetProjectionView(m mgl32.Mat4) {
	gl.UseProgram(d.program)
	gl.UniformMatrix4fv(d.locProjectionView, 1, false, &m[0])
}

func (d *Device) SetModelViewProjection(m mgl32.Mat4) {
	gl.UniformMatrix4fv(d.locMVP, 1, false, &m[0])
}

func (d *Device) SetAlphaTest(threshold float32) {
	gl.Uniform1f(d.locAlphaTest, threshold)
}

func (d *Device) SetRasterState(s gpu.RasterState) {
	if s.TwoSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
	}
	if s.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(s.DepthWrite)
	gl.Uniform1i(d.locUnshaded, boolToInt(s.Unshaded))
}

var factors = map[gpu.BlendFactor]uint32{
	gpu.FactorZero:             gl.ZERO,
	gpu.FactorOne:              gl.ONE,
	gpu.FactorSrcColor:         gl.SRC_COLOR,
	gpu.FactorSrcAlpha:         gl.SRC_ALPHA,
	gpu.FactorOneMinusSrcAlpha: gl.ONE_MINUS_SRC_ALPHA,
	gpu.FactorDstColor:         gl.DST_COLOR,
}

func (d *Device) SetBlendFunc(f gpu.BlendFunc) {
	src, ok := factors[f.Src]
	dst, ok2 := factors[f.Dst]
	if !ok || !ok2 {
		d.log.Warn("unknown blend factor", zap.Int("src", int(f.Src)), zap.Int("dst", int(f.Dst)))
		return
	}
	gl.Enable(gl.BLEND)
	gl.BlendFunc(src, dst)
}

func (d *Device) DisableBlend() {
	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
}

func indexOffset(r gpu.DrawRange) unsafe.Pointer {
	return gl.PtrOffset(gpu.SizeOf[uint16](r.BaseIndex))
}

func (d *Device) DrawIndexed(r gpu.DrawRange) {
	if r.Count == 0 {
		return
	}
	gl.DrawElementsBaseVertex(gl.TRIANGLES, int32(r.Count), gl.UNSIGNED_SHORT, indexOffset(r), int32(r.BaseVertex))
}

func (d *Device) DrawIndexedInstanced(r gpu.DrawRange, instances int) {
	if r.Count == 0 || instances == 0 {
		return
	}
	gl.DrawElementsInstancedBaseVertex(gl.TRIANGLES, int32(r.Count), gl.UNSIGNED_SHORT, indexOffset(r),
		int32(instances), int32(r.BaseVertex))
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

var _ gpu.Device = (*Device)(nil)
