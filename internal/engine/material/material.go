// Package material holds the read-only material/layer model of MDX meshes and the
// mapping from layer blend modes to render passes and GPU blend state.
package material

import (
	"fmt"

	"github.com/Faultbox/midgard-mdx/internal/engine/gpu"
)

// BlendMode is the MDX layer filter mode.
type BlendMode uint32

const (
	BlendNone        BlendMode = 0 // Opaque
	BlendTransparent BlendMode = 1 // 1-bit alpha tested, still drawn in the opaque pass
	BlendBlend       BlendMode = 2
	BlendAdditive    BlendMode = 3
	BlendAddAlpha    BlendMode = 4
	BlendModulate    BlendMode = 5
	BlendModulate2x  BlendMode = 6
)

// Alpha test thresholds used by the opaque pass.
const (
	AlphaTestDisabled float32 = -1
	AlphaTestKey      float32 = 0.75
)

var blendFuncs = map[BlendMode]gpu.BlendFunc{
	BlendBlend:      {Src: gpu.FactorSrcAlpha, Dst: gpu.FactorOneMinusSrcAlpha},
	BlendAdditive:   {Src: gpu.FactorOne, Dst: gpu.FactorOne},
	BlendAddAlpha:   {Src: gpu.FactorSrcAlpha, Dst: gpu.FactorOne},
	BlendModulate:   {Src: gpu.FactorZero, Dst: gpu.FactorSrcColor},
	BlendModulate2x: {Src: gpu.FactorDstColor, Dst: gpu.FactorSrcColor},
}

// Opaque reports whether the mode belongs to the opaque (instanced) pass.
func (m BlendMode) Opaque() bool {
	return m == BlendNone || m == BlendTransparent
}

// AlphaTest returns the discard threshold for an opaque-pass mode.
func (m BlendMode) AlphaTest() float32 {
	if m == BlendTransparent {
		return AlphaTestKey
	}
	return AlphaTestDisabled
}

// BlendFunc returns the fixed blend factor pair of a transparent-pass mode.
// ok is false for opaque and unrecognized modes.
func (m BlendMode) BlendFunc() (f gpu.BlendFunc, ok bool) {
	f, ok = blendFuncs[m]
	return f, ok
}

// String returns a human-readable mode name.
func (m BlendMode) String() string {
	switch m {
	case BlendNone:
		return "None"
	case BlendTransparent:
		return "Transparent"
	case BlendBlend:
		return "Blend"
	case BlendAdditive:
		return "Additive"
	case BlendAddAlpha:
		return "AddAlpha"
	case BlendModulate:
		return "Modulate"
	case BlendModulate2x:
		return "Modulate2x"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(m))
	}
}

// ShadingFlags are the MDX layer shading bits.
type ShadingFlags uint32

const (
	Unshaded     ShadingFlags = 0x1
	SphereEnvMap ShadingFlags = 0x2
	TwoSided     ShadingFlags = 0x10
	Unfogged     ShadingFlags = 0x20
	NoDepthTest  ShadingFlags = 0x40
	NoDepthSet   ShadingFlags = 0x80
)

// Has reports whether all bits of f are set.
func (s ShadingFlags) Has(f ShadingFlags) bool {
	return s&f == f
}

// RasterState converts the shading bits to GPU pipeline switches.
func (s ShadingFlags) RasterState() gpu.RasterState {
	return gpu.RasterState{
		TwoSided:   s.Has(TwoSided),
		DepthTest:  !s.Has(NoDepthTest),
		DepthWrite: !s.Has(NoDepthSet),
		Unshaded:   s.Has(Unshaded),
		Unfogged:   s.Has(Unfogged),
	}
}

// Layer is one texture layer of a material.
type Layer struct {
	BlendMode BlendMode
	TextureID int
	Shading   ShadingFlags
	Alpha     float32
}

// Material is an ordered list of layers; rendering order is slice order.
type Material struct {
	Layers []Layer
}

// DrawLayer returns the layer that is drawn for this material.
//
// Only the first layer of a material is rendered. Later layers are kept in the
// model but never drawn, in either pass.
func (m *Material) DrawLayer() (Layer, bool) {
	if len(m.Layers) == 0 {
		return Layer{}, false
	}
	return m.Layers[0], true
}

// Transparent reports whether the material's drawn layer belongs to the
// transparent pass. Materials without layers are treated as opaque.
func (m *Material) Transparent() bool {
	l, ok := m.DrawLayer()
	return ok && !l.BlendMode.Opaque()
}
