package viewer

import (
	"embed"
	"io/fs"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-mdx/internal/engine/material"
	"github.com/Faultbox/midgard-mdx/internal/engine/model"
)

//go:embed demo
var demoFiles embed.FS

// demoFS holds the demo textures, rooted like a data directory.
func demoFS() fs.FS {
	sub, err := fs.Sub(demoFiles, "demo")
	if err != nil {
		panic(err)
	}
	return sub
}

// Demo model names. They are built in memory and never read from disk.
const (
	DemoTorch = "Demo/Torch.mdx"
	DemoFlame = "Demo/Flame.mdx"
	DemoGem   = "Demo/Gem.mdx"
)

// Node names of the torch the flame and gem attach to.
const (
	FlameNode = "Flame"
	GemNode   = "Gem"
)

const (
	torchHeight  = 120
	torchRadius  = 6
	gemOrbit     = 30
	sequenceTime = 2000
)

var (
	flamePivot = mgl32.Vec3{0, 0, torchHeight + 4}
	orbitPivot = mgl32.Vec3{0, 0, torchHeight * 0.6}
	gemPivot   = mgl32.Vec3{gemOrbit, 0, torchHeight * 0.6}
)

// builder accumulates one geoset.
type builder struct {
	g model.Geoset
}

// quad appends a,b,c,d counter-clockwise as seen from the front. a and b
// are the bottom edge.
func (b *builder) quad(a, bb, c, d mgl32.Vec3) {
	base := uint16(len(b.g.Vertices))
	b.g.Vertices = append(b.g.Vertices, a, bb, c, d)
	b.g.UVs = append(b.g.UVs, mgl32.Vec2{0, 1}, mgl32.Vec2{1, 1}, mgl32.Vec2{1, 0}, mgl32.Vec2{0, 0})
	b.g.Faces = append(b.g.Faces, base, base+1, base+2, base, base+2, base+3)
}

func (b *builder) box(lo, hi mgl32.Vec3) {
	x0, y0, z0 := lo[0], lo[1], lo[2]
	x1, y1, z1 := hi[0], hi[1], hi[2]
	v := func(x, y, z float32) mgl32.Vec3 { return mgl32.Vec3{x, y, z} }
	b.quad(v(x1, y0, z0), v(x1, y1, z0), v(x1, y1, z1), v(x1, y0, z1)) // +X
	b.quad(v(x0, y1, z0), v(x0, y0, z0), v(x0, y0, z1), v(x0, y1, z1)) // -X
	b.quad(v(x1, y1, z0), v(x0, y1, z0), v(x0, y1, z1), v(x1, y1, z1)) // +Y
	b.quad(v(x0, y0, z0), v(x1, y0, z0), v(x1, y0, z1), v(x0, y0, z1)) // -Y
	b.quad(v(x0, y0, z1), v(x1, y0, z1), v(x1, y1, z1), v(x0, y1, z1)) // +Z
	b.quad(v(x0, y1, z0), v(x1, y1, z0), v(x1, y0, z0), v(x0, y0, z0)) // -Z
}

// octahedron appends a diamond of radius r around c.
func (b *builder) octahedron(c mgl32.Vec3, r float32) {
	base := uint16(len(b.g.Vertices))
	pts := []mgl32.Vec3{{r, 0, 0}, {0, r, 0}, {-r, 0, 0}, {0, -r, 0}, {0, 0, r * 1.5}, {0, 0, -r * 1.5}}
	for _, p := range pts {
		b.g.Vertices = append(b.g.Vertices, c.Add(p))
		b.g.UVs = append(b.g.UVs, mgl32.Vec2{p[0]/r*0.5 + 0.5, p[1]/r*0.5 + 0.5})
	}
	top, bottom := base+4, base+5
	for i := uint16(0); i < 4; i++ {
		p, n := base+i, base+(i+1)%4
		b.g.Faces = append(b.g.Faces, p, n, top, n, p, bottom)
	}
}

func (b *builder) geoset(lod uint32, materialID int) model.Geoset {
	g := b.g
	g.LOD = lod
	g.MaterialID = materialID
	g.FaceNormals()
	g.Extent = model.ComputeExtent(g.Vertices)
	return g
}

func quatZ(deg float32) mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(deg), mgl32.Vec3{0, 0, 1})
}

func spinTrack(period uint32) model.QuatTrack {
	var track model.QuatTrack
	for i := uint32(0); i <= 4; i++ {
		track = append(track, model.QuatKey{Frame: i * period / 4, Value: quatZ(float32(i) * 90)})
	}
	return track
}

// TorchModel is a pole with an alpha-tested banner, plus nodes for a
// billboarded flame and a gem orbiting the pole. A second, lower detail pole
// exists at LOD 1 and is never drawn.
func TorchModel() *model.Model {
	var pole builder
	pole.box(mgl32.Vec3{-torchRadius, -torchRadius, 0}, mgl32.Vec3{torchRadius, torchRadius, torchHeight})

	var banner builder
	y := float32(-torchRadius - 0.5)
	banner.quad(
		mgl32.Vec3{torchRadius, y, torchHeight * 0.45},
		mgl32.Vec3{torchRadius + 40, y, torchHeight * 0.45},
		mgl32.Vec3{torchRadius + 40, y, torchHeight * 0.9},
		mgl32.Vec3{torchRadius, y, torchHeight * 0.9},
	)

	var lowPole builder
	lowPole.box(mgl32.Vec3{-torchRadius, -torchRadius, 0}, mgl32.Vec3{torchRadius, torchRadius, torchHeight})

	geosets := []model.Geoset{
		pole.geoset(0, 0),
		banner.geoset(0, 1),
		lowPole.geoset(1, 0),
	}
	extent := geosets[0].Extent.Union(geosets[1].Extent)
	extent.Max[2] = flamePivot[2] + 30

	return &model.Model{
		Name:    "Torch",
		Geosets: geosets,
		Materials: []material.Material{
			{Layers: []material.Layer{{BlendMode: material.BlendNone, TextureID: 0, Alpha: 1}}},
			{Layers: []material.Layer{{BlendMode: material.BlendTransparent, TextureID: 1, Shading: material.TwoSided, Alpha: 1}}},
		},
		Textures: []model.Texture{
			{FileName: "Textures\\Demo\\Pole.blp", Flags: model.TextureWrapWidth | model.TextureWrapHeight},
			{FileName: "Textures\\Demo\\Banner.blp"},
		},
		Nodes: []model.Node{
			{Name: "Root", Parent: model.NoParent},
			{
				Name:   FlameNode,
				Parent: 0,
				Pivot:  flamePivot,
				Flags:  model.Billboarded,
				Scaling: model.Vec3Track{
					{Frame: 0, Value: mgl32.Vec3{1, 1, 1}},
					{Frame: sequenceTime / 4, Value: mgl32.Vec3{1.1, 1.1, 1.3}},
					{Frame: sequenceTime / 2, Value: mgl32.Vec3{0.95, 0.95, 0.9}},
					{Frame: sequenceTime * 3 / 4, Value: mgl32.Vec3{1.1, 1.1, 1.2}},
					{Frame: sequenceTime, Value: mgl32.Vec3{1, 1, 1}},
				},
			},
			{Name: "Orbit", Parent: 0, Pivot: orbitPivot, Rotation: spinTrack(sequenceTime)},
			{
				Name:   GemNode,
				Parent: 2,
				Pivot:  gemPivot,
				// The gem keeps its size when the orbit is scaled.
				Flags:    model.DontInheritScaling,
				Rotation: spinTrack(sequenceTime / 2),
				Translation: model.Vec3Track{
					{Frame: 0, Value: mgl32.Vec3{0, 0, 0}},
					{Frame: sequenceTime / 2, Value: mgl32.Vec3{0, 0, 10}},
					{Frame: sequenceTime, Value: mgl32.Vec3{0, 0, 0}},
				},
			},
		},
		Sequences: []model.Sequence{{Name: "Stand", Start: 0, End: sequenceTime, Extent: extent}},
	}
}

// FlameModel is an additive quad facing +X around the torch's flame pivot,
// so a full billboard turns it towards the camera.
func FlameModel() *model.Model {
	const half = 12
	var b builder
	z := flamePivot[2]
	b.quad(
		mgl32.Vec3{0, -half, z - half*0.5},
		mgl32.Vec3{0, half, z - half*0.5},
		mgl32.Vec3{0, half, z + half*2},
		mgl32.Vec3{0, -half, z + half*2},
	)
	return &model.Model{
		Name:    "Flame",
		Geosets: []model.Geoset{b.geoset(0, 0)},
		Materials: []material.Material{{Layers: []material.Layer{{
			BlendMode: material.BlendAdditive,
			Shading:   material.Unshaded | material.TwoSided | material.NoDepthSet,
			Alpha:     1,
		}}}},
		Textures: []model.Texture{{FileName: "Textures\\Demo\\Flame.blp"}},
	}
}

// GemModel is an alpha blended diamond around the torch's gem pivot.
func GemModel() *model.Model {
	var b builder
	b.octahedron(gemPivot, 6)
	return &model.Model{
		Name:    "Gem",
		Geosets: []model.Geoset{b.geoset(0, 0)},
		Materials: []material.Material{{Layers: []material.Layer{{
			BlendMode: material.BlendBlend,
			Alpha:     0.6,
		}}}},
		Textures: []model.Texture{{FileName: "Textures\\Demo\\Gem.blp"}},
	}
}

// gridPlacements returns n×n base matrices spaced apart on the XY plane,
// centered on the origin, each turned a little so instances differ.
func gridPlacements(n int, spacing float32) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, 0, n*n)
	offset := float32(n-1) * spacing / 2
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := float32(i)*spacing - offset
			y := float32(j)*spacing - offset
			turn := math32.Mod(float32(i*n+j)*37, 360)
			m := mgl32.Translate3D(x, y, 0).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(turn)))
			out = append(out, m)
		}
	}
	return out
}
