package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdx/internal/assets"
	"github.com/Faultbox/midgard-mdx/internal/engine/gpu"
	"github.com/Faultbox/midgard-mdx/internal/engine/model"
	"github.com/Faultbox/midgard-mdx/internal/engine/texture"
	"github.com/Faultbox/midgard-mdx/internal/logger"
)

// Files provides model file bytes. *assets.Manager implements it.
type Files interface {
	Load(path string) ([]byte, error)
}

// Loader turns model files into meshes and keeps one mesh per path.
type Loader struct {
	dev      gpu.Device
	files    Files
	parsers  *model.Registry
	textures *texture.Cache
	policy   TexturePolicy
	meshes   map[string]*Mesh
	log      *zap.Logger
}

// NewLoader creates a loader. Textures are shared through textures.
func NewLoader(dev gpu.Device, files Files, parsers *model.Registry, textures *texture.Cache, policy TexturePolicy) *Loader {
	return &Loader{
		dev:      dev,
		files:    files,
		parsers:  parsers,
		textures: textures,
		policy:   policy,
		meshes:   make(map[string]*Mesh),
		log:      logger.Named("mesh"),
	}
}

// Load returns the mesh for path, reading and building it on first use.
// Only .mdx files are accepted.
func (l *Loader) Load(path string) (*Mesh, error) {
	if err := model.CheckExtension(path); err != nil {
		return nil, err
	}
	k := assets.Key(path)
	if m, ok := l.meshes[k]; ok {
		return m, nil
	}

	data, err := l.files.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load mesh: %w", err)
	}
	mdl, err := l.parsers.Parse(path, data)
	if err != nil {
		return nil, err
	}
	m, err := l.Build(path, mdl)
	if err != nil {
		return nil, err
	}
	l.meshes[k] = m
	return m, nil
}

// Build uploads an already parsed model. The mesh is not cached.
func (l *Loader) Build(name string, mdl *model.Model) (*Mesh, error) {
	if err := validateMaterials(mdl); err != nil {
		return nil, fmt.Errorf("mesh %s: %w", name, err)
	}

	var retained []*model.Geoset
	for i := range mdl.Geosets {
		g := &mdl.Geosets[i]
		if g.LOD != RetainedLOD {
			continue
		}
		if err := g.Validate(len(mdl.Materials)); err != nil {
			return nil, fmt.Errorf("mesh %s geoset %d: %w", name, i, err)
		}
		retained = append(retained, g)
	}

	m := &Mesh{
		Name:      name,
		materials: mdl.Materials,
		nodes:     mdl.Nodes,
		sequences: mdl.Sequences,
		log:       l.log,
	}
	if len(retained) > 0 {
		l.upload(m, retained)
	}
	m.extent = modelExtent(mdl, m.entries)
	m.textures = l.bindTextures(name, mdl.Textures)

	l.log.Debug("mesh built",
		zap.String("mesh", name),
		zap.Int("entries", len(m.entries)),
		zap.Int("textures", len(m.textures)),
		zap.Bool("transparent", m.Transparent()))
	return m, nil
}

func validateMaterials(mdl *model.Model) error {
	for mi := range mdl.Materials {
		for li, layer := range mdl.Materials[mi].Layers {
			if layer.TextureID < 0 || layer.TextureID >= len(mdl.Textures) {
				return fmt.Errorf("%w: material %d layer %d texture %d of %d",
					ErrInvalidMaterial, mi, li, layer.TextureID, len(mdl.Textures))
			}
		}
	}
	return nil
}

// upload sizes every buffer exactly for the retained geosets and copies each
// geoset into its range.
func (l *Loader) upload(m *Mesh, geosets []*model.Geoset) {
	vertices, indices := 0, 0
	for _, g := range geosets {
		vertices += len(g.Vertices)
		indices += len(g.Faces)
	}

	dev := l.dev
	m.geometry = gpu.Geometry{
		VertexArray: dev.CreateVertexArray(),
		Positions:   dev.CreateBuffer(gpu.ArrayBuffer, gpu.SizeOf[mgl32.Vec3](vertices)),
		UVs:         dev.CreateBuffer(gpu.ArrayBuffer, gpu.SizeOf[mgl32.Vec2](vertices)),
		Normals:     dev.CreateBuffer(gpu.ArrayBuffer, gpu.SizeOf[mgl32.Vec3](vertices)),
		Indices:     dev.CreateBuffer(gpu.ElementBuffer, gpu.SizeOf[uint16](indices)),
		Instances:   dev.CreateBuffer(gpu.ArrayBuffer, 0),
	}

	baseVertex, baseIndex := 0, 0
	for _, g := range geosets {
		e := Entry{
			Vertices:   len(g.Vertices),
			BaseVertex: baseVertex,
			Indices:    len(g.Faces),
			BaseIndex:  baseIndex,
			MaterialID: g.MaterialID,
			Extent:     g.Extent,
			Visible:    true,
		}
		m.entries = append(m.entries, e)

		geo := m.geometry
		dev.WriteBuffer(geo.Positions, gpu.ArrayBuffer, gpu.SizeOf[mgl32.Vec3](baseVertex), gpu.Bytes(g.Vertices))
		dev.WriteBuffer(geo.UVs, gpu.ArrayBuffer, gpu.SizeOf[mgl32.Vec2](baseVertex), gpu.Bytes(g.UVs))
		dev.WriteBuffer(geo.Normals, gpu.ArrayBuffer, gpu.SizeOf[mgl32.Vec3](baseVertex), gpu.Bytes(g.Normals))
		dev.WriteBuffer(geo.Indices, gpu.ElementBuffer, gpu.SizeOf[uint16](baseIndex), gpu.Bytes(g.Faces))

		baseVertex += e.Vertices
		baseIndex += e.Indices
	}
	m.hasMesh = true
}

// modelExtent prefers the first sequence's extent and otherwise unions the
// retained geosets.
func modelExtent(mdl *model.Model, entries []Entry) model.Extent {
	if len(mdl.Sequences) > 0 {
		return mdl.Sequences[0].Extent
	}
	var e model.Extent
	for i := range entries {
		if i == 0 {
			e = entries[i].Extent
			continue
		}
		e = e.Union(entries[i].Extent)
	}
	return e
}

func (l *Loader) bindTextures(name string, textures []model.Texture) []TextureBinding {
	out := make([]TextureBinding, len(textures))
	for i, tex := range textures {
		p, res := l.policy.Resolve(tex, l.textures.Exists)
		b := TextureBinding{Path: p, Resolution: res}

		if !res.Placeholder() {
			t, err := l.textures.Load(p)
			if err != nil {
				l.log.Warn("texture unusable, using placeholder",
					zap.String("mesh", name), zap.String("texture", p), zap.Error(err))
				b.Resolution = Undecodable
			}
			b.Texture = t
		} else if res != SkippedMap {
			l.log.Warn("texture not found, using placeholder",
				zap.String("mesh", name),
				zap.String("texture", tex.FileName),
				zap.Uint32("replaceable_id", tex.ReplaceableID),
				zap.Stringer("reason", res))
		}
		if b.Resolution.Placeholder() {
			b.Path = l.policy.Placeholder
			b.Texture = l.textures.Placeholder(l.policy.Placeholder)
		}

		// Wrap modes apply to file textures only; shared placeholder and
		// replaceable textures keep their defaults.
		if b.Resolution == Resolved {
			b.RepeatS = tex.Flags&model.TextureWrapWidth != 0
			b.RepeatT = tex.Flags&model.TextureWrapHeight != 0
		}
		out[i] = b
	}
	return out
}

// Meshes returns the number of cached meshes.
func (l *Loader) Meshes() int {
	return len(l.meshes)
}

// Release frees every cached mesh and the shared textures.
func (l *Loader) Release() {
	for _, m := range l.meshes {
		m.Release(l.dev)
	}
	clear(l.meshes)
	l.textures.Release()
}
