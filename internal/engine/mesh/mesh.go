// Package mesh stores MDX geometry on the GPU and draws it for the render queue.
//
// All retained geosets of a model share one position, UV, normal and index buffer.
// Each geoset owns a disjoint range (an Entry) inside them. Opaque layers draw
// every instance of a frame with one instanced call per entry; blended layers
// draw one instance at a time when the queue replays its sorted records.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdx/internal/engine/gpu"
	"github.com/Faultbox/midgard-mdx/internal/engine/material"
	"github.com/Faultbox/midgard-mdx/internal/engine/model"
	"github.com/Faultbox/midgard-mdx/internal/engine/render"
)

// RetainedLOD is the only geoset level of detail kept on load.
const RetainedLOD = 0

// ErrInvalidMaterial is returned when a layer references a missing texture.
var ErrInvalidMaterial = errors.New("invalid material")

// Entry is the buffer range of one retained geoset.
type Entry struct {
	Vertices   int
	BaseVertex int
	Indices    int
	BaseIndex  int
	MaterialID int
	Extent     model.Extent
	Visible    bool
}

// Range returns the draw range of the entry.
func (e *Entry) Range() gpu.DrawRange {
	return gpu.DrawRange{Count: e.Indices, BaseIndex: e.BaseIndex, BaseVertex: e.BaseVertex}
}

// TextureBinding is the GPU texture bound for one model texture.
type TextureBinding struct {
	Texture    gpu.Texture
	Path       string
	Resolution Resolution
	RepeatS    bool
	RepeatT    bool
}

// Mesh is the GPU geometry of one model, shared by all its instances.
type Mesh struct {
	Name string

	geometry gpu.Geometry
	hasMesh  bool
	entries  []Entry

	materials []material.Material
	textures  []TextureBinding
	nodes     []model.Node
	sequences []model.Sequence
	extent    model.Extent

	log *zap.Logger
}

// HasMesh reports whether any geoset was retained. Meshes without geometry
// own no buffers and draw nothing.
func (m *Mesh) HasMesh() bool { return m.hasMesh }

// Geometry returns the buffer handles.
func (m *Mesh) Geometry() gpu.Geometry { return m.geometry }

// Entries returns the geoset ranges in buffer order.
func (m *Mesh) Entries() []Entry { return m.entries }

// Materials returns the model materials.
func (m *Mesh) Materials() []material.Material { return m.materials }

// Textures returns one binding per model texture.
func (m *Mesh) Textures() []TextureBinding { return m.textures }

// Nodes returns the node descriptors instances build their hierarchy from.
func (m *Mesh) Nodes() []model.Node { return m.nodes }

// Sequences returns the model's animation sequences.
func (m *Mesh) Sequences() []model.Sequence { return m.sequences }

// Extent returns the model bounds.
func (m *Mesh) Extent() model.Extent { return m.extent }

// SetEntryVisible shows or hides one geoset.
func (m *Mesh) SetEntryVisible(i int, visible bool) error {
	if i < 0 || i >= len(m.entries) {
		return fmt.Errorf("entry %d out of range [0,%d)", i, len(m.entries))
	}
	m.entries[i].Visible = visible
	return nil
}

// drawLayer returns the drawn layer of an entry's material.
func (m *Mesh) drawLayer(e *Entry) (material.Layer, bool) {
	return m.materials[e.MaterialID].DrawLayer()
}

// Transparent reports whether any visible entry draws a blended layer.
func (m *Mesh) Transparent() bool {
	if !m.hasMesh {
		return false
	}
	for i := range m.entries {
		e := &m.entries[i]
		if !e.Visible {
			continue
		}
		if m.materials[e.MaterialID].Transparent() {
			return true
		}
	}
	return false
}

// Enqueue submits one instance of the mesh to q.
func (m *Mesh) Enqueue(q *render.Queue, world mgl32.Mat4) error {
	return q.Enqueue(m, world)
}

// bindLayer binds the layer's texture. A cached texture may be shared by meshes
// with different wrap flags, so the binding's own wrap is set before every bind.
func (m *Mesh) bindLayer(dev gpu.Device, l material.Layer) {
	b := &m.textures[l.TextureID]
	if b.Resolution == Resolved {
		dev.SetTextureWrap(b.Texture, b.RepeatS, b.RepeatT)
	}
	dev.BindTexture(b.Texture)
	dev.SetRasterState(l.Shading.RasterState())
}

// RenderOpaque uploads the frame's instance matrices and draws every visible
// entry with an opaque layer once for all of them.
func (m *Mesh) RenderOpaque(fc *render.FrameContext, instances []mgl32.Mat4) {
	if !m.hasMesh || len(instances) == 0 {
		return
	}
	dev := fc.Device

	dev.ReplaceBuffer(m.geometry.Instances, gpu.ArrayBuffer, gpu.Bytes(instances))
	dev.BindGeometry(m.geometry, true)

	for i := range m.entries {
		e := &m.entries[i]
		if !e.Visible {
			continue
		}
		l, ok := m.drawLayer(e)
		if !ok || !l.BlendMode.Opaque() {
			continue
		}
		m.bindLayer(dev, l)
		dev.SetAlphaTest(l.BlendMode.AlphaTest())
		dev.DrawIndexedInstanced(e.Range(), len(instances))
	}
}

// RenderTransparent draws the blended entries of one instance.
func (m *Mesh) RenderTransparent(fc *render.FrameContext, world mgl32.Mat4) {
	if !m.hasMesh {
		return
	}
	dev := fc.Device

	dev.BindGeometry(m.geometry, false)
	dev.SetModelViewProjection(fc.View.ProjectionView.Mul4(world))
	dev.SetAlphaTest(material.AlphaTestDisabled)

	for i := range m.entries {
		e := &m.entries[i]
		if !e.Visible {
			continue
		}
		l, ok := m.drawLayer(e)
		if !ok || l.BlendMode.Opaque() {
			continue
		}
		f, ok := l.BlendMode.BlendFunc()
		if !ok {
			m.log.Debug("skipping layer with unknown blend mode",
				zap.String("mesh", m.Name), zap.Int("entry", i), zap.Stringer("mode", l.BlendMode))
			continue
		}
		dev.SetBlendFunc(f)
		m.bindLayer(dev, l)
		dev.DrawIndexed(e.Range())
	}
}

// Release frees the GPU buffers. Textures belong to the texture cache.
func (m *Mesh) Release(dev gpu.Device) {
	if !m.hasMesh {
		return
	}
	g := m.geometry
	for _, b := range []gpu.Buffer{g.Positions, g.UVs, g.Normals, g.Indices, g.Instances} {
		dev.DeleteBuffer(b)
	}
	dev.DeleteVertexArray(g.VertexArray)
	m.geometry = gpu.Geometry{}
	m.hasMesh = false
	m.entries = nil
}

var _ render.Batchable = (*Mesh)(nil)
