package model

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidGeoset is returned when geoset arrays are inconsistent.
var ErrInvalidGeoset = errors.New("invalid geoset")

// Validate checks array lengths, face indices and the material reference.
func (g *Geoset) Validate(materials int) error {
	n := len(g.Vertices)
	if len(g.UVs) != n {
		return fmt.Errorf("%w: %d uvs for %d vertices", ErrInvalidGeoset, len(g.UVs), n)
	}
	if len(g.Normals) != n {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrInvalidGeoset, len(g.Normals), n)
	}
	if len(g.Faces)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a triangle list", ErrInvalidGeoset, len(g.Faces))
	}
	for i, f := range g.Faces {
		if int(f) >= n {
			return fmt.Errorf("%w: index %d at %d out of range", ErrInvalidGeoset, f, i)
		}
	}
	if g.MaterialID < 0 || g.MaterialID >= materials {
		return fmt.Errorf("%w: material %d of %d", ErrInvalidGeoset, g.MaterialID, materials)
	}
	return nil
}

// ComputeExtent returns the bounding box of vertices and the radius of the
// sphere around the box centre that encloses them.
func ComputeExtent(vertices []mgl32.Vec3) Extent {
	if len(vertices) == 0 {
		return Extent{}
	}
	e := Extent{Min: vertices[0], Max: vertices[0]}
	for _, p := range vertices[1:] {
		for i := 0; i < 3; i++ {
			e.Min[i] = math32.Min(e.Min[i], p[i])
			e.Max[i] = math32.Max(e.Max[i], p[i])
		}
	}
	c := e.Min.Add(e.Max).Mul(0.5)
	for _, p := range vertices {
		e.BoundsRadius = math32.Max(e.BoundsRadius, p.Sub(c).Len())
	}
	return e
}

// Union grows e to contain o.
func (e Extent) Union(o Extent) Extent {
	for i := 0; i < 3; i++ {
		e.Min[i] = math32.Min(e.Min[i], o.Min[i])
		e.Max[i] = math32.Max(e.Max[i], o.Max[i])
	}
	e.BoundsRadius = math32.Max(e.BoundsRadius, o.BoundsRadius)
	return e
}

// FaceNormals fills Normals with area-weighted vertex normals from the faces,
// then averages normals of vertices sharing a position.
func (g *Geoset) FaceNormals() {
	g.Normals = make([]mgl32.Vec3, len(g.Vertices))
	for i := 0; i+2 < len(g.Faces); i += 3 {
		a, b, c := g.Faces[i], g.Faces[i+1], g.Faces[i+2]
		n := g.Vertices[b].Sub(g.Vertices[a]).Cross(g.Vertices[c].Sub(g.Vertices[a]))
		g.Normals[a] = g.Normals[a].Add(n)
		g.Normals[b] = g.Normals[b].Add(n)
		g.Normals[c] = g.Normals[c].Add(n)
	}
	g.smoothNormals()
}

// smoothNormals averages normals at shared vertex positions.
func (g *Geoset) smoothNormals() {
	const epsilon float32 = 0.001

	// Group vertices by quantized position
	posMap := make(map[[3]int32][]int)
	for i, p := range g.Vertices {
		key := [3]int32{int32(p[0] / epsilon), int32(p[1] / epsilon), int32(p[2] / epsilon)}
		posMap[key] = append(posMap[key], i)
	}

	for _, idxs := range posMap {
		var sum mgl32.Vec3
		for _, idx := range idxs {
			sum = sum.Add(g.Normals[idx])
		}
		avg := mgl32.Vec3{0, 0, 1}
		if sum.Len() > 1e-6 {
			avg = sum.Normalize()
		}
		for _, idx := range idxs {
			g.Normals[idx] = avg
		}
	}
}
