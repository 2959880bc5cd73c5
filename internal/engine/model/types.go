// Package model provides the parsed MDX model data the rendering core consumes,
// keyframe sampling and the parser registry.
package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-mdx/internal/engine/material"
)

// Model is the in-memory form of one parsed model file.
type Model struct {
	Name      string
	Geosets   []Geoset
	Materials []material.Material
	Textures  []Texture
	Nodes     []Node
	Sequences []Sequence
}

// Extent is an axis-aligned box plus bounding sphere radius.
type Extent struct {
	Min          mgl32.Vec3
	Max          mgl32.Vec3
	BoundsRadius float32
}

// Geoset is a sub-mesh with a single material.
type Geoset struct {
	LOD        uint32
	Vertices   []mgl32.Vec3
	UVs        []mgl32.Vec2 // first texture coordinate set
	Normals    []mgl32.Vec3
	Faces      []uint16 // triangle list
	MaterialID int
	Extent     Extent
}

// Texture flags.
const (
	TextureWrapWidth  uint32 = 0x1
	TextureWrapHeight uint32 = 0x2
)

// Texture references an image file or a replaceable texture slot.
type Texture struct {
	FileName      string
	ReplaceableID uint32 // 0 means FileName is used
	Flags         uint32
}

// NodeFlags are the MDX node inheritance and billboard bits.
type NodeFlags uint32

const (
	DontInheritTranslation NodeFlags = 0x1
	DontInheritRotation    NodeFlags = 0x2
	DontInheritScaling     NodeFlags = 0x4
	Billboarded            NodeFlags = 0x8
	BillboardedLockX       NodeFlags = 0x10
	BillboardedLockY       NodeFlags = 0x20
	BillboardedLockZ       NodeFlags = 0x40
)

// Has reports whether all bits of f are set.
func (n NodeFlags) Has(f NodeFlags) bool {
	return n&f == f
}

// AnyBillboard reports whether any billboard bit is set.
func (n NodeFlags) AnyBillboard() bool {
	return n&(Billboarded|BillboardedLockX|BillboardedLockY|BillboardedLockZ) != 0
}

// NoParent marks a root node.
const NoParent = -1

// Node describes one transform node (bone, helper, attachment).
type Node struct {
	Name   string
	Parent int // index into Model.Nodes, NoParent for roots
	Pivot  mgl32.Vec3
	Flags  NodeFlags

	Translation Vec3Track
	Rotation    QuatTrack
	Scaling     Vec3Track
}

// Sequence is a named animation interval in frames.
type Sequence struct {
	Name   string
	Start  uint32
	End    uint32
	Extent Extent
}

// Contains reports whether frame falls inside the sequence.
func (s Sequence) Contains(frame uint32) bool {
	return frame >= s.Start && frame <= s.End
}
