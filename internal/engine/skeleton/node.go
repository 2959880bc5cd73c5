// Package skeleton resolves MDX node hierarchies: local TRS transforms with pivots
// are composed top-down into world and inverse-world transforms, with per-channel
// inheritance switches and camera-facing billboard overrides.
package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-mdx/internal/engine/camera"
	"github.com/Faultbox/midgard-mdx/internal/engine/model"
)

// Handle is the index of a node inside its Hierarchy.
type Handle int

// NoParent is the parent handle of root nodes.
const NoParent Handle = -1

var (
	vecZero = mgl32.Vec3{}
	vecOne  = mgl32.Vec3{1, 1, 1}
)

// Node is one transform node. Nodes are owned by a Hierarchy and addressed by Handle.
type Node struct {
	Name   string
	parent Handle
	pivot  mgl32.Vec3
	flags  model.NodeFlags

	// Local space
	translation mgl32.Vec3
	rotation    mgl32.Quat
	scale       mgl32.Vec3
	localMatrix mgl32.Mat4

	// World space
	worldPivot       mgl32.Vec3
	worldTranslation mgl32.Vec3
	worldRotation    mgl32.Quat
	worldScale       mgl32.Vec3
	worldMatrix      mgl32.Mat4

	// Inverse world space
	inverseTranslation mgl32.Vec3
	inverseRotation    mgl32.Quat
	inverseScale       mgl32.Vec3

	visible    bool
	dirty      bool
	localDirty bool
	wasDirty   bool

	// Camera basis the billboard rotation was computed for.
	lastView camera.View
	viewSet  bool

	tracks struct {
		translation model.Vec3Track
		rotation    model.QuatTrack
		scaling     model.Vec3Track
	}
}

func newNode(d *model.Node) Node {
	n := Node{
		Name:            d.Name,
		parent:          Handle(d.Parent),
		pivot:           d.Pivot,
		flags:           d.Flags,
		rotation:        mgl32.QuatIdent(),
		scale:           vecOne,
		localMatrix:     mgl32.Ident4(),
		worldRotation:   mgl32.QuatIdent(),
		worldScale:      vecOne,
		worldMatrix:     mgl32.Ident4(),
		inverseRotation: mgl32.QuatIdent(),
		inverseScale:    vecOne,
		visible:         true,
		dirty:           true,
		localDirty:      true,
	}
	n.tracks.translation = d.Translation
	n.tracks.rotation = d.Rotation
	n.tracks.scaling = d.Scaling
	return n
}

// Parent returns the parent handle, NoParent for roots.
func (n *Node) Parent() Handle { return n.parent }

// Pivot returns the node's pivot point in model space.
func (n *Node) Pivot() mgl32.Vec3 { return n.pivot }

// Flags returns the inheritance and billboard flags.
func (n *Node) Flags() model.NodeFlags { return n.flags }

func (n *Node) Translation() mgl32.Vec3 { return n.translation }
func (n *Node) Rotation() mgl32.Quat    { return n.rotation }
func (n *Node) Scale() mgl32.Vec3       { return n.scale }
func (n *Node) LocalMatrix() mgl32.Mat4 { return n.localMatrix }

func (n *Node) WorldPivot() mgl32.Vec3       { return n.worldPivot }
func (n *Node) WorldTranslation() mgl32.Vec3 { return n.worldTranslation }
func (n *Node) WorldRotation() mgl32.Quat    { return n.worldRotation }
func (n *Node) WorldScale() mgl32.Vec3       { return n.worldScale }
func (n *Node) WorldMatrix() mgl32.Mat4      { return n.worldMatrix }

func (n *Node) InverseTranslation() mgl32.Vec3 { return n.inverseTranslation }
func (n *Node) InverseRotation() mgl32.Quat    { return n.inverseRotation }
func (n *Node) InverseScale() mgl32.Vec3       { return n.inverseScale }

// InverseWorldMatrix composes the inverse TRS: T(invT)·S(invS)·R(invR).
func (n *Node) InverseWorldMatrix() mgl32.Mat4 {
	s := n.inverseScale
	t := n.inverseTranslation
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2])).
		Mul4(n.inverseRotation.Mat4())
}

// WorldToLocal maps a world-space point into the node's space.
func (n *Node) WorldToLocal(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, n.InverseWorldMatrix())
}

// Visible reports whether draws may read this node's transform.
func (n *Node) Visible() bool { return n.visible }

// Dirty reports whether local state changed since the last resolve.
func (n *Node) Dirty() bool { return n.dirty }

// WasDirty reports whether the last resolve recomputed this node.
func (n *Node) WasDirty() bool { return n.wasDirty }

// SetVisible toggles draw visibility. Hidden nodes still resolve.
func (n *Node) SetVisible(v bool) { n.visible = v }

// SetTranslation sets the local translation and marks the node dirty.
func (n *Node) SetTranslation(t mgl32.Vec3) {
	n.translation = t
	n.markDirty()
}

// SetRotation sets the local rotation and marks the node dirty.
func (n *Node) SetRotation(r mgl32.Quat) {
	n.rotation = r.Normalize()
	n.markDirty()
}

// SetScale sets the local scale and marks the node dirty.
func (n *Node) SetScale(s mgl32.Vec3) {
	n.scale = s
	n.markDirty()
}

// SetLocal sets all three local components at once.
func (n *Node) SetLocal(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) {
	n.translation = t
	n.rotation = r.Normalize()
	n.scale = s
	n.markDirty()
}

// ResetLocal restores the identity local transform.
func (n *Node) ResetLocal() {
	n.SetLocal(vecZero, mgl32.QuatIdent(), vecOne)
}

func (n *Node) markDirty() {
	n.dirty = true
	n.localDirty = true
}

// recalculateLocal builds T(pivot)·T(t)·R(r)·S(s)·T(-pivot).
func (n *Node) recalculateLocal() {
	p, t, s := n.pivot, n.translation, n.scale
	n.localMatrix = mgl32.Translate3D(p[0]+t[0], p[1]+t[1], p[2]+t[2]).
		Mul4(n.rotation.Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2])).
		Mul4(mgl32.Translate3D(-p[0], -p[1], -p[2]))
	n.localDirty = false
}

func (n *Node) billboarded() bool {
	return n.flags.AnyBillboard()
}

// resolve recomputes world and inverse state. parent is nil for roots.
// view may be nil, in which case billboard overrides are not applied.
func (n *Node) resolve(parent *Node, view *camera.View) {
	parentDirty := parent != nil && parent.wasDirty

	if n.billboarded() && view != nil && (!n.viewSet || !n.lastView.SameBasis(view)) {
		n.dirty = true
	}
	if !n.dirty && !parentDirty {
		n.wasDirty = false
		return
	}

	if n.localDirty {
		n.recalculateLocal()
	}

	pt, pr, ps := vecZero, mgl32.QuatIdent(), vecOne
	if parent != nil {
		if !n.flags.Has(model.DontInheritTranslation) {
			pt = parent.worldTranslation
		}
		if !n.flags.Has(model.DontInheritRotation) {
			pr = parent.worldRotation
		}
		if !n.flags.Has(model.DontInheritScaling) {
			ps = parent.worldScale
		}
	}

	// World pivot location: T(pt)·R(pr)·S(ps)·(pivot + t). The TRS form drops the
	// shear a non-uniform parent scale gives a rotated child.
	n.worldPivot = pt.Add(pr.Rotate(mulVec(ps, n.pivot.Add(n.translation))))
	n.worldRotation = pr.Mul(n.rotation).Normalize()
	n.worldScale = mulVec(ps, n.scale)

	if n.billboarded() && view != nil {
		n.worldRotation = billboard(n.flags, n.worldRotation, view)
		n.lastView.Direction, n.lastView.Up, n.viewSet = view.Direction, view.Up, true
	}

	// World matrix: T(worldPivot)·R·S·T(-pivot)
	wp, ws, p := n.worldPivot, n.worldScale, n.pivot
	n.worldMatrix = mgl32.Translate3D(wp[0], wp[1], wp[2]).
		Mul4(n.worldRotation.Mat4()).
		Mul4(mgl32.Scale3D(ws[0], ws[1], ws[2])).
		Mul4(mgl32.Translate3D(-p[0], -p[1], -p[2]))
	n.worldTranslation = n.worldMatrix.Col(3).Vec3()

	n.inverseRotation = n.worldRotation.Conjugate()
	n.inverseScale = mgl32.Vec3{reciprocal(ws[0]), reciprocal(ws[1]), reciprocal(ws[2])}
	n.inverseTranslation = mulVec(n.inverseScale, n.inverseRotation.Rotate(n.worldTranslation.Mul(-1)))

	n.wasDirty = true
	n.dirty = false
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// reciprocal leaves zero scale at zero.
func reciprocal(v float32) float32 {
	if v == 0 {
		return 0
	}
	return 1 / v
}
