package viewer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-mdx/internal/engine/camera"
	"github.com/Faultbox/midgard-mdx/internal/engine/mesh"
	"github.com/Faultbox/midgard-mdx/internal/engine/render"
	"github.com/Faultbox/midgard-mdx/internal/engine/skeleton"
)

// Attachment is a mesh drawn with the world matrix of one node.
type Attachment struct {
	Node skeleton.Handle
	Mesh *mesh.Mesh
}

// Instance is one placed copy of a mesh with its own node hierarchy and
// animation clock. Many instances share a mesh.
type Instance struct {
	Mesh     *mesh.Mesh
	Skeleton *skeleton.Hierarchy
	Base     mgl32.Mat4

	Attachments []Attachment

	Sequence int
	Time     float32 // milliseconds since the sequence started
	Speed    float32

	Hidden bool
}

// NewInstance places m at base.
func NewInstance(m *mesh.Mesh, base mgl32.Mat4) (*Instance, error) {
	h, err := skeleton.New(m.Nodes())
	if err != nil {
		return nil, fmt.Errorf("instance of %s: %w", m.Name, err)
	}
	return &Instance{Mesh: m, Skeleton: h, Base: base, Speed: 1}, nil
}

// Attach draws m at the node named node.
func (in *Instance) Attach(node string, m *mesh.Mesh) error {
	h, ok := in.Skeleton.Find(node)
	if !ok {
		return fmt.Errorf("instance of %s: no node %q", in.Mesh.Name, node)
	}
	in.Attachments = append(in.Attachments, Attachment{Node: h, Mesh: m})
	return nil
}

// Frame returns the animation frame for the current time, looping inside the
// selected sequence. Without sequences the time is the frame.
func (in *Instance) Frame() float32 {
	seqs := in.Mesh.Sequences()
	if in.Sequence < 0 || in.Sequence >= len(seqs) {
		return in.Time
	}
	s := seqs[in.Sequence]
	length := float32(s.End - s.Start)
	if length <= 0 {
		return float32(s.Start)
	}
	t := in.Time - length*float32(int(in.Time/length))
	return float32(s.Start) + t
}

// Advance moves the clock by dtMs and poses the hierarchy.
func (in *Instance) Advance(dtMs float32) {
	in.Time += dtMs * in.Speed
	if in.Skeleton.Len() > 0 {
		in.Skeleton.ApplyPose(in.Frame())
	}
}

// Submit resolves the hierarchy for view and enqueues the mesh and every
// visible attachment. Hidden instances submit nothing.
func (in *Instance) Submit(q *render.Queue, view *camera.View) error {
	if in.Hidden {
		return nil
	}
	in.Skeleton.Resolve(localView(view, in.Base))

	if in.Mesh.HasMesh() {
		if err := in.Mesh.Enqueue(q, in.Base); err != nil {
			return err
		}
	}
	for _, a := range in.Attachments {
		world, ok := in.Skeleton.Attach(a.Node, in.Base)
		if !ok || !a.Mesh.HasMesh() {
			continue
		}
		if err := a.Mesh.Enqueue(q, world); err != nil {
			return err
		}
	}
	return nil
}

// localView expresses view in the instance's model space, where node
// billboards are solved. Base is expected to be a rigid transform with
// uniform scale.
func localView(view *camera.View, base mgl32.Mat4) *camera.View {
	if view == nil || base == mgl32.Ident4() {
		return view
	}
	inv := base.Inv()
	lv := *view
	lv.Position = mgl32.TransformCoordinate(view.Position, inv)
	lv.Direction = inv.Mul4x1(view.Direction.Vec4(0)).Vec3().Normalize()
	lv.Up = inv.Mul4x1(view.Up.Vec4(0)).Vec3().Normalize()
	return &lv
}
