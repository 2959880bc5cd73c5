package skeleton

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-mdx/internal/engine/camera"
	"github.com/Faultbox/midgard-mdx/internal/engine/model"
)

var (
	// ErrInvalidParent is returned for parent indices outside the node array or
	// pointing at the node itself.
	ErrInvalidParent = errors.New("invalid parent index")
	// ErrCycle is returned when parent links form a loop.
	ErrCycle = errors.New("node hierarchy cycle")
)

// Hierarchy owns the nodes of one model instance, stored parents first.
type Hierarchy struct {
	nodes   []Node
	handles []Handle // descriptor index -> handle
}

// New validates node descriptors and builds a hierarchy ordered so that every
// parent precedes its children. Descriptor order is kept among nodes of equal depth.
func New(descs []model.Node) (*Hierarchy, error) {
	depth, err := depths(descs)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(descs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return depth[order[a]] < depth[order[b]]
	})

	h := &Hierarchy{
		nodes:   make([]Node, len(descs)),
		handles: make([]Handle, len(descs)),
	}
	for i, d := range order {
		h.handles[d] = Handle(i)
	}
	for i, d := range order {
		h.nodes[i] = newNode(&descs[d])
		if p := descs[d].Parent; p != model.NoParent {
			h.nodes[i].parent = h.handles[p]
		}
	}
	return h, nil
}

// depths returns each node's distance from its root.
func depths(descs []model.Node) ([]int, error) {
	const (
		unvisited = -1
		visiting  = -2
	)
	depth := make([]int, len(descs))
	for i := range depth {
		depth[i] = unvisited
	}

	for i := range descs {
		p := descs[i].Parent
		if p == model.NoParent {
			continue
		}
		if p < 0 || p >= len(descs) || p == i {
			return nil, fmt.Errorf("node %d %q: %w %d", i, descs[i].Name, ErrInvalidParent, p)
		}
	}

	var walk func(i int) (int, error)
	walk = func(i int) (int, error) {
		switch depth[i] {
		case visiting:
			return 0, fmt.Errorf("node %d %q: %w", i, descs[i].Name, ErrCycle)
		case unvisited:
		default:
			return depth[i], nil
		}
		p := descs[i].Parent
		if p == model.NoParent {
			depth[i] = 0
			return 0, nil
		}
		depth[i] = visiting
		d, err := walk(p)
		if err != nil {
			return 0, err
		}
		depth[i] = d + 1
		return depth[i], nil
	}
	for i := range descs {
		if _, err := walk(i); err != nil {
			return nil, err
		}
	}
	return depth, nil
}

// Len returns the node count.
func (h *Hierarchy) Len() int { return len(h.nodes) }

// Node returns the node for handle. ok is false for out-of-range handles.
func (h *Hierarchy) Node(handle Handle) (*Node, bool) {
	if !h.valid(handle) {
		return nil, false
	}
	return &h.nodes[handle], true
}

func (h *Hierarchy) valid(handle Handle) bool {
	return handle >= 0 && int(handle) < len(h.nodes)
}

// Handle maps a descriptor index (as in model.Model.Nodes) to its handle.
func (h *Hierarchy) Handle(desc int) (Handle, bool) {
	if desc < 0 || desc >= len(h.handles) {
		return NoParent, false
	}
	return h.handles[desc], true
}

// Find returns the first node with the given name.
func (h *Hierarchy) Find(name string) (Handle, bool) {
	for i := range h.nodes {
		if h.nodes[i].Name == name {
			return Handle(i), true
		}
	}
	return NoParent, false
}

// Resolve walks the hierarchy parents first and recomputes every node whose
// own state or whose parent's world state changed. A nil view skips billboards.
func (h *Hierarchy) Resolve(view *camera.View) {
	for i := range h.nodes {
		n := &h.nodes[i]
		var parent *Node
		if n.parent != NoParent {
			parent = &h.nodes[n.parent]
		}
		n.resolve(parent, view)
	}
}

// ApplyPose samples every node's keyframe tracks at frame. Nodes whose sampled
// transform is unchanged stay clean.
func (h *Hierarchy) ApplyPose(frame float32) {
	for i := range h.nodes {
		n := &h.nodes[i]
		tr := &n.tracks
		if len(tr.translation) == 0 && len(tr.rotation) == 0 && len(tr.scaling) == 0 {
			continue
		}
		t := model.SampleVec3(tr.translation, frame, vecZero)
		r := model.SampleQuat(tr.rotation, frame).Normalize()
		s := model.SampleVec3(tr.scaling, frame, vecOne)
		if t == n.translation && r == n.rotation && s == n.scale {
			continue
		}
		n.translation, n.rotation, n.scale = t, r, s
		n.markDirty()
	}
}

// Attach returns base·world(handle), the matrix a mesh attached to the node is
// drawn with. ok is false for hidden nodes, which must not be drawn, and for
// handles outside the hierarchy.
func (h *Hierarchy) Attach(handle Handle, base mgl32.Mat4) (mgl32.Mat4, bool) {
	if !h.valid(handle) {
		return mgl32.Mat4{}, false
	}
	n := &h.nodes[handle]
	if !n.visible {
		return mgl32.Mat4{}, false
	}
	return base.Mul4(n.worldMatrix), true
}
