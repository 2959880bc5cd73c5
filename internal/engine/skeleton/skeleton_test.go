package skeleton

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-mdx/internal/engine/camera"
	"github.com/Faultbox/midgard-mdx/internal/engine/model"
)

const eps = 1e-3

func mat4Near(t *testing.T, want, got mgl32.Mat4, msg string) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, eps), "%s\nwant %v\ngot  %v", msg, want, got)
}

func vecNear(t *testing.T, want, got mgl32.Vec3, msg string) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, eps), "%s: want %v, got %v", msg, want, got)
}

func at(t *testing.T, h *Hierarchy, handle Handle) *Node {
	t.Helper()
	n, ok := h.Node(handle)
	require.True(t, ok, "handle %d", handle)
	return n
}

func twoNodes(childFlags model.NodeFlags) *Hierarchy {
	h, err := New([]model.Node{
		{Name: "root", Parent: model.NoParent, Pivot: mgl32.Vec3{0, 0, 10}},
		{Name: "child", Parent: 0, Pivot: mgl32.Vec3{5, 0, 20}, Flags: childFlags},
	})
	if err != nil {
		panic(err)
	}
	return h
}

func testView() *camera.View {
	dir := mgl32.Vec3{1, 2, -1}.Normalize()
	right := dir.Cross(camera.WorldUp).Normalize()
	up := right.Cross(dir).Normalize()
	return &camera.View{Position: mgl32.Vec3{0, 0, 0}, Direction: dir, Up: up, Distance: 100}
}

func TestWorldComposesParentAndLocal(t *testing.T) {
	h := twoNodes(0)
	root, child := at(t, h, 0), at(t, h, 1)
	root.SetLocal(mgl32.Vec3{10, -4, 2}, mgl32.QuatRotate(0.7, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{2, 2, 2})
	child.SetLocal(mgl32.Vec3{1, 2, 3}, mgl32.QuatRotate(-0.4, mgl32.Vec3{1, 0, 0}), mgl32.Vec3{1, 3, 0.5})

	h.Resolve(nil)

	mat4Near(t, root.LocalMatrix(), root.WorldMatrix(), "root world equals local")
	mat4Near(t, root.WorldMatrix().Mul4(child.LocalMatrix()), child.WorldMatrix(), "child world")
	vecNear(t, child.WorldMatrix().Col(3).Vec3(), child.WorldTranslation(), "world translation is the matrix translation")
}

func TestLocalMatrixAboutPivot(t *testing.T) {
	h := twoNodes(0)
	root := at(t, h, 0)
	root.SetRotation(mgl32.QuatRotate(1.3, mgl32.Vec3{0, 1, 0}))
	root.SetScale(mgl32.Vec3{4, 4, 4})
	h.Resolve(nil)

	// The pivot is a fixed point of rotation and scale.
	vecNear(t, root.Pivot(), mgl32.TransformCoordinate(root.Pivot(), root.WorldMatrix()), "pivot fixed")
}

func TestDontInheritTranslation(t *testing.T) {
	h := twoNodes(model.DontInheritTranslation)
	at(t, h, 0).SetTranslation(mgl32.Vec3{100, 0, 0})
	at(t, h, 1).SetTranslation(mgl32.Vec3{1, 2, 3})
	h.Resolve(nil)

	vecNear(t, mgl32.Vec3{1, 2, 3}, at(t, h, 1).WorldTranslation(), "parent translation ignored")
}

func TestDontInheritRotation(t *testing.T) {
	h := twoNodes(model.DontInheritRotation)
	at(t, h, 0).SetRotation(mgl32.QuatRotate(1, mgl32.Vec3{0, 0, 1}))
	r := mgl32.QuatRotate(0.3, mgl32.Vec3{1, 0, 0})
	at(t, h, 1).SetRotation(r)
	h.Resolve(nil)

	assert.True(t, r.ApproxEqualThreshold(at(t, h, 1).WorldRotation(), eps))
}

func TestDontInheritScaling(t *testing.T) {
	h := twoNodes(model.DontInheritScaling)
	at(t, h, 0).SetScale(mgl32.Vec3{3, 3, 3})
	at(t, h, 1).SetScale(mgl32.Vec3{2, 1, 1})
	h.Resolve(nil)

	vecNear(t, mgl32.Vec3{2, 1, 1}, at(t, h, 1).WorldScale(), "parent scale ignored")
	vecNear(t, mgl32.Vec3{6, 3, 3}, at(t, twoNodesScaled(t), 1).WorldScale(), "inherited scale multiplies")
}

func twoNodesScaled(t *testing.T) *Hierarchy {
	t.Helper()
	h := twoNodes(0)
	at(t, h, 0).SetScale(mgl32.Vec3{3, 3, 3})
	at(t, h, 1).SetScale(mgl32.Vec3{2, 1, 1})
	h.Resolve(nil)
	return h
}

func TestInverseWorldMatrix(t *testing.T) {
	h := twoNodes(0)
	at(t, h, 0).SetLocal(mgl32.Vec3{3, 1, -7}, mgl32.QuatRotate(0.9, mgl32.Vec3{1, 1, 0}.Normalize()), mgl32.Vec3{2, 0.5, 1.5})
	at(t, h, 1).SetLocal(mgl32.Vec3{-2, 8, 1}, mgl32.QuatRotate(-2.1, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{1, 4, 0.25})
	h.Resolve(testView())

	for i := 0; i < h.Len(); i++ {
		n := at(t, h, Handle(i))
		mat4Near(t, mgl32.Ident4(), n.InverseWorldMatrix().Mul4(n.WorldMatrix()), n.Name)

		p := mgl32.Vec3{4, 5, 6}
		vecNear(t, p, n.WorldToLocal(mgl32.TransformCoordinate(p, n.WorldMatrix())), n.Name+" round trip")
	}
}

func TestInverseZeroScale(t *testing.T) {
	h := twoNodes(0)
	at(t, h, 0).SetScale(mgl32.Vec3{0, 2, 1})
	h.Resolve(nil)
	assert.Equal(t, mgl32.Vec3{0, 0.5, 1}, at(t, h, 0).InverseScale())
}

func TestCleanResolveIsIdentical(t *testing.T) {
	h := twoNodes(model.Billboarded)
	at(t, h, 0).SetLocal(mgl32.Vec3{1, 2, 3}, mgl32.QuatRotate(0.5, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{1, 1, 2})
	view := testView()

	h.Resolve(view)
	h.Resolve(view)
	before := make([]Node, h.Len())
	copy(before, h.nodes)

	h.Resolve(view)
	assert.Equal(t, before, h.nodes)
	assert.False(t, at(t, h, 0).WasDirty())
	assert.False(t, at(t, h, 1).WasDirty())
}

func TestDirtyPropagatesToChildren(t *testing.T) {
	h, err := New([]model.Node{
		{Name: "a", Parent: model.NoParent},
		{Name: "b", Parent: 0},
		{Name: "c", Parent: 1},
		{Name: "other", Parent: model.NoParent},
	})
	require.NoError(t, err)
	h.Resolve(nil)
	h.Resolve(nil)

	at(t, h, 0).SetTranslation(mgl32.Vec3{0, 0, 5})
	assert.True(t, at(t, h, 0).Dirty())
	h.Resolve(nil)

	for _, name := range []string{"a", "b", "c"} {
		hd, _ := h.Find(name)
		assert.True(t, at(t, h, hd).WasDirty(), name)
		vecNear(t, mgl32.Vec3{0, 0, 5}, at(t, h, hd).WorldTranslation(), name)
	}
	other, _ := h.Find("other")
	assert.False(t, at(t, h, other).WasDirty())
	assert.False(t, at(t, h, 0).Dirty())
}

func TestFullBillboardFacesCamera(t *testing.T) {
	view := testView()
	for _, r := range []mgl32.Quat{
		mgl32.QuatIdent(),
		mgl32.QuatRotate(1.1, mgl32.Vec3{0, 1, 0}),
		mgl32.QuatRotate(-2.5, mgl32.Vec3{1, 1, 1}.Normalize()),
	} {
		h := twoNodes(model.Billboarded)
		at(t, h, 0).SetRotation(mgl32.QuatRotate(0.8, mgl32.Vec3{0, 0, 1}))
		at(t, h, 1).SetRotation(r)
		h.Resolve(view)

		wr := at(t, h, 1).WorldRotation()
		vecNear(t, view.Direction.Mul(-1), wr.Rotate(mgl32.Vec3{1, 0, 0}), "+X faces the camera")
		vecNear(t, view.Up, wr.Rotate(mgl32.Vec3{0, 0, 1}), "+Z is view up")
	}
}

func TestAxisLockedBillboards(t *testing.T) {
	view := testView()
	tests := []struct {
		name   string
		flag   model.NodeFlags
		axis   mgl32.Vec3
		facing mgl32.Vec3
	}{
		{"lock x", model.BillboardedLockX, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{"lock y", model.BillboardedLockY, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
		{"lock z", model.BillboardedLockZ, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range []mgl32.Quat{
				mgl32.QuatIdent(),
				mgl32.QuatRotate(0.6, tt.axis),
				mgl32.QuatRotate(2.9, mgl32.Vec3{0.2, -1, 0.4}.Normalize()),
			} {
				h := twoNodes(tt.flag)
				at(t, h, 1).SetRotation(r)
				h.Resolve(view)

				wr := at(t, h, 1).WorldRotation()
				a := wr.Rotate(tt.axis)
				vecNear(t, r.Rotate(tt.axis), a, "locked axis unchanged")

				toCam := view.Direction.Mul(-1)
				want := toCam.Sub(a.Mul(toCam.Dot(a))).Normalize()
				vecNear(t, want, wr.Rotate(tt.facing), "facing axis points at the camera")
			}
		})
	}
}

func TestBillboardPriority(t *testing.T) {
	view := testView()
	h := twoNodes(model.Billboarded | model.BillboardedLockZ)
	h.Resolve(view)
	vecNear(t, view.Up, at(t, h, 1).WorldRotation().Rotate(mgl32.Vec3{0, 0, 1}), "full billboard wins")
}

func TestBillboardFollowsCamera(t *testing.T) {
	h := twoNodes(model.Billboarded)
	view := testView()
	h.Resolve(view)
	h.Resolve(view)
	assert.False(t, at(t, h, 1).WasDirty(), "same camera keeps the billboard clean")

	moved := *view
	moved.Direction = mgl32.Vec3{0, 1, 0}
	moved.Up = mgl32.Vec3{0, 0, 1}
	h.Resolve(&moved)
	assert.True(t, at(t, h, 1).WasDirty())
	assert.False(t, at(t, h, 0).WasDirty(), "plain parent is untouched")
	vecNear(t, mgl32.Vec3{0, -1, 0}, at(t, h, 1).WorldRotation().Rotate(mgl32.Vec3{1, 0, 0}), "re-faced")
}

func TestNewOrdersParentsFirst(t *testing.T) {
	h, err := New([]model.Node{
		{Name: "hand", Parent: 2},
		{Name: "root", Parent: model.NoParent},
		{Name: "arm", Parent: 1},
		{Name: "head", Parent: 1},
	})
	require.NoError(t, err)

	names := make([]string, h.Len())
	for i := range names {
		names[i] = at(t, h, Handle(i)).Name
	}
	assert.Equal(t, []string{"root", "arm", "head", "hand"}, names)

	for desc, name := range []string{"hand", "root", "arm", "head"} {
		hd, ok := h.Handle(desc)
		require.True(t, ok)
		assert.Equal(t, name, at(t, h, hd).Name)
	}
	for i := 0; i < h.Len(); i++ {
		assert.Less(t, int(at(t, h, Handle(i)).Parent()), i, "parent precedes child")
	}
	_, ok := h.Handle(4)
	assert.False(t, ok)
}

func TestNewRejectsBadParents(t *testing.T) {
	tests := []struct {
		name  string
		nodes []model.Node
		want  error
	}{
		{"out of range", []model.Node{{Parent: 3}}, ErrInvalidParent},
		{"negative", []model.Node{{Parent: -5}}, ErrInvalidParent},
		{"self", []model.Node{{Parent: model.NoParent}, {Parent: 1}}, ErrInvalidParent},
		{"cycle", []model.Node{{Parent: 2}, {Parent: 0}, {Parent: 1}}, ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.nodes)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHiddenNodesResolveButDoNotAttach(t *testing.T) {
	h := twoNodes(0)
	at(t, h, 0).SetVisible(false)
	at(t, h, 0).SetTranslation(mgl32.Vec3{0, 7, 0})
	h.Resolve(nil)

	_, ok := h.Attach(0, mgl32.Ident4())
	assert.False(t, ok)

	m, ok := h.Attach(1, mgl32.Translate3D(1, 0, 0))
	require.True(t, ok)
	vecNear(t, mgl32.Vec3{1, 7, 0}, m.Col(3).Vec3(), "child of hidden parent still follows it")
}

func TestApplyPose(t *testing.T) {
	h, err := New([]model.Node{{
		Name:   "spin",
		Parent: model.NoParent,
		Translation: model.Vec3Track{
			{Frame: 0, Value: mgl32.Vec3{0, 0, 0}},
			{Frame: 100, Value: mgl32.Vec3{0, 0, 10}},
		},
	}})
	require.NoError(t, err)

	h.ApplyPose(50)
	h.Resolve(nil)
	vecNear(t, mgl32.Vec3{0, 0, 5}, at(t, h, 0).WorldTranslation(), "sampled")

	h.ApplyPose(50)
	assert.False(t, at(t, h, 0).Dirty(), "same frame leaves the node clean")

	h.ApplyPose(100)
	assert.True(t, at(t, h, 0).Dirty())
}

func TestResetLocal(t *testing.T) {
	h := twoNodes(0)
	at(t, h, 0).SetLocal(mgl32.Vec3{1, 1, 1}, mgl32.QuatRotate(1, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{2, 2, 2})
	at(t, h, 0).ResetLocal()
	h.Resolve(nil)
	mat4Near(t, mgl32.Ident4(), at(t, h, 0).WorldMatrix(), "identity")
}

func TestNonUniformParentScale(t *testing.T) {
	h := twoNodes(0)
	root, child := at(t, h, 0), at(t, h, 1)
	root.SetLocal(mgl32.Vec3{2, -1, 4}, mgl32.QuatRotate(0.3, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{3, 1, 1})
	child.SetLocal(mgl32.Vec3{1, 2, 0}, mgl32.QuatRotate(0.8, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{1, 2, 1})
	h.Resolve(nil)

	vecNear(t, mgl32.TransformCoordinate(child.Pivot().Add(child.Translation()), root.WorldMatrix()),
		child.WorldPivot(), "pivot follows the parent matrix")
	vecNear(t, child.WorldPivot(), mgl32.TransformCoordinate(child.Pivot(), child.WorldMatrix()), "pivot is the matrix fixed point")
	vecNear(t, mgl32.Vec3{3, 2, 1}, child.WorldScale(), "scale is per axis")
	assert.True(t, root.WorldRotation().Mul(child.Rotation()).ApproxEqualThreshold(child.WorldRotation(), eps))
	mat4Near(t, mgl32.Ident4(), child.InverseWorldMatrix().Mul4(child.WorldMatrix()), "inverse")

	// The shear of parentWorld·local has no TRS form and is dropped.
	product := root.WorldMatrix().Mul4(child.LocalMatrix())
	assert.False(t, product.Mat3().ApproxEqualThreshold(child.WorldMatrix().Mat3(), eps))
}

func TestBillboardIgnoresCameraPosition(t *testing.T) {
	h := twoNodes(model.Billboarded)
	view := testView()
	h.Resolve(view)
	h.Resolve(view)

	panned := *view
	panned.Position = mgl32.Vec3{40, -3, 8}
	panned.Distance = 250
	h.Resolve(&panned)
	assert.False(t, at(t, h, 1).WasDirty(), "same orientation keeps the billboard clean")
}

func TestOutOfRangeHandles(t *testing.T) {
	h := twoNodes(0)
	h.Resolve(nil)
	for _, hd := range []Handle{NoParent, Handle(h.Len()), 99} {
		n, ok := h.Node(hd)
		assert.False(t, ok, "node %d", hd)
		assert.Nil(t, n)

		m, ok := h.Attach(hd, mgl32.Ident4())
		assert.False(t, ok, "attach %d", hd)
		assert.Equal(t, mgl32.Mat4{}, m)
	}
}
