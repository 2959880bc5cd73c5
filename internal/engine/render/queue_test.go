package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-mdx/internal/engine/camera"
	"github.com/Faultbox/midgard-mdx/internal/engine/gpu/gputest"
)

type fakeMesh struct {
	name        string
	transparent bool
	classified  int
	opaque      [][]mgl32.Mat4
	log         *[]string
	drawn       []mgl32.Mat4
}

func (m *fakeMesh) Transparent() bool {
	m.classified++
	return m.transparent
}

func (m *fakeMesh) RenderOpaque(fc *FrameContext, instances []mgl32.Mat4) {
	m.opaque = append(m.opaque, instances)
	if m.log != nil {
		*m.log = append(*m.log, "opaque:"+m.name)
	}
}

func (m *fakeMesh) RenderTransparent(fc *FrameContext, world mgl32.Mat4) {
	m.drawn = append(m.drawn, world)
	if m.log != nil {
		*m.log = append(*m.log, "transparent:"+m.name)
	}
}

func frame() (*FrameContext, *gputest.Recorder) {
	dev := gputest.New()
	return &FrameContext{
		View: &camera.View{
			Position:  mgl32.Vec3{0, 0, 0},
			Direction: mgl32.Vec3{1, 0, 0},
			Up:        mgl32.Vec3{0, 0, 1},
			Distance:  0,
		},
		Device: dev,
	}, dev
}

func at(x float32) mgl32.Mat4 {
	return mgl32.Translate3D(x, 0, 0)
}

func TestOpaqueInstancesBatchIntoOneCall(t *testing.T) {
	fc, _ := frame()
	q := NewQueue(fc)
	m := &fakeMesh{}

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(m, mgl32.Ident4()))
	}
	q.FlushOpaque()
	q.FlushTransparent()

	require.Len(t, m.opaque, 1)
	assert.Len(t, m.opaque[0], 5)
	assert.Empty(t, m.drawn)
	assert.Equal(t, 1, m.classified, "classified once per frame")
}

func TestTransparentRecordPerEnqueue(t *testing.T) {
	fc, _ := frame()
	q := NewQueue(fc)
	m := &fakeMesh{transparent: true}

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(m, at(float32(i+1))))
	}
	recs := q.Records()
	require.Len(t, recs, 3)
	for i, r := range recs {
		assert.Equal(t, 0, r.Batch)
		assert.Equal(t, i, r.Instance)
		assert.InDelta(t, float32(i+1), r.Distance, 1e-5)
	}

	q.FlushOpaque()
	require.Len(t, m.opaque, 1, "transparent meshes still draw their opaque parts")
	assert.Len(t, m.opaque[0], 3)
}

func TestTransparentDrawsFarToNear(t *testing.T) {
	fc, _ := frame()
	q := NewQueue(fc)
	m := &fakeMesh{transparent: true}

	for _, d := range []float32{5, 1, 9} {
		require.NoError(t, q.Enqueue(m, at(d)))
	}
	q.FlushOpaque()
	q.FlushTransparent()

	var got []float32
	for _, w := range m.drawn {
		got = append(got, w.Col(3).X())
	}
	assert.Equal(t, []float32{9, 5, 1}, got)
}

func TestTransparentSortIsGlobalAndStable(t *testing.T) {
	fc, _ := frame()
	q := NewQueue(fc)
	var log []string
	a := &fakeMesh{name: "a", transparent: true, log: &log}
	b := &fakeMesh{name: "b", transparent: true, log: &log}
	c := &fakeMesh{name: "c", log: &log}

	require.NoError(t, q.Enqueue(a, at(2)))
	require.NoError(t, q.Enqueue(c, at(100)))
	require.NoError(t, q.Enqueue(b, at(7)))
	require.NoError(t, q.Enqueue(b, at(2)))
	require.NoError(t, q.Enqueue(a, at(7)))

	q.FlushOpaque()
	q.FlushTransparent()

	assert.Equal(t, []string{
		"opaque:a", "opaque:c", "opaque:b",
		"transparent:b", "transparent:a", // distance 7, submission order
		"transparent:a", "transparent:b", // distance 2, submission order
	}, log)
}

func TestDistanceUsesEye(t *testing.T) {
	fc, _ := frame()
	fc.View.Position = mgl32.Vec3{10, 0, 0}
	fc.View.Direction = mgl32.Vec3{0, 1, 0}
	fc.View.Distance = 4 // eye at (10, -4, 0)

	q := NewQueue(fc)
	require.NoError(t, q.Enqueue(&fakeMesh{transparent: true}, mgl32.Translate3D(10, 0, 3)))
	assert.InDelta(t, 5, q.Records()[0].Distance, 1e-5)
}

func TestStateMachine(t *testing.T) {
	fc, _ := frame()
	q := NewQueue(fc)
	m := &fakeMesh{}

	assert.Equal(t, Idle, q.State(m))
	require.NoError(t, q.Enqueue(m, mgl32.Ident4()))
	assert.Equal(t, Accumulating, q.State(m))

	q.FlushOpaque()
	assert.Equal(t, Flushed, q.State(m))
	assert.ErrorIs(t, q.Enqueue(m, mgl32.Ident4()), ErrQueueFlushed)

	q.Release()
	assert.Equal(t, Idle, q.State(m))
	assert.Equal(t, Stats{}, q.Stats())
	assert.Nil(t, q.Instances(m))

	require.NoError(t, q.Enqueue(m, mgl32.Ident4()), "released queue accepts a new frame")
	assert.Equal(t, 2, m.classified, "classified again after release")
}

func TestStats(t *testing.T) {
	fc, _ := frame()
	q := NewQueue(fc)
	o := &fakeMesh{}
	tr := &fakeMesh{transparent: true}
	require.NoError(t, q.Enqueue(o, at(1)))
	require.NoError(t, q.Enqueue(o, at(2)))
	require.NoError(t, q.Enqueue(tr, at(3)))

	assert.Equal(t, Stats{Meshes: 2, Instances: 3, Transparent: 1}, q.Stats())
	assert.Len(t, q.Instances(o), 2)
}

func TestFlushSetsFrameState(t *testing.T) {
	fc, dev := frame()
	fc.View.ProjectionView = mgl32.Scale3D(2, 2, 2)
	q := NewQueue(fc)
	require.NoError(t, q.Enqueue(&fakeMesh{transparent: true}, at(1)))

	q.FlushOpaque()
	pv := dev.Filter(gputest.OpSetProjectionView)
	require.Len(t, pv, 1)
	assert.Equal(t, fc.View.ProjectionView, pv[0].Matrix)
	assert.Equal(t, 1, dev.Count(gputest.OpDisableBlend))

	q.FlushTransparent()
	assert.Equal(t, 2, dev.Count(gputest.OpDisableBlend), "blending is switched off after the pass")
}

func TestEmptyFrameIssuesNothing(t *testing.T) {
	fc, dev := frame()
	q := NewQueue(fc)
	q.FlushOpaque()
	q.FlushTransparent()
	q.Release()
	assert.Empty(t, dev.Calls)
}

func TestReset(t *testing.T) {
	fc, _ := frame()
	q := NewQueue(fc)
	require.NoError(t, q.Enqueue(&fakeMesh{}, at(1)))
	q.FlushOpaque()

	next, _ := frame()
	q.Reset(next)
	assert.Equal(t, Stats{}, q.Stats())
	require.NoError(t, q.Enqueue(&fakeMesh{}, at(1)))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "accumulating", Accumulating.String())
	assert.Equal(t, "flushed", Flushed.String())
}
