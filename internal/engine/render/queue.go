// Package render batches per-frame draw submissions of meshes into an instanced
// opaque pass and a back-to-front transparent pass.
//
// A Queue lives for one frame:
//
//	q := render.NewQueue(fc)
//	for each instance: q.Enqueue(mesh, world)
//	q.FlushOpaque()
//	q.FlushTransparent()
//	q.Release()
package render

import (
	"errors"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdx/internal/engine/camera"
	"github.com/Faultbox/midgard-mdx/internal/engine/gpu"
	"github.com/Faultbox/midgard-mdx/internal/logger"
)

// ErrQueueFlushed is returned by Enqueue once the frame has been flushed.
var ErrQueueFlushed = errors.New("render queue already flushed")

// FrameContext carries the per-frame state draws read.
type FrameContext struct {
	View   *camera.View
	Device gpu.Device
}

// Batchable is a mesh that can draw many instances of itself.
type Batchable interface {
	// Transparent reports whether any drawn part needs the sorted blended pass.
	Transparent() bool
	// RenderOpaque draws every opaque part once for all instances.
	RenderOpaque(fc *FrameContext, instances []mgl32.Mat4)
	// RenderTransparent draws the blended parts of one instance.
	RenderTransparent(fc *FrameContext, world mgl32.Mat4)
}

// State is the per-mesh lifecycle within a frame.
type State int

const (
	Idle State = iota
	Accumulating
	Flushed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	case Flushed:
		return "flushed"
	default:
		return "unknown"
	}
}

// TransparentRecord is one deferred blended draw.
type TransparentRecord struct {
	Batch    int // registration index of the mesh
	Instance int // index into that mesh's instances
	Distance float32
}

// Stats summarizes one frame.
type Stats struct {
	Meshes      int
	Instances   int
	Transparent int
}

type batch struct {
	mesh        Batchable
	instances   []mgl32.Mat4
	transparent bool
}

// Queue collects one frame of submissions.
type Queue struct {
	fc      *FrameContext
	batches []batch
	index   map[Batchable]int
	records []TransparentRecord
	flushed bool
}

// NewQueue creates an empty queue for one frame. fc.View must be set before
// the first Enqueue.
func NewQueue(fc *FrameContext) *Queue {
	return &Queue{
		fc:    fc,
		index: make(map[Batchable]int),
	}
}

// Enqueue submits one instance of b drawn with world. The first submission of a
// mesh registers it and fixes its opaque/transparent classification for the frame.
func (q *Queue) Enqueue(b Batchable, world mgl32.Mat4) error {
	if q.flushed {
		return ErrQueueFlushed
	}

	i, ok := q.index[b]
	if !ok {
		i = len(q.batches)
		q.index[b] = i
		q.batches = append(q.batches, batch{mesh: b, transparent: b.Transparent()})
	}
	bt := &q.batches[i]
	bt.instances = append(bt.instances, world)

	if bt.transparent {
		q.records = append(q.records, TransparentRecord{
			Batch:    i,
			Instance: len(bt.instances) - 1,
			Distance: q.fc.View.Eye().Sub(world.Col(3).Vec3()).Len(),
		})
	}
	return nil
}

// State reports where b is in the frame lifecycle.
func (q *Queue) State(b Batchable) State {
	if _, ok := q.index[b]; !ok {
		return Idle
	}
	if q.flushed {
		return Flushed
	}
	return Accumulating
}

// Instances returns the instances submitted for b so far.
func (q *Queue) Instances(b Batchable) []mgl32.Mat4 {
	i, ok := q.index[b]
	if !ok {
		return nil
	}
	return q.batches[i].instances
}

// FlushOpaque issues the opaque pass, one RenderOpaque per mesh in
// registration order. No further submissions are accepted afterwards.
func (q *Queue) FlushOpaque() {
	q.flushed = true
	if len(q.batches) == 0 {
		return
	}

	dev := q.fc.Device
	dev.DisableBlend()
	dev.SetProjectionView(q.fc.View.ProjectionView)
	for i := range q.batches {
		b := &q.batches[i]
		b.mesh.RenderOpaque(q.fc, b.instances)
	}
}

// FlushTransparent sorts the blended records far to near and draws them.
// Records at equal distance keep submission order.
func (q *Queue) FlushTransparent() {
	q.flushed = true
	if len(q.records) == 0 {
		return
	}

	q.sortRecords()
	for _, r := range q.records {
		b := &q.batches[r.Batch]
		b.mesh.RenderTransparent(q.fc, b.instances[r.Instance])
	}
	q.fc.Device.DisableBlend()
}

func (q *Queue) sortRecords() {
	sort.SliceStable(q.records, func(i, j int) bool {
		return q.records[i].Distance > q.records[j].Distance
	})
}

// Records returns the transparent records in their current order.
func (q *Queue) Records() []TransparentRecord {
	return append([]TransparentRecord(nil), q.records...)
}

// Stats returns counts for the frame so far.
func (q *Queue) Stats() Stats {
	s := Stats{Meshes: len(q.batches), Transparent: len(q.records)}
	for i := range q.batches {
		s.Instances += len(q.batches[i].instances)
	}
	return s
}

// Release drops all submissions, returning every mesh to Idle. The queue may be
// reused for another frame afterwards.
func (q *Queue) Release() {
	if s := q.Stats(); s.Meshes > 0 {
		logger.Log.Debug("frame released",
			zap.Int("meshes", s.Meshes),
			zap.Int("instances", s.Instances),
			zap.Int("transparent", s.Transparent))
	}
	q.batches = q.batches[:0]
	q.records = q.records[:0]
	clear(q.index)
	q.flushed = false
}

// Reset releases the queue and points it at a new frame.
func (q *Queue) Reset(fc *FrameContext) {
	q.Release()
	q.fc = fc
}
