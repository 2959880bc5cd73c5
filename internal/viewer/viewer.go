// Package viewer places model instances in a scene and drives the per-frame
// pipeline: pose, resolve, enqueue, opaque flush, transparent flush, release.
package viewer

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdx/internal/assets"
	"github.com/Faultbox/midgard-mdx/internal/config"
	"github.com/Faultbox/midgard-mdx/internal/engine/camera"
	"github.com/Faultbox/midgard-mdx/internal/engine/gpu"
	"github.com/Faultbox/midgard-mdx/internal/engine/mesh"
	"github.com/Faultbox/midgard-mdx/internal/engine/model"
	"github.com/Faultbox/midgard-mdx/internal/engine/picking"
	"github.com/Faultbox/midgard-mdx/internal/engine/render"
	"github.com/Faultbox/midgard-mdx/internal/engine/texture"
	"github.com/Faultbox/midgard-mdx/internal/logger"
)

const (
	gridSpacing  = 200
	modelSpacing = 300
)

// Viewer owns the resources of one scene.
type Viewer struct {
	dev      gpu.Device
	files    *assets.Manager
	textures *texture.Cache
	loader   *mesh.Loader

	built     []*mesh.Mesh // meshes built in memory, not cached by the loader
	instances []*Instance
	camera    *camera.OrbitCamera
	queue     *render.Queue
	paused    bool

	log *zap.Logger
}

// TexturePolicy converts the render settings to a mesh texture policy.
func TexturePolicy(cfg config.RenderConfig) mesh.TexturePolicy {
	p := mesh.DefaultTexturePolicy()
	if cfg.Placeholder != "" {
		p.Placeholder = cfg.Placeholder
	}
	if len(cfg.TextureExtensions) > 0 {
		p.Extensions = cfg.TextureExtensions
	}
	if cfg.SkipSuffixes != nil {
		p.SkipSuffixes = cfg.SkipSuffixes
	}
	return p
}

// New loads the scene described by cfg. Models that fail to load are logged
// and left out; only a failure to build the demo is returned.
func New(ctx context.Context, cfg *config.Config, dev gpu.Device, parsers *model.Registry) (*Viewer, error) {
	v := &Viewer{
		dev:    dev,
		files:  assets.NewManager(),
		camera: camera.NewOrbitCamera(),
		log:    logger.Named("viewer"),
	}
	v.camera.FOV = cfg.Render.FOV
	v.camera.Near = cfg.Render.Near
	v.camera.Far = cfg.Render.Far

	// Roots added later take precedence, so data directories can override the demo textures.
	v.files.AddFS(demoFS())
	for _, root := range cfg.Data.Roots {
		if err := v.files.AddRoot(root); err != nil {
			v.log.Warn("skipping asset root", zap.String("root", root), zap.Error(err))
		}
	}

	v.textures = texture.NewCache(dev, v.files)
	v.loader = mesh.NewLoader(dev, v.files, parsers, v.textures, TexturePolicy(cfg.Render))
	v.queue = render.NewQueue(&render.FrameContext{Device: dev})

	if cfg.Render.DemoGrid > 0 {
		if err := v.buildDemo(cfg.Render.DemoGrid); err != nil {
			v.Close()
			return nil, err
		}
	}

	if cfg.Data.Preload && len(cfg.Data.Models) > 0 {
		if err := v.files.Preload(ctx, cfg.Data.Models); err != nil {
			v.log.Warn("preload incomplete", zap.Error(err))
		}
	}
	v.loadModels(cfg.Data.Models, cfg.Render.DemoGrid)

	v.FitCamera()
	v.log.Info("scene ready",
		zap.Int("instances", len(v.instances)),
		zap.Int("meshes", v.loader.Meshes()+len(v.built)),
		zap.Int("textures", v.textures.Len()))
	return v, nil
}

func (v *Viewer) buildDemo(n int) error {
	build := func(mdl *model.Model, name string) (*mesh.Mesh, error) {
		m, err := v.loader.Build(name, mdl)
		if err != nil {
			return nil, fmt.Errorf("demo: %w", err)
		}
		v.built = append(v.built, m)
		return m, nil
	}

	torch, err := build(TorchModel(), DemoTorch)
	if err != nil {
		return err
	}
	flame, err := build(FlameModel(), DemoFlame)
	if err != nil {
		return err
	}
	gem, err := build(GemModel(), DemoGem)
	if err != nil {
		return err
	}

	for i, base := range gridPlacements(n, gridSpacing) {
		in, err := NewInstance(torch, base)
		if err != nil {
			return err
		}
		if err := in.Attach(FlameNode, flame); err != nil {
			return err
		}
		if err := in.Attach(GemNode, gem); err != nil {
			return err
		}
		// Offset clocks so the grid does not animate in lockstep.
		in.Time = float32(i * 137 % sequenceTime)
		in.Advance(0)
		v.instances = append(v.instances, in)
	}
	return nil
}

// loadModels places each model in a row beside the demo grid.
func (v *Viewer) loadModels(paths []string, grid int) {
	y := float32(grid)*gridSpacing/2 + modelSpacing
	for i, p := range paths {
		m, err := v.loader.Load(p)
		if err != nil {
			v.log.Error("failed to load model", zap.String("path", p), zap.Error(err))
			continue
		}
		in, err := NewInstance(m, mgl32.Translate3D(float32(i)*modelSpacing, y, 0))
		if err != nil {
			v.log.Error("failed to place model", zap.String("path", p), zap.Error(err))
			continue
		}
		in.Advance(0)
		v.instances = append(v.instances, in)
	}
}

// Instances returns the placed instances.
func (v *Viewer) Instances() []*Instance { return v.instances }

// Camera returns the orbit camera.
func (v *Viewer) Camera() *camera.OrbitCamera { return v.camera }

// Textures returns the shared texture cache.
func (v *Viewer) Textures() *texture.Cache { return v.textures }

// TogglePause stops or restarts animation.
func (v *Viewer) TogglePause() { v.paused = !v.paused }

// FitCamera frames every instance.
func (v *Viewer) FitCamera() {
	if len(v.instances) == 0 {
		return
	}
	lo := mgl32.Vec3{1e30, 1e30, 1e30}
	hi := lo.Mul(-1)
	for _, in := range v.instances {
		e := in.Mesh.Extent()
		for _, c := range corners(e.Min, e.Max) {
			p := mgl32.TransformCoordinate(c, in.Base)
			for k := 0; k < 3; k++ {
				lo[k] = min(lo[k], p[k])
				hi[k] = max(hi[k], p[k])
			}
		}
	}
	v.camera.FitToBounds(lo, hi)
}

func corners(lo, hi mgl32.Vec3) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := range out {
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				out[i][k] = hi[k]
			} else {
				out[i][k] = lo[k]
			}
		}
	}
	return out
}

// Pick returns the nearest visible instance whose extent lies under the
// pixel (x, y) of a width×height viewport.
func (v *Viewer) Pick(x, y, width, height float32) (*Instance, bool) {
	view := v.camera.View(width / height)
	ray := picking.ScreenToRay(x, y, width, height, view.ProjectionView.Inv())

	var best *Instance
	nearest := float32(0)
	for _, in := range v.instances {
		if in.Hidden {
			continue
		}
		// Bases are rigid, so model space distances compare directly.
		local := ray.Transform(in.Base.Inv())
		e := in.Mesh.Extent()
		t, hit := local.IntersectAABB(e.Min, e.Max)
		if hit && (best == nil || t < nearest) {
			best, nearest = in, t
		}
	}
	return best, best != nil
}

// Update advances every instance's animation by dtMs milliseconds.
func (v *Viewer) Update(dtMs float32) {
	if v.paused {
		return
	}
	for _, in := range v.instances {
		in.Advance(dtMs)
	}
}

// Render draws one frame for the given viewport aspect ratio and returns the
// frame's submission counts.
func (v *Viewer) Render(aspect float32) render.Stats {
	view := v.camera.View(aspect)
	v.queue.Reset(&render.FrameContext{View: &view, Device: v.dev})

	for _, in := range v.instances {
		if err := in.Submit(v.queue, &view); err != nil {
			v.log.Error("submit failed", zap.String("mesh", in.Mesh.Name), zap.Error(err))
		}
	}

	v.queue.FlushOpaque()
	v.queue.FlushTransparent()
	stats := v.queue.Stats()
	v.queue.Release()
	return stats
}

// Close releases every mesh and texture.
func (v *Viewer) Close() {
	for _, m := range v.built {
		m.Release(v.dev)
	}
	v.built = nil
	v.instances = nil
	v.loader.Release()
	v.files.Close()
}
