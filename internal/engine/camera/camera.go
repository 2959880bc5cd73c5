// Package camera provides the orbit camera of the model viewer and the per-frame
// view snapshot the rendering core consumes.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// WorldUp is the world up axis. Models are Z-up.
var WorldUp = mgl32.Vec3{0, 0, 1}

// View is the camera state for one frame.
type View struct {
	Position       mgl32.Vec3 // focus point the camera orbits
	Direction      mgl32.Vec3 // unit vector from the eye towards Position
	Up             mgl32.Vec3 // unit camera up, orthogonal to Direction
	Distance       float32
	Projection     mgl32.Mat4
	ViewMatrix     mgl32.Mat4
	ProjectionView mgl32.Mat4
}

// Eye returns the camera location, used for transparency distances.
func (v *View) Eye() mgl32.Vec3 {
	return v.Position.Sub(v.Direction.Mul(v.Distance))
}

// Right returns the unit camera right vector.
func (v *View) Right() mgl32.Vec3 {
	return v.Direction.Cross(v.Up)
}

// SameBasis reports whether two views orient billboards identically.
func (v *View) SameBasis(o *View) bool {
	return v.Direction == o.Direction && v.Up == o.Up
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // elevation above the XY plane, radians
	Yaw      float32 // around Z, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	// Projection
	FOV  float32 // vertical, degrees
	Near float32
	Far  float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        800.0,
		Pitch:           0.6,
		Yaw:             -math32.Pi / 2,
		MinDistance:     20.0,
		MaxDistance:     20000.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             70,
		Near:            1,
		Far:             50000,
	}
}

// Direction returns the unit vector from the eye to the center.
func (c *OrbitCamera) Direction() mgl32.Vec3 {
	cp := math32.Cos(c.Pitch)
	return mgl32.Vec3{
		-cp * math32.Cos(c.Yaw),
		-cp * math32.Sin(c.Yaw),
		-math32.Sin(c.Pitch),
	}
}

// Position returns the eye position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	return c.Center.Sub(c.Direction().Mul(c.Distance))
}

// View builds the frame snapshot for the given viewport aspect ratio.
func (c *OrbitCamera) View(aspect float32) View {
	dir := c.Direction()
	right := dir.Cross(WorldUp)
	if right.Len() < 1e-6 {
		// Looking straight along Z; any horizontal right works.
		right = mgl32.Vec3{math32.Sin(c.Yaw), -math32.Cos(c.Yaw), 0}
	}
	right = right.Normalize()
	up := right.Cross(dir).Normalize()

	eye := c.Center.Sub(dir.Mul(c.Distance))
	view := mgl32.LookAtV(eye, c.Center, up)
	proj := mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)

	return View{
		Position:       c.Center,
		Direction:      dir,
		Up:             up,
		Distance:       c.Distance,
		Projection:     proj,
		ViewMatrix:     view,
		ProjectionView: proj.Mul4(view),
	}
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = mgl32.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point on the ground plane.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	fwd := mgl32.Vec3{-math32.Cos(c.Yaw), -math32.Sin(c.Yaw), 0}
	side := mgl32.Vec3{math32.Sin(c.Yaw), -math32.Cos(c.Yaw), 0}

	c.Center = c.Center.
		Add(fwd.Mul(forward * speed)).
		Add(side.Mul(right * speed)).
		Add(WorldUp.Mul(up * speed))
}

// FitToBounds centers the camera on a box and backs off far enough to see it.
func (c *OrbitCamera) FitToBounds(min, max mgl32.Vec3) {
	c.Center = min.Add(max).Mul(0.5)
	size := max.Sub(min).Len()

	half := mgl32.DegToRad(c.FOV) / 2
	c.Distance = mgl32.Clamp(size/2/math32.Tan(half)*1.2, c.MinDistance, c.MaxDistance)
}
