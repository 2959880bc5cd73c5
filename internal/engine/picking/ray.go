// Package picking provides ray casting for selecting instances under the cursor.
package picking

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a half line with a unit direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// ScreenToRay converts pixel coordinates to a world-space ray.
// invProjectionView is the inverse of projection×view.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invProjectionView mgl32.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // window Y grows downwards

	near := unproject(mgl32.Vec4{ndcX, ndcY, -1, 1}, invProjectionView)
	far := unproject(mgl32.Vec4{ndcX, ndcY, 1, 1}, invProjectionView)

	dir := far.Sub(near)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: near, Direction: dir}
}

func unproject(p mgl32.Vec4, inv mgl32.Mat4) mgl32.Vec3 {
	w := inv.Mul4x1(p)
	if w[3] != 0 {
		return w.Vec3().Mul(1 / w[3])
	}
	return w.Vec3()
}

// Transform maps the ray through m. The direction is not renormalized, so
// distances along the result match distances along r when m is rigid.
func (r Ray) Transform(m mgl32.Mat4) Ray {
	return Ray{
		Origin:    mgl32.TransformCoordinate(r.Origin, m),
		Direction: mgl32.TransformNormal(r.Direction, m),
	}
}

// At returns the point at distance t.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectAABB tests the ray against the box [lo, hi] with the slab method.
// It returns the entry distance, or the exit distance if the ray starts inside.
func (r Ray) IntersectAABB(lo, hi mgl32.Vec3) (t float32, hit bool) {
	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)

	for k := 0; k < 3; k++ {
		if r.Direction[k] == 0 {
			if r.Origin[k] < lo[k] || r.Origin[k] > hi[k] {
				return 0, false
			}
			continue
		}
		t1 := (lo[k] - r.Origin[k]) / r.Direction[k]
		t2 := (hi[k] - r.Origin[k]) / r.Direction[k]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectPlaneZ intersects the ray with the horizontal plane at height z.
func (r Ray) IntersectPlaneZ(z float32) (p mgl32.Vec3, ok bool) {
	if math32.Abs(r.Direction[2]) < 1e-3 {
		return mgl32.Vec3{}, false
	}
	t := (z - r.Origin[2]) / r.Direction[2]
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return r.At(t), true
}
