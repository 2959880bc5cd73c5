package skeleton

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-mdx/internal/engine/camera"
	"github.com/Faultbox/midgard-mdx/internal/engine/model"
)

var (
	axisX = mgl32.Vec3{1, 0, 0}
	axisY = mgl32.Vec3{0, 1, 0}
	axisZ = mgl32.Vec3{0, 0, 1}
)

// billboard overrides the composed world rotation wr so the node faces the camera.
//
// A full billboard points local +X at the camera with local +Z along the view up
// vector. Axis-locked billboards only turn about their own world axis: LockX
// points local +Z at the camera, LockY and LockZ point local +X.
func billboard(flags model.NodeFlags, wr mgl32.Quat, view *camera.View) mgl32.Quat {
	toCamera := view.Direction.Mul(-1)

	switch {
	case flags.Has(model.Billboarded):
		x := toCamera.Normalize()
		z := view.Up.Sub(x.Mul(view.Up.Dot(x)))
		if z.Len() < 1e-6 {
			return wr
		}
		z = z.Normalize()
		y := z.Cross(x)
		return mgl32.Mat4ToQuat(mgl32.Mat4FromCols(
			x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl32.Vec4{0, 0, 0, 1},
		)).Normalize()
	case flags.Has(model.BillboardedLockX):
		return lockedBillboard(wr, axisX, axisZ, toCamera)
	case flags.Has(model.BillboardedLockY):
		return lockedBillboard(wr, axisY, axisX, toCamera)
	case flags.Has(model.BillboardedLockZ):
		return lockedBillboard(wr, axisZ, axisX, toCamera)
	}
	return wr
}

// lockedBillboard turns wr about its own world copy of axis until the world copy
// of facing points along target projected onto the plane perpendicular to axis.
func lockedBillboard(wr mgl32.Quat, axis, facing, target mgl32.Vec3) mgl32.Quat {
	a := wr.Rotate(axis).Normalize()
	t := target.Sub(a.Mul(target.Dot(a)))
	if t.Len() < 1e-6 {
		// Camera looks along the locked axis; any turn is as good as none.
		return wr
	}
	v := wr.Rotate(facing)
	v = v.Sub(a.Mul(v.Dot(a)))
	angle := math32.Atan2(v.Cross(t).Dot(a), v.Dot(t))
	return mgl32.QuatRotate(angle, a).Mul(wr).Normalize()
}
