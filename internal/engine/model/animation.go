package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Vec3Key is a translation or scaling keyframe.
type Vec3Key struct {
	Frame uint32
	Value mgl32.Vec3
}

// QuatKey is a rotation keyframe.
type QuatKey struct {
	Frame uint32
	Value mgl32.Quat
}

// Vec3Track is a keyframe track sorted by frame.
type Vec3Track []Vec3Key

// QuatTrack is a keyframe track sorted by frame.
type QuatTrack []QuatKey

// surrounding finds the keys around frame, assuming keys are sorted.
// prev == next when frame is before the first or at/after the last key.
func surrounding(n int, frameAt func(int) uint32, frame float32) (prev, next int, t float32) {
	for i := 0; i < n; i++ {
		if float32(frameAt(i)) > frame {
			next = i
			break
		}
		prev = i
		next = i
	}
	if prev == next {
		return prev, next, 0
	}
	f0, f1 := frameAt(prev), frameAt(next)
	if f1 != f0 {
		t = (frame - float32(f0)) / float32(f1-f0)
	}
	return prev, next, t
}

// SampleVec3 interpolates the track linearly at frame. An empty track yields def.
func SampleVec3(keys Vec3Track, frame float32, def mgl32.Vec3) mgl32.Vec3 {
	if len(keys) == 0 {
		return def
	}
	if len(keys) == 1 {
		return keys[0].Value
	}
	prev, next, t := surrounding(len(keys), func(i int) uint32 { return keys[i].Frame }, frame)
	if prev == next {
		return keys[prev].Value
	}
	a, b := keys[prev].Value, keys[next].Value
	return a.Add(b.Sub(a).Mul(t))
}

// SampleQuat slerps the track at frame. An empty track yields the identity.
func SampleQuat(keys QuatTrack, frame float32) mgl32.Quat {
	if len(keys) == 0 {
		return mgl32.QuatIdent()
	}
	if len(keys) == 1 {
		return keys[0].Value
	}
	prev, next, t := surrounding(len(keys), func(i int) uint32 { return keys[i].Frame }, frame)
	if prev == next {
		return keys[prev].Value
	}
	return mgl32.QuatSlerp(keys[prev].Value, keys[next].Value, t)
}

// Animated reports whether any node carries more than one key on a track.
// Single-key tracks are static poses.
func (m *Model) Animated() bool {
	for i := range m.Nodes {
		n := &m.Nodes[i]
		if len(n.Translation) > 1 || len(n.Rotation) > 1 || len(n.Scaling) > 1 {
			return true
		}
	}
	return false
}
