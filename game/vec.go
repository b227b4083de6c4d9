package game

import (
	"math"

	"github.com/MS-707/3DGame/internal/proto"
)

func distanceSq(a, b proto.Vector3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}

// normalize returns a unit-length copy of v and reports whether v had any
// magnitude to begin with.
func normalize(v proto.Vector3) (proto.Vector3, bool) {
	length := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if length < 1e-9 {
		return proto.Vector3{}, false
	}
	return proto.Vector3{X: v.X / length, Y: v.Y / length, Z: v.Z / length}, true
}

func scaled(v proto.Vector3, f float64) proto.Vector3 {
	return proto.Vector3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

func added(a, b proto.Vector3) proto.Vector3 {
	return proto.Vector3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
