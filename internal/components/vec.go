package components

import "math"

// Vec3 is a position or direction in world space. Gameplay distance checks
// use the XZ plane; Y carries terrain height for the renderer.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// DistSqXZ returns the squared planar distance to o. "Nearest" comparisons
// always use this value; ties fall to iteration order.
func (v Vec3) DistSqXZ(o Vec3) float64 {
	dx := v.X - o.X
	dz := v.Z - o.Z
	return dx*dx + dz*dz
}

// LenXZ returns the planar length of v.
func (v Vec3) LenXZ() float64 {
	return math.Sqrt(v.X*v.X + v.Z*v.Z)
}

// NormXZ returns v scaled to unit planar length, with Y zeroed. The zero
// vector normalizes to itself.
func (v Vec3) NormXZ() Vec3 {
	l := v.LenXZ()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / l, Z: v.Z / l}
}
