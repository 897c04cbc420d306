// Package kernel defines the geometry types shared by the slicing and physics
// packages: closed convex triangle meshes, cutting planes, and the flat
// render buffers handed to the presentation layer.
package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultEpsilon is the distance tolerance used when classifying points
// against planes and welding coincident positions.
const DefaultEpsilon = 1e-9

// Side is the classification of a point relative to a plane.
type Side int

const (
	On    Side = iota // within epsilon of the plane
	Front             // positive signed distance
	Back              // negative signed distance
)

func (s Side) String() string {
	switch s {
	case On:
		return "on"
	case Front:
		return "front"
	case Back:
		return "back"
	default:
		return "unknown"
	}
}

// normalize returns v scaled to unit length, or the zero vector when v has
// no usable length.
func normalize(v v3.Vec) v3.Vec {
	l := v.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return v3.Vec{}
	}
	return v.DivScalar(l)
}

// Normalize is the exported form of normalize for callers outside the
// package that must not produce NaNs from zero vectors.
func Normalize(v v3.Vec) v3.Vec {
	return normalize(v)
}

// Perpendicular returns a unit vector orthogonal to n. n must be non-zero.
func Perpendicular(n v3.Vec) v3.Vec {
	// Cross with the axis least aligned with n for the best conditioning.
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	var axis v3.Vec
	switch {
	case ax <= ay && ax <= az:
		axis = v3.Vec{X: 1}
	case ay <= az:
		axis = v3.Vec{Y: 1}
	default:
		axis = v3.Vec{Z: 1}
	}
	return normalize(n.Cross(axis))
}
