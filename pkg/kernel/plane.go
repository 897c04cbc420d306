package kernel

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Plane is an infinite cutting plane given by a point on it and a unit
// normal. The normal points toward the Front side.
type Plane struct {
	Point  v3.Vec `json:"point"`
	Normal v3.Vec `json:"normal"`
}

// NewPlane returns a plane through point with the given normal, normalized.
func NewPlane(point, normal v3.Vec) Plane {
	return Plane{Point: point, Normal: normalize(normal)}
}

// SignedDistance returns the distance from p to the plane, positive on the
// Front side.
func (pl Plane) SignedDistance(p v3.Vec) float64 {
	return pl.Normal.Dot(p.Sub(pl.Point))
}

// Classify reports which side of the plane p lies on, within eps.
func (pl Plane) Classify(p v3.Vec, eps float64) Side {
	d := pl.SignedDistance(p)
	switch {
	case d > eps:
		return Front
	case d < -eps:
		return Back
	default:
		return On
	}
}

// Translate returns the plane moved by d.
func (pl Plane) Translate(d v3.Vec) Plane {
	return Plane{Point: pl.Point.Add(d), Normal: pl.Normal}
}

// Offset returns the parallel plane moved by dist along its normal.
func (pl Plane) Offset(dist float64) Plane {
	return pl.Translate(pl.Normal.MulScalar(dist))
}

// Flip returns the same plane with the opposite orientation.
func (pl Plane) Flip() Plane {
	return Plane{Point: pl.Point, Normal: pl.Normal.Neg()}
}

func (pl Plane) String() string {
	return fmt.Sprintf("plane(p=(%.4f %.4f %.4f) n=(%.4f %.4f %.4f))",
		pl.Point.X, pl.Point.Y, pl.Point.Z, pl.Normal.X, pl.Normal.Y, pl.Normal.Z)
}
