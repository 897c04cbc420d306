package physics

import (
	"math"

	"github.com/deadsy/sdfx/sdf"

	"github.com/fdoganis/clawz/pkg/gesture"
	"github.com/fdoganis/clawz/pkg/kernel"
)

// Impulse seeds the launch velocity and spin of new shards. It is a visual
// policy: longer cuts and heavier fragments fling harder.
type Impulse struct {
	VelocityScale float64
	AngularScale  float64
	// MaxCutFactor caps the cut length at this many unit sizes.
	MaxCutFactor float64
}

// DefaultImpulse returns the launch scales of the reference tuning.
func DefaultImpulse() Impulse {
	return Impulse{VelocityScale: 100, AngularScale: 100, MaxCutFactor: 2}
}

// MassFor apportions sourceMass to a fragment by bounding-box volume.
func MassFor(sourceMass float64, fragment, source sdf.Box3) float64 {
	sv := kernel.BoxVolume(source)
	if sv <= 0 {
		return 0
	}
	return sourceMass * kernel.BoxVolume(fragment) / sv
}

// Seed sets the velocity and angular velocity of s from cut. s.Position must
// already be the fragment centre in the same frame as the cut. Each fragment
// is pushed away from the stroke plane; the stroke direction relative to the
// surface picks the spin direction.
func (im Impulse) Seed(s *Shard, cut *gesture.Cut, unitSize float64) {
	cutScale := math.Min(cut.Length, im.MaxCutFactor*unitSize)

	sign := 1.0
	if cut.Direction().Cross(kernel.Normalize(cut.SurfaceNormal)).Z < 0 {
		sign = -1
	}
	side := 1.0
	if cut.Base.SignedDistance(s.Position) < 0 {
		side = -1
	}

	n := cut.Normal
	s.Velocity = n.MulScalar(side * cutScale * s.Mass * im.VelocityScale)
	s.AngularVelocity = n.MulScalar(-sign * cutScale * s.Mass * im.AngularScale)
}
