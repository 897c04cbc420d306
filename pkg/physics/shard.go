// Package physics animates fragments after a slice: a ballistic integrator
// with a flat ground, no shard-shard contact and a terminal settled state.
package physics

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/fdoganis/clawz/pkg/kernel"
)

// State is the lifecycle state of a shard. Active shards move; settled ones
// are inert and never reactivate.
type State int

const (
	Active State = iota
	Settled
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// Params are the world constants the integrator uses.
type Params struct {
	Gravity      float64 // m/s^2 along y, negative is down
	GroundY      float64 // height of the ground plane
	ForwardSpeed float64 // +z drift while airborne, m/s
	Damping      float64 // horizontal and angular factor applied on landing
}

// DefaultParams returns earth gravity, ground at y=0, the conveyor drift and
// 0.7 landing damping.
func DefaultParams() Params {
	return Params{
		Gravity:      -9.81,
		GroundY:      0,
		ForwardSpeed: 1,
		Damping:      0.7,
	}
}

// Shard is one animated fragment. Its mesh is centred on its own origin;
// Position places that origin in the world.
type Shard struct {
	Mesh *kernel.ConvexMesh

	Position        v3.Vec
	Rotation        v3.Vec // Euler angles, radians, XYZ order
	Velocity        v3.Vec
	AngularVelocity v3.Vec
	Mass            float64

	state State
}

// NewShard returns an active shard at rest.
func NewShard(mesh *kernel.ConvexMesh, position v3.Vec, mass float64) *Shard {
	return &Shard{Mesh: mesh, Position: position, Mass: mass}
}

// State returns the shard's lifecycle state.
func (s *Shard) State() State { return s.state }

// Active reports whether the shard still moves.
func (s *Shard) Active() bool { return s.state == Active }

// Visible reports whether the shard is drawn. Settled shards are hidden.
func (s *Shard) Visible() bool { return s.state == Active }

// Step advances the shard by dt seconds. Settled shards do not move.
func (s *Shard) Step(dt float64, p Params) {
	if s.state != Active {
		return
	}

	s.Velocity.Y += p.Gravity * dt
	s.Position = s.Position.Add(s.Velocity.MulScalar(dt))
	if s.Position.Y > p.GroundY {
		s.Position.Z += p.ForwardSpeed * dt
	}
	s.Rotation = s.Rotation.Add(s.AngularVelocity.MulScalar(dt))

	if s.Position.Y < p.GroundY {
		s.Position.Y = p.GroundY
		s.Velocity.Y = 0
		s.AngularVelocity = s.AngularVelocity.MulScalar(p.Damping)
		s.Velocity.X *= p.Damping
		s.Velocity.Z *= p.Damping
		s.state = Settled
	}
}

// Transform returns the model matrix of the shard: translation times the XYZ
// Euler rotation.
func (s *Shard) Transform() mgl64.Mat4 {
	t := mgl64.Translate3D(s.Position.X, s.Position.Y, s.Position.Z)
	r := mgl64.AnglesToQuat(s.Rotation.X, s.Rotation.Y, s.Rotation.Z, mgl64.XYZ).Mat4()
	return t.Mul4(r)
}

// Apply maps a point of the shard's mesh into world space.
func (s *Shard) Apply(local v3.Vec) v3.Vec {
	w := mgl64.TransformCoordinate(mgl64.Vec3{local.X, local.Y, local.Z}, s.Transform())
	return v3.Vec{X: w[0], Y: w[1], Z: w[2]}
}
