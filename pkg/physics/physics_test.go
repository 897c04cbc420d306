package physics

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdoganis/clawz/pkg/gesture"
	"github.com/fdoganis/clawz/pkg/kernel"
)

func TestStepFreeFall(t *testing.T) {
	p := DefaultParams()
	s := NewShard(nil, v3.Vec{Y: 1.5}, 0.01)
	s.Step(0.1, p)

	assert.InDelta(t, -0.981, s.Velocity.Y, 1e-12)
	assert.InDelta(t, 1.5-0.0981, s.Position.Y, 1e-12)
	assert.InDelta(t, 0.1, s.Position.Z, 1e-12, "airborne shards drift forward")
	assert.True(t, s.Active())
}

func TestStepSpin(t *testing.T) {
	s := NewShard(nil, v3.Vec{Y: 10}, 0.01)
	s.AngularVelocity = v3.Vec{X: 1, Y: -2, Z: 0.5}
	s.Step(0.5, DefaultParams())
	assert.InDelta(t, 0.5, s.Rotation.X, 1e-12)
	assert.InDelta(t, -1.0, s.Rotation.Y, 1e-12)
	assert.InDelta(t, 0.25, s.Rotation.Z, 1e-12)
}

func TestStepLanding(t *testing.T) {
	p := DefaultParams()
	s := NewShard(nil, v3.Vec{Y: 0.01}, 0.01)
	s.Velocity = v3.Vec{X: 1, Y: -1, Z: 2}
	s.AngularVelocity = v3.Vec{X: 3}
	s.Step(0.1, p)

	require.Equal(t, Settled, s.State())
	assert.Equal(t, p.GroundY, s.Position.Y)
	assert.Zero(t, s.Velocity.Y)
	assert.InDelta(t, 0.7, s.Velocity.X, 1e-12)
	assert.InDelta(t, 1.4, s.Velocity.Z, 1e-12)
	assert.InDelta(t, 2.1, s.AngularVelocity.X, 1e-12)
	assert.False(t, s.Visible())
}

func TestSettlesFromOnePointFiveMetres(t *testing.T) {
	p := DefaultParams()
	s := NewShard(nil, v3.Vec{Y: 1.5}, 0.125/5)
	s.Velocity = v3.Vec{X: 0.4}

	const dt = 0.001
	elapsed := 0.0
	for s.Active() && elapsed < 2 {
		s.Step(dt, p)
		elapsed += dt
	}
	require.Equal(t, Settled, s.State())
	assert.InDelta(t, math.Sqrt(2*1.5/9.81), elapsed, 0.002)
	assert.Zero(t, s.Position.Y)
	assert.Zero(t, s.Velocity.Y)

	// Settled is terminal: further ticks change nothing.
	before := *s
	for i := 0; i < 100; i++ {
		s.Step(dt, p)
	}
	assert.Equal(t, before, *s)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "settled", Settled.String())
	assert.Equal(t, "unknown", State(7).String())
}

func TestTransform(t *testing.T) {
	s := NewShard(nil, v3.Vec{X: 1, Y: 2, Z: 3}, 1)
	got := s.Apply(v3.Vec{X: 0.5})
	assert.InDelta(t, 1.5, got.X, 1e-12)
	assert.InDelta(t, 2.0, got.Y, 1e-12)
	assert.InDelta(t, 3.0, got.Z, 1e-12)

	// A quarter turn about z carries +x onto +y.
	s.Rotation = v3.Vec{Z: math.Pi / 2}
	got = s.Apply(v3.Vec{X: 0.5})
	assert.InDelta(t, 1.0, got.X, 1e-9)
	assert.InDelta(t, 2.5, got.Y, 1e-9)
	assert.InDelta(t, 3.0, got.Z, 1e-9)

	m := s.Transform()
	assert.InDelta(t, 1.0, m.At(0, 3), 1e-12)
	assert.InDelta(t, 2.0, m.At(1, 3), 1e-12)
	assert.InDelta(t, 3.0, m.At(2, 3), 1e-12)
}

func TestMassFor(t *testing.T) {
	src := sdf.Box3{Min: v3.Vec{X: -0.125, Y: -0.125, Z: -0.125}, Max: v3.Vec{X: 0.125, Y: 0.125, Z: 0.125}}
	frag := sdf.Box3{Min: v3.Vec{X: -0.125, Y: -0.125, Z: -0.125}, Max: v3.Vec{X: -0.0625, Y: 0.125, Z: 0.125}}
	assert.InDelta(t, 0.125/4, MassFor(0.125, frag, src), 1e-12)
	assert.InDelta(t, 0.125, MassFor(0.125, src, src), 1e-12)
	assert.Zero(t, MassFor(0.125, frag, sdf.Box3{}))
}

func testCut(t *testing.T, start, end v3.Vec, surface v3.Vec) *gesture.Cut {
	t.Helper()
	var tr gesture.Tracker
	tr.BeginCut()
	tr.Sample(start, surface, 0)
	tr.Sample(end, surface, 0.1)
	cut, err := tr.EndCut(v3.Vec{Y: 1.6, Z: 2}, 0.25)
	require.NoError(t, err)
	return cut
}

func TestImpulseSeed(t *testing.T) {
	// A vertical stroke across the +z face of a cube at the origin of y=1.
	cut := testCut(t, v3.Vec{Y: 1.1, Z: 0.125}, v3.Vec{Y: 0.9, Z: 0.125}, v3.Vec{Z: 1})
	im := DefaultImpulse()

	left := NewShard(nil, v3.Vec{X: -0.05, Y: 1}, 0.025)
	right := NewShard(nil, v3.Vec{X: 0.05, Y: 1}, 0.025)
	im.Seed(left, cut, 0.25)
	im.Seed(right, cut, 0.25)

	speed := 0.2 * 0.025 * 100
	assert.InDelta(t, speed, left.Velocity.Length(), 1e-9)
	assert.InDelta(t, speed, right.Velocity.Length(), 1e-9)
	assert.Less(t, left.Velocity.Dot(right.Velocity), 0.0, "the halves separate")
	assert.InDelta(t, 0.0, left.Velocity.Cross(cut.Normal).Length(), 1e-12, "launch is along the plane normal")

	assert.Less(t, left.Velocity.X, 0.0)
	assert.Greater(t, right.Velocity.X, 0.0)

	// Spin does not depend on the side.
	assert.Equal(t, left.AngularVelocity, right.AngularVelocity)
	assert.InDelta(t, speed, left.AngularVelocity.Length(), 1e-9)
}

func TestImpulseCutLengthIsCapped(t *testing.T) {
	cut := testCut(t, v3.Vec{Y: 3, Z: 0.125}, v3.Vec{Y: -3, Z: 0.125}, v3.Vec{Z: 1})
	s := NewShard(nil, v3.Vec{X: 0.05, Y: 1}, 0.01)
	DefaultImpulse().Seed(s, cut, 0.25)
	assert.InDelta(t, 0.5*0.01*100, s.Velocity.Length(), 1e-9)
}

func TestImpulseDirectionSign(t *testing.T) {
	down := testCut(t, v3.Vec{Y: 1.1, Z: 0.125}, v3.Vec{Y: 0.9, Z: 0.125}, v3.Vec{Z: 1})
	up := testCut(t, v3.Vec{Y: 0.9, Z: 0.125}, v3.Vec{Y: 1.1, Z: 0.125}, v3.Vec{Z: 1})

	a := NewShard(nil, v3.Vec{X: 0.05, Y: 1}, 0.01)
	b := NewShard(nil, v3.Vec{X: 0.05, Y: 1}, 0.01)
	DefaultImpulse().Seed(a, down, 0.25)
	DefaultImpulse().Seed(b, up, 0.25)

	// Reversing the stroke flips the plane normal and the shard's side with
	// it, so the push keeps its world direction while the spin reverses.
	assert.InDelta(t, a.Velocity.X, b.Velocity.X, 1e-12)
	assert.Greater(t, a.Velocity.X, 0.0)
	assert.InDelta(t, -a.AngularVelocity.X, b.AngularVelocity.X, 1e-12)
	assert.Equal(t, kernel.Normalize(down.Normal), down.Normal)
}
