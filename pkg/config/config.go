// Package config reads clawz tuning from gcfg INI files. Every value has a
// default, so a file only needs the keys it changes.
package config

import (
	"errors"
	"fmt"

	"gopkg.in/gcfg.v1"

	"github.com/fdoganis/clawz/pkg/physics"
	"github.com/fdoganis/clawz/pkg/slice"
)

// ExampleFile documents every key with its default value.
const ExampleFile = `[Physics]
# Acceleration along y in m/s^2. Negative is down.
Gravity = -9.81
# Height of the ground plane shards settle on.
GroundY = 0
# Forward (+z) drift of airborne shards in m/s.
ForwardSpeed = 1
# Factor applied to horizontal and angular velocity on landing.
Damping = 0.7

[Slicer]
# Distance within which a vertex counts as on a cutting plane.
Epsilon = 1e-7
# Fragments whose bounding-box diagonal is below this are slivers.
MinExtent = 0.0025
# Fragments whose volume is below this are slivers. 0 disables the check.
MinVolume = 0

[Cut]
# Width of the cube the plane spacing is derived from (spacing = UnitSize/4).
UnitSize = 0.25
# Radius of the touch sphere used for contact detection.
TouchRadius = 0.01

[Impulse]
VelocityScale = 100
AngularScale = 100
# Cut length is capped at MaxCutFactor * UnitSize.
MaxCutFactor = 2

[World]
Slots = 20
CubeSize = 0.25
CubeMass = 0.125
ConveyorSpeed = 1
MaxZ = 1.5
SpawnInterval = 0.25
Seed = 1
`

// PhysicsConfig mirrors physics.Params.
type PhysicsConfig struct {
	Gravity      float64
	GroundY      float64
	ForwardSpeed float64
	Damping      float64
}

// SlicerConfig mirrors the slice.Slicer tolerances.
type SlicerConfig struct {
	Epsilon   float64
	MinExtent float64
	MinVolume float64
}

// CutConfig controls gesture interpretation.
type CutConfig struct {
	UnitSize    float64
	TouchRadius float64
}

// ImpulseConfig mirrors physics.Impulse.
type ImpulseConfig struct {
	VelocityScale float64
	AngularScale  float64
	MaxCutFactor  float64
}

// WorldConfig controls the source pool and conveyor.
type WorldConfig struct {
	Slots         int
	CubeSize      float64
	CubeMass      float64
	ConveyorSpeed float64
	MaxZ          float64
	SpawnInterval float64
	Seed          int64
}

// Config is the full configuration file.
type Config struct {
	Physics PhysicsConfig
	Slicer  SlicerConfig
	Cut     CutConfig
	Impulse ImpulseConfig
	World   WorldConfig
}

// Default returns the built-in configuration, identical to ExampleFile.
func Default() *Config {
	p := physics.DefaultParams()
	im := physics.DefaultImpulse()
	return &Config{
		Physics: PhysicsConfig{
			Gravity:      p.Gravity,
			GroundY:      p.GroundY,
			ForwardSpeed: p.ForwardSpeed,
			Damping:      p.Damping,
		},
		Slicer: SlicerConfig{
			Epsilon:   slice.DefaultEpsilon,
			MinExtent: slice.DefaultMinExtent,
		},
		Cut: CutConfig{
			UnitSize:    0.25,
			TouchRadius: 0.01,
		},
		Impulse: ImpulseConfig{
			VelocityScale: im.VelocityScale,
			AngularScale:  im.AngularScale,
			MaxCutFactor:  im.MaxCutFactor,
		},
		World: WorldConfig{
			Slots:         20,
			CubeSize:      0.25,
			CubeMass:      0.125,
			ConveyorSpeed: 1,
			MaxZ:          1.5,
			SpawnInterval: 0.25,
			Seed:          1,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	c := Default()
	if err := gcfg.ReadFileInto(c, path); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Parse reads INI text over the defaults and validates the result.
func Parse(text string) (*Config, error) {
	c := Default()
	if err := gcfg.ReadStringInto(c, text); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid value")

// Validate rejects non-physical values.
func (c *Config) Validate() error {
	checks := []struct {
		ok   bool
		what string
		val  any
	}{
		{c.Physics.Gravity < 0, "Physics.Gravity must be negative", c.Physics.Gravity},
		{c.Physics.Damping >= 0 && c.Physics.Damping <= 1, "Physics.Damping must be in [0, 1]", c.Physics.Damping},
		{c.Slicer.Epsilon > 0, "Slicer.Epsilon must be positive", c.Slicer.Epsilon},
		{c.Slicer.MinExtent >= 0, "Slicer.MinExtent must not be negative", c.Slicer.MinExtent},
		{c.Slicer.MinVolume >= 0, "Slicer.MinVolume must not be negative", c.Slicer.MinVolume},
		{c.Cut.UnitSize > 0, "Cut.UnitSize must be positive", c.Cut.UnitSize},
		{c.Cut.TouchRadius >= 0, "Cut.TouchRadius must not be negative", c.Cut.TouchRadius},
		{c.Impulse.MaxCutFactor > 0, "Impulse.MaxCutFactor must be positive", c.Impulse.MaxCutFactor},
		{c.World.Slots > 0, "World.Slots must be positive", c.World.Slots},
		{c.World.CubeSize > 0, "World.CubeSize must be positive", c.World.CubeSize},
		{c.World.CubeMass > 0, "World.CubeMass must be positive", c.World.CubeMass},
		{c.World.MaxZ > 0, "World.MaxZ must be positive", c.World.MaxZ},
		{c.World.SpawnInterval > 0, "World.SpawnInterval must be positive", c.World.SpawnInterval},
	}
	for _, ch := range checks {
		if !ch.ok {
			return fmt.Errorf("%w: %s, got %v", ErrInvalid, ch.what, ch.val)
		}
	}
	return nil
}

// Params returns the physics section as integrator parameters.
func (c *Config) Params() physics.Params {
	return physics.Params{
		Gravity:      c.Physics.Gravity,
		GroundY:      c.Physics.GroundY,
		ForwardSpeed: c.Physics.ForwardSpeed,
		Damping:      c.Physics.Damping,
	}
}

// ImpulsePolicy returns the impulse section as a launch policy.
func (c *Config) ImpulsePolicy() physics.Impulse {
	return physics.Impulse{
		VelocityScale: c.Impulse.VelocityScale,
		AngularScale:  c.Impulse.AngularScale,
		MaxCutFactor:  c.Impulse.MaxCutFactor,
	}
}

// NewSlicer returns a slicer with the configured tolerances.
func (c *Config) NewSlicer() *slice.Slicer {
	return &slice.Slicer{
		Epsilon:   c.Slicer.Epsilon,
		MinExtent: c.Slicer.MinExtent,
		MinVolume: c.Slicer.MinVolume,
	}
}
