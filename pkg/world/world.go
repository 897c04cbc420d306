// Package world drives the slicing game: a pool of cube sources riding a
// conveyor, gesture contact against them, slicing into shard sets and the
// per-frame physics step. It is single-threaded; the frame driver owns it.
package world

import (
	"errors"
	"fmt"
	"math/rand"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/zap"

	"github.com/fdoganis/clawz/pkg/config"
	"github.com/fdoganis/clawz/pkg/gesture"
	"github.com/fdoganis/clawz/pkg/kernel"
	"github.com/fdoganis/clawz/pkg/kernel/sdfx"
	"github.com/fdoganis/clawz/pkg/physics"
	"github.com/fdoganis/clawz/pkg/shards"
	"github.com/fdoganis/clawz/pkg/slice"
)

var (
	// ErrNoSplit is returned when no plane of a cut crosses the source.
	ErrNoSplit = errors.New("world: cut does not split the source")
	// ErrUnknownSource is returned for a source id outside the pool.
	ErrUnknownSource = errors.New("world: unknown source")
	// ErrInactiveSource is returned when slicing a source that is not live.
	ErrInactiveSource = errors.New("world: source is not active")
	// ErrPoolFull is returned by Spawn when no slot can be reused yet.
	ErrPoolFull = errors.New("world: no free source slot")
)

// Source is one cube in the pool. Its mesh is centred on its own origin and
// never modified; slicing produces new meshes.
type Source struct {
	ID       int
	Mesh     *kernel.ConvexMesh
	Position v3.Vec
	Mass     float64
	Active   bool
	// Slices counts the slice events this slot has produced.
	Slices int
}

// World owns the source pool and the current shard set of every slot.
type World struct {
	cfg     *config.Config
	scene   shards.Scene
	log     *zap.Logger
	orch    *slice.Orchestrator
	params  physics.Params
	impulse physics.Impulse
	probe   *sdfx.Probe
	rng     *rand.Rand

	sources []*Source
	sets    []*shards.Set
	tracker gesture.Tracker
	target  int

	clock      float64
	sinceSpawn float64
}

// New builds a world from cfg. A nil cfg means config.Default(), a nil scene
// discards scene calls and a nil logger discards logs.
func New(cfg *config.Config, scene shards.Scene, logger *zap.Logger) (*World, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	if scene == nil {
		scene = shards.NopScene{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	size := v3.Vec{X: cfg.World.CubeSize, Y: cfg.World.CubeSize, Z: cfg.World.CubeSize}
	probe, err := sdfx.NewBoxProbe(size)
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}

	w := &World{
		cfg:     cfg,
		scene:   scene,
		log:     logger,
		orch:    slice.NewOrchestrator(cfg.NewSlicer()),
		params:  cfg.Params(),
		impulse: cfg.ImpulsePolicy(),
		probe:   probe,
		rng:     rand.New(rand.NewSource(cfg.World.Seed)),
		sources: make([]*Source, cfg.World.Slots),
		sets:    make([]*shards.Set, cfg.World.Slots),
		target:  -1,
	}
	cube := kernel.NewBox(size)
	for i := range w.sources {
		w.sources[i] = &Source{ID: i, Mesh: cube.Clone(), Mass: cfg.World.CubeMass}
		w.reset(w.sources[i])
	}
	return w, nil
}

// Config returns the configuration the world was built with.
func (w *World) Config() *config.Config { return w.cfg }

// Time returns the simulated time in seconds.
func (w *World) Time() float64 { return w.clock }

// Sources returns the whole pool, active or not, in slot order.
func (w *World) Sources() []*Source { return w.sources }

// Source returns the source in slot id.
func (w *World) Source(id int) (*Source, error) {
	if id < 0 || id >= len(w.sources) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSource, id)
	}
	return w.sources[id], nil
}

// Set returns the current shard set of slot id, or nil.
func (w *World) Set(id int) *shards.Set {
	if id < 0 || id >= len(w.sets) {
		return nil
	}
	return w.sets[id]
}

// Sets returns the current shard sets in slot order.
func (w *World) Sets() []*shards.Set {
	var out []*shards.Set
	for _, s := range w.sets {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// reset takes a source off the conveyor and gives it its next spawn
// position.
func (w *World) reset(s *Source) {
	s.Active = false
	s.Position = v3.Vec{
		X: (w.rng.Float64() - 0.5) * 2,
		Y: w.rng.Float64()*0.75 + 1,
		Z: -w.cfg.World.MaxZ,
	}
	if w.target == s.ID {
		w.target = -1
	}
}

// Spawn activates the first inactive slot whose shard set is absent or fully
// settled and returns its id.
func (w *World) Spawn() (int, error) {
	for i, s := range w.sources {
		if s.Active {
			continue
		}
		if set := w.sets[i]; set != nil && !set.AllSettled() {
			continue
		}
		s.Active = true
		w.log.Debug("source spawned", zap.Int("source", i),
			zap.Float64("x", s.Position.X), zap.Float64("y", s.Position.Y))
		return i, nil
	}
	return -1, ErrPoolFull
}

// Place activates source id at pos.
func (w *World) Place(id int, pos v3.Vec) error {
	s, err := w.Source(id)
	if err != nil {
		return err
	}
	s.Position = pos
	s.Active = true
	return nil
}

// Closest returns the active source nearest the viewer (largest z), or -1.
func (w *World) Closest() int {
	best := -1
	for i, s := range w.sources {
		if s.Active && (best < 0 || s.Position.Z > w.sources[best].Position.Z) {
			best = i
		}
	}
	return best
}

// animate moves active sources along the conveyor, recycling those that run
// past MaxZ.
func (w *World) animate(dt float64) {
	for _, s := range w.sources {
		if !s.Active {
			continue
		}
		s.Position.Z += w.cfg.World.ConveyorSpeed * dt
		if s.Position.Z > w.cfg.World.MaxZ {
			w.reset(s)
		}
	}
}

// respawn spawns one source per elapsed SpawnInterval.
func (w *World) respawn(dt float64) []int {
	var spawned []int
	w.sinceSpawn += dt
	for w.sinceSpawn >= w.cfg.World.SpawnInterval {
		w.sinceSpawn -= w.cfg.World.SpawnInterval
		if id, err := w.Spawn(); err == nil {
			spawned = append(spawned, id)
		}
	}
	return spawned
}

// BeginCut starts a gesture and forgets the previous target.
func (w *World) BeginCut() {
	w.tracker.BeginCut()
	w.target = -1
}

// Cutting reports whether a gesture is in progress.
func (w *World) Cutting() bool { return w.tracker.Active() }

// Target returns the source the current or last gesture touched, or -1.
func (w *World) Target() int { return w.target }

// Touch tests the touch sphere at point against the sources and records a
// contact sample when it hits. The first source touched in a gesture becomes
// its target; later samples only count against that source.
func (w *World) Touch(point, normal v3.Vec) bool {
	if !w.tracker.Active() {
		return false
	}
	radius := w.cfg.Cut.TouchRadius
	if w.target >= 0 {
		s := w.sources[w.target]
		if !s.Active || !w.probe.Touches(point.Sub(s.Position), radius) {
			return false
		}
		return w.tracker.Sample(point, normal, w.clock)
	}
	for i, s := range w.sources {
		if s.Active && w.probe.Touches(point.Sub(s.Position), radius) {
			w.target = i
			return w.tracker.Sample(point, normal, w.clock)
		}
	}
	return false
}

// EndCut finishes the gesture. reference is the eye or wrist position that
// orients the stroke plane.
func (w *World) EndCut(reference v3.Vec) (*gesture.Cut, error) {
	cut, err := w.tracker.EndCut(reference, w.cfg.Cut.UnitSize)
	if err != nil {
		w.log.Debug("gesture ignored", zap.Error(err))
		return nil, err
	}
	return cut, nil
}

// SliceRequest cuts source id with the world-space batch of cut. The
// previous set of that slot is disposed before the new one is installed. The
// source is taken off the conveyor; a cut that splits nothing leaves
// everything untouched and returns ErrNoSplit.
func (w *World) SliceRequest(id int, cut *gesture.Cut) (*shards.Set, error) {
	src, err := w.Source(id)
	if err != nil {
		return nil, err
	}
	if !src.Active {
		return nil, fmt.Errorf("%w: %d", ErrInactiveSource, id)
	}

	local := make([]kernel.Plane, len(cut.Batch))
	for i, pl := range cut.Batch {
		local[i] = pl.Translate(src.Position.Neg())
	}
	res := w.orch.Apply(src.Mesh, local)
	if res.Splits == 0 {
		w.log.Debug("cut missed source", zap.Int("source", id))
		return nil, ErrNoSplit
	}

	if prev := w.sets[id]; prev != nil {
		prev.Dispose(w.scene)
		w.log.Debug("shard set disposed", zap.Int("source", id), zap.String("set", prev.ID.String()))
	}

	unit := w.cfg.Cut.UnitSize
	list := make([]*physics.Shard, 0, len(res.Fragments))
	for _, f := range res.Fragments {
		centre := f.Recenter()
		mass := physics.MassFor(src.Mass, f.Box, src.Mesh.Box)
		sh := physics.NewShard(f, src.Position.Add(centre), mass)
		w.impulse.Seed(sh, cut, unit)
		list = append(list, sh)
	}
	set := shards.New(w.scene, id, list)
	w.sets[id] = set
	src.Slices++
	w.reset(src)

	w.log.Info("source sliced",
		zap.Int("source", id),
		zap.String("set", set.ID.String()),
		zap.Int("fragments", len(list)),
		zap.Int("slivers", len(res.Slivers)),
		zap.Float64("cut_length", cut.Length),
	)
	return set, nil
}

// Tick advances every current shard set by dt and reports whether all of
// them have settled.
func (w *World) Tick(dt float64) bool {
	all := true
	for _, s := range w.sets {
		if s != nil && !s.Tick(dt, w.params) {
			all = false
		}
	}
	return all
}

// AllSettled reports whether every current shard set has settled.
func (w *World) AllSettled() bool {
	for _, s := range w.sets {
		if s != nil && !s.AllSettled() {
			return false
		}
	}
	return true
}

// Clear disposes the shard set of slot id, if any.
func (w *World) Clear(id int) error {
	if id < 0 || id >= len(w.sets) {
		return fmt.Errorf("%w: %d", ErrUnknownSource, id)
	}
	if s := w.sets[id]; s != nil {
		s.Dispose(w.scene)
		w.sets[id] = nil
		w.log.Debug("shard set cleared", zap.Int("source", id), zap.String("set", s.ID.String()))
	}
	return nil
}

// ClearAll disposes every current shard set.
func (w *World) ClearAll() {
	for i := range w.sets {
		_ = w.Clear(i)
	}
}
