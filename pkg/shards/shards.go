// Package shards owns the fragments of one slice event and their lifetime in
// the render scene.
package shards

import (
	"github.com/google/uuid"

	"github.com/fdoganis/clawz/pkg/kernel"
	"github.com/fdoganis/clawz/pkg/physics"
)

// Scene is the render collaborator. The core never draws; it only tells the
// scene which meshes exist.
type Scene interface {
	AddToScene(m *kernel.ConvexMesh)
	RemoveFromScene(m *kernel.ConvexMesh)
	DisposeResources(m *kernel.ConvexMesh)
}

// NopScene is a Scene that does nothing.
type NopScene struct{}

func (NopScene) AddToScene(*kernel.ConvexMesh)       {}
func (NopScene) RemoveFromScene(*kernel.ConvexMesh)  {}
func (NopScene) DisposeResources(*kernel.ConvexMesh) {}

// Set is the complete fragment collection of one slice event. It owns the
// meshes of its shards from creation until Dispose.
type Set struct {
	ID       uuid.UUID
	SourceID int
	Shards   []*physics.Shard

	disposed bool
}

// New creates a set for the given shards and adds their meshes to scene.
func New(scene Scene, sourceID int, shards []*physics.Shard) *Set {
	s := &Set{ID: uuid.New(), SourceID: sourceID, Shards: shards}
	for _, sh := range shards {
		scene.AddToScene(sh.Mesh)
	}
	return s
}

// Len returns the number of shards.
func (s *Set) Len() int { return len(s.Shards) }

// Tick advances every shard by dt and reports whether all have settled.
func (s *Set) Tick(dt float64, p physics.Params) bool {
	kernel.Assert(!s.disposed, "shards: tick on disposed set %s", s.ID)
	for _, sh := range s.Shards {
		sh.Step(dt, p)
	}
	return s.AllSettled()
}

// AllSettled reports whether every shard has settled. An empty set is
// settled.
func (s *Set) AllSettled() bool {
	for _, sh := range s.Shards {
		if sh.Active() {
			return false
		}
	}
	return true
}

// Active returns the number of shards still moving.
func (s *Set) Active() int {
	n := 0
	for _, sh := range s.Shards {
		if sh.Active() {
			n++
		}
	}
	return n
}

// Dispose removes every mesh from scene and then releases it. Disposing a set
// twice is a programmer error.
func (s *Set) Dispose(scene Scene) {
	kernel.Assert(!s.disposed, "shards: set %s disposed twice", s.ID)
	if s.disposed {
		return
	}
	for _, sh := range s.Shards {
		scene.RemoveFromScene(sh.Mesh)
	}
	for _, sh := range s.Shards {
		scene.DisposeResources(sh.Mesh)
		sh.Mesh = nil
	}
	s.disposed = true
}

// Disposed reports whether Dispose has run.
func (s *Set) Disposed() bool { return s.disposed }
