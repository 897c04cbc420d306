package slice

import (
	"github.com/fdoganis/clawz/pkg/kernel"
)

// Result is the outcome of applying a batch of planes to one source mesh.
type Result struct {
	// Fragments is the final generation, in deterministic order.
	Fragments []*kernel.ConvexMesh
	// Slivers holds every piece discarded as too small along the way.
	Slivers []*kernel.ConvexMesh
	// Splits counts the Slice calls that produced a Split outcome.
	Splits int
}

// Volume returns the enclosed volume of the fragments and slivers together.
func (r Result) Volume() float64 {
	var v float64
	for _, m := range r.Fragments {
		v += m.Volume()
	}
	for _, m := range r.Slivers {
		v += m.Volume()
	}
	return v
}

// Orchestrator fans a mesh out through an ordered batch of planes.
type Orchestrator struct {
	Slicer *Slicer
}

// NewOrchestrator returns an Orchestrator using s, or a default Slicer when s
// is nil.
func NewOrchestrator(s *Slicer) *Orchestrator {
	if s == nil {
		s = New()
	}
	return &Orchestrator{Slicer: s}
}

// Apply cuts source by every plane in order. Each plane is applied to every
// mesh of the current generation; unchanged meshes pass through as the same
// pointer and split meshes are replaced by their pieces, front first.
func (o *Orchestrator) Apply(source *kernel.ConvexMesh, planes []kernel.Plane) Result {
	s := o.Slicer
	if s == nil {
		s = New()
	}

	gen := []*kernel.ConvexMesh{source}
	var res Result
	for _, pl := range planes {
		next := make([]*kernel.ConvexMesh, 0, 2*len(gen))
		for _, m := range gen {
			out := s.Slice(m, pl)
			if out.Kind == Split {
				res.Splits++
				res.Slivers = append(res.Slivers, out.Slivers...)
			}
			next = append(next, out.Pieces()...)
		}
		gen = next
	}
	kernel.Assert(len(planes) >= 31 || len(gen) <= 1<<len(planes),
		"slice: %d fragments from %d planes", len(gen), len(planes))

	res.Fragments = gen
	return res
}
