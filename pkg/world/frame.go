package world

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/zap"

	"github.com/fdoganis/clawz/pkg/gesture"
	"github.com/fdoganis/clawz/pkg/shards"
)

// Contact is one touch-sphere sample from the input collaborator.
type Contact struct {
	Point  v3.Vec
	Normal v3.Vec
}

// Input is everything the input collaborator reports for one frame.
type Input struct {
	BeginCut  bool
	Contacts  []Contact
	EndCut    bool
	Reference v3.Vec
}

// FrameReport is what one frame did, for presentation and scripting.
type FrameReport struct {
	Time    float64
	Spawned []int
	// Touched counts the contacts that hit a source.
	Touched int
	// Cut is set when a gesture completed this frame.
	Cut *gesture.Cut
	// Set is the shard set created this frame, if any.
	Set *shards.Set
	// GestureErr explains why a completed gesture produced no set.
	GestureErr error
	AllSettled bool
	Closest    int
}

// Frame runs one frame in the fixed order: sources move and respawn, contacts
// are tested, a completed gesture is sliced, then physics advances. A shard
// created in this frame is integrated exactly once in it.
func (w *World) Frame(dt float64, in Input) FrameReport {
	w.clock += dt
	rep := FrameReport{Time: w.clock}

	w.animate(dt)
	rep.Spawned = w.respawn(dt)

	if in.BeginCut {
		w.BeginCut()
	}
	for _, c := range in.Contacts {
		if w.Touch(c.Point, c.Normal) {
			rep.Touched++
		}
	}

	if in.EndCut {
		target := w.target
		cut, err := w.EndCut(in.Reference)
		switch {
		case err != nil:
			rep.GestureErr = err
		default:
			rep.Cut = cut
			rep.Set, rep.GestureErr = w.SliceRequest(target, cut)
			if rep.GestureErr != nil {
				w.log.Debug("slice skipped", zap.Int("source", target), zap.Error(rep.GestureErr))
			}
		}
	}

	rep.AllSettled = w.Tick(dt)
	rep.Closest = w.Closest()
	return rep
}
