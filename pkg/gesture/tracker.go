package gesture

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/fdoganis/clawz/pkg/kernel"
)

// Cut is a completed gesture together with the batch derived from it.
type Cut struct {
	Batch CutBatch
	// Base is the stroke plane the batch is offset from.
	Base          kernel.Plane
	Start         v3.Vec
	End           v3.Vec
	SurfaceNormal v3.Vec
	Normal        v3.Vec
	Length        float64
	Duration      float64
	Samples       int
}

// Direction returns the unit stroke direction, or the zero vector for a
// zero-length stroke.
func (c *Cut) Direction() v3.Vec {
	return kernel.Normalize(c.End.Sub(c.Start))
}

// Tracker accumulates contact samples between BeginCut and EndCut. It is not
// safe for concurrent use; the frame driver owns it.
type Tracker struct {
	active  bool
	samples int

	start, end    v3.Vec
	surfaceNormal v3.Vec
	t0, t1        float64
}

// BeginCut discards any gesture in progress and starts a new one.
func (tr *Tracker) BeginCut() {
	*tr = Tracker{active: true}
}

// Active reports whether a gesture is in progress.
func (tr *Tracker) Active() bool {
	return tr.active
}

// Samples returns the number of contacts recorded so far.
func (tr *Tracker) Samples() int {
	return tr.samples
}

// Sample records a contact at time t (seconds). The first sample fixes the
// start point and surface normal; the latest one is the end point. Samples
// outside a gesture are ignored and reported as false.
func (tr *Tracker) Sample(point, normal v3.Vec, t float64) bool {
	if !tr.active {
		return false
	}
	if tr.samples == 0 {
		tr.start = point
		tr.surfaceNormal = normal
		tr.t0 = t
	}
	tr.end = point
	tr.t1 = t
	tr.samples++
	return true
}

// EndCut finishes the gesture and builds its cut batch. The tracker is idle
// afterwards whatever the outcome.
func (tr *Tracker) EndCut(reference v3.Vec, unitSize float64) (*Cut, error) {
	defer func() { tr.active = false }()
	if !tr.active || tr.samples == 0 {
		return nil, ErrEmptyGesture
	}
	base, err := basePlane(tr.start, tr.end, reference)
	if err != nil {
		return nil, err
	}
	batch, err := BuildCutBatch(tr.start, tr.end, reference, unitSize)
	if err != nil {
		return nil, err
	}
	return &Cut{
		Batch:         batch,
		Base:          base,
		Start:         tr.start,
		End:           tr.end,
		SurfaceNormal: tr.surfaceNormal,
		Normal:        base.Normal,
		Length:        tr.end.Sub(tr.start).Length(),
		Duration:      tr.t1 - tr.t0,
		Samples:       tr.samples,
	}, nil
}
