// Package gesture turns cutting strokes into batches of parallel cutting
// planes.
package gesture

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/fdoganis/clawz/pkg/kernel"
)

// Offsets are the plane offsets of a batch in units of the plane spacing,
// applied in this order.
var Offsets = [4]float64{-1.5, -0.5, 0.5, 1.5}

// collinearTolerance is the smallest sine of the angle between the two
// gesture edges that still defines a plane.
const collinearTolerance = 1e-6

var (
	// ErrGeometryDegenerate is returned when the gesture points do not span a
	// plane: they coincide or are collinear.
	ErrGeometryDegenerate = errors.New("gesture: degenerate geometry")
	// ErrEmptyGesture is returned by EndCut when no contact was recorded.
	ErrEmptyGesture = errors.New("gesture: no contact recorded")
	// ErrInvalidUnitSize is returned for a non-positive unit size.
	ErrInvalidUnitSize = errors.New("gesture: unit size must be positive")
)

// CutBatch is an ordered set of parallel cutting planes. Order matters: it is
// the fan-out order of slicing.
type CutBatch []kernel.Plane

// BuildCutBatch derives the batch for a stroke from start to end. reference
// (the eye or wrist) only fixes the orientation of the stroke plane. The
// planes are offset from the plane through start, end and reference by
// Offsets x unitSize/4.
func BuildCutBatch(start, end, reference v3.Vec, unitSize float64) (CutBatch, error) {
	base, err := basePlane(start, end, reference)
	if err != nil {
		return nil, err
	}
	if !(unitSize > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUnitSize, unitSize)
	}
	spacing := unitSize / 4
	batch := make(CutBatch, len(Offsets))
	for i, k := range Offsets {
		batch[i] = base.Offset(k * spacing)
	}
	return batch, nil
}

// basePlane returns the plane through start with normal
// (end-start) x (reference-start).
func basePlane(start, end, reference v3.Vec) (kernel.Plane, error) {
	e1 := end.Sub(start)
	e2 := reference.Sub(start)
	l1, l2 := e1.Length(), e2.Length()
	if l1 == 0 || l2 == 0 {
		return kernel.Plane{}, fmt.Errorf("%w: coincident points", ErrGeometryDegenerate)
	}
	n := e1.Cross(e2)
	if sin := n.Length() / (l1 * l2); !(sin > collinearTolerance) || math.IsInf(sin, 0) {
		return kernel.Plane{}, fmt.Errorf("%w: collinear points", ErrGeometryDegenerate)
	}
	return kernel.NewPlane(start, n), nil
}
