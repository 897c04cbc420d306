// Package slice splits convex meshes by planes. Slicer cuts one mesh by one
// plane; Orchestrator fans a mesh out through an ordered batch of planes.
// Nothing in this package is random or order-dependent on map iteration, so
// identical inputs always produce bit-identical fragments.
package slice

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/fdoganis/clawz/pkg/kernel"
)

const (
	// DefaultEpsilon is the plane classification tolerance in metres.
	DefaultEpsilon = 1e-7
	// DefaultMinExtent is the smallest bounding-box diagonal a fragment may
	// have before it is discarded as a sliver (1% of a 0.25 m cube).
	DefaultMinExtent = 0.0025
)

// Kind distinguishes the two slicing outcomes.
type Kind int

const (
	Unchanged Kind = iota // plane does not cross the mesh
	Split                 // mesh was cut in two
)

func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Split:
		return "split"
	default:
		return "unknown"
	}
}

// Outcome is the result of slicing one mesh by one plane.
//
// For Unchanged, Mesh is the input pointer, untouched. For Split, Front holds
// the piece on the side the plane normal points to and Back the other one;
// either is nil when that piece was discarded into Slivers.
type Outcome struct {
	Kind    Kind
	Mesh    *kernel.ConvexMesh
	Front   *kernel.ConvexMesh
	Back    *kernel.ConvexMesh
	Slivers []*kernel.ConvexMesh
}

// Pieces returns the non-sliver pieces of a split, front first.
func (o Outcome) Pieces() []*kernel.ConvexMesh {
	if o.Kind == Unchanged {
		return []*kernel.ConvexMesh{o.Mesh}
	}
	var out []*kernel.ConvexMesh
	if o.Front != nil {
		out = append(out, o.Front)
	}
	if o.Back != nil {
		out = append(out, o.Back)
	}
	return out
}

// Slicer cuts convex meshes by planes.
type Slicer struct {
	// Epsilon is the distance within which a vertex counts as on the plane.
	Epsilon float64
	// MinExtent discards pieces whose bounding-box diagonal is smaller.
	MinExtent float64
	// MinVolume discards pieces whose enclosed volume is smaller.
	MinVolume float64
}

// New returns a Slicer with the default tolerances.
func New() *Slicer {
	return &Slicer{Epsilon: DefaultEpsilon, MinExtent: DefaultMinExtent}
}

// Slice cuts m by pl. The input must be a closed convex mesh; with
// -tags clawzdebug a malformed input panics.
func (s *Slicer) Slice(m *kernel.ConvexMesh, pl kernel.Plane) Outcome {
	if m == nil || m.IsEmpty() {
		return Outcome{Kind: Unchanged, Mesh: m}
	}

	eps := s.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	dist := make([]float64, len(m.Vertices))
	sides := make([]kernel.Side, len(m.Vertices))
	var nFront, nBack int
	for i, v := range m.Vertices {
		d := pl.SignedDistance(v.Position)
		dist[i] = d
		switch {
		case d > eps:
			sides[i] = kernel.Front
			nFront++
		case d < -eps:
			sides[i] = kernel.Back
			nBack++
		default:
			sides[i] = kernel.On
		}
	}
	if nFront == 0 || nBack == 0 {
		return Outcome{Kind: Unchanged, Mesh: m}
	}
	kernel.MustValidate(m, eps)

	sp := &splitter{
		src:   m,
		dist:  dist,
		sides: sides,
		cuts:  make(map[[2]uint32]int),
	}
	front := newHalf(m)
	back := newHalf(m)
	for _, t := range m.Triangles {
		sp.clip(t, front, back)
	}

	ring := sp.capRing(pl.Normal, eps)
	front.cap(ring, pl.Normal.Neg())
	back.cap(ring, pl.Normal)

	out := Outcome{Kind: Split}
	for _, h := range []*half{front, back} {
		piece := h.out
		piece.RecomputeBounds()
		if s.isSliver(piece) {
			out.Slivers = append(out.Slivers, piece)
			continue
		}
		if h == front {
			out.Front = piece
		} else {
			out.Back = piece
		}
	}
	return out
}

// isSliver reports whether a piece is too small to keep.
func (s *Slicer) isSliver(m *kernel.ConvexMesh) bool {
	if m.IsEmpty() {
		return true
	}
	if m.Diagonal() < s.MinExtent {
		return true
	}
	return s.MinVolume > 0 && m.Volume() < s.MinVolume
}

// cutPoint is an intersection of a mesh edge with the cutting plane.
type cutPoint struct {
	pos    v3.Vec
	normal v3.Vec
}

// ref names a polygon corner: a source vertex (cut < 0) or a cut point.
type ref struct {
	vertex uint32
	cut    int
}

// splitter holds the per-slice classification and the cut points shared by
// both halves.
type splitter struct {
	src   *kernel.ConvexMesh
	dist  []float64
	sides []kernel.Side
	cuts  map[[2]uint32]int
	order []cutPoint
}

// cutEdge returns the index of the intersection point on edge a-b, computing
// it once per edge. The interpolation always runs from the front endpoint to
// the back one so coincident edges of neighbouring faces yield identical bits.
func (sp *splitter) cutEdge(a, b uint32) int {
	key := [2]uint32{a, b}
	if b < a {
		key = [2]uint32{b, a}
	}
	if i, ok := sp.cuts[key]; ok {
		return i
	}
	f, k := a, b
	if sp.sides[a] == kernel.Back {
		f, k = b, a
	}
	vf, vk := sp.src.Vertices[f], sp.src.Vertices[k]
	t := sp.dist[f] / (sp.dist[f] - sp.dist[k])
	p := cutPoint{
		pos:    vf.Position.Add(vk.Position.Sub(vf.Position).MulScalar(t)),
		normal: kernel.Normalize(vf.Normal.Add(vk.Normal.Sub(vf.Normal).MulScalar(t))),
	}
	sp.order = append(sp.order, p)
	i := len(sp.order) - 1
	sp.cuts[key] = i
	return i
}

// clip splits one triangle into its front and back polygons, walking the
// edges in order so both polygons keep the source winding. On-plane corners
// are shared by both polygons and never produce a cut point.
func (sp *splitter) clip(t kernel.Triangle, front, back *half) {
	var fp, bp [4]ref
	nf, nb := 0, 0
	hasFront, hasBack := false, false
	for i := 0; i < 3; i++ {
		a, b := t[i], t[(i+1)%3]
		sa, sb := sp.sides[a], sp.sides[b]
		corner := ref{vertex: a, cut: -1}
		switch sa {
		case kernel.Front:
			fp[nf] = corner
			nf++
			hasFront = true
		case kernel.Back:
			bp[nb] = corner
			nb++
			hasBack = true
		default:
			fp[nf] = corner
			nf++
			bp[nb] = corner
			nb++
		}
		if (sa == kernel.Front && sb == kernel.Back) || (sa == kernel.Back && sb == kernel.Front) {
			c := ref{cut: sp.cutEdge(a, b)}
			fp[nf] = c
			nf++
			bp[nb] = c
			nb++
		}
	}

	switch {
	case !hasBack:
		front.polygon(sp, fp[:nf])
	case !hasFront:
		back.polygon(sp, bp[:nb])
	default:
		front.polygon(sp, fp[:nf])
		back.polygon(sp, bp[:nb])
	}
}

// capRing returns the boundary of the cross-section ordered counter-clockwise
// around normal. For a convex mesh every cut point and on-plane vertex lies on
// that boundary, and the section is a convex polygon, so sorting by angle
// about the centroid yields the loop.
func (sp *splitter) capRing(normal v3.Vec, eps float64) []v3.Vec {
	var pts []v3.Vec
	add := func(p v3.Vec) {
		for _, q := range pts {
			if q.Sub(p).Length() <= eps {
				return
			}
		}
		pts = append(pts, p)
	}
	for _, c := range sp.order {
		add(c.pos)
	}
	for i, s := range sp.sides {
		if s == kernel.On {
			add(sp.src.Vertices[i].Position)
		}
	}
	if len(pts) < 3 {
		return nil
	}

	var centre v3.Vec
	for _, p := range pts {
		centre = centre.Add(p)
	}
	centre = centre.DivScalar(float64(len(pts)))

	u := kernel.Perpendicular(normal)
	w := normal.Cross(u)
	angles := make([]float64, len(pts))
	for i, p := range pts {
		d := p.Sub(centre)
		angles[i] = math.Atan2(d.Dot(w), d.Dot(u))
	}
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return angles[idx[i]] < angles[idx[j]] })

	ring := make([]v3.Vec, len(pts))
	for i, j := range idx {
		ring[i] = pts[j]
	}
	return ring
}

// half accumulates the output mesh for one side of the plane.
type half struct {
	out   *kernel.ConvexMesh
	remap []int64 // source vertex -> output index, -1 until copied
	cuts  map[int]uint32
}

func newHalf(src *kernel.ConvexMesh) *half {
	remap := make([]int64, len(src.Vertices))
	for i := range remap {
		remap[i] = -1
	}
	return &half{
		out:   &kernel.ConvexMesh{},
		remap: remap,
		cuts:  make(map[int]uint32),
	}
}

func (h *half) add(v kernel.Vertex) uint32 {
	h.out.Vertices = append(h.out.Vertices, v)
	return uint32(len(h.out.Vertices) - 1)
}

func (h *half) index(sp *splitter, r ref) uint32 {
	if r.cut < 0 {
		if i := h.remap[r.vertex]; i >= 0 {
			return uint32(i)
		}
		i := h.add(sp.src.Vertices[r.vertex])
		h.remap[r.vertex] = int64(i)
		return i
	}
	if i, ok := h.cuts[r.cut]; ok {
		return i
	}
	c := sp.order[r.cut]
	i := h.add(kernel.Vertex{Position: c.pos, Normal: c.normal})
	h.cuts[r.cut] = i
	return i
}

// polygon fan-triangulates a clipped triangle (3 or 4 corners).
func (h *half) polygon(sp *splitter, corners []ref) {
	if len(corners) < 3 {
		return
	}
	first := h.index(sp, corners[0])
	prev := h.index(sp, corners[1])
	for _, c := range corners[2:] {
		next := h.index(sp, c)
		h.out.Triangles = append(h.out.Triangles, kernel.Triangle{first, prev, next})
		prev = next
	}
}

// cap closes the half with a fan around the ring centroid. ring is ordered
// counter-clockwise around the plane normal; a cap facing the other way is
// wound in reverse.
func (h *half) cap(ring []v3.Vec, outward v3.Vec) {
	if len(ring) < 3 || len(h.out.Triangles) == 0 {
		return
	}
	var centre v3.Vec
	for _, p := range ring {
		centre = centre.Add(p)
	}
	centre = centre.DivScalar(float64(len(ring)))

	a, b := ring[0].Sub(centre), ring[1].Sub(centre)
	reverse := a.Cross(b).Dot(outward) < 0

	c := h.add(kernel.Vertex{Position: centre, Normal: outward})
	base := uint32(len(h.out.Vertices))
	for _, p := range ring {
		h.add(kernel.Vertex{Position: p, Normal: outward})
	}
	n := uint32(len(ring))
	for i := uint32(0); i < n; i++ {
		a, b := base+i, base+(i+1)%n
		if reverse {
			a, b = b, a
		}
		h.out.Triangles = append(h.out.Triangles, kernel.Triangle{c, a, b})
	}
}
