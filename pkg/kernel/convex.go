package kernel

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vertex is a mesh vertex with its shading normal.
type Vertex struct {
	Position v3.Vec `json:"position"`
	Normal   v3.Vec `json:"normal"`
}

// Triangle holds three vertex indices in counter-clockwise order when seen
// from outside the solid.
type Triangle [3]uint32

// ConvexMesh is a closed, manifold triangle surface enclosing a convex solid.
// A mesh is owned by exactly one holder (a source or a shard) and is never
// shared between them.
type ConvexMesh struct {
	Vertices  []Vertex   `json:"vertices"`
	Triangles []Triangle `json:"triangles"`
	Box       sdf.Box3   `json:"box"`
}

// NewBox returns an axis-aligned box centred at the origin. Each face has its
// own four vertices so normals stay flat.
func NewBox(size v3.Vec) *ConvexMesh {
	h := size.MulScalar(0.5)
	faces := []struct {
		normal  v3.Vec
		corners [4]v3.Vec
	}{
		{v3.Vec{X: 1}, [4]v3.Vec{{X: h.X, Y: -h.Y, Z: -h.Z}, {X: h.X, Y: h.Y, Z: -h.Z}, {X: h.X, Y: h.Y, Z: h.Z}, {X: h.X, Y: -h.Y, Z: h.Z}}},
		{v3.Vec{X: -1}, [4]v3.Vec{{X: -h.X, Y: -h.Y, Z: h.Z}, {X: -h.X, Y: h.Y, Z: h.Z}, {X: -h.X, Y: h.Y, Z: -h.Z}, {X: -h.X, Y: -h.Y, Z: -h.Z}}},
		{v3.Vec{Y: 1}, [4]v3.Vec{{X: -h.X, Y: h.Y, Z: -h.Z}, {X: -h.X, Y: h.Y, Z: h.Z}, {X: h.X, Y: h.Y, Z: h.Z}, {X: h.X, Y: h.Y, Z: -h.Z}}},
		{v3.Vec{Y: -1}, [4]v3.Vec{{X: -h.X, Y: -h.Y, Z: h.Z}, {X: -h.X, Y: -h.Y, Z: -h.Z}, {X: h.X, Y: -h.Y, Z: -h.Z}, {X: h.X, Y: -h.Y, Z: h.Z}}},
		{v3.Vec{Z: 1}, [4]v3.Vec{{X: -h.X, Y: -h.Y, Z: h.Z}, {X: h.X, Y: -h.Y, Z: h.Z}, {X: h.X, Y: h.Y, Z: h.Z}, {X: -h.X, Y: h.Y, Z: h.Z}}},
		{v3.Vec{Z: -1}, [4]v3.Vec{{X: h.X, Y: -h.Y, Z: -h.Z}, {X: -h.X, Y: -h.Y, Z: -h.Z}, {X: -h.X, Y: h.Y, Z: -h.Z}, {X: h.X, Y: h.Y, Z: -h.Z}}},
	}

	m := &ConvexMesh{
		Vertices:  make([]Vertex, 0, 24),
		Triangles: make([]Triangle, 0, 12),
	}
	for _, f := range faces {
		base := uint32(len(m.Vertices))
		for _, c := range f.corners {
			m.Vertices = append(m.Vertices, Vertex{Position: c, Normal: f.normal})
		}
		m.Triangles = append(m.Triangles,
			Triangle{base, base + 1, base + 2},
			Triangle{base, base + 2, base + 3},
		)
	}
	m.RecomputeBounds()
	return m
}

// VertexCount returns the number of vertices.
func (m *ConvexMesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *ConvexMesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the mesh has no triangles.
func (m *ConvexMesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// RecomputeBounds refreshes Box from the vertex positions.
func (m *ConvexMesh) RecomputeBounds() {
	if len(m.Vertices) == 0 {
		m.Box = sdf.Box3{}
		return
	}
	lo := m.Vertices[0].Position
	hi := lo
	for _, v := range m.Vertices[1:] {
		lo = lo.Min(v.Position)
		hi = hi.Max(v.Position)
	}
	m.Box = sdf.Box3{Min: lo, Max: hi}
}

// Diagonal returns the length of the bounding-box diagonal.
func (m *ConvexMesh) Diagonal() float64 {
	return m.Box.Max.Sub(m.Box.Min).Length()
}

// BoxVolume returns the volume of the bounding box.
func (m *ConvexMesh) BoxVolume() float64 {
	return BoxVolume(m.Box)
}

// BoxVolume returns the volume of an axis-aligned box.
func BoxVolume(b sdf.Box3) float64 {
	s := b.Max.Sub(b.Min)
	return s.X * s.Y * s.Z
}

// BoxCenter returns the centre of an axis-aligned box.
func BoxCenter(b sdf.Box3) v3.Vec {
	return b.Min.Add(b.Max).MulScalar(0.5)
}

// Volume returns the enclosed volume using the divergence theorem. It is
// positive for outward-facing triangles.
func (m *ConvexMesh) Volume() float64 {
	var sum float64
	for _, t := range m.Triangles {
		a := m.Vertices[t[0]].Position
		b := m.Vertices[t[1]].Position
		c := m.Vertices[t[2]].Position
		sum += a.Dot(b.Cross(c))
	}
	return sum / 6
}

// Centroid returns the centre of mass of the enclosed solid, assuming
// uniform density. It falls back to the bounding-box centre for a mesh with
// no volume.
func (m *ConvexMesh) Centroid() v3.Vec {
	var sum v3.Vec
	var vol float64
	for _, t := range m.Triangles {
		a := m.Vertices[t[0]].Position
		b := m.Vertices[t[1]].Position
		c := m.Vertices[t[2]].Position
		v := a.Dot(b.Cross(c))
		vol += v
		sum = sum.Add(a.Add(b).Add(c).MulScalar(v))
	}
	if vol == 0 {
		return BoxCenter(m.Box)
	}
	return sum.DivScalar(4 * vol)
}

// Clone returns a deep copy of the mesh.
func (m *ConvexMesh) Clone() *ConvexMesh {
	c := &ConvexMesh{
		Vertices:  make([]Vertex, len(m.Vertices)),
		Triangles: make([]Triangle, len(m.Triangles)),
		Box:       m.Box,
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Triangles, m.Triangles)
	return c
}

// Translate moves every vertex by d in place.
func (m *ConvexMesh) Translate(d v3.Vec) {
	for i := range m.Vertices {
		m.Vertices[i].Position = m.Vertices[i].Position.Add(d)
	}
	m.Box = sdf.Box3{Min: m.Box.Min.Add(d), Max: m.Box.Max.Add(d)}
}

// Recenter moves the mesh so its bounding box is centred on the origin and
// returns the previous centre.
func (m *ConvexMesh) Recenter() v3.Vec {
	c := BoxCenter(m.Box)
	m.Translate(c.Neg())
	return c
}
