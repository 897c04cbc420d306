package kernel

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // source-N or shard-<set>-<i>
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Flatten copies a convex mesh into render buffers without any transform.
func Flatten(c *ConvexMesh, name string) *Mesh {
	m := &Mesh{
		Vertices: make([]float32, 0, len(c.Vertices)*3),
		Normals:  make([]float32, 0, len(c.Vertices)*3),
		Indices:  make([]uint32, 0, len(c.Triangles)*3),
		PartName: name,
	}
	for _, v := range c.Vertices {
		m.Vertices = append(m.Vertices, float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z))
		m.Normals = append(m.Normals, float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z))
	}
	for _, t := range c.Triangles {
		m.Indices = append(m.Indices, t[0], t[1], t[2])
	}
	return m
}
