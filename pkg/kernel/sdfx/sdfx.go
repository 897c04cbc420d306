// Package sdfx bridges clawz meshes to the github.com/deadsy/sdfx CAD
// library: signed-distance contact probes for the touch sphere and STL
// export of fragments.
package sdfx

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/fdoganis/clawz/pkg/kernel"
)

// Probe answers distance queries against a solid centred on the origin of
// its local frame.
type Probe struct {
	s sdf.SDF3
}

// NewBoxProbe returns a probe for an axis-aligned box of the given size,
// centred on the origin.
func NewBoxProbe(size v3.Vec) (*Probe, error) {
	s, err := sdf.Box3D(size, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box probe: %w", err)
	}
	return &Probe{s: s}, nil
}

// Distance returns the signed distance from the local point p to the solid
// surface, negative inside.
func (p *Probe) Distance(local v3.Vec) float64 {
	return p.s.Evaluate(local)
}

// Touches reports whether a sphere of the given radius centred at the local
// point overlaps the solid.
func (p *Probe) Touches(local v3.Vec, radius float64) bool {
	return p.s.Evaluate(local) <= radius
}

// BoundingBox returns the probe's local bounding box.
func (p *Probe) BoundingBox() sdf.Box3 {
	return p.s.BoundingBox()
}

// ToTriangles converts a convex mesh to sdfx triangles, moved by offset.
func ToTriangles(m *kernel.ConvexMesh, offset v3.Vec) []*sdf.Triangle3 {
	tris := make([]*sdf.Triangle3, 0, len(m.Triangles))
	for _, t := range m.Triangles {
		tris = append(tris, &sdf.Triangle3{
			m.Vertices[t[0]].Position.Add(offset),
			m.Vertices[t[1]].Position.Add(offset),
			m.Vertices[t[2]].Position.Add(offset),
		})
	}
	return tris
}

// SaveSTL writes a mesh, moved by offset, to an STL file.
func SaveSTL(path string, m *kernel.ConvexMesh, offset v3.Vec) error {
	if m == nil || m.IsEmpty() {
		return fmt.Errorf("sdfx: SaveSTL %s: empty mesh", path)
	}
	if err := render.SaveSTL(path, ToTriangles(m, offset)); err != nil {
		return fmt.Errorf("sdfx: SaveSTL %s: %w", path, err)
	}
	return nil
}
