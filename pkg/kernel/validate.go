package kernel

import (
	"fmt"
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ValidationSeverity indicates whether a validation finding makes a mesh
// unusable for slicing or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // mesh violates the convex-mesh contract
	SeverityWarning                           // suspicious but sliceable
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Triangle int                // offending triangle index, -1 if mesh-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Triangle < 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] triangle %d: %s", e.Severity, e.Triangle, e.Message)
}

// HasErrors reports whether any finding has error severity.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// weldKey identifies a position after snapping it to the weld grid.
type weldKey [3]int64

// edgeUse counts how often an undirected welded edge is walked in each direction.
type edgeUse struct {
	forward, backward int
}

// Validate checks the convex-mesh contract: indices in range, no degenerate
// triangles, a closed manifold surface with consistent winding, positive
// volume and convexity. Positions closer than tol are welded first so meshes
// with per-face vertices validate as closed.
func Validate(m *ConvexMesh, tol float64) []ValidationError {
	if m == nil || len(m.Triangles) == 0 {
		return []ValidationError{{Triangle: -1, Message: "mesh has no triangles", Severity: SeverityError}}
	}
	if tol <= 0 {
		tol = 1e-7
	}

	var errs []ValidationError
	errs = append(errs, validateIndices(m)...)
	if HasErrors(errs) {
		return errs
	}

	welded := weld(m, tol)
	errs = append(errs, validateDegenerate(m, welded, tol)...)
	errs = append(errs, validateManifold(m, welded)...)

	if vol := m.Volume(); vol <= 0 {
		errs = append(errs, ValidationError{
			Triangle: -1,
			Message:  fmt.Sprintf("enclosed volume is %.6g, faces must wind outward", vol),
			Severity: SeverityError,
		})
	}
	errs = append(errs, validateConvex(m, tol)...)
	return errs
}

func validateIndices(m *ConvexMesh) []ValidationError {
	var errs []ValidationError
	n := uint32(len(m.Vertices))
	for i, t := range m.Triangles {
		if t[0] >= n || t[1] >= n || t[2] >= n {
			errs = append(errs, ValidationError{
				Triangle: i,
				Message:  fmt.Sprintf("index out of range (%d vertices)", n),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// weld maps every vertex to the index of the first vertex at the same
// snapped position.
func weld(m *ConvexMesh, tol float64) []int {
	ids := make([]int, len(m.Vertices))
	seen := make(map[weldKey]int, len(m.Vertices))
	for i, v := range m.Vertices {
		k := weldKey{
			int64(math.Round(v.Position.X / tol)),
			int64(math.Round(v.Position.Y / tol)),
			int64(math.Round(v.Position.Z / tol)),
		}
		if first, ok := seen[k]; ok {
			ids[i] = first
			continue
		}
		seen[k] = i
		ids[i] = i
	}
	return ids
}

func validateDegenerate(m *ConvexMesh, welded []int, tol float64) []ValidationError {
	var errs []ValidationError
	for i, t := range m.Triangles {
		if welded[t[0]] == welded[t[1]] || welded[t[1]] == welded[t[2]] || welded[t[0]] == welded[t[2]] {
			errs = append(errs, ValidationError{Triangle: i, Message: "triangle has coincident corners", Severity: SeverityWarning})
			continue
		}
		a := m.Vertices[t[0]].Position
		b := m.Vertices[t[1]].Position
		c := m.Vertices[t[2]].Position
		if b.Sub(a).Cross(c.Sub(a)).Length() <= tol*tol {
			errs = append(errs, ValidationError{Triangle: i, Message: "triangle has zero area", Severity: SeverityWarning})
		}
	}
	return errs
}

func validateManifold(m *ConvexMesh, welded []int) []ValidationError {
	edges := make(map[[2]int]*edgeUse)
	for _, t := range m.Triangles {
		for j := 0; j < 3; j++ {
			a, b := welded[t[j]], welded[t[(j+1)%3]]
			if a == b {
				continue
			}
			key := [2]int{a, b}
			forward := true
			if b < a {
				key = [2]int{b, a}
				forward = false
			}
			u := edges[key]
			if u == nil {
				u = &edgeUse{}
				edges[key] = u
			}
			if forward {
				u.forward++
			} else {
				u.backward++
			}
		}
	}

	keys := make([][2]int, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	var errs []ValidationError
	for _, k := range keys {
		u := edges[k]
		switch {
		case u.forward+u.backward == 1:
			errs = append(errs, ValidationError{
				Triangle: -1,
				Message:  fmt.Sprintf("open edge %d-%d", k[0], k[1]),
				Severity: SeverityError,
			})
		case u.forward != u.backward:
			errs = append(errs, ValidationError{
				Triangle: -1,
				Message:  fmt.Sprintf("edge %d-%d has inconsistent winding (%d/%d)", k[0], k[1], u.forward, u.backward),
				Severity: SeverityError,
			})
		case u.forward > 1:
			errs = append(errs, ValidationError{
				Triangle: -1,
				Message:  fmt.Sprintf("edge %d-%d is shared by %d triangles", k[0], k[1], u.forward+u.backward),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateConvex checks that no vertex lies in front of any face plane.
func validateConvex(m *ConvexMesh, tol float64) []ValidationError {
	var errs []ValidationError
	slack := tol * math.Max(1, m.Diagonal())
	for i, t := range m.Triangles {
		a := m.Vertices[t[0]].Position
		n := normalize(m.Vertices[t[1]].Position.Sub(a).Cross(m.Vertices[t[2]].Position.Sub(a)))
		if n == (v3.Vec{}) {
			continue
		}
		face := Plane{Point: a, Normal: n}
		for _, v := range m.Vertices {
			if d := face.SignedDistance(v.Position); d > slack {
				errs = append(errs, ValidationError{
					Triangle: i,
					Message:  fmt.Sprintf("vertex lies %.3g in front of face, mesh is not convex", d),
					Severity: SeverityError,
				})
				break
			}
		}
	}
	return errs
}

// MustValidate panics when InvariantChecks is enabled and m violates the
// convex-mesh contract.
func MustValidate(m *ConvexMesh, tol float64) {
	if !InvariantChecks {
		return
	}
	findings := Validate(m, tol)
	Assert(!HasErrors(findings), "invalid convex mesh: %v", findings)
}
