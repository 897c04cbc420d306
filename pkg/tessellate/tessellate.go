// Package tessellate turns the live world into flat triangle meshes in world
// space, one mesh per visible part, ready for a renderer or an exporter.
package tessellate

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/fdoganis/clawz/pkg/kernel"
	"github.com/fdoganis/clawz/pkg/physics"
	"github.com/fdoganis/clawz/pkg/shards"
	"github.com/fdoganis/clawz/pkg/world"
)

// Options selects what Tessellate emits.
type Options struct {
	// IncludeSettled also emits settled shards, which are normally hidden.
	IncludeSettled bool
	// SkipSources leaves the cube sources out.
	SkipSources bool
}

// Tessellate produces the meshes of every active source followed by the
// shards of every current set, in slot order. It never mutates the world.
func Tessellate(w *world.World, opts Options) ([]*kernel.Mesh, error) {
	if w == nil {
		return nil, nil
	}
	var meshes []*kernel.Mesh
	if !opts.SkipSources {
		meshes = append(meshes, Sources(w)...)
	}
	for _, set := range w.Sets() {
		collected, err := Shards(set, opts.IncludeSettled)
		if err != nil {
			return nil, fmt.Errorf("tessellate: source %d: %w", set.SourceID, err)
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// Sources returns one mesh per active source, named source-N.
func Sources(w *world.World) []*kernel.Mesh {
	var meshes []*kernel.Mesh
	for _, s := range w.Sources() {
		if !s.Active {
			continue
		}
		c := s.Mesh.Clone()
		c.Translate(s.Position)
		meshes = append(meshes, kernel.Flatten(c, fmt.Sprintf("source-%d", s.ID)))
	}
	return meshes
}

// Shards returns one mesh per shard of set, named shard-<set>-<i> where
// <set> is the first block of the set id. Settled shards are skipped unless
// includeSettled is true.
func Shards(set *shards.Set, includeSettled bool) ([]*kernel.Mesh, error) {
	if set.Disposed() {
		return nil, fmt.Errorf("set %s is disposed", set.ID)
	}
	prefix := set.ID.String()[:8]
	var meshes []*kernel.Mesh
	for i, sh := range set.Shards {
		if !includeSettled && !sh.Visible() {
			continue
		}
		if sh.Mesh == nil {
			return nil, fmt.Errorf("shard %d of set %s has no mesh", i, set.ID)
		}
		meshes = append(meshes, kernel.Flatten(WorldMesh(sh), fmt.Sprintf("shard-%s-%d", prefix, i)))
	}
	return meshes, nil
}

// WorldMesh returns a copy of the shard's mesh with its transform applied to
// positions and normals.
func WorldMesh(sh *physics.Shard) *kernel.ConvexMesh {
	m := sh.Transform()
	out := sh.Mesh.Clone()
	for i, v := range out.Vertices {
		p := mgl64.TransformCoordinate(mgl64.Vec3{v.Position.X, v.Position.Y, v.Position.Z}, m)
		n := mgl64.TransformNormal(mgl64.Vec3{v.Normal.X, v.Normal.Y, v.Normal.Z}, m)
		out.Vertices[i].Position = v3.Vec{X: p[0], Y: p[1], Z: p[2]}
		out.Vertices[i].Normal = kernel.Normalize(v3.Vec{X: n[0], Y: n[1], Z: n[2]})
	}
	out.RecomputeBounds()
	return out
}
