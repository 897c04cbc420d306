package sdfx

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/fdoganis/clawz/pkg/kernel"
)

func TestBoxProbeDistance(t *testing.T) {
	p, err := NewBoxProbe(v3.Vec{X: 0.25, Y: 0.25, Z: 0.25})
	if err != nil {
		t.Fatalf("NewBoxProbe failed: %v", err)
	}
	if d := p.Distance(v3.Vec{}); d >= 0 {
		t.Errorf("distance at centre = %v, want negative", d)
	}
	if d := p.Distance(v3.Vec{X: 0.225}); math.Abs(d-0.1) > 1e-9 {
		t.Errorf("distance 0.1 outside the +X face = %v, want 0.1", d)
	}
}

func TestBoxProbeTouches(t *testing.T) {
	p, err := NewBoxProbe(v3.Vec{X: 0.25, Y: 0.25, Z: 0.25})
	if err != nil {
		t.Fatalf("NewBoxProbe failed: %v", err)
	}
	tests := []struct {
		name  string
		point v3.Vec
		want  bool
	}{
		{"inside", v3.Vec{Y: 0.1}, true},
		{"on face", v3.Vec{Z: 0.125}, true},
		{"within radius", v3.Vec{Z: 0.13}, true},
		{"beyond radius", v3.Vec{Z: 0.2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Touches(tt.point, 0.01); got != tt.want {
				t.Errorf("Touches(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestToTriangles(t *testing.T) {
	m := kernel.NewBox(v3.Vec{X: 1, Y: 1, Z: 1})
	tris := ToTriangles(m, v3.Vec{Y: 2})
	if len(tris) != 12 {
		t.Fatalf("got %d triangles, want 12", len(tris))
	}
	for i, tri := range tris {
		for j := 0; j < 3; j++ {
			if tri[j].Y < 1.5-1e-12 || tri[j].Y > 2.5+1e-12 {
				t.Errorf("triangle %d vertex %d y = %v, want within [1.5, 2.5]", i, j, tri[j].Y)
			}
		}
	}
}

func TestSaveSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.stl")
	if err := SaveSTL(path, kernel.NewBox(v3.Vec{X: 1, Y: 1, Z: 1}), v3.Vec{}); err != nil {
		t.Fatalf("SaveSTL failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("STL file is empty")
	}
}

func TestSaveSTLEmpty(t *testing.T) {
	if err := SaveSTL(filepath.Join(t.TempDir(), "x.stl"), &kernel.ConvexMesh{}, v3.Vec{}); err == nil {
		t.Fatal("expected an error for an empty mesh")
	}
}
