package main

import (
	"math"
	"os"
	"strings"
	"testing"
)

func readExample(t *testing.T, name string) string {
	t.Helper()
	source, err := os.ReadFile("examples/" + name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(source)
}

func failOnErrors(t *testing.T, result EvalResult) {
	t.Helper()
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e)
		}
		t.FailNow()
	}
}

func shardMeshes(result EvalResult) []MeshData {
	var out []MeshData
	for _, m := range result.Meshes {
		if strings.HasPrefix(m.PartName, "shard-") {
			out = append(out, m)
		}
	}
	return out
}

// TestE2ESliceExample exercises the full pipeline: script -> engine -> world
// -> tessellate -> meshes.
func TestE2ESliceExample(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Evaluate(readExample(t, "slice.clawz"))
	failOnErrors(t, result)

	if result.Slices != 1 {
		t.Errorf("expected 1 slice, got %d", result.Slices)
	}
	if result.Frames != 30 {
		t.Errorf("expected 30 frames, got %d", result.Frames)
	}
	if math.Abs(result.Time-0.3) > 1e-9 {
		t.Errorf("expected time 0.3, got %v", result.Time)
	}
	if result.Settled {
		t.Error("shards should still be falling after 0.3 s")
	}

	shards := shardMeshes(result)
	if len(shards) != 5 {
		t.Fatalf("expected 5 shard meshes, got %d", len(shards))
	}
	for _, m := range shards {
		if len(m.Vertices) == 0 {
			t.Errorf("%s: empty vertices", m.PartName)
		}
		if len(m.Normals) != len(m.Vertices) {
			t.Errorf("%s: %d normals for %d vertex floats", m.PartName, len(m.Normals), len(m.Vertices))
		}
		if len(m.Indices) == 0 || len(m.Indices)%3 != 0 {
			t.Errorf("%s: %d indices is not a triangle list", m.PartName, len(m.Indices))
		}
		for _, idx := range m.Indices {
			if int(idx) >= len(m.Vertices)/3 {
				t.Errorf("%s: index %d out of range", m.PartName, idx)
				break
			}
		}
		// Every shard has fallen below its starting height.
		for i := 1; i < len(m.Vertices); i += 3 {
			if m.Vertices[i] > 1.625 {
				t.Errorf("%s: vertex at y=%v above the original cube", m.PartName, m.Vertices[i])
				break
			}
		}
	}
}

func TestE2ESettleExample(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Evaluate(readExample(t, "settle.clawz"))
	failOnErrors(t, result)

	if result.Slices != 2 {
		t.Errorf("expected 2 slices, got %d", result.Slices)
	}
	if !result.Settled {
		t.Error("expected every shard to have landed")
	}
	if got := shardMeshes(result); len(got) != 0 {
		t.Errorf("settled shards are hidden, got %d shard meshes", len(got))
	}
	if result.Frames >= 300 {
		t.Errorf("run should stop once settled, ran %d frames", result.Frames)
	}
}

func TestE2EEmptySource(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Evaluate("")

	failOnErrors(t, result)
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
	if result.Meshes == nil || result.Warnings == nil {
		t.Error("slices should be empty, not nil, for JSON encoding")
	}
}

func TestE2ESyntaxError(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Evaluate("(place 0 (vec3 0 1.5 0)")

	if len(result.Errors) == 0 {
		t.Fatal("expected errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

func TestE2EPlacedSource(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Evaluate(`(place 3 (vec3 0.5 1.2 -1))`)
	failOnErrors(t, result)

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	m := result.Meshes[0]
	if m.PartName != "source-3" {
		t.Errorf("PartName = %q, want source-3", m.PartName)
	}
	if len(m.Indices) != 36 {
		t.Errorf("a cube has 12 triangles, got %d indices", len(m.Indices))
	}
	if m.Color != colorPalette[0] {
		t.Errorf("Color = %q, want %q", m.Color, colorPalette[0])
	}
}
