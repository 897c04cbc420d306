package engine

import (
	"strings"
	"testing"

	"github.com/fdoganis/clawz/pkg/config"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "keyword",
			input:  `(run :seconds 2)`,
			expect: `(run "__kw_seconds" 2)`,
		},
		{
			name:   "multiple keywords",
			input:  `(run :seconds 2 :dt 0.01)`,
			expect: `(run "__kw_seconds" 2 "__kw_dt" 0.01)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"say \"begin-cut\"" (begin-cut)`,
			expect: `"say \"begin-cut\"" (begin_cut)`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(end-cut eye)`,
			expect: `(end_cut eye)`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `(run :seconds 1 :until-settled true)`,
			expect: `(run "__kw_seconds" 1 "__kw_until-settled" true)`,
		},
		{
			name:   "minus operator and negative numbers preserved",
			input:  `(- 10 5) (vec3 0 -0.1 x-1)`,
			expect: `(- 10 5) (vec3 0 -0.1 x-1)`,
		},
		{
			name:   "comment converted to // style",
			input:  ";; stroke :down the face\n(tick 0.01)",
			expect: "// stroke :down the face\n(tick 0.01)",
		},
		{
			name:   "backtick string preserved",
			input:  "`all-settled`",
			expect: "`all-settled`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocessSource(tt.input); got != tt.expect {
				t.Errorf("preprocessSource(%q)\n got  %q\n want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Scenario tests
// ---------------------------------------------------------------------------

// stroke slices source 0 at (0, 1.5, 0) with a vertical stroke down its
// front face, seen from an eye in front of the conveyor.
const stroke = `
(place 0 (vec3 0 1.5 0))
(begin-cut)
(touch (vec3 0 1.6 0.125) (vec3 0 0 1))
(touch (vec3 0 1.5 0.125) (vec3 0 0 1))
(touch (vec3 0 1.4 0.125) (vec3 0 0 1))
(end-cut (vec3 0 1.6 2))
`

func evaluate(t *testing.T, source string) *Report {
	t.Helper()
	rep, evalErrs, err := NewEngine(nil, nil).Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return rep
}

func evalFails(t *testing.T, source, want string) {
	t.Helper()
	rep, evalErrs, err := NewEngine(nil, nil).Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if rep != nil {
		t.Error("expected nil report on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatalf("expected an eval error containing %q", want)
	}
	if !strings.Contains(evalErrs[0].Message, want) {
		t.Errorf("error %q does not mention %q", evalErrs[0].Message, want)
	}
}

func TestStrokeSlicesSource(t *testing.T) {
	rep := evaluate(t, stroke)
	if rep.Slices != 1 {
		t.Fatalf("expected 1 slice, got %d", rep.Slices)
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", rep.Warnings)
	}
	set := rep.World.Set(0)
	if set == nil {
		t.Fatal("expected a shard set in slot 0")
	}
	if set.Len() != 5 {
		t.Errorf("expected 5 shards, got %d", set.Len())
	}
	src, err := rep.World.Source(0)
	if err != nil {
		t.Fatal(err)
	}
	if src.Active {
		t.Error("sliced source should leave the conveyor")
	}
	if rep.Frames != 0 {
		t.Errorf("no frames were stepped, got %d", rep.Frames)
	}
}

func TestRunSettles(t *testing.T) {
	rep := evaluate(t, stroke+`(run :seconds 1 :dt 0.01)`)
	if rep.Frames != 100 {
		t.Errorf("expected 100 frames, got %d", rep.Frames)
	}
	if !rep.World.AllSettled() {
		t.Error("shards dropped from 1.5 m should settle within a second")
	}
}

func TestRunUntilSettled(t *testing.T) {
	rep := evaluate(t, stroke+`(run :seconds 5 :dt 0.01 :until-settled true)`)
	if rep.Frames >= 100 || rep.Frames < 50 {
		t.Errorf("expected the run to stop after about 56 frames, got %d", rep.Frames)
	}
	if !rep.World.AllSettled() {
		t.Error("expected every shard set to be settled")
	}
}

func TestTickCountsFrames(t *testing.T) {
	rep := evaluate(t, `(tick 0.01) (tick 0.02)`)
	if rep.Frames != 2 {
		t.Errorf("expected 2 frames, got %d", rep.Frames)
	}
	if got := rep.World.Time(); got < 0.0299 || got > 0.0301 {
		t.Errorf("world time = %v, want 0.03", got)
	}
}

func TestShortGestureWarns(t *testing.T) {
	rep := evaluate(t, `
(place 0 (vec3 0 1.5 0))
(begin-cut)
(touch (vec3 0 1.5 0.125) (vec3 0 0 1))
(end-cut (vec3 0 1.6 2))
`)
	if rep.Slices != 0 {
		t.Errorf("expected no slices, got %d", rep.Slices)
	}
	if len(rep.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", rep.Warnings)
	}
	if rep.Warnings[0].Source != 0 {
		t.Errorf("warning source = %d, want 0", rep.Warnings[0].Source)
	}
	if rep.World.Set(0) != nil {
		t.Error("a failed gesture should not create a set")
	}
}

func TestClear(t *testing.T) {
	rep := evaluate(t, stroke+`(clear 0)`)
	if rep.World.Set(0) != nil {
		t.Error("clear should dispose the set")
	}

	rep = evaluate(t, stroke+`(clear)`)
	if len(rep.World.Sets()) != 0 {
		t.Errorf("clear with no id should dispose every set, %d left", len(rep.World.Sets()))
	}
}

func TestSpawnPoolFull(t *testing.T) {
	slots := config.Default().World.Slots
	rep := evaluate(t, strings.Repeat("(spawn)\n", slots+1))
	if len(rep.Warnings) != 1 {
		t.Fatalf("expected one pool-full warning, got %v", rep.Warnings)
	}
	if rep.Warnings[0].Source != -1 {
		t.Errorf("warning source = %d, want -1", rep.Warnings[0].Source)
	}
	for _, s := range rep.World.Sources() {
		if !s.Active {
			t.Errorf("source %d should be active", s.ID)
		}
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"place unknown slot", `(place 99 (vec3 0 0 0))`, "unknown source"},
		{"place needs vec3", `(place 0 1)`, "expected vec3"},
		{"vec3 arity", `(vec3 1 2)`, "expects 3 arguments"},
		{"touch without gesture", `(touch (vec3 0 0 0) (vec3 0 0 1))`, "begin-cut"},
		{"end-cut without gesture", `(end-cut (vec3 0 0 0))`, "begin-cut"},
		{"tick needs positive dt", `(tick 0)`, "positive"},
		{"run needs seconds", `(run :dt 0.01)`, ":seconds"},
		{"run frame limit", `(run :seconds 1000000 :dt 0.0001)`, "limit"},
		{"clear unknown slot", `(clear 99)`, "unknown source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalFails(t, tt.source, tt.want)
		})
	}
}

func TestScenarioDeterministic(t *testing.T) {
	source := stroke + `(run :seconds 0.3 :dt 0.01)`
	a := evaluate(t, source).World.Set(0)
	b := evaluate(t, source).World.Set(0)
	if a == nil || b == nil {
		t.Fatal("expected shard sets")
	}
	if a.Len() != b.Len() {
		t.Fatalf("shard counts differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Shards {
		if a.Shards[i].Position != b.Shards[i].Position {
			t.Errorf("shard %d position %v vs %v", i, a.Shards[i].Position, b.Shards[i].Position)
		}
		if a.Shards[i].Rotation != b.Shards[i].Rotation {
			t.Errorf("shard %d rotation %v vs %v", i, a.Shards[i].Rotation, b.Shards[i].Rotation)
		}
	}
}
