package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"

	"github.com/fdoganis/clawz/pkg/world"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites scenario source into something zygomys reads:
//
//  1. :keyword becomes the string "__kw_keyword", so builtins can tell
//     keyword arguments from positional ones without registering symbols.
//  2. kebab-case identifiers become snake_case (begin-cut -> begin_cut);
//     zygomys would read the hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	b := []byte(source)
	out := make([]byte, 0, len(b)+len(b)/4)
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '"':
			j := skipQuoted(b, i)
			out = append(out, b[i:j]...)
			i = j
		case c == '`':
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			if j < len(b) {
				j++
			}
			out = append(out, b[i:j]...)
			i = j
		case c == ';':
			out = append(out, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				out = append(out, b[i])
				i++
			}
		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out = append(out, ':', '=')
			i += 2
		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, b[i+1:j]...)
			out = append(out, '"')
			i = j
		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

// skipQuoted returns the index just past the double-quoted literal at i.
func skipQuoted(b []byte, i int) int {
	j := i + 1
	for j < len(b) && b[j] != '"' {
		if b[j] == '\\' && j+1 < len(b) {
			j++
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Sexp values and argument helpers
// ---------------------------------------------------------------------------

// sexpVec3 carries a vector between builtins.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// kwArgs is an argument list split into keyword and positional arguments.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	pa := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		str, ok := args[i].(*zygo.SexpStr)
		if !ok || !strings.HasPrefix(str.S, kwPrefix) {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		name := str.S[len(kwPrefix):]
		if i+1 < len(args) {
			pa.kw[name] = args[i+1]
			i++
		} else {
			pa.kw[name] = zygo.SexpNull
		}
	}
	return pa
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) bool {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val
	case *zygo.SexpSentinel:
		return v != zygo.SexpNull
	}
	return true
}

func sexpInt(n int) zygo.Sexp   { return &zygo.SexpInt{Val: int64(n)} }
func sexpBool(b bool) zygo.Sexp { return &zygo.SexpBool{Val: b} }

// arity checks the positional argument count of a builtin.
func arity(name string, args []zygo.Sexp, want int) error {
	if len(args) != want {
		return fmt.Errorf("%s expects %d arguments, got %d", name, want, len(args))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

// DefaultRunStep is the frame length run uses when :dt is not given.
const DefaultRunStep = 1.0 / 60

// maxRunFrames bounds a single run so a mistyped :dt cannot spin forever.
const maxRunFrames = 1 << 20

// session is the state one evaluation's builtins share.
type session struct {
	world  *world.World
	report *Report
	log    *zap.Logger
}

func (s *session) warn(source int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.report.Warnings = append(s.report.Warnings, EvalWarning{Message: msg, Source: source})
	s.log.Debug("scenario warning", zap.Int("source", source), zap.String("message", msg))
}

func (s *session) frame(dt float64) world.FrameReport {
	s.report.Frames++
	return s.world.Frame(dt, world.Input{})
}

// registerBuiltins installs the scenario builtins into env. Source must be
// preprocessed with preprocessSource so keywords and kebab-case names match.
func registerBuiltins(env *zygo.Zlisp, s *session) {

	// (vec3 x y z)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(name, args, 3); err != nil {
			return zygo.SexpNull, err
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: component %d: %w", i, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// (spawn) -> slot id, or -1 with a warning when the pool is full
	env.AddFunction("spawn", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		id, err := s.world.Spawn()
		if errors.Is(err, world.ErrPoolFull) {
			s.warn(-1, "spawn: %v", err)
			return sexpInt(-1), nil
		}
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("spawn: %w", err)
		}
		return sexpInt(id), nil
	})

	// (place id (vec3 x y z))
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(name, args, 2); err != nil {
			return zygo.SexpNull, err
		}
		id, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: id: %w", err)
		}
		pos, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: position: %w", err)
		}
		if err := s.world.Place(id, pos); err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		return sexpInt(id), nil
	})

	// (begin-cut)
	env.AddFunction("begin_cut", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		s.world.BeginCut()
		return zygo.SexpNull, nil
	})

	// (touch point normal) -> whether the sample landed on a source
	env.AddFunction("touch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(name, args, 2); err != nil {
			return zygo.SexpNull, err
		}
		point, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("touch: point: %w", err)
		}
		normal, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("touch: normal: %w", err)
		}
		if !s.world.Cutting() {
			return zygo.SexpNull, fmt.Errorf("touch: no gesture in progress, call begin-cut first")
		}
		return sexpBool(s.world.Touch(point, normal)), nil
	})

	// (end-cut reference) -> fragment count, 0 when the gesture cut nothing
	env.AddFunction("end_cut", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(name, args, 1); err != nil {
			return zygo.SexpNull, err
		}
		ref, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("end-cut: reference: %w", err)
		}
		if !s.world.Cutting() {
			return zygo.SexpNull, fmt.Errorf("end-cut: no gesture in progress, call begin-cut first")
		}
		target := s.world.Target()
		cut, err := s.world.EndCut(ref)
		if err != nil {
			s.warn(target, "end-cut: %v", err)
			return sexpInt(0), nil
		}
		set, err := s.world.SliceRequest(target, cut)
		if err != nil {
			s.warn(target, "end-cut: %v", err)
			return sexpInt(0), nil
		}
		s.report.Slices++
		return sexpInt(set.Len()), nil
	})

	// (tick dt) -> whether every shard set has settled
	env.AddFunction("tick", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(name, args, 1); err != nil {
			return zygo.SexpNull, err
		}
		dt, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tick: dt: %w", err)
		}
		if dt <= 0 {
			return zygo.SexpNull, fmt.Errorf("tick: dt must be positive, got %g", dt)
		}
		return sexpBool(s.frame(dt).AllSettled), nil
	})

	// (run :seconds 2 :dt 0.01 :until-settled true) -> whether every shard set has settled
	env.AddFunction("run", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, ok := pa.kw["seconds"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("run requires :seconds")
		}
		seconds, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("run: seconds: %w", err)
		}
		dt := DefaultRunStep
		if v, ok := pa.kw["dt"]; ok {
			if dt, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("run: dt: %w", err)
			}
		}
		if seconds < 0 || dt <= 0 {
			return zygo.SexpNull, fmt.Errorf("run: need seconds >= 0 and dt > 0, got %g and %g", seconds, dt)
		}
		untilSettled := false
		if v, ok := pa.kw["until-settled"]; ok {
			untilSettled = toBool(v)
		}

		n := int(math.Round(seconds / dt))
		if n > maxRunFrames {
			return zygo.SexpNull, fmt.Errorf("run: %d frames exceeds the limit of %d", n, maxRunFrames)
		}
		settled := s.world.AllSettled()
		for i := 0; i < n; i++ {
			settled = s.frame(dt).AllSettled
			if untilSettled && settled {
				break
			}
		}
		return sexpBool(settled), nil
	})

	// (all-settled)
	env.AddFunction("all_settled", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return sexpBool(s.world.AllSettled()), nil
	})

	// (clear id) disposes one slot's shard set; (clear) disposes them all.
	env.AddFunction("clear", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			s.world.ClearAll()
			return zygo.SexpNull, nil
		}
		if err := arity(name, args, 1); err != nil {
			return zygo.SexpNull, err
		}
		id, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("clear: id: %w", err)
		}
		if err := s.world.Clear(id); err != nil {
			return zygo.SexpNull, fmt.Errorf("clear: %w", err)
		}
		return zygo.SexpNull, nil
	})
}
