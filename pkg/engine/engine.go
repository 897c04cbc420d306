// Package engine runs clawz scenario scripts. It wraps zygomys in a sandboxed
// environment whose builtins drive a fresh world.World: placing cubes,
// stroking gestures across them and stepping the simulation.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"

	"github.com/fdoganis/clawz/pkg/config"
	"github.com/fdoganis/clawz/pkg/world"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a scenario event that did not stop the script, such as a
// gesture too short to define a plane or a cut that missed.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	// Source is the slot the warning concerns, or -1.
	Source int
}

// Report is what a scenario left behind.
type Report struct {
	// World is the simulated world after the last expression.
	World *world.World
	// Frames counts the frames stepped by tick and run.
	Frames int
	// Slices counts the gestures that produced a shard set.
	Slices   int
	Warnings []EvalWarning
}

// Engine evaluates scenario scripts. It is safe for concurrent use; each
// call to Evaluate builds a fresh sandbox and a fresh world for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	cfg *config.Config
	log *zap.Logger
}

// NewEngine creates an engine whose worlds are built from cfg. A nil cfg
// means config.Default() and a nil logger discards logs.
func NewEngine(cfg *config.Config, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, log: logger}
}

// Evaluate runs a scenario script against a new world.
//
// Return semantics:
//   - On success: returns report + nil errors + nil error
//   - On parse/eval failure: returns nil report + eval errors + nil error
//   - On fatal failure (bad config, timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Report, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		rep, evalErrs, err := e.evaluate(source)
		ch <- evalResult{report: rep, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Report, []EvalError, error) {
	w, err := world.New(e.cfg, nil, e.log)
	if err != nil {
		return nil, nil, fmt.Errorf("engine: %w", err)
	}
	rep := &Report{World: w}

	// Empty source is a valid scenario that leaves the world untouched.
	if strings.TrimSpace(source) == "" {
		return rep, nil, nil
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, &session{world: w, report: rep, log: e.log})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	e.log.Debug("scenario evaluated",
		zap.Int("frames", rep.Frames),
		zap.Int("slices", rep.Slices),
		zap.Int("warnings", len(rep.Warnings)))
	return rep, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values, keeping
// the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
