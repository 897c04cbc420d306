package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/zap"

	"github.com/fdoganis/clawz/pkg/config"
	"github.com/fdoganis/clawz/pkg/engine"
	"github.com/fdoganis/clawz/pkg/kernel/sdfx"
	"github.com/fdoganis/clawz/pkg/tessellate"
)

// colorPalette holds the piece colours; meshes cycle through it in order.
var colorPalette = []string{
	"#FFC185", "#B4413C", "#ECEBD5", "#DB4545", "#D2BA4C", "#964325",
}

// App runs scenarios and turns the resulting world into renderable meshes.
type App struct {
	engine *engine.Engine
	log    *zap.Logger
}

// MeshData is the JSON-serializable mesh format handed to a renderer.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalErrorData) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalResult is the full result of one scenario.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
	// Time is the simulated time the scenario reached, in seconds.
	Time    float64 `json:"time"`
	Frames  int     `json:"frames"`
	Slices  int     `json:"slices"`
	Settled bool    `json:"settled"`
}

// NewApp creates an App whose scenarios run on worlds built from cfg.
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		engine: engine.NewEngine(cfg, logger),
		log:    logger,
	}
}

// Evaluate runs a scenario and returns the visible meshes plus diagnostics.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	rep, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.log.Error("scenario failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	for _, w := range rep.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	result.Time = rep.World.Time()
	result.Frames = rep.Frames
	result.Slices = rep.Slices
	result.Settled = rep.World.AllSettled()

	meshes, err := tessellate.Tessellate(rep.World, tessellate.Options{})
	if err != nil {
		a.log.Error("tessellation failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return result
}

// Export runs a scenario and writes every active source and every shard,
// settled or not, as an STL file in dir. It returns the written paths.
func (a *App) Export(source, dir string) ([]string, error) {
	rep, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		return nil, errors.Join(errs...)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	var paths []string
	save := func(name string, write func(path string) error) error {
		path := filepath.Join(dir, name+".stl")
		if err := write(path); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		paths = append(paths, path)
		return nil
	}

	for _, s := range rep.World.Sources() {
		if !s.Active {
			continue
		}
		s := s
		if err := save(fmt.Sprintf("source-%d", s.ID), func(p string) error {
			return sdfx.SaveSTL(p, s.Mesh, s.Position)
		}); err != nil {
			return paths, err
		}
	}
	for _, set := range rep.World.Sets() {
		prefix := set.ID.String()[:8]
		for i, sh := range set.Shards {
			m := tessellate.WorldMesh(sh)
			if err := save(fmt.Sprintf("shard-%s-%d", prefix, i), func(p string) error {
				return sdfx.SaveSTL(p, m, v3.Vec{})
			}); err != nil {
				return paths, err
			}
		}
	}
	a.log.Info("scenario exported", zap.String("dir", dir), zap.Int("files", len(paths)))
	return paths, nil
}
