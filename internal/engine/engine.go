// Package engine runs the workflow compliance pipeline: discover, parse,
// evaluate, aggregate. Each invocation builds its own state from scratch
// and discards it with the report.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/config"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/discover"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/manifest"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/rules"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/workflow"
)

// Options select what one analysis run evaluates.
type Options struct {
	// ActiveAreas restricts evaluation to the named areas. Empty means all.
	ActiveAreas []string
	// IncludeFramework keeps framework scaffold files among the subjects.
	IncludeFramework bool
	// Parallelism bounds concurrent file parsing. Zero means NumCPU.
	Parallelism int
}

// Engine evaluates a project against the fixed rule catalogue. It holds
// no per-run state and is safe for concurrent use.
type Engine struct {
	cfg config.Config
	log *slog.Logger
}

func New(cfg config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, log: logger}
}

// parsed is the per-file outcome of the parse stage. A parse failure
// degrades that file's results to N/A, never the whole run.
type parsed struct {
	path  string
	model *workflow.Model
	err   error
}

// scored carries one checkpoint result together with its stable sort key:
// area declaration order, checkpoint declaration order, subject discovery
// order. Parallel completion order is not meaningful.
type scored struct {
	areaIdx int
	cpIdx   int
	subjIdx int
	cp      rules.Checkpoint
	verdict rules.Verdict
}

// Analyze runs the full pipeline on the project at root.
func (e *Engine) Analyze(ctx context.Context, root string, opts Options) (*Report, error) {
	man, err := manifest.Load(root)
	if err != nil {
		return nil, err
	}

	all, err := discover.Workflows(root, e.cfg.Analysis.WorkflowExtension)
	if err != nil {
		return nil, err
	}

	// The main entry point must resolve against the full discovered set;
	// the scaffold denylist never makes a valid project malformed. An
	// entirely empty project is the degenerate valid case.
	if len(all) > 0 && man.Main != "" && !containsPath(all, man.Main) {
		return nil, &manifest.Error{
			Path:   filepath.Join(root, manifest.FileName),
			Reason: fmt.Sprintf("main entry point %q does not resolve to a discovered workflow", man.Main),
		}
	}

	subjects := all
	if !opts.IncludeFramework {
		subjects = discover.ExcludeScaffold(all, e.cfg.Analysis.ScaffoldFiles)
	}

	models, err := e.parseAll(ctx, root, subjects, opts.Parallelism)
	if err != nil {
		return nil, err
	}

	results := e.evaluate(ctx, man, models, opts)
	return assemble(activeAreas(opts.ActiveAreas), results), nil
}

// parseAll reads and parses the subject files concurrently, preserving
// discovery order in the returned slice.
func (e *Engine) parseAll(ctx context.Context, root string, subjects []string, parallelism int) ([]parsed, error) {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	out := make([]parsed, len(subjects))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, rel := range subjects {
		i, rel := i, rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				out[i] = parsed{path: rel, err: &workflow.ParseError{Path: rel, Err: err}}
				return nil
			}
			model, err := workflow.Parse(rel, data)
			if err != nil {
				e.log.Warn("workflow parse failed", "path", rel, "error", err)
				out[i] = parsed{path: rel, err: err}
				return nil
			}
			out[i] = parsed{path: rel, model: model}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// evaluate runs the active catalogue. Workflow subjects are evaluated
// concurrently; results are re-sorted into the deterministic emission
// order afterwards.
func (e *Engine) evaluate(ctx context.Context, man *manifest.Manifest, models []parsed, opts Options) []scored {
	active := activeAreas(opts.ActiveAreas)

	var healthy []*workflow.Model
	for _, p := range models {
		if p.err == nil {
			healthy = append(healthy, p.model)
		}
	}
	rctx := &rules.Context{
		Manifest: man,
		Models:   healthy,
		Analysis: e.cfg.Analysis,
	}

	var mu sync.Mutex
	var results []scored
	emit := func(s scored) {
		mu.Lock()
		results = append(results, s)
		mu.Unlock()
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	catalogue := rules.Catalogue()
	for areaIdx, area := range catalogue {
		if !active[area.Name] {
			continue
		}
		for cpIdx, cp := range area.Checkpoints {
			areaIdx, cpIdx, cp := areaIdx, cpIdx, cp
			switch cp.Scope {
			case rules.ProjectScope:
				// Project-scoped checkpoints need at least one subject;
				// an empty project reports zero results everywhere.
				if len(models) == 0 {
					continue
				}
				g.Go(func() error {
					emit(scored{areaIdx: areaIdx, cpIdx: cpIdx, cp: cp, verdict: safeEval(cp, nil, rctx)})
					return nil
				})
			default:
				for subjIdx, p := range models {
					subjIdx, p := subjIdx, p
					g.Go(func() error {
						var v rules.Verdict
						if p.err != nil {
							v = rules.NA(fmt.Sprintf("workflow could not be analyzed: %v", p.err))
						} else {
							v = safeEval(cp, p.model, rctx)
						}
						emit(scored{areaIdx: areaIdx, cpIdx: cpIdx, subjIdx: subjIdx, cp: cp, verdict: v})
						return nil
					})
				}
			}
		}
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].areaIdx != results[j].areaIdx {
			return results[i].areaIdx < results[j].areaIdx
		}
		if results[i].cpIdx != results[j].cpIdx {
			return results[i].cpIdx < results[j].cpIdx
		}
		return results[i].subjIdx < results[j].subjIdx
	})
	return results
}

// safeEval guards against a broken catalogue entry: a panicking
// evaluation function becomes a FAIL with a diagnostic comment instead of
// aborting the run.
func safeEval(cp rules.Checkpoint, m *workflow.Model, ctx *rules.Context) (v rules.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			v = rules.Failf("checkpoint %s could not be evaluated: %v", cp.ID, r)
		}
	}()
	return cp.Eval(m, ctx)
}

// assemble groups results by area in declaration order and computes the
// aggregate stats, excluding N/A from all counts.
func assemble(active map[string]bool, results []scored) *Report {
	rep := &Report{}
	catalogue := rules.Catalogue()
	byArea := make(map[string][]CheckpointReport)
	for _, s := range results {
		areaName := catalogue[s.areaIdx].Name
		byArea[areaName] = append(byArea[areaName], CheckpointReport{
			Question: s.cp.Question,
			Status:   string(s.verdict.Status),
			Comment:  s.verdict.Comment,
		})
		switch s.verdict.Status {
		case rules.StatusPass:
			rep.Stats.PassCount++
		case rules.StatusFail:
			rep.Stats.FailCount++
		}
	}
	for _, name := range rules.AreaNames() {
		if !active[name] {
			continue
		}
		cps := byArea[name]
		if cps == nil {
			cps = []CheckpointReport{}
		}
		rep.Areas = append(rep.Areas, AreaReport{
			Name:        name,
			Checkpoints: cps,
		})
	}
	rep.Stats.OverallPercentage = percentage(rep.Stats.PassCount, rep.Stats.FailCount)
	return rep
}

func activeAreas(names []string) map[string]bool {
	active := make(map[string]bool)
	if len(names) == 0 {
		for _, n := range rules.AreaNames() {
			active[n] = true
		}
		return active
	}
	for _, n := range names {
		active[n] = true
	}
	return active
}

func containsPath(paths []string, want string) bool {
	want = filepath.ToSlash(want)
	for _, p := range paths {
		if p == want || filepath.Base(p) == want {
			return true
		}
	}
	return false
}
