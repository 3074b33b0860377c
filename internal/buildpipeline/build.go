// Package buildpipeline turns a directory of typed modules into a tree of
// Nix files: load, generate, write.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"nixgen/internal/backend/nix"
	"nixgen/internal/diag"
	"nixgen/internal/observ"
	"nixgen/internal/project"
	"nixgen/internal/source"
	"nixgen/internal/tast"
	"nixgen/internal/tastio"
	"nixgen/internal/trace"
	"nixgen/internal/version"
)

// Request configures one build.
type Request struct {
	SrcDir         string
	OutDir         string
	Jobs           int // 0 = GOMAXPROCS
	LineWidth      int
	EnforceTargets bool
	MaxDiagnostics int
	Progress       ProgressSink
	// BaseDir anchors relative paths in diagnostics and events.
	// Defaults to SrcDir.
	BaseDir string
}

// ModuleResult describes one input file after the build.
type ModuleResult struct {
	Name    string // empty when the file could not be decoded
	File    string
	OutPath string // empty when nothing was written
	Cached  bool
	Broken  bool
	Changed bool // the output file was (re)written
}

// Result is the outcome of Build. Diagnostics are in Bag; Build only
// returns an error when the build could not run at all.
type Result struct {
	FileSet *source.FileSet
	Bag     *diag.Bag
	Modules []ModuleResult // in file order
	Timings Timings
	Timer   *observ.Timer
}

// Builder runs builds. The memory cache lives as long as the Builder;
// the disk cache is optional.
type Builder struct {
	mem  *ModuleCache
	disk *DiskCache
}

// NewBuilder returns a Builder. disk may be nil.
func NewBuilder(disk *DiskCache) *Builder {
	return &Builder{mem: NewModuleCache(64), disk: disk}
}

// Build runs a one-off build without a disk cache.
func Build(ctx context.Context, req *Request) (*Result, error) {
	return NewBuilder(nil).Build(ctx, req)
}

// unit is the per-file state of one build. Each unit is touched by one
// goroutine at a time.
type unit struct {
	path    string
	display string
	anchor  source.FileID // empty virtual file named after path
	mod     *tast.Module
	file    *source.File
	bag     *diag.Bag
	content project.Digest
	broken  bool
	output  string
	cached  bool
	res     ModuleResult
}

// report adds d, pointing location-less diagnostics at the unit's file.
func (u *unit) report(d diag.Diagnostic) {
	if d.Primary == (source.Span{}) {
		d.Primary = source.Span{File: u.anchor}
	}
	u.bag.Add(d)
	if d.Severity >= diag.SevError {
		u.broken = true
	}
}

func (u *unit) firstError() *diag.Diagnostic {
	for _, d := range u.bag.Items() {
		if d.Severity >= diag.SevError {
			return &d
		}
	}
	return nil
}

func (b *Builder) Build(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("missing build request")
	}
	if req.SrcDir == "" || req.OutDir == "" {
		return nil, fmt.Errorf("missing source or output directory")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "build")
	defer span.End("")

	files, err := ListUnits(req.SrcDir)
	if err != nil {
		span.Fail()
		return nil, fmt.Errorf("failed to list %s: %w", req.SrcDir, err)
	}

	base := req.BaseDir
	if base == "" {
		base = req.SrcDir
	}
	fs := source.NewFileSetWithBase(base)
	// FileID 0 is never a real file
	fs.AddVirtual("<nixgen>", nil)

	units := make([]*unit, len(files))
	for i, path := range files {
		u := &unit{
			path:    path,
			display: displayPath(base, path),
			anchor:  fs.AddVirtual(path, nil),
			bag:     diag.NewBag(req.MaxDiagnostics),
		}
		u.res.File = path
		units[i] = u
		emit(req.Progress, Event{File: u.display, Stage: StageLoad, Status: StatusQueued})
	}

	res := &Result{FileSet: fs, Timer: observ.NewTimer()}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	if err := b.stage(ctx, res, req, StageLoad, func(ctx context.Context) error {
		return forEach(ctx, jobs, units, func(ctx context.Context, u *unit) {
			loadUnit(ctx, req, fs, u)
		})
	}); err != nil {
		return res, err
	}

	g := newModuleGraph(units)

	if err := b.stage(ctx, res, req, StageGenerate, func(ctx context.Context) error {
		settings := project.OptionsDigest(version.Version, req.LineWidth, req.EnforceTargets)
		err := forEach(ctx, jobs, g.ready(), func(ctx context.Context, u *unit) {
			b.generate(ctx, req, g, u, settings)
		})
		g.propagateFailures()
		return err
	}); err != nil {
		return res, err
	}

	if err := b.stage(ctx, res, req, StageWrite, func(ctx context.Context) error {
		return writeOutputs(ctx, req, units)
	}); err != nil {
		return res, err
	}

	res.Bag = diag.NewBag(req.MaxDiagnostics)
	for _, u := range units {
		// в пределах юнита FileID детерминированы, между юнитами - нет
		u.bag.Sort()
		u.bag.Dedup()
		res.Bag.Merge(u.bag)
		u.res.Broken = u.broken
		res.Modules = append(res.Modules, u.res)
	}
	if res.Bag.HasErrors() {
		span.Fail()
	}
	return res, nil
}

// stage times fn and brackets it with pipeline events and a trace span.
func (b *Builder) stage(ctx context.Context, res *Result, req *Request, stage Stage, fn func(context.Context) error) error {
	ctx, span := trace.Start(ctx, trace.ScopePhase, string(stage))
	idx := res.Timer.Begin(string(stage))
	start := time.Now()
	emit(req.Progress, Event{Stage: stage, Status: StatusWorking})

	err := fn(ctx)

	elapsed := time.Since(start)
	res.Timings.Set(stage, elapsed)
	res.Timer.End(idx, "")
	status := StatusDone
	if err != nil {
		status = StatusError
		span.Fail()
	}
	emit(req.Progress, Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	span.End("")
	return err
}

// forEach runs fn over units with at most jobs goroutines. fn reports
// problems through the unit; only cancellation stops the loop.
func forEach(ctx context.Context, jobs int, units []*unit, fn func(context.Context, *unit)) error {
	if len(units) == 0 {
		return ctx.Err()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(units)))
	for _, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, u)
			return nil
		})
	}
	return g.Wait()
}

func loadUnit(ctx context.Context, req *Request, fs *source.FileSet, u *unit) {
	_, span := trace.Start(ctx, trace.ScopeModule, "load:"+u.display)
	start := time.Now()
	emit(req.Progress, Event{File: u.display, Stage: StageLoad, Status: StatusWorking})
	defer func() {
		status := StatusDone
		if u.broken {
			status = StatusError
			span.Fail()
		}
		emit(req.Progress, Event{File: u.display, Module: u.res.Name, Stage: StageLoad, Status: status, Elapsed: time.Since(start)})
		span.End("")
	}()

	// #nosec G304 -- path comes from ListUnits
	data, err := os.ReadFile(u.path)
	if err != nil {
		u.report(diag.NewError(diag.IOLoadFileError, source.Span{}, fmt.Sprintf("failed to read %s: %v", u.display, err)))
		return
	}
	decoded, err := tastio.Decode(fs, data, u.path)
	if err != nil {
		var ioErr *tastio.Error
		if errors.As(err, &ioErr) {
			u.report(ioErr.Diagnostic())
		} else {
			u.report(diag.NewError(diag.InpMalformed, source.Span{}, err.Error()))
		}
		return
	}
	u.mod = decoded.Module
	u.file = decoded.File
	u.res.Name = u.mod.Name

	var first source.Span
	if len(u.mod.Definitions) > 0 {
		first = u.mod.Definitions[0].Span
	}
	if err := project.ValidateModuleName(u.mod.Name); err != nil {
		u.report(diag.NewError(diag.InpMalformed, first, err.Error()))
		return
	}
	if project.OutputPath(u.mod.Name) == nix.PreludeFile {
		u.report(diag.NewError(diag.InpMalformed, first,
			fmt.Sprintf("module name %q clashes with the runtime prelude %s", u.mod.Name, nix.PreludeFile)))
		return
	}

	u.content = project.HashBytes(data)
	if u.file != nil {
		u.content = project.Combine(u.content, u.file.Hash)
	}
}

func (b *Builder) generate(ctx context.Context, req *Request, g *moduleGraph, u *unit, settings project.Digest) {
	_, span := trace.Start(ctx, trace.ScopeModule, "module:"+u.mod.Name)
	start := time.Now()
	emit(req.Progress, Event{File: u.display, Module: u.mod.Name, Stage: StageGenerate, Status: StatusWorking})
	defer func() {
		status := StatusDone
		if u.broken {
			status = StatusError
			span.Fail()
		}
		if u.cached {
			span.WithExtra("cache", "hit")
		}
		emit(req.Progress, Event{File: u.display, Module: u.mod.Name, Stage: StageGenerate, Status: status, Cached: u.cached, Elapsed: time.Since(start)})
		span.End("")
	}()

	key := project.Combine(g.moduleHash(u), settings)
	if out, ok := b.mem.Get(u.mod.Name, key); ok {
		u.output, u.cached = out, true
		return
	}
	var payload DiskPayload
	hit, err := b.disk.Get(key, &payload)
	if err != nil {
		u.report(diag.New(diag.SevWarning, diag.IOCacheError, source.Span{}, fmt.Sprintf("ignoring cache entry: %v", err)))
	}
	if hit && payload.Module == u.mod.Name {
		u.output, u.cached = payload.Output, true
		b.mem.Put(u.mod.Name, key, u.output)
		return
	}

	out, err := nix.EmitModule(u.mod, u.file, nix.Support{Enforced: req.EnforceTargets}, nix.WithLineWidth(req.LineWidth))
	if err != nil {
		u.report(nix.ToDiagnostic(err))
		return
	}
	u.output = out
	b.mem.Put(u.mod.Name, key, out)
	if err := b.disk.Put(key, &DiskPayload{Module: u.mod.Name, Output: out}); err != nil {
		u.report(diag.New(diag.SevWarning, diag.IOCacheError, source.Span{}, fmt.Sprintf("failed to store cache entry: %v", err)))
	}
}

func writeOutputs(ctx context.Context, req *Request, units []*unit) error {
	if err := os.MkdirAll(req.OutDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	wrote := false
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if u.mod == nil {
			continue
		}
		if u.broken || u.output == "" {
			emit(req.Progress, Event{File: u.display, Module: u.mod.Name, Stage: StageWrite, Status: StatusSkipped})
			continue
		}
		path := filepath.Join(req.OutDir, filepath.FromSlash(project.OutputPath(u.mod.Name)))
		changed, err := writeIfChanged(path, u.output)
		if err != nil {
			u.report(diag.NewError(diag.IOWriteFileError, source.Span{}, fmt.Sprintf("failed to write %s: %v", path, err)))
			emit(req.Progress, Event{File: u.display, Module: u.mod.Name, Stage: StageWrite, Status: StatusError, Err: err})
			continue
		}
		wrote = true
		u.res.OutPath = path
		u.res.Changed = changed
		u.res.Cached = u.cached
		emit(req.Progress, Event{File: u.display, Module: u.mod.Name, Stage: StageWrite, Status: StatusDone, Cached: u.cached})
	}
	if !wrote {
		return nil
	}
	prelude := filepath.Join(req.OutDir, nix.PreludeFile)
	if _, err := writeIfChanged(prelude, nix.Prelude()); err != nil {
		return fmt.Errorf("failed to write %s: %w", prelude, err)
	}
	return nil
}

func displayPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !filepath.IsAbs(rel) && rel != ".." && !hasDotDotPrefix(rel) {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
