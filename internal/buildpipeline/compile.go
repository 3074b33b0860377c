package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"nixgen/internal/backend/nix"
	"nixgen/internal/diag"
	"nixgen/internal/source"
	"nixgen/internal/tastio"
	"nixgen/internal/trace"
)

// CompileRequest configures the compilation of a single typed module.
type CompileRequest struct {
	Path           string
	LineWidth      int
	EnforceTargets bool
	MaxDiagnostics int
}

// CompileResult holds the generated Nix text, or diagnostics explaining
// why there is none.
type CompileResult struct {
	Module  string
	Output  string
	FileSet *source.FileSet
	Bag     *diag.Bag
}

// Compile lowers one typed-module file without touching the output tree
// or any cache. Imports are not resolved.
func Compile(ctx context.Context, req *CompileRequest) (*CompileResult, error) {
	if req == nil || req.Path == "" {
		return nil, fmt.Errorf("missing compile request")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := trace.Start(ctx, trace.ScopeDriver, "compile")
	defer span.End("")

	fs := source.NewFileSetWithBase(filepath.Dir(req.Path))
	fs.AddVirtual("<nixgen>", nil)
	u := &unit{
		path:    req.Path,
		display: filepath.ToSlash(req.Path),
		anchor:  fs.AddVirtual(req.Path, nil),
		bag:     diag.NewBag(req.MaxDiagnostics),
	}
	res := &CompileResult{FileSet: fs, Bag: u.bag}

	// #nosec G304 -- path is provided by the user
	data, err := os.ReadFile(req.Path)
	if err != nil {
		span.Fail()
		return res, fmt.Errorf("failed to read %s: %w", req.Path, err)
	}
	decoded, err := tastio.Decode(fs, data, req.Path)
	if err != nil {
		var ioErr *tastio.Error
		if !errors.As(err, &ioErr) {
			span.Fail()
			return res, err
		}
		u.report(ioErr.Diagnostic())
		span.Fail()
		return res, nil
	}
	res.Module = decoded.Module.Name

	out, err := nix.EmitModule(decoded.Module, decoded.File, nix.Support{Enforced: req.EnforceTargets}, nix.WithLineWidth(req.LineWidth))
	if err != nil {
		u.report(nix.ToDiagnostic(err))
		span.Fail()
		return res, nil
	}
	res.Output = out
	return res, nil
}
