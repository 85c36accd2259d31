// Package driver runs translation sessions: it loads serialized units, shares
// one naming service across them, emits each unit's files and writes them
// out.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/raymyers/ralph-objc/pkg/config"
	"github.com/raymyers/ralph-objc/pkg/diag"
	"github.com/raymyers/ralph-objc/pkg/emit"
	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/loader"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/names"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

// Session translates the units of one run. Every unit goes through the same
// Resolver, so a type referenced from several units is named once.
type Session struct {
	ID string

	opts   config.Options
	names  *names.Resolver
	types  *typemap.Mapper
	policy memory.Policy
	logger *slog.Logger
}

// Result is the outcome of translating one unit. Err is set when the unit
// was abandoned; Files is then empty.
type Result struct {
	Unit        *jast.CompilationUnit
	Files       []emit.File
	Diagnostics []diag.Diagnostic
	Err         error
}

// New starts a session. A nil logger discards.
func New(opts config.Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	id := uuid.NewString()
	r := names.New(opts.Prefixes)
	s := &Session{
		ID:     id,
		opts:   opts,
		names:  r,
		types:  typemap.New(r),
		policy: memory.New(opts.UseReferenceCounting()),
		logger: logger.With(slog.String("session", id)),
	}
	s.logger.Debug("session started",
		slog.String("memory_model", string(opts.MemoryModel)),
		slog.Int("prefixes", opts.Prefixes.Len()))
	return s
}

// Names returns the session's naming service.
func (s *Session) Names() *names.Resolver { return s.names }

// Load decodes every unit in the files at paths.
func (s *Session) Load(paths []string) ([]*jast.CompilationUnit, error) {
	var units []*jast.CompilationUnit
	for _, p := range paths {
		us, err := loader.Load(p)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("loaded", slog.String("path", p), slog.Int("units", len(us)))
		units = append(units, us...)
	}
	return units, nil
}

// Prepare settles the names of local classes across units. It must run
// before any unit is translated.
func (s *Session) Prepare(units []*jast.CompilationUnit) {
	var types []*jast.TypeBinding
	for _, u := range units {
		for _, td := range jast.AllTypes(u) {
			types = append(types, td.Binding)
		}
	}
	s.names.DisambiguateLocalTypes(types)
}

// TranslateUnit emits the files of one unit. An unsupported construct
// abandons the unit; it is returned in Err and as a diagnostic.
func (s *Session) TranslateUnit(u *jast.CompilationUnit) Result {
	collector := diag.NewCollector(u.File, s.logger)
	res := Result{Unit: u}
	e, err := emit.New(emit.Config{
		Names:             s.names,
		Types:             s.types,
		Policy:            s.policy,
		Reporter:          collector,
		InlineFieldAccess: s.opts.InlineFieldAccess,
		LineDirectives:    s.opts.EmitLineDirectives,
		TestMain:          s.opts.GenerateTestMain,
	}, u)
	if err == nil {
		res.Files, err = e.Files()
	}
	res.Diagnostics = collector.Diagnostics()
	if err != nil {
		var ue *diag.UnsupportedError
		if errors.As(err, &ue) {
			res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{File: u.File, Line: ue.Pos.Line, Kind: diag.Unsupported, Msg: ue.Msg})
		}
		res.Files = nil
		res.Err = fmt.Errorf("%s: %w", u.File, err)
		s.logger.Error("unit failed", slog.String("unit", u.File), slog.Any("err", err))
		return res
	}
	s.logger.Info("translated",
		slog.String("unit", u.File),
		slog.Int("types", len(jast.AllTypes(u))),
		slog.Int("files", len(res.Files)),
		slog.Int("diagnostics", len(res.Diagnostics)))
	return res
}

// TranslateAll prepares units and translates them with at most jobs running
// at once (no limit when jobs < 1). Results are in unit order. The error is
// only ever the context's; failed units are reported in their Result.
func (s *Session) TranslateAll(ctx context.Context, units []*jast.CompilationUnit, jobs int) ([]Result, error) {
	s.Prepare(units)
	results := make([]Result, len(units))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.TranslateUnit(u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Failed counts the results carrying an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// WriteFiles writes files under dir, creating package directories.
func WriteFiles(dir string, files []emit.File) error {
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(f.Text), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
