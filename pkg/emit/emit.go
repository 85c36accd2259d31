// Package emit assembles the declaration (.h) and definition (.m) files of a
// compilation unit from its ordered types, delegating method bodies and
// initializers to the translator.
package emit

import (
	"github.com/raymyers/ralph-objc/pkg/depsort"
	"github.com/raymyers/ralph-objc/pkg/diag"
	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/names"
	"github.com/raymyers/ralph-objc/pkg/objc"
	"github.com/raymyers/ralph-objc/pkg/translate"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

// Mode selects which of a unit's two files is emitted
type Mode int

const (
	Declaration Mode = iota // header: interfaces, protocols, signatures
	Definition              // implementation: storage and method bodies
)

func (m Mode) String() string {
	if m == Declaration {
		return "declaration"
	}
	return "definition"
}

// Extension returns the file suffix for m.
func (m Mode) Extension() string {
	if m == Declaration {
		return ".h"
	}
	return ".m"
}

// Config carries the collaborators and options of an Emitter.
type Config struct {
	Names    *names.Resolver
	Types    *typemap.Mapper
	Policy   memory.Policy
	Reporter diag.Reporter

	InlineFieldAccess bool
	LineDirectives    bool
	TestMain          bool
}

// File is one generated output file
type File struct {
	Path string // relative, e.g. "com/example/Foo.h"
	Text string
}

// Emitter writes the files of one compilation unit. Declaration must be
// emitted before Definition; the naming decisions made for the header are
// the ones the implementation relies on.
type Emitter struct {
	cfg  Config
	unit *jast.CompilationUnit
	deps *depsort.Deps
	tr   *translate.Translator

	w *objc.Writer
}

// New orders the unit's types and prepares an emitter for it.
func New(cfg Config, unit *jast.CompilationUnit) (*Emitter, error) {
	if cfg.Reporter == nil {
		cfg.Reporter = diag.NewCollector(unit.File, nil)
	}
	deps, err := depsort.New(cfg.Names, cfg.Types).Collect(unit)
	if err != nil {
		return nil, err
	}
	tr := translate.New(translate.Config{
		Names:             cfg.Names,
		Types:             cfg.Types,
		Policy:            cfg.Policy,
		Reporter:          cfg.Reporter,
		InlineFieldAccess: cfg.InlineFieldAccess,
	}, unit)
	return &Emitter{cfg: cfg, unit: unit, deps: deps, tr: tr}, nil
}

// BasePath returns the extension-less output path of the unit, derived from
// its primary type.
func (e *Emitter) BasePath() string {
	if p := e.unit.PrimaryType(); p != nil {
		return typemap.SourcePath(p.Binding)
	}
	return ""
}

// Files emits the header and, when the unit needs one, the implementation.
func (e *Emitter) Files() ([]File, error) {
	base := e.BasePath()
	h, err := e.Emit(Declaration)
	if err != nil {
		return nil, err
	}
	files := []File{{Path: base + Declaration.Extension(), Text: h}}
	if !e.NeedsDefinition() {
		return files, nil
	}
	m, err := e.Emit(Definition)
	if err != nil {
		return nil, err
	}
	return append(files, File{Path: base + Definition.Extension(), Text: m}), nil
}

// Emit returns the text of the unit's file for mode. An unsupported
// construct anywhere in the unit aborts with an error and no text.
func (e *Emitter) Emit(mode Mode) (text string, err error) {
	defer diag.Recover(&err)
	buf := objc.NewBuffer()
	e.w = buf.Writer
	if mode == Definition && e.cfg.LineDirectives {
		e.w.EnableLineDirectives(e.unit.File)
	}
	switch mode {
	case Declaration:
		e.header()
	case Definition:
		if e.unit.PrimaryType() != nil {
			e.implementation()
		}
	}
	return buf.String(), nil
}

// NeedsDefinition reports whether the unit has anything to implement.
// Interfaces without static fields declare everything in the header.
func (e *Emitter) NeedsDefinition() bool {
	for _, td := range e.deps.Ordered {
		if needsImplementation(td) {
			return true
		}
	}
	return false
}

func needsImplementation(td *jast.TypeDecl) bool {
	if !td.Binding.IsInterface() {
		return true
	}
	for _, f := range td.Fields {
		if f.Var.IsStatic() {
			return true
		}
	}
	return false
}

func (e *Emitter) banner() {
	e.w.Line("//")
	e.w.Line("//  Generated by ralph-objc from %s", e.unit.File)
	e.w.Line("//")
	e.w.Newline()
}

func (e *Emitter) guardName() string {
	if p := e.unit.PrimaryType(); p != nil {
		return "_" + e.cfg.Names.FullName(p.Binding) + "_H_"
	}
	return "_" + e.BasePath() + "_H_"
}

// header writes the declaration file.
func (e *Emitter) header() {
	e.banner()
	guard := e.guardName()
	e.w.Line("#ifndef %s", guard)
	e.w.Line("#define %s", guard)
	e.w.Newline()
	e.w.Line("#import \"JreEmulation.h\"")
	for _, imp := range e.deps.DeclImports {
		e.w.Line("#import \"%s\"", imp)
	}
	e.w.Newline()
	if len(e.deps.DeclForward) > 0 {
		for _, f := range e.deps.DeclForward {
			e.w.Line("%s", f)
		}
		e.w.Newline()
	}
	if frags := e.headerFragments(); len(frags) > 0 {
		for _, f := range frags {
			e.w.Raw(f)
		}
		e.w.Newline()
	}
	for _, td := range e.deps.Ordered {
		e.declareType(td)
	}
	e.w.Line("#endif // %s", guard)
}

// implementation writes the definition file. Bodies are rendered first so
// the imports can cover every wrapper class their boxing refers to.
func (e *Emitter) implementation() {
	body := objc.NewBuffer()
	if e.w.LineDirectives() {
		body.EnableLineDirectives(e.unit.File)
	}
	out := e.w
	e.w = body.Writer
	if e.staticStorage() {
		e.w.Newline()
	}
	for _, td := range e.deps.Ordered {
		if needsImplementation(td) {
			e.defineType(td)
		}
	}
	if e.cfg.TestMain {
		e.testMain()
	}
	e.w = out

	var boxed []string
	for _, b := range e.tr.BoxTypes() {
		boxed = append(boxed, e.cfg.Types.Header(b))
	}
	e.deps.MergeDefImports(boxed...)

	e.banner()
	e.w.Line("#import \"%s\"", typemap.HeaderPath(e.unit.PrimaryType().Binding))
	for _, imp := range e.deps.DefImports {
		e.w.Line("#import \"%s\"", imp)
	}
	e.w.Newline()
	e.w.Print(body.String())
}
