package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raymyers/ralph-objc/pkg/config"
	"github.com/raymyers/ralph-objc/pkg/diag"
	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/loader"
)

const counterYAML = `
package: com.example
file: com/example/Counter.java
types:
  - name: Counter
    modifiers: [public]
    fields:
      - {name: count, type: int, modifiers: [private]}
    methods:
      - name: inc
        returns: void
        body:
          - assign: {op: "+=", to: count, value: 1}
`

const shapesYAML = `
package: com.example.shapes
file: com/example/shapes/Shape.java
types:
  - name: Shape
    kind: interface
    modifiers: [public]
    methods:
      - {name: area, returns: double, modifiers: [public, abstract]}
`

const boxYAML = `
package: com.example
file: com/example/Box.java
types:
  - name: Box
    methods:
      - name: take
        returns: void
        params: [{name: o, type: Object}]
        body: []
      - name: use
        returns: void
        body:
          - call: {method: take, args: [5]}
      - name: pick
        returns: int
        params: [{name: b, type: Boolean}]
        body:
          - return: {cond: {cond: b, then: 1, else: 2}}
`

const stringSwitchYAML = `
package: com.example
file: com/example/Bad.java
types:
  - name: Bad
    methods:
      - name: pick
        returns: int
        params: [{name: s, type: String}]
        body:
          - switch:
              expr: s
              body:
                - case: {string: a}
                - return: 1
          - return: 0
`

func decode(t *testing.T, srcs ...string) []*jast.CompilationUnit {
	t.Helper()
	var units []*jast.CompilationUnit
	for i, src := range srcs {
		us, err := loader.Decode(filepath.Join("in", string(rune('a'+i))+".yaml"), []byte(src))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		units = append(units, us...)
	}
	return units
}

func paths(r Result) []string {
	var out []string
	for _, f := range r.Files {
		out = append(out, f.Path)
	}
	return out
}

func TestTranslateUnit(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantPaths []string
		wantText  string
	}{
		{
			name:      "class",
			src:       counterYAML,
			wantPaths: []string{"com/example/Counter.h", "com/example/Counter.m"},
			wantText:  "@interface ComExampleCounter : NSObject",
		},
		{
			name:      "interface",
			src:       shapesYAML,
			wantPaths: []string{"com/example/shapes/Shape.h"},
			wantText:  "@protocol ComExampleShapesShape",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(config.Default(), nil)
			units := decode(t, tt.src)
			s.Prepare(units)
			r := s.TranslateUnit(units[0])
			if r.Err != nil {
				t.Fatalf("TranslateUnit: %v", r.Err)
			}
			got := paths(r)
			if len(got) != len(tt.wantPaths) {
				t.Fatalf("paths = %v, want %v", got, tt.wantPaths)
			}
			for i := range got {
				if got[i] != tt.wantPaths[i] {
					t.Errorf("path[%d] = %s, want %s", i, got[i], tt.wantPaths[i])
				}
			}
			if !strings.Contains(r.Files[0].Text, tt.wantText) {
				t.Errorf("header missing %q:\n%s", tt.wantText, r.Files[0].Text)
			}
		})
	}
}

func TestTranslateUnit_BoxedValueImports(t *testing.T) {
	s := New(config.Default(), nil)
	units := decode(t, boxYAML)
	s.Prepare(units)
	r := s.TranslateUnit(units[0])
	if r.Err != nil {
		t.Fatalf("TranslateUnit: %v", r.Err)
	}
	if len(r.Files) != 2 {
		t.Fatalf("paths = %v", paths(r))
	}
	impl := r.Files[1].Text

	tests := []struct {
		name string
		want string
	}{
		{"boxed argument", "[self takeWithId:[JavaLangInteger valueOfWithInt:5]];"},
		{"unboxed condition", "return [b booleanValue] ? 1 : 2;"},
		{"integer import", "#import \"java/lang/Integer.h\""},
		{"boolean import", "#import \"java/lang/Boolean.h\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(impl, tt.want) {
				t.Errorf("implementation missing %q:\n%s", tt.want, impl)
			}
		})
	}
	if strings.Index(impl, "java/lang/Integer.h") > strings.Index(impl, "@implementation") {
		t.Errorf("import written after the implementation:\n%s", impl)
	}
}

func TestTranslateUnit_Deterministic(t *testing.T) {
	for _, src := range []string{counterYAML, boxYAML, shapesYAML} {
		s := New(config.Default(), nil)
		units := decode(t, src)
		s.Prepare(units)
		first := s.TranslateUnit(units[0])
		again := s.TranslateUnit(units[0])
		if first.Err != nil || again.Err != nil {
			t.Fatalf("TranslateUnit: %v, %v", first.Err, again.Err)
		}
		if diff := cmp.Diff(first.Files, again.Files); diff != "" {
			t.Errorf("%s: second translation differs (-first +again):\n%s", units[0].File, diff)
		}

		fresh := New(config.Default(), nil)
		others := decode(t, src)
		fresh.Prepare(others)
		if diff := cmp.Diff(first.Files, fresh.TranslateUnit(others[0]).Files); diff != "" {
			t.Errorf("%s: new session differs (-first +fresh):\n%s", units[0].File, diff)
		}
	}
}

func TestTranslateUnit_Unsupported(t *testing.T) {
	s := New(config.Default(), nil)
	units := decode(t, stringSwitchYAML)
	r := s.TranslateUnit(units[0])
	if !errors.Is(r.Err, diag.ErrUnsupported) {
		t.Fatalf("Err = %v, want an unsupported construct", r.Err)
	}
	if len(r.Files) != 0 {
		t.Errorf("failed unit produced %d files", len(r.Files))
	}
	if len(r.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want one", r.Diagnostics)
	}
	d := r.Diagnostics[0]
	if d.Kind != diag.Unsupported || d.File != "com/example/Bad.java" || !strings.Contains(d.Msg, "switch on a String") {
		t.Errorf("diagnostic = %s", d)
	}
}

func TestTranslateAll(t *testing.T) {
	tests := []struct {
		name       string
		jobs       int
		srcs       []string
		wantFailed int
	}{
		{"sequential", 1, []string{counterYAML, shapesYAML}, 0},
		{"unlimited", 0, []string{counterYAML, shapesYAML, stringSwitchYAML}, 1},
		{"bounded", 2, []string{stringSwitchYAML, counterYAML, shapesYAML}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(config.Default(), nil)
			units := decode(t, tt.srcs...)
			results, err := s.TranslateAll(context.Background(), units, tt.jobs)
			if err != nil {
				t.Fatalf("TranslateAll: %v", err)
			}
			if len(results) != len(units) {
				t.Fatalf("got %d results for %d units", len(results), len(units))
			}
			for i, r := range results {
				if r.Unit != units[i] {
					t.Errorf("result %d is for %s, want %s", i, r.Unit.File, units[i].File)
				}
			}
			if got := Failed(results); got != tt.wantFailed {
				t.Errorf("Failed = %d, want %d", got, tt.wantFailed)
			}
		})
	}
}

func TestTranslateAll_Canceled(t *testing.T) {
	s := New(config.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.TranslateAll(ctx, decode(t, counterYAML), 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSession_Prefixes(t *testing.T) {
	opts := config.Default()
	p, err := config.NewPrefixes(map[string]string{"com.example.*": "EX"})
	if err != nil {
		t.Fatal(err)
	}
	opts.Prefixes = p
	s := New(opts, nil)
	units := decode(t, counterYAML, shapesYAML)
	results, err := s.TranslateAll(context.Background(), units, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"@interface EXCounter : NSObject", "@protocol EXShape"} {
		found := false
		for _, r := range results {
			if strings.Contains(r.Files[0].Text, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("no header contains %q", want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "units.yaml")
	if err := os.WriteFile(path, []byte(counterYAML+"\n---\n"+shapesYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(config.Default(), nil)
	units, err := s.Load([]string{path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(units) != 2 {
		t.Errorf("loaded %d units, want 2", len(units))
	}

	if _, err := s.Load([]string{filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestWriteFiles(t *testing.T) {
	s := New(config.Default(), nil)
	units := decode(t, counterYAML)
	s.Prepare(units)
	r := s.TranslateUnit(units[0])
	if r.Err != nil {
		t.Fatal(r.Err)
	}
	dir := t.TempDir()
	if err := WriteFiles(dir, r.Files); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	for _, f := range r.Files {
		data, err := os.ReadFile(filepath.Join(dir, f.Path))
		if err != nil {
			t.Fatalf("reading %s: %v", f.Path, err)
		}
		if string(data) != f.Text {
			t.Errorf("%s differs from the generated text", f.Path)
		}
	}
}
