package objc

import (
	"bytes"
	"testing"
)

func TestWriter_Indentation(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Line("if (x) {")
	w.Indent()
	w.Line("y = 1;")
	w.Indent()
	w.Line("z = %d;", 2)
	w.Dedent()
	w.Dedent()
	w.Dedent()
	w.Line("}")

	expected := "if (x) {\n  y = 1;\n    z = 2;\n}\n"
	if got := buf.String(); got != expected {
		t.Errorf("got:\n%s\nwant:\n%s", got, expected)
	}
}

func TestWriter_Raw(t *testing.T) {
	b := NewBuffer()
	b.Indent()
	b.Raw("a;\n\nb;\n")
	if got, want := b.String(), "  a;\n\n  b;\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriter_Print(t *testing.T) {
	b := NewBuffer()
	b.Indent()
	b.Print("a;\n  b;\n")
	if got, want := b.String(), "a;\n  b;\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriter_SyncLine(t *testing.T) {
	tests := []struct {
		name     string
		enable   bool
		lines    []int
		expected string
	}{
		{"disabled", false, []int{3, 4}, ""},
		{"enabled", true, []int{3, 4}, "#line 3 \"Foo.java\"\n#line 4 \"Foo.java\"\n"},
		{"repeated line", true, []int{3, 3}, "#line 3 \"Foo.java\"\n"},
		{"unknown line", true, []int{0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer()
			if tt.enable {
				b.EnableLineDirectives("Foo.java")
			}
			if b.LineDirectives() != tt.enable {
				t.Errorf("LineDirectives() = %v", b.LineDirectives())
			}
			for _, n := range tt.lines {
				b.SyncLine(n)
			}
			if got := b.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
