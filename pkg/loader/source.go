package loader

import (
	"regexp"
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
)

// positions fills in the comment ranges of the unit and the source spans of
// its native methods, which is where their code fragments are found.
func (l *Loader) positions(spec *unitSpec) {
	u := l.unit
	if len(spec.Comments) > 0 {
		for _, c := range spec.Comments {
			if c.Start < 0 || c.End > len(u.Source) || c.Start >= c.End {
				l.failf(nil, "comment range [%d,%d) outside the source", c.Start, c.End)
			}
			u.Comments = append(u.Comments, jast.Comment{Start: c.Start, End: c.End, Block: !c.Line})
		}
	} else {
		u.Comments = scanComments(u.Source)
	}

	seen := map[string]int{} // native methods by name, for overloads
	for _, td := range jast.AllTypes(u) {
		for _, md := range td.Methods {
			if !md.Binding.Modifiers.Has(jast.ModNative) {
				continue
			}
			if ms := l.specs[md]; ms != nil && len(ms.Span) == 2 {
				md.Start, md.End = ms.Span[0], ms.Span[1]
			} else {
				md.Start, md.End = nativeSpan(u.Source, u.Comments, md.Binding.Name, seen[md.Binding.Name])
				seen[md.Binding.Name]++
			}
			if md.Line == 0 && md.End > 0 {
				md.Line = strings.Count(u.Source[:md.Start], "\n") + 1
			}
		}
	}
}

// scanComments finds every comment in Java source text, skipping string and
// character literals.
func scanComments(src string) []jast.Comment {
	var out []jast.Comment
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '"', '\'':
			i = skipLiteral(src, i)
		case '/':
			if i+1 >= len(src) {
				continue
			}
			switch src[i+1] {
			case '/':
				end := strings.IndexByte(src[i:], '\n')
				if end < 0 {
					end = len(src) - i
				}
				out = append(out, jast.Comment{Start: i, End: i + end})
				i += end
			case '*':
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					out = append(out, jast.Comment{Start: i, End: len(src), Block: true})
					return out
				}
				out = append(out, jast.Comment{Start: i, End: i + 2 + end + 2, Block: true})
				i += 2 + end + 1
			}
		}
	}
	return out
}

// skipLiteral returns the index of the quote closing the literal opened at i.
func skipLiteral(src string, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q, '\n':
			return j
		}
	}
	return len(src)
}

// nativeSpan locates the nth native declaration of name and returns the
// range from its "native" keyword through the terminating semicolon, so
// that the fragment comment between them falls inside. Zero when absent.
func nativeSpan(src string, comments []jast.Comment, name string, nth int) (int, int) {
	re := regexp.MustCompile(`\bnative\b[^;{}=]*?\b` + regexp.QuoteMeta(name) + `\s*\(`)
	for _, loc := range re.FindAllStringIndex(src, -1) {
		if inComment(comments, loc[0]) {
			continue
		}
		if nth > 0 {
			nth--
			continue
		}
		for j := loc[1]; j < len(src); j++ {
			if c, ok := commentAt(comments, j); ok {
				j = c.End - 1
				continue
			}
			if src[j] == ';' {
				return loc[0], j + 1
			}
		}
		return 0, 0
	}
	return 0, 0
}

func inComment(comments []jast.Comment, off int) bool {
	_, ok := commentAt(comments, off)
	return ok
}

func commentAt(comments []jast.Comment, off int) (jast.Comment, bool) {
	for _, c := range comments {
		if off >= c.Start && off < c.End {
			return c, true
		}
	}
	return jast.Comment{}, false
}
