package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// prefixFile is the TOML layout of a prefix file:
//
//	[prefixes]
//	"com.google.common" = "GC"
//	"org.example.*" = "EX"
type prefixFile struct {
	Prefixes map[string]string `toml:"prefixes"`
}

// Prefixes maps package paths to short name prefixes. A key ending in ".*"
// also covers every sub-package; the longest match wins.
type Prefixes struct {
	exact     map[string]string
	wildcards []wildcard // sorted longest first
}

type wildcard struct {
	pkg    string
	prefix string
}

// EmptyPrefixes returns a table with no mappings.
func EmptyPrefixes() *Prefixes {
	return &Prefixes{exact: map[string]string{}}
}

// NewPrefixes validates m and builds a table from it.
func NewPrefixes(m map[string]string) (*Prefixes, error) {
	p := EmptyPrefixes()
	for pkg, prefix := range m {
		if !isIdentifier(prefix) {
			return nil, fmt.Errorf("%w: prefix %q for package %q is not an identifier", ErrInvalidOption, prefix, pkg)
		}
		if base, ok := strings.CutSuffix(pkg, ".*"); ok {
			p.wildcards = append(p.wildcards, wildcard{pkg: base, prefix: prefix})
			continue
		}
		p.exact[pkg] = prefix
	}
	sort.Slice(p.wildcards, func(i, j int) bool {
		if len(p.wildcards[i].pkg) != len(p.wildcards[j].pkg) {
			return len(p.wildcards[i].pkg) > len(p.wildcards[j].pkg)
		}
		return p.wildcards[i].pkg < p.wildcards[j].pkg
	})
	return p, nil
}

// ParsePrefixes decodes a TOML prefix table.
func ParsePrefixes(data []byte) (*Prefixes, error) {
	var f prefixFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing prefixes: %w", err)
	}
	return NewPrefixes(f.Prefixes)
}

// LoadPrefixes reads and decodes a TOML prefix file.
func LoadPrefixes(path string) (*Prefixes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prefix file: %w", err)
	}
	return ParsePrefixes(data)
}

// Lookup returns the prefix configured for pkg.
func (p *Prefixes) Lookup(pkg string) (string, bool) {
	if p == nil {
		return "", false
	}
	if prefix, ok := p.exact[pkg]; ok {
		return prefix, true
	}
	for _, w := range p.wildcards {
		if pkg == w.pkg || strings.HasPrefix(pkg, w.pkg+".") {
			return w.prefix, true
		}
	}
	return "", false
}

// Len returns the number of configured mappings.
func (p *Prefixes) Len() int {
	if p == nil {
		return 0
	}
	return len(p.exact) + len(p.wildcards)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
