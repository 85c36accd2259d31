package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// E2ETestCase is one translation checked against expected output fragments
type E2ETestCase struct {
	Name         string   `yaml:"name"`
	Input        string   `yaml:"input"`
	Flags        []string `yaml:"flags"`
	Expect       []string `yaml:"expect"`
	ExpectOrder  []string `yaml:"expect_order"`
	ExpectUnique []string `yaml:"expect_unique"`
	ExpectNot    []string `yaml:"expect_not"`
	Skip         string   `yaml:"skip"`
}

// E2ETestFile is the layout of testdata/e2e_objc.yaml
type E2ETestFile struct {
	Tests []E2ETestCase `yaml:"tests"`
}

func TestE2EObjCYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/e2e_objc.yaml")
	if err != nil {
		t.Fatalf("e2e_objc.yaml not found: %v", err)
	}

	var testFile E2ETestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse e2e_objc.yaml: %v", err)
	}
	if len(testFile.Tests) == 0 {
		t.Fatal("e2e_objc.yaml has no tests")
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			input := filepath.Join(t.TempDir(), "unit.yaml")
			if err := os.WriteFile(input, []byte(tc.Input), 0644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			args := append([]string{"--dump"}, tc.Flags...)
			output, errOut, err := execute(append(args, input)...)
			if err != nil {
				t.Fatalf("ralph-objc failed: %v\nStderr: %s", err, errOut)
			}

			for _, exp := range tc.Expect {
				if !strings.Contains(output, exp) {
					t.Errorf("expected output to contain %q\nGot:\n%s", exp, output)
				}
			}

			lastIdx := -1
			for _, exp := range tc.ExpectOrder {
				idx := strings.Index(output[lastIdx+1:], exp)
				if idx == -1 {
					t.Errorf("expected %q after position %d\nGot:\n%s", exp, lastIdx, output)
					continue
				}
				lastIdx += 1 + idx
			}

			for _, exp := range tc.ExpectUnique {
				if count := strings.Count(output, exp); count != 1 {
					t.Errorf("expected %q to appear exactly once, found %d times\nGot:\n%s", exp, count, output)
				}
			}

			for _, exp := range tc.ExpectNot {
				if strings.Contains(output, exp) {
					t.Errorf("expected output NOT to contain %q\nGot:\n%s", exp, output)
				}
			}
		})
	}
}
