package suite

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// IsTestFile reports whether path has a YAML extension.
func IsTestFile(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".yaml" || ext == ".yml"
}

// QualifiedName derives the dotted test name from a file's location below
// root: directories become categories and the base name becomes the test.
// tests/Control/ControlPass.yaml under tests → Control.ControlPass.
func QualifiedName(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s against %s: %w", file, root, err)
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is not below %s", file, root)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.Join(strings.Split(filepath.ToSlash(rel), "/"), "."), nil
}

// Walk visits every test file below root in lexical order.
func Walk(root string, fn func(file string) error) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsTestFile(p) {
			return nil
		}
		return fn(p)
	})
}

// LoadDirectory parses all test files below root. Files that fail to parse
// are skipped with a warning on stderr; the validate command reports them.
func LoadDirectory(root string, includeTags, excludeTags []string) ([]*Test, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access tests directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var tests []*Test
	err = Walk(root, func(file string) error {
		test, parseErr := ParseFile(file)
		if parseErr != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping %s: %v\n", file, parseErr)
			return nil
		}
		name, nameErr := QualifiedName(root, file)
		if nameErr != nil {
			return nameErr
		}
		test.QualifiedName = name

		if ShouldInclude(test, includeTags, excludeTags) {
			tests = append(tests, test)
		}
		return nil
	})
	return tests, err
}

// ShouldInclude checks if a test matches tag filters.
func ShouldInclude(test *Test, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 {
		hasTag := false
		for _, include := range includeTags {
			if test.HasTag(include) {
				hasTag = true
				break
			}
		}
		if !hasTag {
			return false
		}
	}

	for _, exclude := range excludeTags {
		if test.HasTag(exclude) {
			return false
		}
	}
	return true
}

// MatchSuite selects the tests whose qualified name matches any of patterns.
// Patterns use path.Match syntax against the name with "." treated as a
// separator, so "Login.*" selects direct children of Login and "Login"
// selects everything below it. Original order is preserved.
func MatchSuite(tests []*Test, patterns []string) ([]*Test, error) {
	for _, p := range patterns {
		if _, err := path.Match(toPath(p), ""); err != nil {
			return nil, fmt.Errorf("invalid suite pattern %q: %w", p, err)
		}
	}

	var selected []*Test
	for _, t := range tests {
		if matchesAny(t.QualifiedName, patterns) {
			selected = append(selected, t)
		}
	}
	return selected, nil
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if name == p || strings.HasPrefix(name, p+".") {
			return true
		}
		if ok, _ := path.Match(toPath(p), toPath(name)); ok {
			return true
		}
	}
	return false
}

func toPath(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// Names returns the qualified names of tests, sorted.
func Names(tests []*Test) []string {
	names := make([]string, 0, len(tests))
	for _, t := range tests {
		names = append(names, t.QualifiedName)
	}
	sort.Strings(names)
	return names
}
