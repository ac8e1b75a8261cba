package suite

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTest(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestQualifiedName(t *testing.T) {
	root := filepath.Join("tests")
	tests := []struct {
		file string
		want string
	}{
		{filepath.Join("tests", "Control", "ControlPass.yaml"), "Control.ControlPass"},
		{filepath.Join("tests", "A", "B", "t1.yml"), "A.B.t1"},
		{filepath.Join("tests", "Root.yaml"), "Root"},
	}

	for _, tt := range tests {
		got, err := QualifiedName(root, tt.file)
		if err != nil {
			t.Fatalf("QualifiedName(%q): %v", tt.file, err)
		}
		if got != tt.want {
			t.Errorf("QualifiedName(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestQualifiedName_OutsideRoot(t *testing.T) {
	if _, err := QualifiedName("tests", filepath.Join("other", "x.yaml")); err == nil {
		t.Error("expected error for file outside root")
	}
}

func TestLoadDirectory(t *testing.T) {
	root := t.TempDir()
	writeTest(t, root, "B/second.yaml", "tags: [regression]\n---\n- log: b\n")
	writeTest(t, root, "A/first.yaml", "tags: [smoke]\n---\n- log: a\n")
	writeTest(t, root, "A/Sub/third.yml", "- log: c\n")
	writeTest(t, root, "notes.txt", "not a test")
	writeTest(t, root, ".hidden/skip.yaml", "- log: hidden\n")

	tests, err := LoadDirectory(root, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, tc := range tests {
		names = append(names, tc.QualifiedName)
	}
	want := []string{"A.Sub.third", "A.first", "B.second"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}

	tests, err = LoadDirectory(root, []string{"smoke"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tests) != 1 || tests[0].QualifiedName != "A.first" {
		t.Errorf("include smoke: got %v", Names(tests))
	}

	tests, err = LoadDirectory(root, nil, []string{"regression"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tests) != 2 {
		t.Errorf("exclude regression: expected 2 tests, got %v", Names(tests))
	}
}

func TestLoadDirectory_SkipsInvalidFiles(t *testing.T) {
	root := t.TempDir()
	writeTest(t, root, "good.yaml", "- log: ok\n")
	writeTest(t, root, "bad.yaml", "- tapOn: nope\n")

	tests, err := LoadDirectory(root, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tests) != 1 || tests[0].QualifiedName != "good" {
		t.Errorf("expected only the valid test, got %v", Names(tests))
	}
}

func TestLoadDirectory_NotADirectory(t *testing.T) {
	root := t.TempDir()
	writeTest(t, root, "file.yaml", "- log: ok\n")

	if _, err := LoadDirectory(filepath.Join(root, "file.yaml"), nil, nil); err == nil {
		t.Error("expected error for a file path")
	}
	if _, err := LoadDirectory(filepath.Join(root, "missing"), nil, nil); err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestShouldInclude(t *testing.T) {
	test := &Test{Config: Config{Tags: []string{"smoke", "login"}}}

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    bool
	}{
		{"no filters", nil, nil, true},
		{"include match", []string{"smoke"}, nil, true},
		{"include miss", []string{"nightly"}, nil, false},
		{"exclude match", nil, []string{"login"}, false},
		{"include and exclude", []string{"smoke"}, []string{"login"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldInclude(test, tt.include, tt.exclude); got != tt.want {
				t.Errorf("ShouldInclude() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchSuite(t *testing.T) {
	tests := []*Test{
		{QualifiedName: "Login.Valid"},
		{QualifiedName: "Login.Invalid"},
		{QualifiedName: "Login.Sso.Google"},
		{QualifiedName: "Search.Basic"},
		{QualifiedName: "LoginExtra.Other"},
	}

	cases := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"category prefix", []string{"Login"}, []string{"Login.Valid", "Login.Invalid", "Login.Sso.Google"}},
		{"direct children glob", []string{"Login.*"}, []string{"Login.Valid", "Login.Invalid"}},
		{"exact name", []string{"Search.Basic"}, []string{"Search.Basic"}},
		{"several patterns", []string{"Search", "Login.Sso.*"}, []string{"Login.Sso.Google", "Search.Basic"}},
		{"no match", []string{"Checkout"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MatchSuite(tests, tc.patterns)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var names []string
			for _, g := range got {
				names = append(names, g.QualifiedName)
			}
			if !reflect.DeepEqual(names, tc.want) {
				t.Errorf("MatchSuite(%v) = %v, want %v", tc.patterns, names, tc.want)
			}
		})
	}
}

func TestMatchSuite_InvalidPattern(t *testing.T) {
	if _, err := MatchSuite(nil, []string{"Login.["}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}
