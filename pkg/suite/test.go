// Package suite handles parsing and discovery of seltest YAML test files.
package suite

import (
	"strings"
)

// Test represents one parsed test file.
type Test struct {
	QualifiedName string // Dot separated: categories then the test name
	SourcePath    string // Path to the source file
	Config        Config // Test configuration (description, tags, etc.)
	Steps         []Step // Steps to execute
}

// Config represents test-level configuration.
type Config struct {
	Name        string            `yaml:"name"`        // Display title, defaults to the qualified name
	Description string            `yaml:"description"` // Markdown
	URL         string            `yaml:"url"`         // Opened before the first step
	Tags        []string          `yaml:"tags"`
	Env         map[string]string `yaml:"env"`
	Timeout     int               `yaml:"timeout"` // Default per-step timeout in ms
}

// Title returns the display title of the test.
func (t *Test) Title() string {
	if t.Config.Name != "" {
		return t.Config.Name
	}
	return t.QualifiedName
}

// Segments returns the qualified name split into its dot separated parts.
func (t *Test) Segments() []string {
	return strings.Split(t.QualifiedName, ".")
}

// HasTag reports whether the test carries tag.
func (t *Test) HasTag(tag string) bool {
	for _, have := range t.Config.Tags {
		if have == tag {
			return true
		}
	}
	return false
}
