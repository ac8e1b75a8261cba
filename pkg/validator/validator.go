// Package validator validates seltest test files before execution.
// It parses every file upfront and reports all problems at once, so a run
// never starts against a tree that cannot produce a correct report.
package validator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/seltest-dev/seltest/pkg/suite"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Tests holds the qualified names of the valid tests, in discovery order.
	Tests []string
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *Result) addError(file, format string, args ...interface{}) {
	r.Errors = append(r.Errors, &ValidationError{File: file, Message: fmt.Sprintf(format, args...)})
}

// Validator validates test files.
type Validator struct {
	includeTags []string
	excludeTags []string
	steps       *playground.Validate
}

// New creates a new Validator.
func New(includeTags, excludeTags []string) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
		steps:       playground.New(),
	}
}

// Validate validates a tests directory or a single test file. A single file
// is named relative to its own directory.
func (v *Validator) Validate(path string) *Result {
	result := &Result{}

	info, err := os.Stat(path)
	if err != nil {
		result.addError(path, "cannot access: %v", err)
		return result
	}

	root := path
	var files []string
	if info.IsDir() {
		err = suite.Walk(path, func(file string) error {
			files = append(files, file)
			return nil
		})
		if err != nil {
			result.addError(path, "failed to scan directory: %v", err)
			return result
		}
	} else {
		root = filepath.Dir(path)
		files = []string{path}
	}

	seen := make(map[string]string)
	for _, file := range files {
		v.validateFile(root, file, result, seen)
	}
	return result
}

func (v *Validator) validateFile(root, file string, result *Result, seen map[string]string) {
	name, err := suite.QualifiedName(root, file)
	if err != nil {
		result.addError(file, "%v", err)
		return
	}
	for _, seg := range strings.Split(name, ".") {
		if strings.TrimSpace(seg) == "" {
			result.addError(file, "test name %q has an empty segment", name)
			return
		}
	}

	test, err := suite.ParseFile(file)
	if err != nil {
		result.Errors = append(result.Errors, err)
		return
	}
	test.QualifiedName = name

	if !suite.ShouldInclude(test, v.includeTags, v.excludeTags) {
		return
	}

	if prev, ok := seen[name]; ok {
		result.addError(file, "duplicate test name %s (also defined in %s)", name, prev)
		return
	}
	seen[name] = file

	if len(test.Steps) == 0 {
		result.addError(file, "test has no steps")
		return
	}

	valid := true
	for i, step := range test.Steps {
		if err := v.validateStep(step); err != nil {
			result.addError(file, "step %d (%s): %v", i+1, step.Type(), err)
			valid = false
		}
	}
	if valid {
		result.Tests = append(result.Tests, name)
	}
}

// validateStep checks the struct constraints declared on the step type.
func (v *Validator) validateStep(step suite.Step) error {
	err := v.steps.Struct(step)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describeFieldError(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "required_without_all":
		return "a css, id or xpath selector is required"
	case "gte":
		return fmt.Sprintf("%s must be >= %s", strings.ToLower(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag())
	}
}
