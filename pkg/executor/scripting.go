package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/seltest-dev/seltest/pkg/core"
	"github.com/seltest-dev/seltest/pkg/jsengine"
	"github.com/seltest-dev/seltest/pkg/suite"
)

// envVarPattern matches ALL_CAPS identifiers that look like env variables
var envVarPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9_]{2,})\b`)

// ScriptEngine handles JavaScript execution and variable management.
type ScriptEngine struct {
	js        *jsengine.Engine
	variables map[string]string
	testDir   string // Directory of the current test file (for resolving relative paths)
}

// NewScriptEngine creates a new script engine.
func NewScriptEngine() *ScriptEngine {
	return &ScriptEngine{
		js:        jsengine.New(),
		variables: make(map[string]string),
	}
}

// Close cleans up the script engine.
func (se *ScriptEngine) Close() {
	if se.js != nil {
		se.js.Close()
	}
}

// SetTestDir sets the current test directory for relative path resolution.
func (se *ScriptEngine) SetTestDir(dir string) {
	se.testDir = dir
}

// SetTestName exposes the qualified test name to scripts.
func (se *ScriptEngine) SetTestName(name string) {
	se.js.SetTestName(name)
}

// SetPageTitle exposes the last known page title to scripts.
func (se *ScriptEngine) SetPageTitle(title string) {
	se.js.SetPageTitle(title)
}

// SetConsole routes console.* output from scripts.
func (se *ScriptEngine) SetConsole(fn func(level, msg string)) {
	se.js.SetConsole(fn)
}

// SetVariable sets a variable in both Go map and JS engine.
func (se *ScriptEngine) SetVariable(name, value string) {
	se.variables[name] = value
	se.js.SetVariable(name, value)
}

// SetVariables sets multiple variables.
func (se *ScriptEngine) SetVariables(vars map[string]string) {
	for k, v := range vars {
		se.SetVariable(k, v)
	}
}

// ImportSystemEnv imports system environment variables into the script engine.
// Only imports variables matching the pattern (uppercase with underscores).
func (se *ScriptEngine) ImportSystemEnv() {
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if ok && envVarPattern.MatchString(name) {
			se.SetVariable(name, value)
		}
	}
}

// GetVariable returns a variable value.
func (se *ScriptEngine) GetVariable(name string) string {
	return se.variables[name]
}

// GetOutput returns the JS output variables.
func (se *ScriptEngine) GetOutput() map[string]interface{} {
	return se.js.GetOutput()
}

// SyncOutputToVariables copies JS output back to variables.
func (se *ScriptEngine) SyncOutputToVariables() {
	for k, v := range se.js.GetOutput() {
		se.SetVariable(k, fmt.Sprintf("%v", v))
	}
}

// ExpandVariables expands ${expr} and $VAR syntax in text.
func (se *ScriptEngine) ExpandVariables(text string) string {
	// First pass: JS engine for ${expression} syntax
	text = se.js.ExpandVariables(text)

	// Second pass: expand $VAR syntax (without braces)
	return se.expandDollarVars(text)
}

// expandDollarVar replaces $VAR with value, checking word boundaries.
func expandDollarVar(text, name, value string) string {
	pattern := "$" + name
	idx := 0
	for {
		pos := strings.Index(text[idx:], pattern)
		if pos == -1 {
			break
		}
		pos += idx

		// Check if followed by alphanumeric (would be different variable)
		endPos := pos + len(pattern)
		if endPos < len(text) {
			next := text[endPos]
			if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') ||
				(next >= '0' && next <= '9') || next == '_' {
				idx = endPos
				continue
			}
		}

		// Replace
		text = text[:pos] + value + text[endPos:]
		idx = pos + len(value)
	}
	return text
}

// expandDollarVars expands $VAR syntax (without braces) using stored variables.
func (se *ScriptEngine) expandDollarVars(text string) string {
	if !strings.Contains(text, "$") {
		return text
	}

	// Sort by length (longest first) to avoid partial matches
	names := make([]string, 0, len(se.variables))
	for name := range se.variables {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		text = expandDollarVar(text, name, se.variables[name])
	}
	return text
}

// defineMissing pre-declares ALL_CAPS names as undefined so that a
// reference to an unset variable is falsy rather than a ReferenceError.
func (se *ScriptEngine) defineMissing(script string) {
	for _, name := range envVarPattern.FindAllString(script, -1) {
		_ = se.js.RunScript(fmt.Sprintf("if (typeof %s === 'undefined') { var %s = undefined; }", name, name))
	}
}

// RunScript executes a JavaScript program.
func (se *ScriptEngine) RunScript(script string, env map[string]string) error {
	// Expand variables in script
	script = se.expandDollarVars(script)

	// Apply env variables
	se.SetVariables(env)
	se.defineMissing(script)

	if err := se.js.RunScript(script); err != nil {
		return err
	}

	// Sync output back to variables
	se.SyncOutputToVariables()
	return nil
}

// EvalCondition evaluates a script condition with JavaScript truthiness.
func (se *ScriptEngine) EvalCondition(script string) (bool, error) {
	// Extract JS from ${...} wrapper if present
	script = extractJS(script)
	// Expand any remaining $VAR style variables
	script = se.expandDollarVars(script)
	se.defineMissing(script)

	return se.js.EvalBool(script)
}

// ResolvePath resolves a relative path against the test directory.
func (se *ScriptEngine) ResolvePath(path string) string {
	if filepath.IsAbs(path) || se.testDir == "" {
		return path
	}
	return filepath.Join(se.testDir, path)
}

// extractJS extracts JavaScript from ${...} wrapper if present.
func extractJS(script string) string {
	script = strings.TrimSpace(script)
	if strings.HasPrefix(script, "${") && strings.HasSuffix(script, "}") {
		return script[2 : len(script)-1]
	}
	return script
}

// ============================================
// Step Execution Helpers
// ============================================

// ExecuteDefineVariables handles defineVariables step.
func (se *ScriptEngine) ExecuteDefineVariables(step *suite.DefineVariablesStep) *core.CommandResult {
	keys := make([]string, 0, len(step.Env))
	for k := range step.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		se.SetVariable(k, se.ExpandVariables(step.Env[k]))
	}
	return core.Succeeded(fmt.Sprintf("Defined %d variable(s)", len(step.Env)))
}

// ExecuteRunScript handles runScript step. A script ending in .js is read
// from a file relative to the test.
func (se *ScriptEngine) ExecuteRunScript(step *suite.RunScriptStep) *core.CommandResult {
	script := step.Script

	if trimmed := strings.TrimSpace(script); strings.HasSuffix(trimmed, ".js") && !strings.ContainsAny(trimmed, "\n;(") {
		filePath := se.ResolvePath(trimmed)
		content, err := os.ReadFile(filePath) //#nosec G304 -- script path comes from the test file
		if err != nil {
			return core.Failed(err, fmt.Sprintf("Cannot read script file: %s", filePath))
		}
		script = string(content)
	}

	if err := se.RunScript(script, step.Env); err != nil {
		return core.Failed(err, fmt.Sprintf("Script execution failed: %v", err))
	}
	return core.Succeeded("Script executed successfully")
}

// ExecuteAssertTrue handles assertTrue step.
func (se *ScriptEngine) ExecuteAssertTrue(step *suite.AssertTrueStep) *core.CommandResult {
	result, err := se.EvalCondition(step.Condition)
	if err != nil {
		return core.Failed(err, fmt.Sprintf("Assertion evaluation failed: %v", err))
	}
	if !result {
		return core.Failed(
			core.ErrConditionNotMet.WithDetails(map[string]interface{}{"condition": step.Condition}),
			fmt.Sprintf("assertTrue failed: %s", step.Condition),
		)
	}
	return core.Succeeded("Assertion passed")
}

// ExpandStep expands variables in all string fields of a step.
// This modifies the step in place.
func (se *ScriptEngine) ExpandStep(step suite.Step) {
	switch s := step.(type) {
	case *suite.OpenStep:
		s.URL = se.ExpandVariables(s.URL)
	case *suite.ClickStep:
		s.Selector = se.expandSelector(s.Selector)
	case *suite.InputTextStep:
		s.Selector = se.expandSelector(s.Selector)
		s.Text = se.ExpandVariables(s.Text)
	case *suite.ClearStep:
		s.Selector = se.expandSelector(s.Selector)
	case *suite.FillAutocompleteStep:
		s.Selector = se.expandSelector(s.Selector)
		s.Text = se.ExpandVariables(s.Text)
	case *suite.AssertVisibleStep:
		s.Selector = se.expandSelector(s.Selector)
	case *suite.AssertNotVisibleStep:
		s.Selector = se.expandSelector(s.Selector)
	case *suite.AssertTextStep:
		s.Selector = se.expandSelector(s.Selector)
		s.Text = se.ExpandVariables(s.Text)
	case *suite.WaitForVisibleStep:
		s.Selector = se.expandSelector(s.Selector)
	case *suite.AssertTitleStep:
		s.Title = se.ExpandVariables(s.Title)
	case *suite.WaitForTitleStep:
		s.Title = se.ExpandVariables(s.Title)
	case *suite.TakeScreenshotStep:
		s.Name = se.ExpandVariables(s.Name)
	case *suite.LogStep:
		s.Message = se.ExpandVariables(s.Message)
	case *suite.WarnStep:
		s.Message = se.ExpandVariables(s.Message)
	case *suite.FailStep:
		s.Message = se.ExpandVariables(s.Message)
	}
}

// expandSelector expands variables in selector fields and returns a copy.
func (se *ScriptEngine) expandSelector(sel suite.Selector) suite.Selector {
	sel.CSS = se.ExpandVariables(sel.CSS)
	sel.ID = se.ExpandVariables(sel.ID)
	sel.XPath = se.ExpandVariables(sel.XPath)
	return sel
}
