// Package jsengine evaluates the JavaScript used by test scripts, assertTrue
// conditions and ${...} interpolation.
package jsengine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// Engine wraps a goja runtime. One engine lives for the duration of a test.
type Engine struct {
	runtime   *goja.Runtime
	variables map[string]interface{}
	output    map[string]interface{}
	console   func(level, msg string)
	testName  string
	pageTitle string
	mu        sync.Mutex
}

// New creates a new JS engine instance
func New() *Engine {
	e := &Engine{
		runtime:   goja.New(),
		variables: make(map[string]interface{}),
		output:    make(map[string]interface{}),
		console:   func(string, string) {},
	}

	e.setupBuiltins()
	return e
}

func (e *Engine) setupBuiltins() {
	e.setupConsole()
	e.runtime.Set("json", e.jsonFunc())
	// Values stored here are readable by later steps as output.<key>
	e.runtime.Set("output", e.output)
	e.runtime.Set("seltest", e.seltestObject())
}

// setupConsole adds console.log, console.error and console.warn. Output goes
// to the sink installed with SetConsole.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(level string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = fmt.Sprintf("%v", arg.Export())
			}
			e.console(level, strings.Join(parts, " "))
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc("info"))
	console.Set("error", makeConsoleFunc("error"))
	console.Set("warn", makeConsoleFunc("warn"))
	e.runtime.Set("console", console)
}

// jsonFunc returns the json() helper function
func (e *Engine) jsonFunc() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("json requires 1 argument"))
		}

		str := call.Arguments[0].String()
		result, err := e.runtime.RunString(fmt.Sprintf("JSON.parse(%q)", str))
		if err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("invalid JSON: %v", err)))
		}
		return result
	}
}

// seltestObject returns the seltest global with read-only run information.
func (e *Engine) seltestObject() *goja.Object {
	obj := e.runtime.NewObject()

	obj.DefineAccessorProperty("testName", e.runtime.ToValue(func() string {
		return e.testName
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	// Last title observed by a title step
	obj.DefineAccessorProperty("title", e.runtime.ToValue(func() string {
		return e.pageTitle
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	return obj
}

// SetConsole installs the sink for console.* calls.
func (e *Engine) SetConsole(fn func(level, msg string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn == nil {
		fn = func(string, string) {}
	}
	e.console = fn
}

// SetTestName sets seltest.testName.
func (e *Engine) SetTestName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.testName = name
}

// SetPageTitle sets seltest.title.
func (e *Engine) SetPageTitle(title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pageTitle = title
}

// SetVariable sets a variable accessible in JS as a global
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.variables[name] = value
	e.runtime.Set(name, value)
}

// SetVariables sets multiple variables
func (e *Engine) SetVariables(vars map[string]string) {
	for k, v := range vars {
		e.SetVariable(k, v)
	}
}

// GetOutput returns a copy of the output object (values set by scripts)
func (e *Engine) GetOutput() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	var source map[string]interface{}
	if v := e.runtime.Get("output"); v != nil && !goja.IsUndefined(v) {
		if m, ok := v.Export().(map[string]interface{}); ok {
			source = m
		}
	}
	if source == nil {
		source = e.output
	}

	result := make(map[string]interface{}, len(source))
	for k, v := range source {
		result[k] = v
	}
	return result
}

// Eval evaluates a JavaScript expression and returns the result
func (e *Engine) Eval(script string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}
	return result.Export(), nil
}

// EvalString evaluates a JavaScript expression and returns string result
func (e *Engine) EvalString(script string) (string, error) {
	result, err := e.Eval(script)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return fmt.Sprintf("%v", result), nil
}

// EvalBool evaluates an expression using JavaScript truthiness.
func (e *Engine) EvalBool(script string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(script)
	if err != nil {
		return false, fmt.Errorf("JS eval error: %w", err)
	}
	return result.ToBoolean(), nil
}

// RunScript runs a JavaScript program for its side effects
func (e *Engine) RunScript(script string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.runtime.RunString(script); err != nil {
		return fmt.Errorf("JS runtime error: %w", err)
	}
	return nil
}

// ExpandVariables expands ${...} expressions in a string using JS evaluation.
// Expressions that fail to evaluate are left as written.
func (e *Engine) ExpandVariables(text string) string {
	result := text
	start := 0

	for {
		idx := strings.Index(result[start:], "${")
		if idx == -1 {
			break
		}
		idx += start

		depth := 1
		end := idx + 2
		for end < len(result) && depth > 0 {
			switch result[end] {
			case '{':
				depth++
			case '}':
				depth--
			}
			end++
		}

		if depth != 0 {
			start = idx + 2
			continue
		}

		value, err := e.EvalString(result[idx+2 : end-1])
		if err != nil {
			start = end
			continue
		}

		result = result[:idx] + value + result[end:]
		start = idx + len(value)
	}

	return result
}

// Close interrupts any script still running on the engine.
func (e *Engine) Close() {
	e.runtime.Interrupt("engine closed")
}
