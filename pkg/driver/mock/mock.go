// Package mock provides a mock driver for testing without a browser.
package mock

import (
	"fmt"
	"time"

	"github.com/seltest-dev/seltest/pkg/core"
	"github.com/seltest-dev/seltest/pkg/suite"
)

// Driver is a mock implementation of core.Driver for testing.
type Driver struct {
	// Configuration
	Config Config

	// Internal state
	stepCount int
	title     string
	executed  []suite.StepType
	quit      bool
}

// Config configures mock driver behavior.
type Config struct {
	// FailOnStep makes step N fail (1-indexed). 0 = never fail.
	FailOnStep int
	// StepDelay adds artificial delay per step
	StepDelay time.Duration
	// Titles maps URLs to the page title shown after opening them.
	// An unknown URL keeps the current title.
	Titles map[string]string
	// Title is the initial page title
	Title string
	// ScriptResult is returned as Data by evalScript steps
	ScriptResult interface{}
	// Browser name to report
	Browser string
}

// New creates a new mock driver.
func New(cfg Config) *Driver {
	if cfg.Browser == "" {
		cfg.Browser = "mock"
	}
	return &Driver{Config: cfg, title: cfg.Title}
}

// Execute simulates executing a step.
func (d *Driver) Execute(step suite.Step) *core.CommandResult {
	d.stepCount++
	d.executed = append(d.executed, step.Type())
	start := time.Now()

	// Simulate delay
	if d.Config.StepDelay > 0 {
		time.Sleep(d.Config.StepDelay)
	}

	// Check if this step should fail
	if d.Config.FailOnStep > 0 && d.stepCount == d.Config.FailOnStep {
		return &core.CommandResult{
			Success:  false,
			Duration: time.Since(start),
			Error:    fmt.Errorf("mock failure on step %d", d.stepCount),
			Message:  fmt.Sprintf("Simulated failure on step %d (%s)", d.stepCount, step.Type()),
		}
	}

	result := d.execute(step)
	result.Duration = time.Since(start)
	return result
}

func (d *Driver) execute(step suite.Step) *core.CommandResult {
	switch s := step.(type) {
	case *suite.OpenStep:
		if title, ok := d.Config.Titles[s.URL]; ok {
			d.title = title
		}
		return core.Succeeded("Opened " + s.URL)

	case *suite.AssertTitleStep:
		return d.checkTitle(s.Title, core.ErrTitleMismatch)

	case *suite.WaitForTitleStep:
		return d.checkTitle(s.Title, core.ErrWaitTimeout)

	case *suite.EvalScriptStep:
		r := core.Succeeded("Script evaluated")
		r.Data = d.Config.ScriptResult
		return r

	case *suite.TakeScreenshotStep:
		r := core.Succeeded("Captured screenshot " + s.Name)
		r.Data, _ = d.Screenshot()
		return r
	}

	result := core.Succeeded(fmt.Sprintf("Mock executed: %s", step.Type()))
	if sel, ok := selectorOf(step); ok {
		result.Element = &core.ElementInfo{
			Selector: sel.String(),
			TagName:  "div",
			Text:     "Mock Element",
			Visible:  true,
		}
	}
	return result
}

func (d *Driver) checkTitle(want string, failure *core.ExecutionError) *core.CommandResult {
	if d.title != want {
		return core.Failed(
			failure.WithDetails(map[string]interface{}{"expected": want, "actual": d.title}),
			fmt.Sprintf("Title is %q, expected %q", d.title, want),
		)
	}
	return core.Succeeded("Title is " + want)
}

// Screenshot returns a mock PNG image.
func (d *Driver) Screenshot() ([]byte, error) {
	// Minimal valid PNG (1x1 transparent pixel)
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

// PageSource returns a mock document.
func (d *Driver) PageSource() ([]byte, error) {
	return []byte(fmt.Sprintf(`<html><head><title>%s</title></head><body><div id="mock-element">Mock Element</div></body></html>`, d.title)), nil
}

// GetBrowserInfo returns mock browser info.
func (d *Driver) GetBrowserInfo() *core.BrowserInfo {
	return &core.BrowserInfo{
		Browser:      d.Config.Browser,
		Version:      "1.0",
		Headless:     true,
		WindowWidth:  1400,
		WindowHeight: 800,
	}
}

// Quit marks the driver closed.
func (d *Driver) Quit() error {
	d.quit = true
	return nil
}

// Executed returns the types of the steps executed so far.
func (d *Driver) Executed() []suite.StepType {
	return d.executed
}

// Closed reports whether Quit was called.
func (d *Driver) Closed() bool {
	return d.quit
}

// selectorOf returns the selector of element steps.
func selectorOf(step suite.Step) (suite.Selector, bool) {
	switch s := step.(type) {
	case *suite.ClickStep:
		return s.Selector, true
	case *suite.InputTextStep:
		return s.Selector, true
	case *suite.ClearStep:
		return s.Selector, true
	case *suite.FillAutocompleteStep:
		return s.Selector, true
	case *suite.AssertVisibleStep:
		return s.Selector, true
	case *suite.AssertNotVisibleStep:
		return s.Selector, true
	case *suite.AssertTextStep:
		return s.Selector, true
	case *suite.WaitForVisibleStep:
		return s.Selector, true
	}
	return suite.Selector{}, false
}
