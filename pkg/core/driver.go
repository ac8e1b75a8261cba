package core

import (
	"time"

	"github.com/seltest-dev/seltest/pkg/suite"
)

// Driver defines the interface for executing browser commands.
// Implementations: chrome (chromedp), mock.
// The Runner handles test logic; Driver just executes individual commands.
type Driver interface {
	// Execute runs a single browser step and returns the result
	Execute(step suite.Step) *CommandResult

	// Screenshot captures the current viewport as PNG
	Screenshot() ([]byte, error)

	// PageSource returns the outer HTML of the current document
	PageSource() ([]byte, error)

	// GetBrowserInfo returns browser and window details
	GetBrowserInfo() *BrowserInfo

	// Quit closes the browser session and releases its resources
	Quit() error
}

// CommandResult represents the outcome of executing a single command
type CommandResult struct {
	// Core outcome
	Success  bool          `json:"success"`
	Error    error         `json:"-"`
	Duration time.Duration `json:"duration"`

	// Human-readable output
	Message string `json:"message,omitempty"`

	// Element information (for click, assert, wait)
	Element *ElementInfo `json:"element,omitempty"`

	// Generic data for command-specific results
	// Examples: evaluated script value, page title, screenshot bytes
	Data interface{} `json:"data,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(msg string) *CommandResult {
	return &CommandResult{Success: true, Message: msg}
}

// Failed builds a failed result carrying err.
func Failed(err error, msg string) *CommandResult {
	return &CommandResult{Success: false, Error: err, Message: msg}
}

// ElementInfo represents information about a DOM element
type ElementInfo struct {
	Selector   string            `json:"selector"`
	TagName    string            `json:"tagName,omitempty"`
	Text       string            `json:"text,omitempty"`
	Visible    bool              `json:"visible"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// BrowserInfo contains browser and window details
type BrowserInfo struct {
	Browser      string `json:"browser"`            // e.g., "chrome", "mock"
	Version      string `json:"version,omitempty"`  // product version reported by the browser
	UserAgent    string `json:"userAgent,omitempty"`
	Headless     bool   `json:"headless"`
	WindowWidth  int    `json:"windowWidth"`
	WindowHeight int    `json:"windowHeight"`
}

// ExecutedBy indicates what component executed a step
type ExecutedBy string

// ExecutedBy values
const (
	ExecutedByDriver ExecutedBy = "driver" // Executed by the browser Driver
	ExecutedByRunner ExecutedBy = "runner" // Executed by the Runner (log, scripts, sleep)
)
