package core

import (
	"time"
)

// WarningMessage is recorded as an error on a test that ran to completion
// but raised a warning along the way.
const WarningMessage = "Warning detected. Please review test manually"

// WarningPrefix marks warning lines in a test log.
const WarningPrefix = "WARNING: "

// StepResult captures the outcome of executing a single step
type StepResult struct {
	Index      int           `json:"index"`   // 0-based position in the test
	Command    string        `json:"command"` // Step type: click, assertTitle, etc.
	ExecutedBy ExecutedBy    `json:"executedBy"`
	Status     TestStatus    `json:"status"`
	Category   ErrorCategory `json:"errorCategory,omitempty"`
	Duration   time.Duration `json:"duration"`
	Message    string        `json:"message,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// TestResult captures the complete outcome of executing one test
type TestResult struct {
	// Identity
	Name        string   `json:"name"` // Qualified, dot separated
	SourcePath  string   `json:"sourcePath"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	BrowserInfo *BrowserInfo `json:"browserInfo,omitempty"`

	// Outcome
	Status    TestStatus `json:"status"`
	Completed bool       `json:"completed"` // Every step ran without a blocking error
	Warned    bool       `json:"warned"`

	// Output
	Log    []string `json:"log,omitempty"`
	Errors []string `json:"errors,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Steps       []StepResult `json:"steps,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// AddLog appends a line to the test log.
func (r *TestResult) AddLog(line string) {
	r.Log = append(r.Log, line)
}

// AddWarning appends a warning line to the log and marks the test warned.
func (r *TestResult) AddWarning(msg string) {
	r.Log = append(r.Log, WarningPrefix+msg)
	r.Warned = true
}

// AddError appends an error line.
func (r *TestResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Finalize derives Status from Completed and Warned.
// Rules:
// - A result already in a terminal state (skipped, or finalized) is left as is
// - Completed with a warning → StatusFailed, WarningMessage appended to Errors
// - Completed → StatusPassed
// - Otherwise → StatusFailed
func (r *TestResult) Finalize() {
	if r.Status.IsTerminal() {
		return
	}
	switch {
	case r.Completed && r.Warned:
		r.AddError(WarningMessage)
		r.Status = StatusFailed
	case r.Completed:
		r.Status = StatusPassed
	default:
		r.Status = StatusFailed
	}
}

// Passed reports whether the test counts as successful.
func (r *TestResult) Passed() bool {
	return r.Status == StatusPassed
}

// SuiteResult captures the complete outcome of executing multiple tests
type SuiteResult struct {
	// Identity
	Name  string `json:"name"`
	RunID string `json:"runId"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Tests []TestResult `json:"tests"`

	// Summary
	TotalTests   int `json:"totalTests"`
	PassedTests  int `json:"passedTests"`
	FailedTests  int `json:"failedTests"`
	SkippedTests int `json:"skippedTests"`
	WarnedTests  int `json:"warnedTests"`
}

// ComputeSummary calculates test counts from the Tests slice
func (s *SuiteResult) ComputeSummary() {
	s.TotalTests = len(s.Tests)
	s.PassedTests = 0
	s.FailedTests = 0
	s.SkippedTests = 0
	s.WarnedTests = 0

	for _, t := range s.Tests {
		switch t.Status {
		case StatusPassed:
			s.PassedTests++
		case StatusFailed, StatusErrored:
			s.FailedTests++
		case StatusSkipped:
			s.SkippedTests++
		}
		if t.Warned {
			s.WarnedTests++
		}
	}
}

// Success returns true if at least one test ran and all of them passed
func (s *SuiteResult) Success() bool {
	for _, t := range s.Tests {
		if !t.Passed() {
			return false
		}
	}
	return len(s.Tests) > 0
}
