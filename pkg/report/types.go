// Package report renders seltest results.
//
// Output layout, per run directory:
//   - ResultsLogFull.html: flat list, appended to while tests run
//   - ResultsLog[<Suite>].html: category tree of every result
//   - ResultsLogFail.html: category tree of failed results only
//   - results.json: index with run metadata and every result
//   - <A>/<B>/<test>.html: per-test log
//   - screenshots/, allure-results/
package report

import (
	"time"

	"github.com/seltest-dev/seltest/pkg/core"
)

// Version is the results.json schema version.
const Version = "1.0.0"

// Separator splits a qualified test name into categories and the test name.
const Separator = "."

// Status represents the outcome of a test.
type Status string

// Status values.
const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of one test as consumed by the renderers.
type Result struct {
	Name        string    `json:"name"` // Qualified, dot separated
	Status      Status    `json:"status"`
	Warned      bool      `json:"warned,omitempty"`
	StartTime   time.Time `json:"startTime"`
	Duration    int64     `json:"duration"` // milliseconds
	Errors      []string  `json:"errors,omitempty"`
	Description string    `json:"description,omitempty"`
	LogFile     string    `json:"logFile,omitempty"`    // Relative to the run directory
	Screenshot  string    `json:"screenshot,omitempty"` // Relative to the run directory
	Tags        []string  `json:"tags,omitempty"`
}

// Passed reports whether the result counts as successful.
func (r Result) Passed() bool {
	return r.Status == StatusPassed
}

// Error returns the first error line, or "".
func (r Result) Error() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// NewResult converts an executed test into a report Result.
func NewResult(tr *core.TestResult) Result {
	r := Result{
		Name:        tr.Name,
		Warned:      tr.Warned,
		StartTime:   tr.StartTime,
		Duration:    tr.Duration.Milliseconds(),
		Errors:      append([]string(nil), tr.Errors...),
		Description: tr.Description,
		Tags:        tr.Tags,
	}
	switch tr.Status {
	case core.StatusPassed:
		r.Status = StatusPassed
	case core.StatusSkipped:
		r.Status = StatusSkipped
	default:
		r.Status = StatusFailed
	}
	for _, a := range tr.Attachments {
		if a.Name == core.AttachmentScreenshot {
			r.Screenshot = a.Path
			break
		}
	}
	return r
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Warned  int `json:"warned"`
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
		if r.Warned {
			s.Warned++
		}
	}
	return s
}

// Index is the results.json document.
type Index struct {
	Version   string            `json:"version"`
	RunID     string            `json:"runId"`
	Title     string            `json:"title"`           // Results log name, e.g. ResultsLog or ResultsLogLogin
	Suite     string            `json:"suite,omitempty"` // Named suite, if one was selected
	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
	Duration  int64             `json:"duration"` // milliseconds
	Expected  int               `json:"expected"` // Tests scheduled
	Browser   *core.BrowserInfo `json:"browser,omitempty"`
	Summary   Summary           `json:"summary"`
	Results   []Result          `json:"results"`
}

// Elapsed returns the run duration.
func (i *Index) Elapsed() time.Duration {
	return time.Duration(i.Duration) * time.Millisecond
}
