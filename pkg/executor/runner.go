// Package executor orchestrates test execution, connecting drivers to reports.
package executor

import (
	"context"
	"time"

	"github.com/seltest-dev/seltest/pkg/core"
	"github.com/seltest-dev/seltest/pkg/logger"
	"github.com/seltest-dev/seltest/pkg/report"
	"github.com/seltest-dev/seltest/pkg/suite"
)

// DriverFactory starts a fresh browser for one test.
type DriverFactory func(ctx context.Context, test *suite.Test) (core.Driver, error)

// RunnerConfig configures the test runner.
type RunnerConfig struct {
	OutputDir  string              // Run directory; empty disables per-test logs and artifacts
	StopOnFail bool                // Skip remaining tests after the first failure
	Artifacts  core.ArtifactConfig // When to capture screenshots and page source
	Env        map[string]string   // Variables visible to every test
	BaseURL    string              // Prefix for relative test URLs
	SuiteName  string

	// FullLog receives one line per finished test, if set
	FullLog *report.FullLogWriter

	// Live progress callbacks
	OnTestStart func(testIdx, totalTests int, name string)
	OnTestEnd   func(result *core.TestResult)
}

// Runner executes tests one after another.
type Runner struct {
	config    RunnerConfig
	newDriver DriverFactory
}

// New creates a new Runner.
func New(factory DriverFactory, cfg RunnerConfig) *Runner {
	return &Runner{
		config:    cfg,
		newDriver: factory,
	}
}

// Run executes all tests in order. Tests not started because ctx was
// cancelled or StopOnFail triggered are reported as skipped.
func (r *Runner) Run(ctx context.Context, tests []suite.Test) *core.SuiteResult {
	result := &core.SuiteResult{
		Name:      r.config.SuiteName,
		StartTime: time.Now(),
		Tests:     make([]core.TestResult, 0, len(tests)),
	}

	stopped := false
	for i := range tests {
		var tr *core.TestResult
		switch {
		case ctx.Err() != nil:
			tr = r.skipTest(&tests[i], "run cancelled")
		case stopped:
			tr = r.skipTest(&tests[i], "run stopped after failure")
		default:
			if r.config.OnTestStart != nil {
				r.config.OnTestStart(i, len(tests), tests[i].QualifiedName)
			}
			tr = r.executeTest(ctx, &tests[i])
			if r.config.StopOnFail && !tr.Status.IsSuccess() {
				stopped = true
			}
		}

		result.Tests = append(result.Tests, *tr)
		r.record(tr)
	}

	result.Duration = time.Since(result.StartTime)
	result.ComputeSummary()
	return result
}

// executeTest runs a single test.
func (r *Runner) executeTest(ctx context.Context, test *suite.Test) *core.TestResult {
	tr := &TestRunner{
		ctx:       ctx,
		test:      test,
		newDriver: r.newDriver,
		config:    r.config,
	}
	return tr.Run()
}

// record publishes a finished test to the full log and the callback.
func (r *Runner) record(tr *core.TestResult) {
	if r.config.FullLog != nil {
		if err := r.config.FullLog.Append(report.NewResult(tr)); err != nil {
			logger.Warn("full log: %v", err)
		}
	}
	if r.config.OnTestEnd != nil {
		r.config.OnTestEnd(tr)
	}
}

// skipTest records a test that never started. Its page is still written
// so the results logs do not link to a missing file.
func (r *Runner) skipTest(test *suite.Test, reason string) *core.TestResult {
	logger.Info("skipping %s: %s", test.QualifiedName, reason)
	tr := &core.TestResult{
		Name:        test.QualifiedName,
		SourcePath:  test.SourcePath,
		Description: test.Config.Description,
		Tags:        test.Config.Tags,
		Status:      core.StatusSkipped,
		StartTime:   time.Now(),
		Errors:      []string{reason},
	}
	if r.config.OutputDir != "" {
		if _, err := report.WriteTestLog(r.config.OutputDir, report.NewTestLog(tr, test.Title())); err != nil {
			logger.Error("test %s: write log: %v", test.QualifiedName, err)
		}
	}
	return tr
}
