package executor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/seltest-dev/seltest/pkg/core"
	"github.com/seltest-dev/seltest/pkg/logger"
	"github.com/seltest-dev/seltest/pkg/report"
	"github.com/seltest-dev/seltest/pkg/suite"
)

// Artifact directories inside the run directory.
const (
	screenshotDir = "screenshots"
	pageSourceDir = "pages"
)

// TestRunner executes a single test.
type TestRunner struct {
	ctx       context.Context
	test      *suite.Test
	newDriver DriverFactory
	config    RunnerConfig
	driver    core.Driver
	script    *ScriptEngine
	result    *core.TestResult
}

// Run executes the test and returns its finalized result.
func (tr *TestRunner) Run() *core.TestResult {
	start := time.Now()
	tr.result = &core.TestResult{
		Name:        tr.test.QualifiedName,
		SourcePath:  tr.test.SourcePath,
		Description: tr.test.Config.Description,
		Tags:        tr.test.Config.Tags,
		Status:      core.StatusRunning,
		StartTime:   start,
	}
	logger.Info("test %s started", tr.test.QualifiedName)

	tr.result.Completed = tr.runSteps()
	tr.result.Finalize()

	if tr.driver != nil {
		if tr.config.Artifacts.ShouldCapture(tr.result.Status) {
			tr.captureArtifacts()
		}
		if err := tr.driver.Quit(); err != nil {
			logger.Warn("test %s: quit browser: %v", tr.test.QualifiedName, err)
		}
	}

	tr.result.Duration = time.Since(start)
	tr.writeLog()

	logger.Info("test %s finished: %s (%s)", tr.test.QualifiedName, tr.result.Status, tr.result.Duration)
	return tr.result
}

// runSteps executes every step and reports whether all of them ran.
func (tr *TestRunner) runSteps() bool {
	driver, err := tr.newDriver(tr.ctx, tr.test)
	if err != nil {
		tr.result.AddError(fmt.Sprintf("Failed to start browser: %v", err))
		return false
	}
	tr.driver = driver
	tr.result.BrowserInfo = driver.GetBrowserInfo()

	tr.script = NewScriptEngine()
	defer tr.script.Close()

	tr.script.ImportSystemEnv()
	tr.script.SetVariables(tr.config.Env)
	tr.script.SetVariables(tr.test.Config.Env)
	tr.script.SetTestName(tr.test.QualifiedName)
	if tr.test.SourcePath != "" {
		tr.script.SetTestDir(filepath.Dir(tr.test.SourcePath))
	}
	tr.script.SetConsole(func(level, msg string) {
		if level == "warn" {
			tr.result.AddWarning(msg)
			return
		}
		tr.result.AddLog(msg)
	})

	steps := tr.test.Steps
	if tr.test.Config.URL != "" {
		open := &suite.OpenStep{BaseStep: suite.BaseStep{StepType: suite.StepOpen}, URL: tr.test.Config.URL}
		steps = append([]suite.Step{open}, steps...)
	}

	for i, step := range steps {
		if tr.ctx.Err() != nil {
			tr.result.AddError("run cancelled")
			return false
		}
		if tr.test.Config.Timeout > 0 {
			step.DefaultTimeout(tr.test.Config.Timeout)
		}

		res, by := tr.executeStep(step)
		tr.recordStep(i, step, res, by)

		if res.Success {
			continue
		}
		if step.IsOptional() {
			tr.result.AddWarning(fmt.Sprintf("Optional step %s failed: %s", step.Describe(), failureText(res)))
			continue
		}
		tr.result.AddError(failureText(res))
		return false
	}
	return true
}

// executeStep routes a step to the script engine, the runner or the driver.
func (tr *TestRunner) executeStep(step suite.Step) (*core.CommandResult, core.ExecutedBy) {
	start := time.Now()
	tr.script.ExpandStep(step)

	var result *core.CommandResult
	by := core.ExecutedByRunner

	switch s := step.(type) {
	// Runner-side steps
	case *suite.LogStep:
		tr.result.AddLog(s.Message)
		result = core.Succeeded("Logged")
	case *suite.WarnStep:
		tr.result.AddWarning(s.Message)
		result = core.Succeeded("Warning recorded")
	case *suite.FailStep:
		msg := s.Message
		if msg == "" {
			msg = core.ErrExplicitFail.Message
		}
		result = core.Failed(core.ErrExplicitFail.WithMessage(msg), "")
	case *suite.SleepStep:
		result = tr.sleep(s)
	case *suite.DefineVariablesStep:
		result = tr.script.ExecuteDefineVariables(s)
	case *suite.RunScriptStep:
		result = tr.script.ExecuteRunScript(s)
	case *suite.AssertTrueStep:
		result = tr.script.ExecuteAssertTrue(s)

	// Browser steps
	case *suite.OpenStep:
		s.URL = resolveURL(tr.config.BaseURL, s.URL)
		result, by = tr.driver.Execute(step), core.ExecutedByDriver
	default:
		result, by = tr.driver.Execute(step), core.ExecutedByDriver
	}

	if result.Success && by == core.ExecutedByDriver {
		tr.afterDriverStep(step, result)
	}
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	return result, by
}

// afterDriverStep feeds driver output back into the test.
func (tr *TestRunner) afterDriverStep(step suite.Step, result *core.CommandResult) {
	switch s := step.(type) {
	case *suite.EvalScriptStep:
		if s.SaveAs != "" {
			value := ""
			if result.Data != nil {
				value = fmt.Sprintf("%v", result.Data)
			}
			tr.script.SetVariable(s.SaveAs, value)
		}
	case *suite.AssertTitleStep, *suite.WaitForTitleStep:
		if title, ok := result.Data.(string); ok {
			tr.script.SetPageTitle(title)
		}
	case *suite.TakeScreenshotStep:
		if png, ok := result.Data.([]byte); ok {
			name := tr.test.QualifiedName
			if s.Name != "" {
				name += "-" + s.Name
			}
			if a, err := tr.saveArtifact(screenshotDir, name+".png", png); err == nil {
				a.Name = s.Name
				a.ContentType = core.ContentTypePNG
				tr.result.Attachments = append(tr.result.Attachments, a)
			}
		}
	}
	if result.Message != "" {
		tr.result.AddLog(result.Message)
	}
}

func (tr *TestRunner) sleep(s *suite.SleepStep) *core.CommandResult {
	select {
	case <-tr.ctx.Done():
		return core.Failed(tr.ctx.Err(), "Sleep interrupted")
	case <-time.After(time.Duration(s.Ms) * time.Millisecond):
		return core.Succeeded(fmt.Sprintf("Slept %dms", s.Ms))
	}
}

func (tr *TestRunner) recordStep(idx int, step suite.Step, res *core.CommandResult, by core.ExecutedBy) {
	sr := core.StepResult{
		Index:      idx,
		Command:    string(step.Type()),
		ExecutedBy: by,
		Status:     core.StatusPassed,
		Duration:   res.Duration,
		Message:    res.Message,
	}
	if !res.Success {
		sr.Status = core.StatusFailed
		if step.IsOptional() {
			sr.Status = core.StatusWarned
		}
		if res.Error != nil {
			sr.Error = res.Error.Error()
		}
		var execErr *core.ExecutionError
		if errors.As(res.Error, &execErr) {
			sr.Category = execErr.Category
		}
	}
	tr.result.Steps = append(tr.result.Steps, sr)
}

// captureArtifacts saves the screenshot and page source of the failed page.
func (tr *TestRunner) captureArtifacts() {
	if tr.config.Artifacts.Screenshot {
		if png, err := tr.driver.Screenshot(); err != nil {
			logger.Warn("test %s: screenshot: %v", tr.test.QualifiedName, err)
		} else if a, err := tr.saveArtifact(screenshotDir, tr.test.QualifiedName+".png", png); err == nil {
			tr.result.Attachments = append([]core.Attachment{core.NewScreenshotAttachment(a.Path, png)}, tr.result.Attachments...)
		}
	}
	if tr.config.Artifacts.PageSource {
		if html, err := tr.driver.PageSource(); err != nil {
			logger.Warn("test %s: page source: %v", tr.test.QualifiedName, err)
		} else if a, err := tr.saveArtifact(pageSourceDir, tr.test.QualifiedName+".html", html); err == nil {
			tr.result.Attachments = append(tr.result.Attachments, core.NewPageSourceAttachment(a.Path, html))
		}
	}
}

// saveArtifact writes data below the run directory. The returned
// attachment carries the slash separated path relative to it.
func (tr *TestRunner) saveArtifact(dir, name string, data []byte) (core.Attachment, error) {
	if tr.config.OutputDir == "" {
		return core.Attachment{}, errors.New("no output directory")
	}
	full := filepath.Join(tr.config.OutputDir, dir)
	if err := os.MkdirAll(full, 0o755); err != nil {
		logger.Warn("create %s: %v", full, err)
		return core.Attachment{}, err
	}
	if err := os.WriteFile(filepath.Join(full, name), data, 0o644); err != nil {
		logger.Warn("write %s: %v", name, err)
		return core.Attachment{}, err
	}
	return core.Attachment{Path: path.Join(dir, name)}, nil
}

// writeLog writes the per-test log page.
func (tr *TestRunner) writeLog() {
	if tr.config.OutputDir == "" {
		return
	}
	if _, err := report.WriteTestLog(tr.config.OutputDir, report.NewTestLog(tr.result, tr.test.Title())); err != nil {
		logger.Error("test %s: write log: %v", tr.test.QualifiedName, err)
	}
}

// failureText is the message shown for a failed step.
func failureText(res *core.CommandResult) string {
	switch {
	case res.Message != "" && res.Error != nil:
		return fmt.Sprintf("%s: %v", res.Message, res.Error)
	case res.Error != nil:
		return res.Error.Error()
	case res.Message != "":
		return res.Message
	}
	return "step failed"
}

// resolveURL joins a relative URL onto base. Absolute URLs are returned
// unchanged.
func resolveURL(base, ref string) string {
	if base == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
