package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/urfave/cli/v2"

	"github.com/seltest-dev/seltest/pkg/config"
	"github.com/seltest-dev/seltest/pkg/core"
	"github.com/seltest-dev/seltest/pkg/driver/chrome"
	"github.com/seltest-dev/seltest/pkg/driver/mock"
	"github.com/seltest-dev/seltest/pkg/executor"
	"github.com/seltest-dev/seltest/pkg/logger"
	"github.com/seltest-dev/seltest/pkg/report"
	"github.com/seltest-dev/seltest/pkg/suite"
	"github.com/seltest-dev/seltest/pkg/validator"
)

const (
	defaultTestsDir = "tests"
	logFileName     = "seltest.log"
	resultsLogName  = "ResultsLog"
	failedLogName   = "ResultsLogFail"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run browser tests and write the results logs",
	ArgsUsage: "[tests-dir]",
	Description: `Run every test below the tests directory, one after another.

Logs are written to the output directory:
  - Default: ./TestLogs_<yyyy-MM-dd>/ ($SELTEST_HOME/reports/ when set)
  - With --output: <output>/TestLogs_<yyyy-MM-dd>/
  - With --output and --flatten: <output>/ (no dated subfolder)

Flags go before the tests directory.

Examples:
  seltest run tests/
  seltest run --suite Login tests/
  seltest run -e USER=admin -e PASS=secret tests/
  seltest run --include-tags smoke --stop-on-fail tests/
  seltest run --mock tests/`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "suite",
			Usage: "Named suite from the config, or a qualified-name pattern",
		},

		// Environment variables
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Environment variables (KEY=VALUE)",
		},

		// Tag filtering
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include tests with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude tests with these tags",
		},

		// Output directory
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output directory for logs (default: current directory)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create the dated subfolder (requires --output)",
		},

		// Execution
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip the remaining tests after the first failure",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Also write allure-results",
		},
		&cli.BoolFlag{
			Name:  "mock",
			Usage: "Use the mock driver instead of Chrome (dry run)",
		},
	},
	Action: runTests,
}

// RunConfig holds the complete test run configuration.
type RunConfig struct {
	// Paths
	TestsDir  string
	OutputDir string // Final resolved run directory

	// Selection
	Suite       string
	Patterns    []string
	IncludeTags []string
	ExcludeTags []string

	// Execution
	Env        map[string]string
	BaseURL    string
	StopOnFail bool
	Mock       bool
	Verbose    bool
	Browser    chrome.Config

	// Output
	FailedOnlyLog bool
	Allure        bool
}

func runTests(c *cli.Context) error {
	if err := checkTrailingArgs(c, "tests-dir"); err != nil {
		return err
	}

	workspace, err := loadWorkspaceConfig(c.String("config"))
	if err != nil {
		return err
	}

	testsDir := c.Args().First()
	if testsDir == "" {
		testsDir = workspace.Tests
	}
	if testsDir == "" {
		testsDir = defaultTestsDir
	}

	output := firstNonEmpty(c.String("output"), workspace.Output, config.ReportsDir())
	start := time.Now()
	outputDir, err := resolveOutputDir(output, c.Bool("flatten"), start)
	if err != nil {
		return err
	}

	// Merge env variables: workspace config env + CLI env (CLI takes precedence)
	env := make(map[string]string)
	for k, v := range workspace.Env {
		env[k] = v
	}
	for k, v := range parseEnvVars(c.StringSlice("env")) {
		env[k] = v
	}

	includeTags := c.StringSlice("include-tags")
	if len(includeTags) == 0 {
		includeTags = workspace.IncludeTags
	}
	excludeTags := c.StringSlice("exclude-tags")
	if len(excludeTags) == 0 {
		excludeTags = workspace.ExcludeTags
	}

	suiteName := c.String("suite")
	cfg := &RunConfig{
		TestsDir:    testsDir,
		OutputDir:   outputDir,
		Suite:       suiteName,
		Patterns:    suitePatterns(workspace, suiteName),
		IncludeTags: includeTags,
		ExcludeTags: excludeTags,
		Env:         env,
		BaseURL:     workspace.BaseURL,
		StopOnFail:  c.Bool("stop-on-fail"),
		Mock:        c.Bool("mock"),
		Verbose:     c.Bool("verbose"),
		Browser: chrome.Config{
			Headless:     c.Bool("headless") || workspace.Browser.Headless,
			WindowWidth:  workspace.Browser.WindowWidth,
			WindowHeight: workspace.Browser.WindowHeight,
			ExecPath:     firstNonEmpty(c.String("browser-path"), workspace.Browser.ExecPath),
			Timeout:      time.Duration(workspace.Browser.TimeoutMs) * time.Millisecond,
			NoSandbox:    os.Geteuid() == 0,
		},
		FailedOnlyLog: workspace.WantFailedOnlyLog(),
		Allure:        c.Bool("allure") || workspace.Allure,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return executeRun(ctx, cfg, start)
}

// checkTrailingArgs rejects anything after the single positional argument.
// urfave/cli stops parsing flags at the first positional argument, so a
// flag written after it would otherwise be ignored.
func checkTrailingArgs(c *cli.Context, argName string) error {
	rest := c.Args().Tail()
	if len(rest) == 0 {
		return nil
	}
	if strings.HasPrefix(rest[0], "-") {
		return fmt.Errorf("flags must precede %s: %q", argName, rest[0])
	}
	return fmt.Errorf("unexpected argument after %s: %q", argName, rest[0])
}

// loadWorkspaceConfig loads path, or looks for a config file in the current
// directory when path is empty.
func loadWorkspaceConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// suitePatterns resolves a suite name to its qualified-name patterns. A name
// not defined in the config is used as a pattern itself.
func suitePatterns(cfg *config.Config, name string) []string {
	if name == "" {
		return nil
	}
	if patterns, ok := cfg.Suites[name]; ok {
		return patterns
	}
	return []string{name}
}

// resolveOutputDir determines the run directory based on flags.
// - No --output: ./TestLogs_<date>/
// - --output given: <output>/TestLogs_<date>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool, start time.Time) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = "."
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}
	return filepath.Join(baseDir, report.DirName(start)), nil
}

func executeRun(ctx context.Context, cfg *RunConfig, start time.Time) error {
	// 1. Validate and load tests
	tests, err := loadTests(cfg)
	if err != nil {
		return err
	}

	// 2. Create output directory
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// 3. Initialize logging
	if err := logger.Init(filepath.Join(cfg.OutputDir, logFileName)); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	logger.SetVerbose(cfg.Verbose)

	logger.Info("=== Test execution started ===")
	logger.Info("Tests directory: %s", cfg.TestsDir)
	logger.Info("Output directory: %s", cfg.OutputDir)
	logger.Info("Scheduled tests: %d", len(tests))

	names := make([]string, len(tests))
	for i := range tests {
		names[i] = tests[i].QualifiedName
	}

	// 4. Live full log
	fmt.Printf("\nCreating %s.html... ", report.FullLogName)
	fullLog, err := report.NewFullLogWriter(filepath.Join(cfg.OutputDir, report.FullLogName+".html"), names)
	if err != nil {
		return err
	}
	fmt.Println("Done")

	// 5. Run
	runner := executor.New(driverFactory(cfg), executor.RunnerConfig{
		OutputDir:   cfg.OutputDir,
		StopOnFail:  cfg.StopOnFail,
		Artifacts:   core.DefaultArtifactConfig(),
		Env:         cfg.Env,
		BaseURL:     cfg.BaseURL,
		SuiteName:   cfg.Suite,
		FullLog:     fullLog,
		OnTestStart: onTestStart,
		OnTestEnd:   onTestEnd,
	})
	result := runner.Run(ctx, tests)

	fmt.Printf("Closing %s.html...\n", report.FullLogName)
	if err := fullLog.Close(result.Duration); err != nil {
		logger.Error("Failed to close full log: %v", err)
	}

	// 6. Summary and logs
	printSummary(names, result)

	index := buildIndex(cfg, start, len(tests), result)
	if err := writeReports(cfg.OutputDir, index, cfg.FailedOnlyLog, cfg.Allure); err != nil {
		return err
	}

	fmt.Println("Done")
	if wd, err := os.Getwd(); err == nil {
		fmt.Printf("\nWorking directory was: %s\n", wd)
	}
	fmt.Printf("Time taken was: %s\n", report.FormatElapsed(result.Duration))
	logger.Info("=== Test execution finished: %d passed, %d failed, %d skipped ===",
		result.PassedTests, result.FailedTests, result.SkippedTests)

	if !result.Success() {
		return errTestsFailed
	}
	return nil
}

// loadTests validates the tests directory and returns the selected tests.
func loadTests(cfg *RunConfig) ([]suite.Test, error) {
	v := validator.New(cfg.IncludeTags, cfg.ExcludeTags)
	if vr := v.Validate(cfg.TestsDir); !vr.IsValid() {
		return nil, validationFailure(vr.Errors)
	}

	loaded, err := suite.LoadDirectory(cfg.TestsDir, cfg.IncludeTags, cfg.ExcludeTags)
	if err != nil {
		return nil, err
	}
	if len(cfg.Patterns) > 0 {
		loaded, err = suite.MatchSuite(loaded, cfg.Patterns)
		if err != nil {
			return nil, err
		}
	}
	if len(loaded) == 0 {
		return nil, fmt.Errorf("no tests found in %s", cfg.TestsDir)
	}

	tests := make([]suite.Test, len(loaded))
	for i, t := range loaded {
		tests[i] = *t
	}
	return tests, nil
}

func validationFailure(errs []error) error {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  " + err.Error()
	}
	return fmt.Errorf("validation failed with %d error(s):\n%s", len(errs), strings.Join(lines, "\n"))
}

// driverFactory returns the factory for the configured browser.
func driverFactory(cfg *RunConfig) executor.DriverFactory {
	if cfg.Mock {
		return func(ctx context.Context, test *suite.Test) (core.Driver, error) {
			return mock.New(mock.Config{}), nil
		}
	}
	browser := cfg.Browser
	return func(ctx context.Context, test *suite.Test) (core.Driver, error) {
		return chrome.New(ctx, browser)
	}
}

// buildIndex collects the run into a results index.
func buildIndex(cfg *RunConfig, start time.Time, expected int, result *core.SuiteResult) *report.Index {
	index := &report.Index{
		RunID:     report.NewRunID(),
		Title:     resultsLogTitle(cfg.Suite),
		Suite:     cfg.Suite,
		StartTime: start,
		EndTime:   result.StartTime.Add(result.Duration),
		Duration:  result.Duration.Milliseconds(),
		Expected:  expected,
		Results:   make([]report.Result, 0, len(result.Tests)),
	}
	for i := range result.Tests {
		tr := &result.Tests[i]
		if index.Browser == nil && tr.BrowserInfo != nil {
			index.Browser = tr.BrowserInfo
		}
		index.Results = append(index.Results, report.NewResult(tr))
	}
	return index
}

// resultsLogTitle names the results log after the suite, keeping only
// characters that are safe in a file name: Login.* → ResultsLogLogin.
func resultsLogTitle(suiteName string) string {
	var b strings.Builder
	b.WriteString(resultsLogName)
	for _, r := range suiteName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), ".")
}

// writeReports writes results.json, the results logs and, if asked, the
// allure results for index into dir.
func writeReports(dir string, index *report.Index, failedOnly, allure bool) error {
	if err := report.WriteIndex(dir, index); err != nil {
		return fmt.Errorf("failed to write results index: %w", err)
	}

	logs := []*report.ResultsLogWriter{{
		Title:    index.Title,
		Expected: index.Expected,
		Elapsed:  index.Elapsed(),
	}}
	if failedOnly {
		logs = append(logs, &report.ResultsLogWriter{
			Title:      failedLogName,
			Expected:   index.Expected,
			Elapsed:    index.Elapsed(),
			FailedOnly: true,
		})
	}
	for _, lw := range logs {
		fmt.Printf("Writing %s.html... ", lw.Title)
		if err := lw.WriteFile(filepath.Join(dir, lw.Title+".html"), index.Results); err != nil {
			return err
		}
		fmt.Println("Done")
	}

	if allure {
		if err := report.GenerateAllure(dir, index); err != nil {
			return fmt.Errorf("failed to write allure results: %w", err)
		}
		fmt.Printf("Allure results: %s\n", filepath.Join(dir, report.AllureDir))
	}
	return nil
}

// Live progress callbacks
func onTestStart(testIdx, totalTests int, name string) {
	fmt.Printf("%s[%d/%d]%s Starting test %s\n",
		color(colorCyan), testIdx+1, totalTests, color(colorReset), name)
}

func onTestEnd(result *core.TestResult) {
	status := color(colorGreen) + "SUCCESSFUL" + color(colorReset)
	switch {
	case result.Status == core.StatusSkipped:
		status = color(colorCyan) + "SKIPPED" + color(colorReset)
	case !result.Passed():
		status = color(colorRed) + "FAILED" + color(colorReset)
	}
	fmt.Printf("      %s %s (%s)\n", status, result.Name, report.FormatElapsed(result.Duration))
	for _, e := range result.Errors {
		fmt.Printf("        %s\n", e)
	}
}

// printSummary prints one RESULTS line per test, names padded to the
// longest scheduled name plus three.
func printSummary(names []string, result *core.SuiteResult) {
	width := 0
	for _, n := range names {
		if l := utf8.RuneCountInString(n); l > width {
			width = l
		}
	}
	width += 3

	fmt.Println()
	for i := range result.Tests {
		fmt.Println(summaryLine(&result.Tests[i], width))
	}
	fmt.Printf("\n%s%d passed, %d failed, %d skipped%s\n",
		color(colorBold), result.PassedTests, result.FailedTests, result.SkippedTests, color(colorReset))
}

// summaryLine renders "RESULTS: <name><pad> SUCCESSFUL|FAILED".
func summaryLine(tr *core.TestResult, width int) string {
	pad := strings.Repeat(" ", max(0, width-utf8.RuneCountInString(tr.Name)))
	status := color(colorGreen) + "SUCCESSFUL" + color(colorReset)
	if !tr.Passed() {
		status = color(colorRed) + "FAILED" + color(colorReset)
	}
	return "RESULTS: " + tr.Name + pad + " " + status
}

func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, e := range envs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
