// Package cli provides the command-line interface for seltest.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to workspace config (seltest.yaml or seltest.toml)",
		EnvVars: []string{"SELTEST_CONFIG"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"SELTEST_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
	&cli.BoolFlag{
		Name:    "headless",
		Usage:   "Run the browser without a window",
		EnvVars: []string{"SELTEST_HEADLESS"},
	},
	&cli.StringFlag{
		Name:    "browser-path",
		Usage:   "Chrome or Chromium binary to launch",
		EnvVars: []string{"SELTEST_BROWSER_PATH"},
	},
}

// NewApp builds the command tree.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "seltest",
		Usage:   "Browser UI test runner with nested HTML result logs",
		Version: Version,
		Description: `seltest runs YAML browser tests one after another and writes
nested HTML results logs, one page per test, and a results.json index.

Examples:
  seltest run tests/
  seltest run --suite Login -e USER=admin tests/
  seltest --headless run --output ./logs --allure
  seltest render TestLogs_2024-01-31/results.json
  seltest validate tests/`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			renderCommand,
			validateCommand,
		},
	}
}

// errTestsFailed makes the process exit non-zero after the summary has
// already been printed.
var errTestsFailed = errors.New("one or more tests failed")

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}
