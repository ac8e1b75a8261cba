package cli

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/seltest-dev/seltest/pkg/report"
)

var renderCommand = &cli.Command{
	Name:      "render",
	Usage:     "Re-render the results logs from a results.json",
	ArgsUsage: "<results.json>",
	Description: `Rebuild ResultsLog*.html (and allure-results with --allure) next to a
results index written by an earlier run.

Examples:
  seltest render TestLogs_2024-01-31/results.json
  seltest render --no-failed-log logs/results.json`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-failed-log",
			Usage: "Skip ResultsLogFail.html",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Also write allure-results",
		},
	},
	Action: renderResults,
}

func renderResults(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("exactly one results.json is required")
	}
	if err := checkTrailingArgs(c, "results.json"); err != nil {
		return err
	}
	path := c.Args().First()

	index, err := report.ReadIndex(path)
	if err != nil {
		return err
	}
	if index.Title == "" {
		index.Title = resultsLogName
	}

	return writeReports(filepath.Dir(path), index, !c.Bool("no-failed-log"), c.Bool("allure"))
}
