package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/seltest-dev/seltest/pkg/validator"
)

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Parse and check every test file without running it",
	ArgsUsage: "[tests-dir]",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include tests with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude tests with these tags",
		},
	},
	Action: validateTests,
}

func validateTests(c *cli.Context) error {
	if err := checkTrailingArgs(c, "tests-dir"); err != nil {
		return err
	}

	workspace, err := loadWorkspaceConfig(c.String("config"))
	if err != nil {
		return err
	}

	dir := firstNonEmpty(c.Args().First(), workspace.Tests, defaultTestsDir)
	include := c.StringSlice("include-tags")
	if len(include) == 0 {
		include = workspace.IncludeTags
	}
	exclude := c.StringSlice("exclude-tags")
	if len(exclude) == 0 {
		exclude = workspace.ExcludeTags
	}

	result := validator.New(include, exclude).Validate(dir)
	for _, name := range result.Tests {
		fmt.Printf("  %s✓%s %s\n", color(colorGreen), color(colorReset), name)
	}
	if !result.IsValid() {
		for _, err := range result.Errors {
			fmt.Printf("  %s✗%s %v\n", color(colorRed), color(colorReset), err)
		}
		return validationFailure(result.Errors)
	}

	fmt.Printf("\n%d test(s) valid\n", len(result.Tests))
	return nil
}
