// Command seltest runs browser UI tests and writes nested HTML results logs.
package main

import "github.com/seltest-dev/seltest/pkg/cli"

func main() {
	cli.Execute()
}
