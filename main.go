package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/toolr/toolr/cmd/cli"
	"github.com/toolr/toolr/internal/toolkit"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the toolr command-line application, mirroring child exit
// codes when a tool requests it.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}

	exitCodeError := toolkit.ExitCodeError{}
	if errors.As(executionError, &exitCodeError) {
		os.Exit(exitCodeError.Code)
	}

	fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	os.Exit(1)
}
