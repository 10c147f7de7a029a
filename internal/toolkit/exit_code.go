package toolkit

import "fmt"

const exitCodeErrorMessageTemplateConstant = "exit code %d"

// ExitCodeError signals that the process should terminate with the wrapped
// exit code. Tools return it when a child command's non-zero exit should
// become the CLI's own exit status.
type ExitCodeError struct {
	Code int
}

// Error implements the error interface.
func (exitError ExitCodeError) Error() string {
	return fmt.Sprintf(exitCodeErrorMessageTemplateConstant, exitError.Code)
}
