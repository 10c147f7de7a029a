package console

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/toolr/toolr/internal/utils"
)

// DetectDefaultLogFormat selects human-readable console output when the
// supplied file is an interactive terminal and structured JSON otherwise.
// Used when the configuration leaves the log format unset.
func DetectDefaultLogFormat(output *os.File) utils.LogFormat {
	if output == nil {
		return utils.LogFormatStructured
	}
	fileDescriptor := output.Fd()
	if isatty.IsTerminal(fileDescriptor) || isatty.IsCygwinTerminal(fileDescriptor) {
		return utils.LogFormatConsole
	}
	return utils.LogFormatStructured
}
