package console

// Verbosity enumerates how chatty tool commands should be on the console.
type Verbosity int

// Verbosity levels, ordered from silent to diagnostic.
const (
	VerbosityQuiet Verbosity = iota
	VerbosityNormal
	VerbosityVerbose
)

const (
	verbosityQuietLabelConstant   = "quiet"
	verbosityNormalLabelConstant  = "normal"
	verbosityVerboseLabelConstant = "verbose"
	verbosityUnknownLabelConstant = "unknown"
)

// String renders the verbosity level for diagnostics.
func (verbosity Verbosity) String() string {
	switch verbosity {
	case VerbosityQuiet:
		return verbosityQuietLabelConstant
	case VerbosityNormal:
		return verbosityNormalLabelConstant
	case VerbosityVerbose:
		return verbosityVerboseLabelConstant
	default:
		return verbosityUnknownLabelConstant
	}
}
