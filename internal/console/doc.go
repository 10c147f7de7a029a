// Package console renders command lifecycle events for humans and decides
// how the application should talk to the terminal: verbosity levels, tty
// detection for the default log format, and zap-backed event logging.
package console
