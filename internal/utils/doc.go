// Package utils exposes reusable helpers consumed by multiple commands.
//
// It currently houses ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging for the CLI, plus
// small writer and context helpers shared by the command surfaces.
package utils
