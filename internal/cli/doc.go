// Package cli is responsible for parsing command-line arguments and the
// decision task's environment, validating user input, and handling
// process-level concerns like exit codes. It translates subcommands, flags
// and environment variables into the application's configuration.
package cli
