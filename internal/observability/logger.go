package observability

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
)

// CLILogger is used by every command. It writes to stderr so stdout carries
// only results.
var CLILogger *logging.Logger

// InitCLILogger initializes the CLI logger with SIMPLE profile.
// verbose forces DEBUG; otherwise level (debug, info, warn, error) sets the
// threshold.
func InitCLILogger(serviceName string, verbose bool, level ...string) {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize CLI logger", err)
	}

	switch {
	case verbose:
		logger.SetLevel(logging.DEBUG)
	case len(level) > 0:
		if severity, ok := severityFor(level[0]); ok {
			logger.SetLevel(severity)
		}
	}

	CLILogger = logger
}

func severityFor(levelStr string) (logging.Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug", "trace":
		return logging.DEBUG, true
	case "info":
		return logging.INFO, true
	case "warn", "warning":
		return logging.WARN, true
	case "error":
		return logging.ERROR, true
	default:
		return "", false
	}
}

// exitWithCodeStderr exits with a semantic exit code, writing to stderr.
// Used for logger initialization failures before the CLI logger exists.
func exitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)

	os.Exit(info.Code)
}
