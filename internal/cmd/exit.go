package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/ninjaexa/ninjaexa/internal/exa"
)

// quietExit ends the process with code without any further output. The
// command has already written what the user needs to see.
type quietExit struct {
	code foundry.ExitCode
}

func (e *quietExit) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// ExitCodeFor maps a command error to a semantic foundry exit code.
func ExitCodeFor(err error) foundry.ExitCode {
	var quiet *quietExit
	switch {
	case errors.As(err, &quiet):
		return quiet.code
	case errors.Is(err, errConfig):
		return foundry.ExitConfigInvalid
	default:
		return foundry.ExitFailure
	}
}

// Exit terminates the process for a failed command. Rate-limit refusals are
// reported as the limiter's own message; other errors carry exit code
// metadata.
func Exit(err error) {
	var quiet *quietExit
	if errors.As(err, &quiet) {
		os.Exit(int(quiet.code))
	}

	var blocked *exa.BlockedError
	if errors.As(err, &blocked) {
		fmt.Fprintln(os.Stderr, blocked.Message)
		os.Exit(int(foundry.ExitFailure))
	}

	msg := "Command execution failed"
	if errors.Is(err, errConfig) {
		msg = "Invalid configuration"
	}
	ExitWithCodeStderr(ExitCodeFor(err), msg, err)
}

// ExitWithCode exits the program with a semantic foundry exit code and logs the error.
//
// Parameters:
//   - logger: The logger to use for error output (can be nil for early failures)
//   - exitCode: The foundry exit code constant (e.g., foundry.ExitConfigInvalid)
//   - msg: Human-readable error message
//   - err: The underlying error (can be nil)
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	if logger == nil {
		ExitWithCodeStderr(exitCode, msg, err)
		return
	}

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	logger.Error(msg,
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_description", info.Description),
		zap.String("exit_category", info.Category),
		zap.Error(err),
	)
	os.Exit(info.Code)
}

// ExitWithCodeStderr is a variant that writes to stderr without a logger.
// Use this for early failures before logger initialization.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: %s (exit code: %d)\n", msg, exitCode)
		}
		os.Exit(int(exitCode))
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)

	os.Exit(info.Code)
}
