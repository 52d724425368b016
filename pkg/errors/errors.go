package errors

import (
	"fmt"
	"os"
	"strings"

	"richclip/pkg/logger"

	"github.com/fatih/color"
)

type ExitCode int

// Exit codes returned by the CLI: each protocol-layer sentinel in
// pkg/clipboard maps to one of these, with ErrNoSuchMime and
// ErrSelectionLost resolving to ExitCodeSuccess since both are normal
// termination, not failures.
const (
	ExitCodeSuccess      ExitCode = 0
	ExitCodeGeneral      ExitCode = 1
	ExitCodeProtocol     ExitCode = 2
	ExitCodeNoDisplay    ExitCode = 3
	ExitCodeOwnership    ExitCode = 4
	ExitCodeIO           ExitCode = 5
	ExitCodeConfig       ExitCode = 6
	ExitCodeTimeout      ExitCode = 7
	ExitCodeCancellation ExitCode = 8
)

type Error struct {
	Code       ExitCode
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func New(code ExitCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func NewWithError(code ExitCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Underlying: err}
}

func NewWithSuggestion(code ExitCode, message string, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion}
}

func NewWithAll(code ExitCode, message string, err error, suggestion string) *Error {
	return &Error{Code: code, Message: message, Underlying: err, Suggestion: suggestion}
}

func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	if wrapped, ok := err.(*Error); ok {
		return &Error{
			Code:       wrapped.Code,
			Message:    message + ": " + wrapped.Message,
			Underlying: wrapped.Underlying,
			Suggestion: wrapped.Suggestion,
		}
	}
	return &Error{Code: ExitCodeGeneral, Message: message, Underlying: err}
}

func WrapWithCode(err error, code ExitCode, message string) *Error {
	if err == nil {
		return nil
	}
	var errMsg string
	if wrapped, ok := err.(*Error); ok {
		errMsg = wrapped.Message
		if wrapped.Underlying != nil {
			errMsg += ": " + wrapped.Underlying.Error()
		}
	} else {
		errMsg = err.Error()
	}
	return &Error{Code: code, Message: message + ": " + errMsg, Underlying: err}
}

func Is(err error, target error) bool {
	if err == nil || target == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		if t, ok := target.(*Error); ok {
			return e.Code == t.Code
		}
	}
	return err.Error() == target.Error()
}

func IsExitCode(err error, code ExitCode) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}

// HandleReturn processes an error, printing a user-facing message to
// stderr, and returns the exit code the caller should os.Exit with. It
// does not exit itself, so cmd.Execute can flush cobra's own output
// first.
func HandleReturn(err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral
	var message string
	var suggestion string

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
		message = e.Message
		suggestion = e.Suggestion

		if e.Underlying != nil {
			logger.Error().Err(e.Underlying).Msg(e.Message)
		} else {
			logger.Error().Msg(e.Message)
		}
	} else {
		message = err.Error()
		logger.Error().Msg(message)
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(os.Stderr)
	red.Fprint(os.Stderr, "Error: ")
	fmt.Fprintln(os.Stderr, message)

	if suggestion != "" {
		yellow.Fprint(os.Stderr, "Suggestion: ")
		lines := strings.Split(suggestion, "\n")
		for i, line := range lines {
			if i == 0 {
				fmt.Fprintln(os.Stderr, line)
			} else if strings.HasPrefix(line, "  -") {
				cyan.Fprintln(os.Stderr, line)
			} else {
				fmt.Fprintln(os.Stderr, "           "+line)
			}
		}
	}

	fmt.Fprintln(os.Stderr)

	return exitCode
}

func ConfigError(message string) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Message:    message,
		Suggestion: "Check your configuration file or the RICHCLIP_* environment variables.",
	}
}

func TimeoutError(operation string) *Error {
	return &Error{
		Code:    ExitCodeTimeout,
		Message: fmt.Sprintf("Operation timed out: %s", operation),
	}
}

func CancelledError(operation string) *Error {
	return &Error{
		Code:    ExitCodeCancellation,
		Message: fmt.Sprintf("Operation cancelled: %s", operation),
	}
}
