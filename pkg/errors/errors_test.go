package errors

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "basic error without underlying",
			err:      &Error{Code: ExitCodeGeneral, Message: "test error"},
			expected: "test error",
		},
		{
			name:     "error with underlying",
			err:      &Error{Code: ExitCodeConfig, Message: "config error", Underlying: errors.New("file not found")},
			expected: "config error: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &Error{
		Code:       ExitCodeGeneral,
		Message:    "test error",
		Underlying: underlying,
	}

	if err.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), underlying)
	}
}

func TestNew(t *testing.T) {
	err := New(ExitCodeConfig, "configuration error")

	if err.Code != ExitCodeConfig {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeConfig)
	}
	if err.Message != "configuration error" {
		t.Errorf("Message = %q, want %q", err.Message, "configuration error")
	}
	if err.Underlying != nil {
		t.Errorf("Underlying = %v, want nil", err.Underlying)
	}
}

func TestNewWithError(t *testing.T) {
	underlying := errors.New("protocol error")
	err := NewWithError(ExitCodeProtocol, "malformed bulk stream", underlying)

	if err.Code != ExitCodeProtocol {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeProtocol)
	}
	if err.Message != "malformed bulk stream" {
		t.Errorf("Message = %q, want %q", err.Message, "malformed bulk stream")
	}
	if err.Underlying != underlying {
		t.Errorf("Underlying = %v, want %v", err.Underlying, underlying)
	}
}

func TestNewWithSuggestion(t *testing.T) {
	err := NewWithSuggestion(ExitCodeNoDisplay, "no display available", "Set DISPLAY or WAYLAND_DISPLAY")

	if err.Code != ExitCodeNoDisplay {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeNoDisplay)
	}
	if err.Message != "no display available" {
		t.Errorf("Message = %q, want %q", err.Message, "no display available")
	}
	if err.Suggestion != "Set DISPLAY or WAYLAND_DISPLAY" {
		t.Errorf("Suggestion = %q, want %q", err.Suggestion, "Set DISPLAY or WAYLAND_DISPLAY")
	}
}

func TestNewWithAll(t *testing.T) {
	underlying := errors.New("connect refused")
	err := NewWithAll(ExitCodeIO, "failed to dial compositor", underlying, "Check WAYLAND_DISPLAY")

	if err.Code != ExitCodeIO {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeIO)
	}
	if err.Underlying != underlying {
		t.Errorf("Underlying = %v, want %v", err.Underlying, underlying)
	}
	if err.Suggestion != "Check WAYLAND_DISPLAY" {
		t.Errorf("Suggestion = %q, want %q", err.Suggestion, "Check WAYLAND_DISPLAY")
	}
}

func TestWrap(t *testing.T) {
	underlying := errors.New("original error")
	err := Wrap(underlying, "wrapped message")

	if err.Error() != "wrapped message: original error" {
		t.Errorf("Error() = %q, want %q", err.Error(), "wrapped message: original error")
	}

	if Wrap(nil, "message") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapWithCode(t *testing.T) {
	underlying := errors.New("original error")
	err := WrapWithCode(underlying, ExitCodeTimeout, "incr transfer")

	if err.Code != ExitCodeTimeout {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeTimeout)
	}
	if err.Message != "incr transfer: original error" {
		t.Errorf("Message = %q, want %q", err.Message, "incr transfer: original error")
	}
}

func TestWrapWrapsError(t *testing.T) {
	wrapped := New(ExitCodeOwnership, "ownership denied")
	err := Wrap(wrapped, "outer error")

	if err.Code != ExitCodeOwnership {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeOwnership)
	}
	if err.Message != "outer error: ownership denied" {
		t.Errorf("Message = %q, want %q", err.Message, "outer error: ownership denied")
	}
}

func TestIs(t *testing.T) {
	err1 := New(ExitCodeConfig, "error 1")
	err2 := New(ExitCodeConfig, "error 2")
	err3 := New(ExitCodeGeneral, "error 3")

	if !Is(err1, err2) {
		t.Error("Is() should return true for same exit code")
	}

	if Is(err1, err3) {
		t.Error("Is() should return false for different exit codes")
	}

	if Is(err1, errors.New("plain error")) {
		t.Error("Is() should return false for plain error")
	}
}

func TestIsExitCode(t *testing.T) {
	err := New(ExitCodeNoDisplay, "no display")

	if !IsExitCode(err, ExitCodeNoDisplay) {
		t.Error("IsExitCode() should return true for matching code")
	}

	if IsExitCode(err, ExitCodeConfig) {
		t.Error("IsExitCode() should return false for non-matching code")
	}

	if IsExitCode(nil, ExitCodeGeneral) {
		t.Error("IsExitCode() should return false for nil error")
	}

	if IsExitCode(errors.New("plain error"), ExitCodeGeneral) {
		t.Error("IsExitCode() should return false for plain error")
	}
}

func TestHandleReturn(t *testing.T) {
	if code := HandleReturn(nil); code != ExitCodeSuccess {
		t.Errorf("HandleReturn(nil) = %d, want %d", code, ExitCodeSuccess)
	}

	err := NewWithSuggestion(ExitCodeConfig, "configuration missing", "Run richclip config path to locate it")
	if code := HandleReturn(err); code != ExitCodeConfig {
		t.Errorf("HandleReturn(err) = %d, want %d", code, ExitCodeConfig)
	}

	plain := errors.New("plain error")
	if code := HandleReturn(plain); code != ExitCodeGeneral {
		t.Errorf("HandleReturn(plain) = %d, want %d", code, ExitCodeGeneral)
	}
}

func TestConfigError(t *testing.T) {
	err := ConfigError("invalid yaml")

	if err.Code != ExitCodeConfig {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeConfig)
	}
	if err.Message != "invalid yaml" {
		t.Errorf("Message = %q, want %q", err.Message, "invalid yaml")
	}
	if err.Suggestion == "" {
		t.Error("ConfigError() should set a suggestion")
	}
}

func TestTimeoutError(t *testing.T) {
	err := TimeoutError("incr transfer")

	if err.Code != ExitCodeTimeout {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeTimeout)
	}
}

func TestCancelledError(t *testing.T) {
	err := CancelledError("copy")

	if err.Code != ExitCodeCancellation {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeCancellation)
	}
}
