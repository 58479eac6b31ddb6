package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeFileNotFound, "input file not found: %s", "doc.md")
	if err.Code != ErrCodeFileNotFound {
		t.Errorf("Code = %q, want FILE_NOT_FOUND", err.Code)
	}
	if err.Message != "input file not found: doc.md" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Error("New should not set a cause")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := Wrap(ErrCodeFilesystem, cause, "create image directory %s", "images")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			"without cause",
			New(ErrCodeRenderTimeout, "renderer timed out"),
			"RENDER_TIMEOUT: renderer timed out",
		},
		{
			"with cause",
			Wrap(ErrCodeFilesystem, stderrors.New("EACCES"), "write output"),
			"FILESYSTEM_ERROR: write output: EACCES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeRenderFailed, "exit status 1")
	if !Is(err, ErrCodeRenderFailed) {
		t.Error("Is should match the error's code")
	}
	if Is(err, ErrCodeRenderTimeout) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeRenderFailed) {
		t.Error("Is should not match plain errors")
	}

	// Matching through wrapping layers.
	wrapped := fmt.Errorf("outer: %w", err)
	if !Is(wrapped, ErrCodeRenderFailed) {
		t.Error("Is should unwrap to find the coded error")
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{ErrCodeRenderTimeout, true},
		{ErrCodeRenderFailed, true},
		{ErrCodeRenderCrashed, true},
		{ErrCodeFileNotFound, false},
		{ErrCodeFilesystem, false},
		{ErrCodeInvalidInput, false},
		{ErrCodeInternal, false},
	}

	for _, tt := range tests {
		err := New(tt.code, "x")
		if got := IsRecoverable(err); got != tt.want {
			t.Errorf("IsRecoverable(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}

	if IsRecoverable(stderrors.New("plain")) {
		t.Error("plain errors are not recoverable render failures")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeRenderFailed, "exit status 1")
	if msg := UserMessage(err); msg != "exit status 1" {
		t.Errorf("UserMessage = %q, want message without code prefix", msg)
	}
	plain := stderrors.New("boom")
	if msg := UserMessage(plain); msg != "boom" {
		t.Errorf("UserMessage(plain) = %q, want %q", msg, "boom")
	}
}

func TestGetCode(t *testing.T) {
	if code := GetCode(New(ErrCodeInternal, "x")); code != ErrCodeInternal {
		t.Errorf("GetCode = %q, want INTERNAL_ERROR", code)
	}
	if code := GetCode(stderrors.New("plain")); code != "" {
		t.Errorf("GetCode(plain) = %q, want empty", code)
	}
}
