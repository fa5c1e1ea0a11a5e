package internal

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

func TestCLIErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *CLIError
		expected string
	}{
		{
			name: "error without cause",
			err: &CLIError{
				Code:    ExitError,
				Message: "something went wrong",
			},
			expected: "something went wrong",
		},
		{
			name: "error with cause",
			err: &CLIError{
				Code:    ExitError,
				Message: "operation failed",
				Cause:   errors.New("underlying error"),
			},
			expected: "operation failed: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestCLIErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := WrapError(ExitStoreError, "wrapper", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find the cause through %v", err)
	}

	if NewCLIError(ExitError, "no cause").Unwrap() != nil {
		t.Error("expected Unwrap to return nil for error without cause")
	}
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test"}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd, buf
}

func TestHandleErrorNil(t *testing.T) {
	cmd, _ := testCommand()
	if code := HandleError(cmd, nil); code != ExitSuccess {
		t.Errorf("expected ExitSuccess for nil error, got %d", code)
	}
}

func TestHandleErrorCancellation(t *testing.T) {
	cmd, _ := testCommand()
	if code := HandleError(cmd, context.Canceled); code != ExitCancelled {
		t.Errorf("expected ExitCancelled, got %d", code)
	}

	cmd2, _ := testCommand()
	if code := HandleError(cmd2, context.DeadlineExceeded); code != ExitTimeout {
		t.Errorf("expected ExitTimeout, got %d", code)
	}
}

func TestHandleErrorCLIError(t *testing.T) {
	cmd, buf := testCommand()
	err := NewCLIError(ExitConfigError, "bad config")

	if code := HandleError(cmd, err); code != ExitConfigError {
		t.Errorf("expected ExitConfigError, got %d", code)
	}
	if !bytes.Contains(buf.Bytes(), []byte("bad config")) {
		t.Errorf("expected message in output, got %q", buf.String())
	}
}

func TestHandleErrorPipelineCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"config error", types.NewError(types.CONFIG_VALIDATION_FAILED, "invalid"), ExitConfigError},
		{"store error", types.NewError(types.STORE_ERROR, "down"), ExitStoreError},
		{"lock error", types.NewError(types.LOCK_NOT_ACQUIRED, "held"), ExitStoreError},
		{"generic pipeline error", types.NewError(types.RESEARCH_FAILED, "no providers"), ExitError},
		{"plain error", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := testCommand()
			if code := HandleError(cmd, tt.err); code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, code)
			}
		})
	}
}

func TestVerboseToggle(t *testing.T) {
	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be enabled")
	}
	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be disabled")
	}
}
