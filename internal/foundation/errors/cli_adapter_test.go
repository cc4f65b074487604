package errors

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

type customError struct {
	msg string
}

func (e *customError) Error() string { return e.msg }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation error", err: ValidationError("invalid input").Build(), expected: 2},
		{name: "auth error", err: AuthError("unauthorized").Build(), expected: 5},
		{name: "config error", err: ConfigError("bad config").Build(), expected: 7},
		{name: "remote error", err: RemoteError("create failed").Build(), expected: 8},
		{name: "missing space", err: NotFoundError("space not found").Build(), expected: 8},
		{name: "render error", err: RenderError("bad markdown").Build(), expected: 11},
		{name: "wrapped classified error", err: fmt.Errorf("sync: %w", RemoteError("x").Build()), expected: 8},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		err      error
		contains string
	}{
		{name: "nil error", err: nil, contains: ""},
		{name: "config error shows message only", err: ConfigError("space key missing").Build(), contains: "space key missing"},
		{
			name: "remote error includes response body",
			err: RemoteError("failed to create page").
				WithContext("status", 400).
				WithContext("response", "title already exists").
				Build(),
			contains: "remote: failed to create page: title already exists",
		},
		{
			name:     "verbose shows full error",
			verbose:  true,
			err:      WrapError(&customError{msg: "boom"}, CategoryInternal, "internal issue").Build(),
			contains: "[internal:error] internal issue: boom",
		},
		{name: "unclassified error", err: &customError{msg: "plain"}, contains: "Error: plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewCLIErrorAdapter(tt.verbose, slog.Default())
			got := adapter.FormatError(tt.err)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatError() = %q, want to contain %q", got, tt.contains)
			}
		})
	}
}
