package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CategoryParse, CodeInvalidFormat, "bad row")

	if err.Category != CategoryParse {
		t.Errorf("Expected category %s, got %s", CategoryParse, err.Category)
	}
	if err.Code != CodeInvalidFormat {
		t.Errorf("Expected code %s, got %s", CodeInvalidFormat, err.Code)
	}
	if err.Error() != "bad row" {
		t.Errorf("Expected message 'bad row', got %q", err.Error())
	}
	if len(err.StackTrace) == 0 {
		t.Error("Expected a captured stack trace")
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(cause, CategoryFile, CodeFileNotFound, "cannot open file")

	if err.Cause != cause {
		t.Error("Expected cause to be preserved")
	}
	if err.Unwrap() != cause {
		t.Error("Expected Unwrap to return the cause")
	}

	if Wrap(nil, CategoryFile, CodeFileNotFound, "ignored") != nil {
		t.Error("Wrapping nil must return nil")
	}
}

func TestErrorWithSuggestion(t *testing.T) {
	err := New(CategoryValidation, CodeInvalidAmount, "amount is negative").
		WithSuggestion("use a positive amount")

	msg := err.Error()
	if !strings.Contains(msg, "amount is negative") || !strings.Contains(msg, "use a positive amount") {
		t.Errorf("Expected message with suggestion, got %q", msg)
	}
}

func TestWithContext(t *testing.T) {
	err := New(CategoryParse, CodeInvalidData, "bad value").
		WithContext("file", "payments.csv").
		WithContext("line", 7)

	if err.Context["file"] != "payments.csv" {
		t.Errorf("Expected file context, got %v", err.Context["file"])
	}
	if err.Context["line"] != 7 {
		t.Errorf("Expected line context, got %v", err.Context["line"])
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"file error", FileError(CodeFileNotFound, "x.csv", nil), 2},
		{"parse error", ParseError(CodeMissingColumn, "x.csv", 1, "amount", "", nil), 3},
		{"validation error", ValidationError(CodeInvalidAmount, "amount", "-5", nil), 3},
		{"configuration error", ConfigurationError(CodeInvalidConfig, "workers", 0, nil), 4},
		{"reconciliation error", ReconciliationError("batch", nil), 5},
		{"plain error", fmt.Errorf("plain"), 1},
		{"wrapped in fmt", fmt.Errorf("outer: %w", FileError(CodeFileNotFound, "x.csv", nil)), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.expected {
				t.Errorf("GetExitCode = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestIsCategory(t *testing.T) {
	fileErr := FileError(CodeFilePermission, "x.csv", nil)

	if !IsCategory(fileErr, CategoryFile) {
		t.Error("Expected file error to match its category")
	}
	if IsCategory(fileErr, CategoryParse) {
		t.Error("Expected file error not to match parse category")
	}
	if IsCategory(fmt.Errorf("plain"), CategoryFile) {
		t.Error("Plain errors belong to no category")
	}

	wrapped := fmt.Errorf("context: %w", fileErr)
	if !IsCategory(wrapped, CategoryFile) {
		t.Error("Expected category detection through wrapping")
	}
}

func TestConstructorsCarryContext(t *testing.T) {
	parseErr := ParseError(CodeInvalidData, "payments.csv", 12, "amount", "abc", fmt.Errorf("bad decimal"))
	if parseErr.Context["file"] != "payments.csv" || parseErr.Context["line"] != 12 {
		t.Errorf("Expected file and line context, got %v", parseErr.Context)
	}
	if !strings.Contains(parseErr.Message, "line 12") {
		t.Errorf("Expected line number in message, got %q", parseErr.Message)
	}

	fileErr := FileError(CodeFileNotFound, "/data/x.csv", nil)
	if fileErr.Context["file_path"] != "/data/x.csv" {
		t.Errorf("Expected file_path context, got %v", fileErr.Context)
	}
	if fileErr.Suggestion == "" {
		t.Error("Expected a suggestion on file errors")
	}
}
