// Package output handles formatting and rendering of CogniaLauncher
// command results.
package output

import (
	"fmt"
	"io"
)

// Formatter renders a Result to the given writer.
type Formatter interface {
	// Format writes result to w in the formatter's format. columns, if
	// non-nil, fixes the table formatter's column order; other
	// formatters ignore it.
	Format(w io.Writer, result Result, columns []string) error
}

// NewFormatter returns a Formatter for the given format name.
// Supported formats: "json", "table", "yaml", "quiet".
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "json":
		return &JSONFormatter{}, nil
	case "table":
		return &TableFormatter{}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	case "quiet":
		return &QuietFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q (supported: json, table, yaml, quiet)", format)
	}
}

// QuietFormatter produces no output. The exit code conveys the result.
type QuietFormatter struct{}

func (f *QuietFormatter) Format(w io.Writer, result Result, _ []string) error {
	return nil
}
