package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// TableFormatter outputs results as a human-readable table, colored
// green on success and red on failure when stdout is a terminal.
type TableFormatter struct{}

// Format renders result.Data as a table, or the status/message/error for
// a non-success result.
func (f *TableFormatter) Format(w io.Writer, result Result, columns []string) error {
	colorEnabled := isatty.IsTerminal(os.Stdout.Fd())

	if !result.IsSuccess() {
		errColor := color.New(color.FgRed)
		line := fmt.Sprintf("Status: %s\n", result.Status)
		if result.Message != "" {
			line += fmt.Sprintf("Message: %s\n", result.Message)
		}
		if result.Error != nil {
			line += fmt.Sprintf("Error: [%s] %s\n", result.Error.Kind, result.Error.Message)
		}
		if colorEnabled {
			_, _ = errColor.Fprint(w, line)
		} else {
			_, _ = fmt.Fprint(w, line)
		}
		return nil
	}

	if len(result.Data) == 0 {
		msg := "(no data)"
		if colorEnabled {
			_, _ = color.New(color.FgGreen).Fprintln(w, msg)
		} else {
			_, _ = fmt.Fprintln(w, msg)
		}
		return nil
	}

	if len(columns) == 0 {
		columns = sortedKeys(result.Data)
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAutoFormat(tw.Off),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Top: tw.On, Bottom: tw.On, Left: tw.On, Right: tw.On},
		}),
	)

	headers := make([]interface{}, len(columns))
	for i, col := range columns {
		headers[i] = snakeToTitle(col)
	}
	table.Header(headers...)

	row := make([]interface{}, len(columns))
	for i, col := range columns {
		row[i] = formatValue(result.Data[col])
	}
	table.Append(row...)

	return table.Render()
}

// sortedKeys returns the sorted keys of a map.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// snakeToTitle converts "record_type" to "Record Type".
func snakeToTitle(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// formatValue converts a value to a display string.
func formatValue(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, _ := json.Marshal(val)
		return string(b)
	default:
		return fmt.Sprintf("%v", val)
	}
}
