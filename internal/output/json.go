package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter outputs results as pretty-printed JSON.
type JSONFormatter struct{}

// Format writes the result data as indented JSON; for failures it prints
// the full envelope including status and error details.
func (f *JSONFormatter) Format(w io.Writer, result Result, _ []string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if result.IsSuccess() && result.Data != nil {
		return enc.Encode(result.Data)
	}
	return enc.Encode(result)
}
