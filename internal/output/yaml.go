package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter outputs results as YAML.
type YAMLFormatter struct{}

// Format writes the result data as YAML.
func (f *YAMLFormatter) Format(w io.Writer, result Result, _ []string) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	if result.IsSuccess() && result.Data != nil {
		return enc.Encode(result.Data)
	}
	return enc.Encode(result)
}
