package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func testResult() Result {
	return Success(map[string]any{
		"hostname":    "example.com",
		"record_type": "A",
		"records":     []any{"93.184.216.34"},
		"ttl":         float64(300),
	})
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &JSONFormatter{}
	err := f.Format(&buf, testResult(), nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "example.com") {
		t.Errorf("expected 'example.com' in output: %s", output)
	}

	var data map[string]any
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Errorf("output is not valid JSON: %v", err)
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}
	err := f.Format(&buf, testResult(), nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "example.com") {
		t.Errorf("expected 'example.com' in table output: %s", output)
	}
	if !strings.Contains(output, "Hostname") || !strings.Contains(output, "Record Type") {
		t.Errorf("expected title-cased headers in output: %s", output)
	}
}

func TestTableFormatter_Failure(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}
	result := Failure(errTest{"boom"})
	if err := f.Format(&buf, result, nil); err != nil {
		t.Fatalf("Format: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "boom") {
		t.Errorf("expected error message in output: %s", output)
	}
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &YAMLFormatter{}
	err := f.Format(&buf, testResult(), nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "hostname: example.com") {
		t.Errorf("expected YAML key-value in output: %s", output)
	}
}

func TestNewFormatter_Invalid(t *testing.T) {
	_, err := NewFormatter("xml")
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}
