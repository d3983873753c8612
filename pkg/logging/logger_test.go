package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WARN, false)
	logger.SetOutput(&buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO message leaked through WARN threshold: %q", out)
	}
	if !strings.Contains(out, "WARN: shown") {
		t.Errorf("Expected WARN line, got %q", out)
	}
}

func TestTextFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DEBUG, false).WithField("run_id", "abc")
	logger.SetOutput(&buf)

	logger.Debug("done", map[string]interface{}{"result": 6})

	if !strings.Contains(buf.String(), "result=6 run_id=abc") {
		t.Errorf("Expected sorted fields, got %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(INFO, true)
	logger.SetOutput(&buf)

	logger.Info("run complete", map[string]interface{}{"result": 479001600})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log entry: %v", err)
	}
	if entry.Level != "INFO" || entry.Message != "run complete" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.Fields["result"] != float64(479001600) {
		t.Errorf("Unexpected result field: %v", entry.Fields["result"])
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(INFO, false)
	parent.SetOutput(&buf)
	_ = parent.WithField("child", true)

	parent.Info("parent")
	if strings.Contains(buf.String(), "child") {
		t.Errorf("Parent logger picked up child field: %q", buf.String())
	}
}

func TestFatalExits(t *testing.T) {
	var buf bytes.Buffer
	code := -1
	logger := NewLogger(INFO, false)
	logger.SetOutput(&buf)
	logger.exit = func(c int) { code = c }

	logger.Fatal("boom")
	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"", INFO, false},
		{"warning", WARN, false},
		{"error", ERROR, false},
		{"fatal", FATAL, false},
		{"verbose", INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.in, got, tt.want)
			}
		})
	}
}
