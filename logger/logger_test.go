package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func capture() (Logger, *bytes.Buffer) {
	l := New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	return l, &buf
}

func TestTextFormat(t *testing.T) {
	l, buf := capture()
	l.Info("pool grown to %d", 3)

	line := buf.String()
	if !strings.HasPrefix(line, "[seam] ") {
		t.Errorf("line %q missing prefix", line)
	}
	if !strings.Contains(line, "INFO: pool grown to 3") {
		t.Errorf("line %q missing message", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := capture()
	l.SetLevel(LevelWarn)

	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info emitted at warn level: %q", buf.String())
	}

	l.Warn("shown")
	if !strings.Contains(buf.String(), "WARN: shown") {
		t.Errorf("warn not emitted: %q", buf.String())
	}

	l.SetLevel(LevelSilent)
	buf.Reset()
	l.Error("silenced")
	if buf.Len() != 0 {
		t.Errorf("error emitted at silent level: %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	l, buf := capture()
	l.SetFormat(FormatJSON)
	l.Error("bad thing %s", "happened")

	var data map[string]any
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if data["level"] != "ERROR" {
		t.Errorf("level = %v", data["level"])
	}
	if data["msg"] != "bad thing happened" {
		t.Errorf("msg = %v", data["msg"])
	}
	if _, ok := data["time"]; !ok {
		t.Error("missing time field")
	}
}

func TestSQLLogging(t *testing.T) {
	l, buf := capture()
	l.SQL("SELECT 1", 5*time.Millisecond)
	if !strings.Contains(buf.String(), "SQL: [5ms] SELECT 1") {
		t.Errorf("text sql line = %q", buf.String())
	}

	buf.Reset()
	l.SetFormat(FormatJSON)
	l.SQL("SELECT 2", time.Millisecond, 42)
	var data map[string]any
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if data["sql"] != "SELECT 2" {
		t.Errorf("sql = %v", data["sql"])
	}
	if data["duration"] != "1ms" {
		t.Errorf("duration = %v", data["duration"])
	}
	if data["args"] != "[42]" {
		t.Errorf("args = %v", data["args"])
	}
}
