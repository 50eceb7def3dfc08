package logging

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestPrettyFormatterNoFields(t *testing.T) {
	fmtr := &prettyFormatter{}

	e := logrus.NewEntry(logrus.StandardLogger())
	e.Message = "test"
	e.Level = logrus.InfoLevel

	out, err := fmtr.Format(e)
	if err != nil {
		t.Fatalf("unexpected error formatting log entry: %v", err)
	}

	actual := string(out)
	if !strings.Contains(actual, "INFO") {
		t.Errorf("expected level INFO in output:\n%s", actual)
	}
	if !strings.Contains(actual, "test") {
		t.Errorf("expected message in output:\n%s", actual)
	}
}

func TestPrettyFormatterWithFields(t *testing.T) {
	fmtr := &prettyFormatter{}

	e := logrus.WithFields(logrus.Fields{"table": "cpu", "count": 3})
	e.Message = "compacted"
	e.Level = logrus.WarnLevel

	out, err := fmtr.Format(e)
	if err != nil {
		t.Fatalf("unexpected error formatting log entry: %v", err)
	}

	actual := string(out)
	if !strings.Contains(actual, "WARN") {
		t.Errorf("expected level WARN in output:\n%s", actual)
	}
	if !strings.Contains(actual, `table = "cpu"`) {
		t.Errorf("expected table field in output:\n%s", actual)
	}
	if !strings.Contains(actual, "count = 3") {
		t.Errorf("expected count field in output:\n%s", actual)
	}
}

func TestGetLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", Info, false},
		{"info", Info, false},
		{"debug", Debug, false},
		{"warn", Warn, false},
		{"error", Error, false},
		{"DEBUG", Debug, false},
		{"bogus", Info, true},
	}
	for _, c := range cases {
		got, err := GetLevel(c.in)
		if c.wantErr != (err != nil) {
			t.Errorf("GetLevel(%q): expected error=%v, got %v", c.in, c.wantErr, err)
			continue
		}
		if !c.wantErr && got != c.want {
			t.Errorf("GetLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestGetFormatter(t *testing.T) {
	if _, ok := GetFormatter("text", "").(*prettyFormatter); !ok {
		t.Errorf("expected GetFormatter(\"text\", ...) to return a *prettyFormatter")
	}
	if _, ok := GetFormatter("json", "").(*logrus.JSONFormatter); !ok {
		t.Errorf("expected GetFormatter(\"json\", ...) to return a *logrus.JSONFormatter")
	}
	pretty, ok := GetFormatter("json-pretty", "").(*logrus.JSONFormatter)
	if !ok {
		t.Fatalf("expected GetFormatter(\"json-pretty\", ...) to return a *logrus.JSONFormatter")
	}
	if !pretty.PrettyPrint {
		t.Errorf("expected json-pretty formatter to have PrettyPrint set")
	}
}

func TestStandardLoggerSetLevel(t *testing.T) {
	logger := NewStandardLoggerWithFormat("text", "")
	if logger.GetLevel() != Info {
		t.Fatalf("expected default level Info, got %v", logger.GetLevel())
	}
	logger.SetLevel(Debug)
	if logger.GetLevel() != Debug {
		t.Fatalf("expected level Debug after SetLevel, got %v", logger.GetLevel())
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()
	logger.SetLevel(Warn)
	if logger.GetLevel() != Warn {
		t.Fatalf("expected NoOpLogger to track its level, got %v", logger.GetLevel())
	}
	if logger.WithFields(map[string]interface{}{"a": 1}) != Logger(logger) {
		t.Fatalf("expected NoOpLogger.WithFields to return itself")
	}
}
