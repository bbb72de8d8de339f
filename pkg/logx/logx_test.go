package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "todo"))
	log.Info("added", Int64("user", 42), Err(errors.New("boom")))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if m["comp"] != "todo" || m["message"] != "added" {
		t.Fatalf("unexpected line: %v", m)
	}
	if m["user"] != float64(42) {
		t.Fatalf("user=%v", m["user"])
	}
	if m["err"] != "boom" {
		t.Fatalf("err=%v", m["err"])
	}
	if c, _ := m["caller"].(string); !strings.HasPrefix(c, "logx_test.go:") {
		t.Fatalf("caller=%q", c)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
	if log.Enabled(LevelDebug) || !log.Enabled(LevelError) {
		t.Fatalf("Enabled disagrees with level")
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatalf("zero logger should report IsZero")
	}
	l.Error("nothing happens")
}

func TestFormatSinkLine(t *testing.T) {
	got := formatSinkLine([]byte(`{"level":"warn","message":"send failed","time":"x","b":"2","a":1}` + "\n"))
	want := "[WARN] send failed\n- a=1\n- b=2"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	if got := formatSinkLine([]byte("  plain text \n")); got != "plain text" {
		t.Fatalf("raw line = %q", got)
	}
}
