package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestComponent_AddsField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})

	ledgerLog := Component("ledger")
	ledgerLog.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"ledger"`) {
		t.Errorf("missing component field: %s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("missing message: %s", out)
	}
}

func TestWithRun_AddsComponentAndRunID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})

	runLog := WithRun("runner", "run-123")
	runLog.Info().Msg("starting")

	out := buf.String()
	for _, want := range []string{`"component":"runner"`, `"run_id":"run-123"`, "starting"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in output: %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"trace", zerolog.TraceLevel},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
