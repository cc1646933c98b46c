// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("expected structured field in output, got %q", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestInitRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Debug().Msg("suppressed")
	Warn().Msg("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("debug event emitted at warn level: %q", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("warn event missing: %q", out)
	}
}

func TestSlogHandlerForwardsToZerolog(t *testing.T) {
	var buf bytes.Buffer
	zl := NewTestLogger(&buf)
	slogger := slog.New(NewSlogHandlerWithLogger(zl))

	slogger.Info("service started", "service", "scheduler", "attempts", int64(3))

	out := buf.String()
	if !strings.Contains(out, `"service":"scheduler"`) {
		t.Errorf("missing string attr: %q", out)
	}
	if !strings.Contains(out, `"attempts":3`) {
		t.Errorf("missing int attr: %q", out)
	}
	if !strings.Contains(out, "service started") {
		t.Errorf("missing message: %q", out)
	}
}

func TestSlogHandlerGroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	zl := NewTestLogger(&buf)
	slogger := slog.New(NewSlogHandlerWithLogger(zl)).WithGroup("supervisor")

	slogger.Warn("restarting", "service", "http-server")

	if !strings.Contains(buf.String(), `"supervisor.service":"http-server"`) {
		t.Errorf("group prefix missing: %q", buf.String())
	}
}
