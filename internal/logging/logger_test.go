package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLoadConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		level   string
		source  string
		want    Config
		wantErr string
	}{
		{name: "defaults", want: Config{Format: "json", Level: slog.LevelInfo}},
		{name: "text debug", format: "text", level: "debug", want: Config{Format: "text", Level: slog.LevelDebug}},
		{name: "case and space", format: " JSON ", level: "WARN", want: Config{Format: "json", Level: slog.LevelWarn}},
		{name: "source on", source: "true", want: Config{Format: "json", Level: slog.LevelInfo, AddSource: true}},
		{name: "invalid format", format: "yaml", wantErr: EnvFormat},
		{name: "invalid level", level: "trace", wantErr: EnvLevel},
		{name: "invalid source", source: "sometimes", wantErr: EnvSource},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvFormat, tc.format)
			t.Setenv(EnvLevel, tc.level)
			t.Setenv(EnvSource, tc.source)

			got, err := LoadConfigFromEnv()
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("err = %v, want mention of %s", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfigFromEnv() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("LoadConfigFromEnv() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNewLogger_JSONIncludesStaticAttrs(t *testing.T) {
	var out bytes.Buffer
	NewLogger(DefaultConfig(), &out, "grcdesk export").Info("bulk export started", "reports", 3)

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v (line %q)", err, out.String())
	}
	for key, want := range map[string]any{
		"app":     AppName,
		"command": "grcdesk export",
		"msg":     "bulk export started",
		"reports": float64(3),
	} {
		if payload[key] != want {
			t.Fatalf("%s = %v, want %v", key, payload[key], want)
		}
	}
}

func TestNewLogger_DefaultCommandAndLevel(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(Config{Format: "text", Level: slog.LevelWarn}, &out, "  ")
	logger.Info("dropped")
	logger.Warn("careful")

	line := out.String()
	if strings.Contains(line, "dropped") {
		t.Fatalf("info record passed a warn-level logger: %q", line)
	}
	if !strings.Contains(line, "command=grcdesk") || !strings.Contains(line, "level=WARN") {
		t.Fatalf("log line = %q", line)
	}
}

func TestBootstrapFromEnvInstallsDefault(t *testing.T) {
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvLevel, "info")
	t.Setenv(EnvSource, "")

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	logger, err := BootstrapFromEnv(BootstrapOptions{Command: "grcdesk worker", Writer: &out})
	if err != nil {
		t.Fatalf("BootstrapFromEnv() error = %v", err)
	}
	if slog.Default() != logger {
		t.Fatal("default logger was not replaced")
	}
	slog.Info("tick")
	if !strings.Contains(out.String(), `"command":"grcdesk worker"`) {
		t.Fatalf("output = %q", out.String())
	}
}
