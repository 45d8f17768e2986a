package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestScope(t *testing.T) {
	tests := []struct {
		name  string
		scope string
	}{
		{"basic scope", "chunking"},
		{"nested scope", "ingest.worker"},
		{"empty scope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := Scope(tt.scope)
			if attr.Key != "scope" {
				t.Errorf("Scope() key = %q, want %q", attr.Key, "scope")
			}
			if attr.Value.String() != tt.scope {
				t.Errorf("Scope() value = %q, want %q", attr.Value.String(), tt.scope)
			}
		})
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"simple error", errors.New("parse failed")},
		{"nil error", nil},
		{"joined error", errors.Join(errors.New("outer"), errors.New("inner"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := Error(tt.err)
			if attr.Key != "error" {
				t.Errorf("Error() key = %q, want %q", attr.Key, "error")
			}
			if got := attr.Value.Any(); got != tt.err {
				t.Errorf("Error() value = %v, want %v", got, tt.err)
			}
		})
	}
}

func TestDocument(t *testing.T) {
	attr := Document("A-1", "en")
	if attr.Key != "document" {
		t.Fatalf("Document() key = %q, want %q", attr.Key, "document")
	}
	group := attr.Value.Group()
	if len(group) != 2 {
		t.Fatalf("Document() group has %d attrs, want 2", len(group))
	}
	if group[0].Value.String() != "A-1" || group[1].Value.String() != "en" {
		t.Errorf("Document() = %v", group)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"dEbUg", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" error ", slog.LevelError},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		level    string
		enabled  slog.Level
		disabled *slog.Level
	}{
		{name: "default", level: "", enabled: slog.LevelInfo, disabled: ptr(slog.LevelDebug)},
		{name: "debug", level: "debug", enabled: slog.LevelDebug},
		{name: "warn", level: "warn", enabled: slog.LevelWarn, disabled: ptr(slog.LevelInfo)},
		{name: "error", level: "error", enabled: slog.LevelError, disabled: ptr(slog.LevelWarn)},
		{name: "invalid falls back to info", level: "verbose", enabled: slog.LevelInfo, disabled: ptr(slog.LevelDebug)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.level)
			t.Setenv("GO_ENV", "")

			log := NewLogger()
			if log == nil {
				t.Fatal("NewLogger() returned nil")
			}
			if !log.Enabled(ctx, tt.enabled) {
				t.Errorf("level %v should be enabled for LOG_LEVEL=%q", tt.enabled, tt.level)
			}
			if tt.disabled != nil && log.Enabled(ctx, *tt.disabled) {
				t.Errorf("level %v should be disabled for LOG_LEVEL=%q", *tt.disabled, tt.level)
			}
		})
	}
}

func TestNewLogger_ProductionJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GO_ENV", "production")

	log := NewLogger()
	if log == nil {
		t.Fatal("NewLogger() returned nil")
	}
	if _, ok := log.Handler().(*slog.JSONHandler); !ok {
		t.Errorf("production logger handler = %T, want *slog.JSONHandler", log.Handler())
	}
	if !log.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("production logger should have info level enabled")
	}
}

func ptr(l slog.Level) *slog.Level { return &l }
