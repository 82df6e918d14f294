package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelWarn, true},
		{"", LevelWarn, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_ShouldLog(t *testing.T) {
	tests := []struct {
		name     string
		minLevel Level
		logLevel Level
		want     bool
	}{
		{"debug logs when min is debug", LevelDebug, LevelDebug, true},
		{"error logs when min is debug", LevelDebug, LevelError, true},
		{"debug does not log when min is warn", LevelWarn, LevelDebug, false},
		{"info does not log when min is warn", LevelWarn, LevelInfo, false},
		{"warn logs when min is warn", LevelWarn, LevelWarn, true},
		{"error logs when min is error", LevelError, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.minLevel)
			if got := logger.shouldLog(tt.logLevel); got != tt.want {
				t.Errorf("shouldLog() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger_WritesJSONEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(LevelInfo, &buf)

	logger.Info("gpu.smi.ok", "nvidia-smi succeeded", map[string]interface{}{
		"command": "nvidia-smi",
	})

	var event Event
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("Failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if event.Level != LevelInfo {
		t.Errorf("Expected level %s, got %s", LevelInfo, event.Level)
	}
	if event.Type != "gpu.smi.ok" {
		t.Errorf("Expected type 'gpu.smi.ok', got %s", event.Type)
	}
	if event.Payload["command"] != "nvidia-smi" {
		t.Errorf("Expected payload command, got %v", event.Payload["command"])
	}
	if event.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(LevelWarn, &buf)

	logger.Debug("torch.cudnn.unavailable", "filtered", nil)
	logger.Info("gpu.smi.ok", "filtered", nil)

	if strings.TrimSpace(buf.String()) != "" {
		t.Errorf("Expected no output for filtered log, got: %s", buf.String())
	}

	logger.Warn("gpu.smi.timeout", "kept", nil)
	if !strings.Contains(buf.String(), "gpu.smi.timeout") {
		t.Errorf("Expected warn event in output, got: %s", buf.String())
	}
}

func TestLogger_NilIsSilent(t *testing.T) {
	var logger *Logger
	logger.Error("torch.load.failed", "nothing happens", nil)
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nil logger = %v", err)
	}
}

func TestFileLogger_CreatesDirectoryAndAppends(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "gpucheck.log")

	first, err := NewFileLogger(LevelInfo, logPath)
	if err != nil {
		t.Fatalf("Failed to create file logger: %v", err)
	}
	first.Info("test.first", "First message", nil)
	if err := first.Close(); err != nil {
		t.Fatalf("Failed to close logger: %v", err)
	}

	second, err := NewFileLogger(LevelInfo, logPath)
	if err != nil {
		t.Fatalf("Failed to create file logger: %v", err)
	}
	second.Info("test.second", "Second message", nil)
	if err := second.Close(); err != nil {
		t.Fatalf("Failed to close logger: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d: %q", len(lines), content)
	}
	if !strings.Contains(lines[0], "test.first") || !strings.Contains(lines[1], "test.second") {
		t.Errorf("Unexpected log content: %s", content)
	}
}
