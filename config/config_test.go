package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Output.Style != "expanded" {
		t.Errorf("Default style = %q, want %q", cfg.Output.Style, "expanded")
	}
	if !cfg.Output.Charset {
		t.Error("Expected charset to be enabled by default")
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("Default console level = %q, want %q", cfg.Logging.ConsoleLogger.Level, "normal")
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	configPath := writeConfig(t, `version: 1
output:
  style: compressed
  verify: true
load_paths:
  - vendor/styles
`)
	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Output.Style != "compressed" {
		t.Errorf("Style = %q, want %q", cfg.Output.Style, "compressed")
	}
	if !cfg.Output.Verify {
		t.Error("Expected verify to be true")
	}
	// not in the file, kept from the defaults
	if !cfg.Output.Charset {
		t.Error("Expected charset to keep its default")
	}
	if len(cfg.LoadPaths) != 1 || cfg.LoadPaths[0] != filepath.Clean("vendor/styles") {
		t.Errorf("LoadPaths = %v", cfg.LoadPaths)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_Invalid(t *testing.T) {
	testdata := []struct {
		name    string
		content string
	}{
		{"yaml", "version: 1\noutput:\n  style: expanded\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"version", "version: 2\n"},
		{"style", "version: 1\noutput:\n  style: nested\n"},
		{"console level", "version: 1\nlogging:\n  console:\n    level: verbose\n"},
	}
	for _, tc := range testdata {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tc.content)); err == nil {
				t.Errorf("expected an error for %q", tc.content)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg := &Config{
		Version:   1,
		Output:    OutputConfig{Style: "compressed", Charset: true},
		LoadPaths: []string{"lib"},
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	str := string(data)
	for _, want := range []string{"version: 1", "style: compressed", "charset: true", "- lib"} {
		if !strings.Contains(str, want) {
			t.Errorf("Dump() output misses %q:\n%s", want, str)
		}
	}
	back, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("unmarshalConfig() error = %v", err)
	}
	if back.Output.Style != "compressed" {
		t.Errorf("Style = %q, want %q", back.Output.Style, "compressed")
	}
}

func TestPrepareLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "scssc.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "debug", Destination: logPath, Mode: "overwrite"},
	}
	log, closer, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("hello from the test")
	log.Sync()
	closer()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello from the test") {
		t.Errorf("log file does not contain the message: %q", data)
	}
	if !strings.Contains(string(data), appName) {
		t.Errorf("log file does not contain the logger name: %q", data)
	}
}

func TestDefaultsPrepareLogger(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Logging.FileLogger.Destination != "" {
		t.Errorf("Default file destination = %q, want empty", cfg.Logging.FileLogger.Destination)
	}
	log, closer, err := cfg.Logging.Prepare()
	if err != nil {
		t.Fatalf("Prepare() with defaults error = %v", err)
	}
	log.Debug("not written anywhere")
	closer()
}

func TestLoadConfiguration_ConsoleOnly(t *testing.T) {
	cfg, err := LoadConfiguration(writeConfig(t, "version: 1\nlogging:\n  console:\n    level: debug\n"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" || cfg.Logging.ConsoleLogger.Destination != "" {
		t.Errorf("ConsoleLogger = %+v", cfg.Logging.ConsoleLogger)
	}
}

func TestPrepareLogger_NoDestination(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "normal"},
	}
	if _, _, err := conf.Prepare(); err == nil {
		t.Error("expected an error for a file log without destination")
	}
}
