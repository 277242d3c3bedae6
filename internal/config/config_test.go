package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  port: 8080
  bind: 127.0.0.1
  request_timeout: 5s
  idle_timeout: 60
database:
  driver: sqlite3
metrics:
  enabled: false
log:
  file:
`

func TestParseFile_Flattens(t *testing.T) {
	f, err := ParseFile("test.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}

	tests := []struct {
		key      string
		expected string
	}{
		{"server.port", "8080"},
		{"server.bind", "127.0.0.1"},
		{"database.driver", "sqlite3"},
		{"metrics.enabled", "false"},
		{"log.file", ""},
		{"missing", ""},
	}
	for _, tt := range tests {
		got, err := f.GetSetting(tt.key)
		if err != nil {
			t.Fatalf("GetSetting(%q) returned error: %v", tt.key, err)
		}
		if got != tt.expected {
			t.Errorf("GetSetting(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}

	if len(f.Keys()) != 7 {
		t.Errorf("expected 7 keys, got %v", f.Keys())
	}
}

func TestParseFile_Invalid(t *testing.T) {
	if _, err := ParseFile("bad.yaml", []byte("server: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutormatch.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if f.Path() != path {
		t.Errorf("expected path %q, got %q", path, f.Path())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoader(t *testing.T) {
	f, err := ParseFile("test.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}
	l := NewLoader(f)

	if got := l.Int("server.port", 0); got != 8080 {
		t.Errorf("expected port 8080, got %d", got)
	}
	if got := l.Int("server.bind", 9); got != 9 {
		t.Errorf("expected default for non-integer, got %d", got)
	}
	if got := l.Bool("metrics.enabled", true); got {
		t.Error("expected metrics.enabled to be false")
	}
	if got := l.String("log.file", "default.log"); got != "default.log" {
		t.Errorf("expected default for empty value, got %q", got)
	}
	if got := l.Duration("server.request_timeout", 0); got != 5*time.Second {
		t.Errorf("expected 5s, got %v", got)
	}
	if got := l.Duration("server.idle_timeout", 0); got != 60*time.Second {
		t.Errorf("expected bare integer as seconds, got %v", got)
	}
}

func TestLoader_NilSource(t *testing.T) {
	l := NewLoader(nil)

	if got := l.Int("server.port", 3000); got != 3000 {
		t.Errorf("expected default 3000, got %d", got)
	}
	if got := l.String("database.driver", "sqlite"); got != "sqlite" {
		t.Errorf("expected default driver, got %q", got)
	}

	var nilFile *File
	if got := NewLoader(nilFile).Bool("metrics.enabled", true); !got {
		t.Error("expected default true from nil file")
	}
}

func TestLoadTimeouts(t *testing.T) {
	f, err := ParseFile("test.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}

	got := LoadTimeouts(NewLoader(f))
	def := DefaultTimeoutConfig()

	if got.Request != 5*time.Second {
		t.Errorf("expected request timeout 5s, got %v", got.Request)
	}
	if got.Idle != 60*time.Second {
		t.Errorf("expected idle timeout 60s, got %v", got.Idle)
	}
	if got.Read != def.Read || got.Shutdown != def.Shutdown {
		t.Errorf("expected defaults for unset timeouts, got %+v", got)
	}
}
