package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seltest.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Close()
	defer SetVerbose(false)

	Info("starting %s", "Login.Valid")
	Debug("hidden at info level")
	SetVerbose(true)
	Debug("visible at debug level")
	Warn("slow page")
	Error("failed: %d", 1)
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)

	for _, want := range []string{"starting Login.Valid", "visible at debug level", "slow page", "failed: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden at info level") {
		t.Errorf("debug line written at info level:\n%s", out)
	}
}

func TestLogger_BeforeInit(t *testing.T) {
	Close()

	// Must not panic
	Info("dropped")
	if GetWriter() != io.Discard {
		t.Error("GetWriter() should return io.Discard before Init")
	}
}

func TestInit_BadPath(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Error("expected error for missing directory")
		Close()
	}
}
