package config

import (
	"os"
	"path/filepath"
	"sync"
)

// HomeEnv names the variable that sets the seltest home directory.
const HomeEnv = "SELTEST_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the seltest home directory: $SELTEST_HOME, else the
// parent of the binary's bin/ directory, else the working directory.
// The first answer is cached.
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// ReportsDir is the output fallback used when neither --output nor the
// workspace config names one: <home>/reports when SELTEST_HOME is set,
// "" otherwise, which keeps logs in the current directory.
func ReportsDir() string {
	if os.Getenv(HomeEnv) == "" {
		return ""
	}
	return filepath.Join(GetHome(), "reports")
}

func resolveHome() string {
	if env := os.Getenv(HomeEnv); env != "" {
		return env
	}
	if bin, err := binaryDir(); err == nil && filepath.Base(bin) == "bin" {
		return filepath.Dir(bin)
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

func binaryDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// ResetHome clears the cached home directory.
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
