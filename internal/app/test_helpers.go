package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vk/realityserver/internal/hardware"
	"github.com/vk/realityserver/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteConfig writes source as main.hcl in a fresh temporary directory and
// returns the file path.
func WriteConfig(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// SetupAppTest creates a new app instance for system testing from an HCL
// source. Debug logs are captured and printed when RS_TEST_LOGS is "true".
func SetupAppTest(t *testing.T, source string, modules ...hardware.Module) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	appConfig := &Config{
		ConfigPaths: []string{WriteConfig(t, source)},
		LogLevel:    "debug",
		LogFormat:   "text",
	}
	testApp := NewApp(logBuffer, appConfig, hcl.NewLoader(), modules...)

	t.Cleanup(func() {
		if os.Getenv("RS_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
