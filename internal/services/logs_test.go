package services

import (
	"bytes"
	"event-discovery-service/internal/platform/logging"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// firstAtOrAbove returns the first JSON log line at min level or higher.
func (b *logBuffer) firstAtOrAbove(min zerolog.Level) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, line := range strings.Split(b.buf.String(), "\n") {
		var entry struct {
			Level string `json:"level"`
		}
		if json.Unmarshal([]byte(line), &entry) != nil || entry.Level == "" {
			continue
		}
		if lvl, err := zerolog.ParseLevel(entry.Level); err == nil && lvl >= min {
			return line
		}
	}
	return ""
}

// captureLogs routes the global logger into a buffer for the test. Components
// must be constructed after the call to pick it up.
func captureLogs(t *testing.T) *logBuffer {
	t.Helper()

	buf := &logBuffer{}
	logging.Init(logging.Config{Level: "debug", Output: buf})
	t.Cleanup(func() { logging.Init(logging.Config{}) })
	return buf
}
