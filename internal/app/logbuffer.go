package app

import (
	"strings"
	"sync"
)

// logBuffer keeps the most recent log lines for the on-screen log pane. It is
// an io.Writer so a *log.Logger can write into it.
type logBuffer struct {
	mu      sync.Mutex
	lines   []string
	limit   int
	onWrite func()
}

func newLogBuffer(limit int, onWrite func()) *logBuffer {
	return &logBuffer{limit: limit, onWrite: onWrite}
}

func (b *logBuffer) Write(p []byte) (int, error) {
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	b.mu.Lock()
	for _, part := range strings.Split(text, "\n") {
		if part == "" {
			continue
		}
		b.lines = append(b.lines, part)
	}
	if len(b.lines) > b.limit {
		b.lines = b.lines[len(b.lines)-b.limit:]
	}
	b.mu.Unlock()
	if b.onWrite != nil {
		b.onWrite()
	}
	return len(p), nil
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}
