package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// TestLogBuffer collects JSON log lines written by concurrent goroutines.
type TestLogBuffer struct {
	mu  sync.Mutex
	out bytes.Buffer
}

func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	n, err := b.out.Write(p)
	b.mu.Unlock()
	return n, err
}

func (b *TestLogBuffer) String() string {
	b.mu.Lock()
	s := b.out.String()
	b.mu.Unlock()
	return s
}

// Entries decodes every non-blank line as one slog JSON record.
func (b *TestLogBuffer) Entries() ([]map[string]any, error) {
	var records []map[string]any
	sc := bufio.NewScanner(strings.NewReader(b.String()))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		rec := map[string]any{}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, sc.Err()
}

// CountMessages reports how many records carry msg. Undecodable output counts as zero.
func (b *TestLogBuffer) CountMessages(msg string) int {
	records, err := b.Entries()
	if err != nil {
		return 0
	}
	n := 0
	for _, rec := range records {
		if rec[slog.MessageKey] == msg {
			n++
		}
	}
	return n
}

// NewTestLogger returns a debug-level JSON logger and the buffer it writes to.
// slog.Default is not modified.
func NewTestLogger(t *testing.T) (*slog.Logger, *TestLogBuffer) {
	t.Helper()
	buf := new(TestLogBuffer)
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), buf
}

func AssertLogContains(t *testing.T, buf *TestLogBuffer, substr string) {
	t.Helper()
	if out := buf.String(); !strings.Contains(out, substr) {
		t.Errorf("log output missing %q:\n%s", substr, out)
	}
}

func AssertLogNotContains(t *testing.T, buf *TestLogBuffer, substr string) {
	t.Helper()
	if out := buf.String(); strings.Contains(out, substr) {
		t.Errorf("log output unexpectedly contains %q:\n%s", substr, out)
	}
}
