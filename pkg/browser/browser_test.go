package browser

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newCapturedLauncher(command string) (*Launcher, *syncBuffer) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return New(command, "openclaw", logger), buf
}

func TestOpenLogsCompletion(t *testing.T) {
	l, buf := newCapturedLauncher("true")

	l.Open("trademe", "https://www.trademe.co.nz/a/login")

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "browser launch finished")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, buf.String(), "trademe")
}

func TestOpenSpawnFailureIsOnlyLogged(t *testing.T) {
	l, buf := newCapturedLauncher("definitely-not-a-real-binary-xyz")

	// Must not block or panic even though the command cannot start.
	l.Open("seek", "https://www.seek.co.nz/oauth/login/")

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "browser launch failed")
	}, 5*time.Second, 10*time.Millisecond)
}

func TestOpenExitFailureIsOnlyLogged(t *testing.T) {
	l, buf := newCapturedLauncher("false")

	l.Open("fiverr", "https://www.fiverr.com/login")

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "browser launch failed")
	}, 5*time.Second, 10*time.Millisecond)
}
