package chatclient

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
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

func TestWriterFIFO(t *testing.T) {
	var out syncBuffer
	w := NewWriter(&out, 10)
	w.Start()
	defer w.Close()

	w.Enqueue("A")
	w.Enqueue("B")
	w.Enqueue("C")

	assert.Eventually(t, func() bool { return out.String() == "A\r\nB\r\nC\r\n" },
		time.Second, 5*time.Millisecond)
}

func TestWriterDropsWhenFull(t *testing.T) {
	var out syncBuffer
	w := NewWriter(&out, 2)

	w.Enqueue("one")
	w.Enqueue("two")
	w.Enqueue("three") // очередь полна, строка выброшена
	assert.Equal(t, 2, w.Len())

	w.Start()
	defer w.Close()
	assert.Eventually(t, func() bool { return w.Len() == 0 && out.String() == "one\r\ntwo\r\n" },
		time.Second, 5*time.Millisecond)
	assert.NotContains(t, out.String(), "three")
}

func TestWriterDefaultSize(t *testing.T) {
	w := NewWriter(&syncBuffer{}, 0)
	for i := 0; i < DefaultQueueSize+5; i++ {
		w.Enqueue("x")
	}
	assert.Equal(t, DefaultQueueSize, w.Len())
}

// flaky пишет с ошибкой первый раз, дальше нормально.
type flaky struct {
	syncBuffer
	failed bool
}

func (f *flaky) Write(p []byte) (int, error) {
	if !f.failed {
		f.failed = true
		return 0, errors.New("broken pipe")
	}
	return f.syncBuffer.Write(p)
}

func TestWriterContinuesAfterError(t *testing.T) {
	out := &flaky{}
	w := NewWriter(out, 4)
	w.Start()
	defer w.Close()

	w.Enqueue("lost")
	w.Enqueue("kept")

	assert.Eventually(t, func() bool { return out.String() == "kept\r\n" },
		time.Second, 5*time.Millisecond)
}

func TestWriterRateLimitsPrivmsgOnly(t *testing.T) {
	var out syncBuffer
	w := NewWriter(&out, 10, WithRateLimit(rate.Every(time.Hour), 1))
	w.Start()

	w.Enqueue("PONG :a")
	w.Enqueue("PRIVMSG #c :1")
	w.Enqueue("PRIVMSG #c :2")

	assert.Eventually(t, func() bool { return out.String() == "PONG :a\r\nPRIVMSG #c :1\r\n" },
		time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.NotContains(t, out.String(), "PRIVMSG #c :2")

	w.Close()
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("writer did not stop while waiting for the limiter")
	}
}

func TestWriterCloseWithEmptyQueue(t *testing.T) {
	w := NewWriter(&syncBuffer{}, 1)
	w.Start()
	w.Start()
	w.Close()
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("writer did not stop")
	}
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "PASS ***", redact("PASS oauth:secret"))
	assert.Equal(t, "NICK bot", redact("NICK bot"))
	assert.False(t, strings.Contains(redact("PASS oauth:secret"), "secret"))
}
