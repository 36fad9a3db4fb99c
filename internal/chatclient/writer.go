package chatclient

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/EgorLis/twitchbot/internal/logging"
)

const DefaultQueueSize = 50

// Writer — поток отправки: ограниченная очередь строк и одна горутина,
// которая пишет их в транспорт строго по порядку.
type Writer struct {
	raw     io.Writer
	out     *bufio.Writer
	queue   chan string
	limiter *rate.Limiter
	log     *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	done      chan struct{}
}

type WriterOption func(*Writer)

// WithRateLimit ограничивает отправку PRIVMSG (PONG и служебные строки идут
// без ожидания).
func WithRateLimit(limit rate.Limit, burst int) WriterOption {
	return func(w *Writer) {
		if limit > 0 && burst > 0 {
			w.limiter = rate.NewLimiter(limit, burst)
		}
	}
}

func WithWriterLogger(log *slog.Logger) WriterOption {
	return func(w *Writer) {
		if log != nil {
			w.log = log
		}
	}
}

func NewWriter(out io.Writer, size int, opts ...WriterOption) *Writer {
	if size <= 0 {
		size = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Writer{
		raw:    out,
		out:    bufio.NewWriter(out),
		queue:  make(chan string, size),
		log:    logging.Nop(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enqueue ставит строку в очередь, добавляя CRLF. Никогда не блокирует:
// при полной очереди строка выбрасывается и пишется в лог.
func (w *Writer) Enqueue(line string) {
	select {
	case w.queue <- line + "\r\n":
	default:
		w.log.Error("output queue is full, message dropped", "line", redact(line))
	}
}

// Len — сколько строк ждут отправки.
func (w *Writer) Len() int { return len(w.queue) }

// Start запускает горутину отправки. Повторный вызов ничего не делает.
func (w *Writer) Start() {
	w.startOnce.Do(func() { go w.run() })
}

// Close останавливает отправку. Строка, которая пишется прямо сейчас, может
// быть потеряна; ожидания не будет.
func (w *Writer) Close() {
	w.cancel()
}

// Done закрывается, когда горутина отправки вышла.
func (w *Writer) Done() <-chan struct{} { return w.done }

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case line := <-w.queue:
			if w.limiter != nil && strings.HasPrefix(line, "PRIVMSG ") {
				if err := w.limiter.Wait(w.ctx); err != nil {
					return
				}
			}
			_, err := w.out.WriteString(line)
			if err == nil {
				err = w.out.Flush()
			}
			if err != nil {
				// bufio запоминает ошибку, сбрасываем буфер и идём дальше
				w.log.Error("write failed", "err", err)
				w.out.Reset(w.raw)
			}
		}
	}
}

// токен не должен попадать в логи
func redact(line string) string {
	if strings.HasPrefix(line, "PASS ") {
		return "PASS ***"
	}
	return line
}
