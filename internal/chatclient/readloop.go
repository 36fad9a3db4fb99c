package chatclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// остановка по Stop() во время рукопожатия
var errStopped = errors.New("stopped")

// Connect подключается к чату и обслуживает канал, пока не будет вызван
// Stop(), не отменён ctx или не случится ошибка без флага переподключения.
// Блокирует; обычно запускается в отдельной горутине.
func (c *Client) Connect(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)
	c.stopped.Store(false)

	c.UnregisterAllCommands()
	c.safeCall("plugin OnLoad", func() { c.plugin.OnLoad(c) })

	for {
		c.doStop.Store(false)
		c.reconnect.Store(false)
		// Stop() между сессиями: флаги выше его уже стёрли
		if c.stopped.Load() {
			c.log.Info("exiting client loop")
			return nil
		}

		err := c.session(ctx)
		if errors.Is(err, errStopped) {
			err = nil
		}
		if ctx.Err() != nil {
			c.log.Info("exiting client loop", "reason", ctx.Err())
			return nil
		}
		if !c.reconnect.Load() || c.stopped.Load() {
			c.log.Info("exiting client loop")
			return err
		}
		if err != nil {
			c.log.Warn("session ended with error, reconnecting", "err", err)
		} else {
			c.log.Info("reconnecting")
		}
	}
}

// session — одна попытка: подключение, рукопожатие, обслуживание, остановка.
func (c *Client) session(ctx context.Context) error {
	log := c.log.With("session", uuid.NewString())

	c.setState(StateConnecting)
	log.Info("connecting", "channel", c.channel)
	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("dial: %w", err)
	}

	opts := append([]WriterOption{WithWriterLogger(log)}, c.writerOpts...)
	w := NewWriter(conn, c.queueSize, opts...)
	in := readLines(conn)

	c.mu.Lock()
	c.conn, c.writer = conn, w
	c.mu.Unlock()
	w.Start()

	joined := false
	defer func() {
		log.Info("releasing resources")
		c.mu.Lock()
		c.conn, c.writer = nil, nil
		c.mu.Unlock()

		w.Close()
		in.close()
		_ = conn.Close()

		c.setState(StateDisconnected)
		if joined {
			c.listeners.notify("disconnected", func(l Listener) { l.OnDisconnected(c) })
		}
	}()

	// ---- рукопожатие ----
	c.setState(StateAuthenticating)
	w.Enqueue("PASS " + c.token)
	w.Enqueue("NICK " + c.username)
	if err := c.handshake(ctx, w, in, log); err != nil {
		if !errors.Is(err, errStopped) {
			log.Error("handshake failed", "err", err)
		}
		return err
	}
	log.Info("connected")

	// ---- вход в канал ----
	c.setState(StateJoining)
	log.Info("requesting commands capability")
	w.Enqueue("CAP REQ :" + commandsCapability)
	log.Info("joining channel", "channel", c.channel)
	w.Enqueue("JOIN #" + c.channel)

	c.registerBuiltins()
	c.SendMessage("Bot running...")
	c.safeCall("plugin OnStart", func() { c.plugin.OnStart(c) })

	c.setState(StateServing)
	joined = true
	c.listeners.notify("connected", func(l Listener) { l.OnConnected(c) })

	serveErr := c.serve(ctx, w, in, log)

	// ---- остановка ----
	c.setState(StateStopping)
	if c.reconnect.Load() {
		c.SendMessage("Restarting bot...")
	} else {
		c.SendMessage("Stopping bot...")
	}
	c.safeCall("plugin OnStop", func() { c.plugin.OnStop(c) })

	// даём очереди уйти в сокет
	if c.drainDelay > 0 {
		time.Sleep(c.drainDelay)
	}
	return serveErr
}

func (c *Client) handshake(ctx context.Context, w *Writer, in *inbound, log *slog.Logger) error {
	timer := time.NewTimer(c.handshakeTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return errStopped
		case <-timer.C:
			return ErrHandshakeTimeout
		case <-c.wake:
			if c.doStop.Load() {
				return errStopped
			}
		case line, ok := <-in.lines:
			if !ok {
				return fmt.Errorf("read during handshake: %w", in.readErr())
			}
			msg, err := ParseMessage(line)
			if err != nil {
				continue
			}
			switch {
			case msg.Command == "376":
				return nil
			case msg.Command == "NOTICE" && msg.Param(0) == "*":
				return fmt.Errorf("%w: %s", ErrAuthFailed, msg.Trailing())
			case msg.Command == "PING":
				w.Enqueue("PONG :" + msg.Trailing())
			default:
				log.Debug("greeting", "line", line)
			}
		}
	}
}

// serve крутится, пока не поднят флаг остановки. Задержка реакции на
// Stop() ограничена pollInterval даже без пробуждения через wake.
func (c *Client) serve(ctx context.Context, w *Writer, in *inbound, log *slog.Logger) error {
	tick := time.NewTicker(c.pollInterval)
	defer tick.Stop()

	for !c.doStop.Load() {
		select {
		case <-ctx.Done():
			c.reconnect.Store(false)
			return nil
		case <-c.wake:
		case <-tick.C:
		case line, ok := <-in.lines:
			if !ok {
				err := in.readErr()
				log.Error("read failed", "err", err)
				return fmt.Errorf("read: %w", err)
			}
			c.handleLine(line, w, log)
		}
	}
	return nil
}

func (c *Client) handleLine(line string, w *Writer, log *slog.Logger) {
	msg, err := ParseMessage(line)
	if err != nil {
		log.Debug("unparsable line", "line", line, "err", err)
		return
	}

	switch {
	case msg.Command == "PING":
		w.Enqueue("PONG :" + msg.Trailing())
		return
	case msg.Command == "RECONNECT":
		c.reconnect.Store(true)
		log.Info("received a reconnect notice")
		return
	case msg.Command == "CAP" && msg.Param(1) == "ACK":
		log.Info("commands capability acknowledged", "caps", msg.Trailing())
		return
	case isNoise(msg.Command):
		log.Debug("ignored", "line", line)
		return
	}

	sender, _, text, ok := msg.ChatMessage()
	if !ok {
		log.Info("unhandled line", "line", line)
		return
	}
	if strings.HasPrefix(text, "!") {
		c.dispatch(sender, text, log)
		return
	}

	log.Info("message", "from", sender, "text", text)
	c.safeCall("plugin OnMessage", func() { c.plugin.OnMessage(c, sender, text) })
	c.listeners.notify("message", func(l Listener) { l.OnMessage(c, sender, text) })
}

func (c *Client) dispatch(sender, text string, log *slog.Logger) {
	args := strings.Fields(text)
	label := NormalizeLabel(strings.TrimPrefix(args[0], "!"))
	log.Info("command", "from", sender, "args", args)

	cmd := c.commands.get(label)
	if cmd == nil {
		log.Warn("unknown command", "label", label)
		return
	}

	handled := true
	if c.safeCall("command "+label, func() {
		handled = cmd.Executor().OnCommand(c, sender, cmd, label, args)
	}) {
		return
	}
	if !handled {
		c.SendMessage("Usage: " + cmd.Usage())
	}
}

// ========================= чтение =========================

// inbound — строки из транспорта, прочитанные отдельной горутиной.
// После закрытия lines в err лежит причина.
type inbound struct {
	lines    chan string
	quit     chan struct{}
	quitOnce sync.Once
	err      error
}

func readLines(r io.Reader) *inbound {
	in := &inbound{
		lines: make(chan string, 64),
		quit:  make(chan struct{}),
	}
	go func() {
		defer close(in.lines)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if line = strings.TrimRight(line, "\r\n"); line != "" {
				select {
				case in.lines <- line:
				case <-in.quit:
					in.err = io.ErrClosedPipe
					return
				}
			}
			if err != nil {
				in.err = err
				return
			}
		}
	}()
	return in
}

// readErr можно звать только после закрытия lines.
func (in *inbound) readErr() error {
	if in.err == nil {
		return io.EOF
	}
	return in.err
}

func (in *inbound) close() {
	in.quitOnce.Do(func() { close(in.quit) })
}
