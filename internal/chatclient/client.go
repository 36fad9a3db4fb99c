package chatclient

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/EgorLis/twitchbot/internal/logging"
)

const (
	DefaultPollInterval     = 100 * time.Millisecond
	DefaultDrainDelay       = 100 * time.Millisecond
	DefaultHandshakeTimeout = 30 * time.Second

	commandsCapability = "twitch.tv/commands"
)

// Config — параметры подключения к чату.
type Config struct {
	Username  string `json:"user" yaml:"user"`
	Token     string `json:"oauth_key" yaml:"oauth_key"`
	Channel   string `json:"channel" yaml:"channel"`
	Transport string `json:"transport" yaml:"transport"`
	Address   string `json:"address" yaml:"address"`
}

type Client struct {
	username string
	token    string
	channel  string

	plugin     Plugin
	moderators Moderators
	dial       DialFunc
	log        *slog.Logger

	commands  *commandRegistry
	listeners *listenerRegistry

	queueSize        int
	writerOpts       []WriterOption
	pollInterval     time.Duration
	drainDelay       time.Duration
	handshakeTimeout time.Duration

	state     atomic.Int32
	running   atomic.Bool
	doStop    atomic.Bool // выйти из цикла обслуживания на следующей итерации
	reconnect atomic.Bool // после остановки подключиться заново
	stopped   atomic.Bool // был Stop(): больше не переподключаться
	wake      chan struct{}

	mu     sync.Mutex
	conn   io.ReadWriteCloser
	writer *Writer

	// OnStateChange вызывается при каждой смене состояния (из горутины Connect).
	OnStateChange func(from, to State)
}

type Option func(*Client)

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithModerators(m Moderators) Option {
	return func(c *Client) {
		if m != nil {
			c.moderators = m
		}
	}
}

func WithDialer(d DialFunc) Option {
	return func(c *Client) { c.dial = d }
}

func WithQueueSize(n int) Option {
	return func(c *Client) { c.queueSize = n }
}

// WithMessageRate — не больше n сообщений за период per.
func WithMessageRate(n int, per time.Duration) Option {
	return func(c *Client) {
		if n > 0 && per > 0 {
			c.writerOpts = append(c.writerOpts, WithRateLimit(rate.Every(per/time.Duration(n)), n))
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithDrainDelay(d time.Duration) Option {
	return func(c *Client) { c.drainDelay = d }
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.handshakeTimeout = d
		}
	}
}

// New создаёт клиента. plugin может быть nil.
func New(cfg Config, plugin Plugin, opts ...Option) *Client {
	if plugin == nil {
		plugin = NopPlugin{}
	}
	username := strings.ToLower(strings.TrimSpace(cfg.Username))
	channel := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cfg.Channel), "#"))
	if channel == "" {
		channel = username
	}

	token := strings.TrimSpace(cfg.Token)
	if token != "" && !strings.HasPrefix(token, "oauth:") {
		token = "oauth:" + token
	}

	c := &Client{
		username:         username,
		token:            token,
		channel:          channel,
		plugin:           plugin,
		moderators:       noModerators{},
		log:              logging.Nop(),
		commands:         newCommandRegistry(),
		queueSize:        DefaultQueueSize,
		pollInterval:     DefaultPollInterval,
		drainDelay:       DefaultDrainDelay,
		handshakeTimeout: DefaultHandshakeTimeout,
		wake:             make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.listeners = newListenerRegistry(c.log)
	if c.dial == nil {
		d, err := NewDialer(cfg.Transport, cfg.Address)
		if err != nil {
			c.log.Error("bad transport, falling back to tcp", "err", err)
			d, _ = NewDialer(TransportTCP, "")
		}
		c.dial = d
	}
	return c
}

func (c *Client) Username() string { return c.username }
func (c *Client) Channel() string  { return c.channel }
func (c *Client) State() State     { return State(c.state.Load()) }

// ========================= команды =========================

func (c *Client) Command(label string) *Command {
	return c.commands.get(label)
}

func (c *Client) RegisterCommand(label string, executor CommandExecutor) (*Command, error) {
	cmd, err := c.commands.register(label, executor)
	if err != nil {
		return nil, err
	}
	c.log.Info("registered command", "label", cmd.Label())
	c.listeners.notify("command registered", func(l Listener) {
		l.OnCommandRegistered(c, cmd.Label(), cmd)
	})
	return cmd, nil
}

func (c *Client) UnregisterCommand(label string) error {
	if err := c.commands.unregister(label); err != nil {
		return err
	}
	key := NormalizeLabel(label)
	c.log.Info("unregistered command", "label", key)
	c.listeners.notify("command unregistered", func(l Listener) {
		l.OnCommandUnregistered(c, key)
	})
	return nil
}

func (c *Client) UnregisterAllCommands() {
	c.commands.unregisterAll()
	c.log.Info("unregistered all commands")
}

func (c *Client) IsCommandRegistered(label string) bool {
	return c.commands.contains(label)
}

// ========================= слушатели =========================

func (c *Client) RegisterListener(l Listener) error {
	if err := c.listeners.register(l); err != nil {
		return err
	}
	c.log.Info("registered client listener")
	return nil
}

func (c *Client) UnregisterListener(l Listener) error {
	if err := c.listeners.unregister(l); err != nil {
		return err
	}
	c.log.Info("unregistered client listener")
	return nil
}

func (c *Client) UnregisterAllListeners() {
	c.listeners.unregisterAll()
	c.log.Info("cleared all client listeners")
}

// ========================= отправка =========================

// SendMessage отправляет сообщение в канал и показывает его слушателям как
// сообщение самого бота.
func (c *Client) SendMessage(text string) {
	c.mu.Lock()
	w := c.writer
	c.mu.Unlock()
	if w == nil {
		c.log.Warn("message dropped", "text", text, "err", ErrNotConnected)
		return
	}
	w.Enqueue(fmt.Sprintf("PRIVMSG #%s :%s", c.channel, text))

	c.listeners.notify("message", func(l Listener) {
		l.OnMessage(c, c.username, text)
	})
}

// ========================= жизненный цикл =========================

// Stop просит цикл обслуживания завершиться и не переподключаться.
// Не ждёт остановки.
func (c *Client) Stop() {
	c.stopped.Store(true)
	c.reconnect.Store(false)
	c.doStop.Store(true)
	c.poke()
}

// Close немедленно закрывает текущее соединение из любой горутины
// (путь аварийного выхода процесса). Цикл обслуживания увидит ошибку
// чтения и завершится.
func (c *Client) Close() error {
	c.Stop()
	c.mu.Lock()
	conn, w := c.conn, c.writer
	c.mu.Unlock()
	if w != nil {
		w.Close()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// restart — мягкий рестарт: остановиться и подключиться заново.
func (c *Client) restart() {
	c.reconnect.Store(true)
	c.doStop.Store(true)
	c.poke()
}

func (c *Client) poke() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev == s {
		return
	}
	c.log.Debug("state changed", "from", prev, "to", s)
	if c.OnStateChange != nil {
		c.OnStateChange(prev, s)
	}
}

// safeCall вызывает код плагина/исполнителя, не давая панике уронить цикл.
func (c *Client) safeCall(what string, fn func()) (panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error("panic in "+what, "panic", rec)
			panicked = true
		}
	}()
	fn()
	return false
}
