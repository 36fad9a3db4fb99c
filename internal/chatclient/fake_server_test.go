package chatclient

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

const waitTimeout = 2 * time.Second

// fakeServer — серверная сторона net.Pipe, изображающая Twitch.
type fakeServer struct {
	conn net.Conn
	in   chan string
}

func newFakeServer(conn net.Conn) *fakeServer {
	s := &fakeServer{conn: conn, in: make(chan string, 256)}
	go func() {
		defer close(s.in)
		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if line = strings.TrimRight(line, "\r\n"); line != "" {
				s.in <- line
			}
			if err != nil {
				return
			}
		}
	}()
	return s
}

func (s *fakeServer) send(lines ...string) {
	for _, l := range lines {
		_, _ = fmt.Fprintf(s.conn, "%s\r\n", l)
	}
}

func (s *fakeServer) greet() {
	s.send(
		":tmi.twitch.tv 001 bot :Welcome, GLHF!",
		":tmi.twitch.tv 372 bot :You are in a maze of twisty passages.",
		":tmi.twitch.tv 376 bot :>",
	)
}

func (s *fakeServer) chat(nick, text string) {
	s.send(fmt.Sprintf(":%s!%s@%s.tmi.twitch.tv PRIVMSG #chan :%s", nick, nick, nick, text))
}

// until читает строки до want и возвращает всё, что было пропущено.
func (s *fakeServer) until(t *testing.T, want string) []string {
	t.Helper()
	var skipped []string
	deadline := time.After(waitTimeout)
	for {
		select {
		case line, ok := <-s.in:
			if !ok {
				t.Fatalf("connection closed while waiting for %q (got %q)", want, skipped)
			}
			if line == want {
				return skipped
			}
			skipped = append(skipped, line)
		case <-deadline:
			t.Fatalf("timeout waiting for %q (got %q)", want, skipped)
		}
	}
}

func (s *fakeServer) expect(t *testing.T, want string) {
	t.Helper()
	s.until(t, want)
}

// rest дочитывает всё до закрытия соединения.
func (s *fakeServer) rest(t *testing.T) []string {
	t.Helper()
	var out []string
	deadline := time.After(waitTimeout)
	for {
		select {
		case line, ok := <-s.in:
			if !ok {
				return out
			}
			out = append(out, line)
		case <-deadline:
			t.Fatalf("connection was not closed (got %q)", out)
		}
	}
}

func (s *fakeServer) close() { _ = s.conn.Close() }

// dialer отдаёт по fakeServer на каждое подключение.
type dialer struct {
	servers chan *fakeServer
}

func newDialer() *dialer {
	return &dialer{servers: make(chan *fakeServer, 4)}
}

func (d *dialer) dial(context.Context) (io.ReadWriteCloser, error) {
	client, server := net.Pipe()
	d.servers <- newFakeServer(server)
	return client, nil
}

func (d *dialer) next(t *testing.T) *fakeServer {
	t.Helper()
	select {
	case s := <-d.servers:
		return s
	case <-time.After(waitTimeout):
		t.Fatal("client did not dial")
		return nil
	}
}

// testPlugin регистрирует команды в OnStart и считает вызовы хуков.
type testPlugin struct {
	mu       sync.Mutex
	commands map[string]CommandFunc
	usage    map[string]string
	loads    int
	starts   int
	stops    int
	messages []string
}

func newTestPlugin() *testPlugin {
	return &testPlugin{commands: map[string]CommandFunc{}, usage: map[string]string{}}
}

func (p *testPlugin) OnLoad(ChatClient) {
	p.mu.Lock()
	p.loads++
	p.mu.Unlock()
}

func (p *testPlugin) OnStart(c ChatClient) {
	p.mu.Lock()
	p.starts++
	p.mu.Unlock()
	for label, fn := range p.commands {
		if c.IsCommandRegistered(label) {
			continue
		}
		cmd, err := c.RegisterCommand(label, fn)
		if err == nil {
			cmd.SetUsage(p.usage[label])
		}
	}
}

func (p *testPlugin) OnStop(ChatClient) {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
}

func (p *testPlugin) OnMessage(_ ChatClient, sender, text string) {
	p.mu.Lock()
	p.messages = append(p.messages, sender+": "+text)
	p.mu.Unlock()
}

func (p *testPlugin) counts() (loads, starts, stops int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads, p.starts, p.stops
}

type modSet map[string]bool

func (m modSet) IsModerator(name string) bool { return m[name] }

func pong(c ChatClient, _ string, _ *Command, _ string, _ []string) bool {
	c.SendMessage("pong")
	return true
}

// run запускает Connect в фоне; ошибка придёт в канал.
func run(ctx context.Context, c *Client) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- c.Connect(ctx) }()
	return errc
}

func waitErr(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("Connect did not return")
		return nil
	}
}

func newTestClient(d *dialer, p Plugin, opts ...Option) *Client {
	base := []Option{
		WithDialer(d.dial),
		WithPollInterval(10 * time.Millisecond),
		WithDrainDelay(20 * time.Millisecond),
	}
	return New(Config{Username: "Bot", Token: "tok", Channel: "chan"}, p, append(base, opts...)...)
}
