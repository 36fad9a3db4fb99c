package chatclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ========================= транспорт =========================

const (
	TransportTCP = "tcp"
	TransportTLS = "tls"
	TransportWS  = "ws"

	defaultTCPAddr = "irc.chat.twitch.tv:6667"
	defaultTLSAddr = "irc.chat.twitch.tv:6697"
	defaultWSAddr  = "wss://irc-ws.chat.twitch.tv:443"
)

// DialFunc открывает поток строк до сервера.
type DialFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// DefaultAddress — адрес Twitch по умолчанию для транспорта.
func DefaultAddress(transport string) string {
	switch transport {
	case TransportTLS:
		return defaultTLSAddr
	case TransportWS:
		return defaultWSAddr
	default:
		return defaultTCPAddr
	}
}

// NewDialer собирает DialFunc по имени транспорта.
func NewDialer(transport, addr string) (DialFunc, error) {
	if addr == "" {
		addr = DefaultAddress(transport)
	}
	d := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}

	switch transport {
	case "", TransportTCP:
		return func(ctx context.Context) (io.ReadWriteCloser, error) {
			return d.DialContext(ctx, "tcp", addr)
		}, nil
	case TransportTLS:
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("tls address %q: %w", addr, err)
		}
		td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}}
		return func(ctx context.Context) (io.ReadWriteCloser, error) {
			return td.DialContext(ctx, "tcp", addr)
		}, nil
	case TransportWS:
		return func(ctx context.Context) (io.ReadWriteCloser, error) {
			return dialWS(ctx, addr)
		}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}

// ========================= websocket =========================

// wsConn превращает websocket в обычный поток строк: каждый текстовый кадр
// содержит одну или несколько строк с CRLF, каждая запись уходит отдельным
// кадром.
type wsConn struct {
	conn *websocket.Conn
	wmu  sync.Mutex // сериализует запись в websocket
	buf  bytes.Buffer
}

func dialWS(ctx context.Context, url string) (*wsConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(1 << 20)
	return &wsConn{conn: conn}, nil
}

func (c *wsConn) Read(p []byte) (int, error) {
	for c.buf.Len() == 0 {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		if typ != websocket.TextMessage {
			continue
		}
		c.buf.Write(data)
		if !bytes.HasSuffix(data, []byte("\n")) {
			c.buf.WriteString("\r\n")
		}
	}
	return c.buf.Read(p)
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	c.wmu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
		time.Now().Add(500*time.Millisecond))
	c.wmu.Unlock()
	return c.conn.Close()
}
