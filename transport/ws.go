package transport

import (
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/toxcore/interfaces"
)

// DefaultWSPath is the HTTP path the WebSocket endpoint is served on.
const DefaultWSPath = "/paceline"

// ErrListenerClosed is returned by Accept after the listener shuts down.
var ErrListenerClosed = errors.New("listener closed")

// WSTransport implements the reliable stream transport over WebSocket,
// letting browser or PWA peers join a point-to-point link. Each record write
// becomes one binary message; reads drain messages as a continuous byte
// stream, so both ends see the same framing as the TCP transport.
type WSTransport struct {
	// DialTimeout overrides DefaultDialTimeout when positive.
	DialTimeout time.Duration

	// Path overrides DefaultWSPath when non-empty.
	Path string
}

// NewWSTransport creates a WebSocket stream transport with default settings.
func NewWSTransport() *WSTransport {
	return &WSTransport{}
}

func (t *WSTransport) endpoint() string {
	if t.Path != "" {
		return t.Path
	}
	return DefaultWSPath
}

// Dial opens one outbound connection to the peer address.
func (t *WSTransport) Dial(address string) (net.Conn, error) {
	timeout := t.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	ws, _, err := dialer.Dial("ws://"+address+t.endpoint(), nil)
	if err != nil {
		return nil, err
	}
	return newWSConn(ws), nil
}

// Listen binds the given address and serves the WebSocket endpoint on it.
func (t *WSTransport) Listen(address string) (interfaces.IStreamListener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}

	wl := &wsListener{
		ln:    ln,
		conns: make(chan net.Conn, 4),
		done:  make(chan struct{}),
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	mux := http.NewServeMux()
	mux.HandleFunc(t.endpoint(), func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "WSTransport.Listen",
				"remote":   r.RemoteAddr,
				"error":    err.Error(),
			}).Warn("WebSocket upgrade failed")
			return
		}
		select {
		case wl.conns <- newWSConn(ws):
		case <-wl.done:
			ws.Close()
		}
	})

	wl.srv = &http.Server{Handler: mux}
	go func() {
		if err := wl.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithFields(logrus.Fields{
				"function": "WSTransport.Listen",
				"error":    err.Error(),
			}).Debug("WebSocket listener stopped")
		}
	}()

	return wl, nil
}

// wsListener delivers upgraded connections to Accept.
type wsListener struct {
	ln        net.Listener
	srv       *http.Server
	conns     chan net.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func (l *wsListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.done:
		return nil, ErrListenerClosed
	}
}

func (l *wsListener) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return l.srv.Close()
}

func (l *wsListener) Addr() net.Addr {
	return l.ln.Addr()
}

// wsConn adapts a websocket connection to net.Conn. Reads are not safe for
// concurrent use; the point-to-point session has a single reader goroutine.
type wsConn struct {
	ws      *websocket.Conn
	reader  io.Reader
	writeMu sync.Mutex
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

// Read returns bytes from the current message, moving to the next binary
// message when one is exhausted. Non-binary messages are skipped.
func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			msgType, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			if msgType != websocket.BinaryMessage {
				continue
			}
			c.reader = r
		}

		n, err := c.reader.Read(p)
		if errors.Is(err, io.EOF) {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write sends the buffer as one binary message.
func (c *wsConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error         { return c.ws.Close() }
func (c *wsConn) LocalAddr() net.Addr  { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }
