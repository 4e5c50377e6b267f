package transport

import (
	"net"
	"time"

	"github.com/opd-ai/toxcore/interfaces"
)

// DefaultDialTimeout bounds outbound connection attempts so a reconnect
// supervisor is never stuck behind a hung dial.
const DefaultDialTimeout = 5 * time.Second

// TCPTransport implements the reliable stream transport over TCP.
// It satisfies interfaces.IStreamTransport.
type TCPTransport struct {
	// DialTimeout overrides DefaultDialTimeout when positive.
	DialTimeout time.Duration
}

// NewTCPTransport creates a TCP stream transport with default timeouts.
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{}
}

// Dial opens one outbound connection to the peer address.
func (t *TCPTransport) Dial(address string) (net.Conn, error) {
	timeout := t.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	return net.DialTimeout("tcp", address, timeout)
}

// Listen binds the given address for inbound connections.
func (t *TCPTransport) Listen(address string) (interfaces.IStreamListener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return &tcpListener{ln: ln}, nil
}

// tcpListener wraps net.Listener to satisfy interfaces.IStreamListener.
type tcpListener struct {
	ln net.Listener
}

func (l *tcpListener) Accept() (net.Conn, error) { return l.ln.Accept() }
func (l *tcpListener) Close() error              { return l.ln.Close() }
func (l *tcpListener) Addr() net.Addr            { return l.ln.Addr() }
