package interfaces

import (
	"net"
	"time"
)

// IFrameDelivery receives sequenced audio frames decoded by a transport
// session. The orchestration layer implements it to route frames into the
// per-origin jitter buffers; sessions never touch buffers directly.
type IFrameDelivery interface {
	// DeliverFrame hands over one decoded audio frame. Implementations must
	// not block: they are called from transport receive loops.
	DeliverFrame(origin string, sequence uint64, payload []byte)
}

// IDatagramSocket is the unreliable, unordered, broadcast-capable socket the
// mesh session runs on. Real deployments bind a UDP socket; tests register
// simulated sockets on an in-memory network.
type IDatagramSocket interface {
	// WriteTo sends one datagram to the given address.
	WriteTo(p []byte, addr net.Addr) (int, error)

	// ReadFrom receives one datagram and reports its source address.
	ReadFrom(p []byte) (n int, addr net.Addr, err error)

	// SetReadDeadline bounds the next ReadFrom so receive loops can observe
	// shutdown.
	SetReadDeadline(t time.Time) error

	// LocalAddr returns the bound address.
	LocalAddr() net.Addr

	// Close shuts down the socket and unblocks pending reads.
	Close() error
}

// IStreamListener accepts inbound reliable connections for the
// point-to-point link's host role.
type IStreamListener interface {
	// Accept blocks until one inbound connection arrives.
	Accept() (net.Conn, error)

	// Close stops listening and unblocks a pending Accept.
	Close() error

	// Addr returns the listening address.
	Addr() net.Addr
}

// IStreamTransport opens reliable byte-stream connections for the
// point-to-point link. Implementations carry their own connect timeouts.
type IStreamTransport interface {
	// Dial opens one outbound connection to the peer address.
	Dial(address string) (net.Conn, error)

	// Listen binds the given address for inbound connections.
	Listen(address string) (IStreamListener, error)
}
