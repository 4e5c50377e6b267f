// Package transport implements the network transports for the paceline voice
// protocol.
//
// This package provides the concrete datagram socket the mesh session runs on
// and the reliable stream transports (TCP and WebSocket) the point-to-point
// session runs on. The sessions themselves depend only on the ports in the
// interfaces package.
//
// Example:
//
//	socket, err := transport.NewUDPSocket(4990)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer socket.Close()
//
//	addr := transport.BroadcastAddr(4990)
//	socket.WriteTo(data, addr)
package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// UDPSocket is the broadcast-capable datagram socket used by the mesh
// session. It satisfies interfaces.IDatagramSocket.
type UDPSocket struct {
	conn *net.UDPConn
}

// NewUDPSocket binds a UDP socket on the given port on all interfaces.
// Broadcast sends work without further setup on the platforms the mesh
// targets; receiving broadcasts requires binding the shared mesh port.
func NewUDPSocket(port int) (*UDPSocket, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, fmt.Errorf("bind udp port %d: %w", port, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewUDPSocket",
		"address":  conn.LocalAddr().String(),
	}).Info("Mesh datagram socket bound")

	return &UDPSocket{conn: conn}, nil
}

// WriteTo sends one datagram to the given address.
func (s *UDPSocket) WriteTo(p []byte, addr net.Addr) (int, error) {
	return s.conn.WriteTo(p, addr)
}

// ReadFrom receives one datagram and reports its source address.
func (s *UDPSocket) ReadFrom(p []byte) (int, net.Addr, error) {
	return s.conn.ReadFrom(p)
}

// SetReadDeadline bounds the next ReadFrom call.
func (s *UDPSocket) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// LocalAddr returns the bound address.
func (s *UDPSocket) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Close shuts down the socket and unblocks pending reads.
func (s *UDPSocket) Close() error {
	return s.conn.Close()
}

// BroadcastAddr returns the limited broadcast address for the given port.
// Short-range rider links share one L2 segment, so the limited broadcast
// reaches every group member without knowing the subnet mask.
func BroadcastAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4bcast, Port: port}
}

// SubnetBroadcastAddr derives the directed broadcast address of the first
// active non-loopback IPv4 interface. Falls back to the limited broadcast
// when no suitable interface is found (some access points filter
// 255.255.255.255 but forward the directed form).
func SubnetBroadcastAddr(port int) *net.UDPAddr {
	ifaces, err := net.Interfaces()
	if err != nil {
		return BroadcastAddr(port)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			ip := ipnet.IP.To4()
			mask := ipnet.Mask
			if len(mask) == net.IPv6len {
				mask = mask[12:]
			}
			bcast := make(net.IP, net.IPv4len)
			for i := 0; i < net.IPv4len; i++ {
				bcast[i] = ip[i] | ^mask[i]
			}
			return &net.UDPAddr{IP: bcast, Port: port}
		}
	}

	return BroadcastAddr(port)
}
