// Package interfaces defines the core abstractions between the paceline
// transport sessions and their collaborators.
//
// This package provides the ports that enable switching between simulation
// and real network implementations, supporting both production deployments
// and deterministic testing scenarios.
//
// # Core Interfaces
//
// [IFrameDelivery] is the sink for decoded audio frames. The orchestration
// layer implements it to route frames from both sessions into per-origin
// jitter buffers:
//
//	type router struct{ buffers map[string]*jitter.Buffer }
//
//	func (r *router) DeliverFrame(origin string, sequence uint64, payload []byte) {
//	    r.bufferFor(origin).Insert(sequence, payload)
//	}
//
// [IDatagramSocket] abstracts the unreliable broadcast-capable socket the
// mesh session runs on. The transport package binds real UDP sockets; the
// testing package registers simulated sockets on an in-memory network.
//
// [IStreamTransport] and [IStreamListener] abstract dialing and accepting the
// reliable point-to-point connection, with TCP and WebSocket implementations
// in the transport package.
//
// # Thread Safety
//
// All implementations of these interfaces must be safe for concurrent use.
// DeliverFrame in particular is called from transport receive loops and must
// not block.
package interfaces
