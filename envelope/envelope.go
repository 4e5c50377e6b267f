// Package envelope implements the wire format for the paceline voice protocol.
//
// This package handles framing of audio chunks with routing metadata for both
// the point-to-point link and the broadcast mesh.
//
// Example:
//
//	env := &envelope.Envelope{
//	    Origin:   envelope.NewOriginID(),
//	    Party:    "ride-42",
//	    Link:     envelope.LinkMesh,
//	    Sequence: 7,
//	    Payload:  pcm,
//	}
//
//	data, err := env.Serialize()
package envelope

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/opd-ai/toxcore/limits"
)

// LinkType identifies which transport path an envelope travels.
type LinkType uint32

const (
	// LinkPointToPoint marks frames carried over the reliable 1:1 link.
	LinkPointToPoint LinkType = iota
	// LinkMesh marks frames carried over the broadcast mesh.
	LinkMesh
)

// String returns a human-readable name for the link type.
func (lt LinkType) String() string {
	switch lt {
	case LinkPointToPoint:
		return "point-to-point"
	case LinkMesh:
		return "mesh"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(lt))
	}
}

const (
	// IdentityWidth is the fixed on-wire width of the origin and party
	// identity fields. Shorter identities are zero-padded, longer ones
	// truncated; decoding trims the padding.
	IdentityWidth = 16

	// HeaderSize is the fixed envelope header length in bytes:
	// origin(16) + party(16) + link(4) + priority(4) + sequence(8) + hop(4).
	HeaderSize = 52

	// DefaultPriority is the advisory priority carried when the caller has
	// no scheduling hint to convey.
	DefaultPriority uint32 = 0
)

var (
	// ErrMalformedPacket indicates a buffer too short to hold the fixed header.
	ErrMalformedPacket = errors.New("malformed packet")
)

// Envelope is one audio chunk plus the routing metadata both transports share.
// An envelope is immutable once constructed: it is built at capture time,
// written to the wire or handed to a jitter buffer, and then discarded.
type Envelope struct {
	Origin   string
	Party    string
	Link     LinkType
	Priority uint32
	Sequence uint64
	HopCount uint32
	Payload  []byte
}

// Serialize converts an envelope to a byte slice for transmission.
// The payload must be non-empty and fit a single datagram; both transports
// chunk audio before wrapping it, so a violation here is caller misuse.
func (e *Envelope) Serialize() ([]byte, error) {
	if err := limits.ValidateFramePayload(e.Payload); err != nil {
		return nil, err
	}

	// Format: [origin (16)][party (16)][link (4)][priority (4)][sequence (8)][hop (4)][payload]
	result := make([]byte, HeaderSize+len(e.Payload))

	copy(result[0:16], e.Origin)
	copy(result[16:32], e.Party)
	binary.LittleEndian.PutUint32(result[32:36], uint32(e.Link))
	binary.LittleEndian.PutUint32(result[36:40], e.Priority)
	binary.LittleEndian.PutUint64(result[40:48], e.Sequence)
	binary.LittleEndian.PutUint32(result[48:52], e.HopCount)
	copy(result[HeaderSize:], e.Payload)

	return result, nil
}

// ParseEnvelope converts a byte slice to an Envelope structure.
// The payload is copied, so the input buffer may be reused by the caller
// (datagram receive loops reuse their read buffer between packets).
func ParseEnvelope(data []byte) (*Envelope, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedPacket, len(data), HeaderSize)
	}

	env := &Envelope{
		Origin:   trimIdentity(data[0:16]),
		Party:    trimIdentity(data[16:32]),
		Link:     LinkType(binary.LittleEndian.Uint32(data[32:36])),
		Priority: binary.LittleEndian.Uint32(data[36:40]),
		Sequence: binary.LittleEndian.Uint64(data[40:48]),
		HopCount: binary.LittleEndian.Uint32(data[48:52]),
		Payload:  make([]byte, len(data)-HeaderSize),
	}

	copy(env.Payload, data[HeaderSize:])

	return env, nil
}

// trimIdentity strips the zero padding from a fixed-width identity field.
func trimIdentity(field []byte) string {
	return string(bytes.TrimRight(field, "\x00"))
}

// NewOriginID generates a process-lifetime unique device identity that
// exactly fills the envelope's fixed-width identity field (16 hex characters
// from 8 random UUID bytes).
func NewOriginID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:8])
}
