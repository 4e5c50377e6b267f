// Package limits provides centralized wire and audio size limits for the
// paceline voice protocol. This ensures consistent validation across the
// envelope codec, the transport sessions, and the audio engine.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxDatagramPayload is the largest datagram the mesh session will send
	// or accept (1472 bytes). This keeps every envelope inside a single
	// Ethernet-MTU UDP packet and avoids IP fragmentation on the air link.
	MaxDatagramPayload = 1472

	// MaxFramePayload is the largest audio payload an envelope may carry.
	// This is MaxDatagramPayload minus the 52-byte fixed envelope header.
	MaxFramePayload = 1420

	// MaxStreamRecord is the largest payload accepted in a single
	// point-to-point stream record. Reads that announce a larger length are
	// treated as stream corruption, not as a frame to allocate.
	MaxStreamRecord = 65536

	// MaxChunkSamples is the largest capture/render chunk the audio engine
	// supports (one second at the highest supported rate).
	MaxChunkSamples = 48000

	// BytesPerSample is the width of one PCM sample on the wire (16-bit LE).
	BytesPerSample = 2
)

var (
	// ErrPayloadEmpty indicates an empty payload was provided
	ErrPayloadEmpty = errors.New("empty payload")

	// ErrPayloadTooLarge indicates a payload exceeds its maximum size
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrChunkSizeInvalid indicates an out-of-range chunk size
	ErrChunkSizeInvalid = errors.New("invalid chunk size")
)

// ValidatePayloadSize validates a payload against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidatePayloadSize(payload []byte, maxSize int) error {
	if len(payload) == 0 {
		return ErrPayloadEmpty
	}
	if len(payload) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrPayloadTooLarge, len(payload), maxSize)
	}
	return nil
}

// ValidateFramePayload validates an envelope audio payload against MaxFramePayload.
// Returns an error with context if the payload is empty or exceeds the limit.
func ValidateFramePayload(payload []byte) error {
	if len(payload) == 0 {
		return ErrPayloadEmpty
	}
	if len(payload) > MaxFramePayload {
		return fmt.Errorf("%w: frame payload %d exceeds limit %d", ErrPayloadTooLarge, len(payload), MaxFramePayload)
	}
	return nil
}

// ValidateStreamRecord validates a point-to-point record length against
// MaxStreamRecord. The length comes off the wire before any allocation, so
// this is the guard between a corrupt stream and a huge make().
func ValidateStreamRecord(length int) error {
	if length == 0 {
		return ErrPayloadEmpty
	}
	if length > MaxStreamRecord {
		return fmt.Errorf("%w: record length %d exceeds limit %d", ErrPayloadTooLarge, length, MaxStreamRecord)
	}
	return nil
}

// ValidateChunkSamples validates an audio chunk size in samples against
// MaxChunkSamples. Returns an error with context if out of range.
func ValidateChunkSamples(samples int) error {
	if samples <= 0 {
		return fmt.Errorf("%w: chunk of %d samples", ErrChunkSizeInvalid, samples)
	}
	if samples > MaxChunkSamples {
		return fmt.Errorf("%w: chunk of %d samples exceeds limit %d", ErrChunkSizeInvalid, samples, MaxChunkSamples)
	}
	return nil
}
