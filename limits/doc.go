// Package limits provides centralized size constants and validation functions
// for the paceline voice protocol. This package ensures consistent size
// enforcement across the envelope codec, transport sessions, and audio engine.
//
// # Size Hierarchy
//
// The package defines a hierarchy of limits covering the stages an audio chunk
// passes through:
//
//   - MaxDatagramPayload (1472 bytes): the largest mesh datagram. Every
//     envelope must fit a single MTU-sized UDP packet so the air link never
//     fragments voice frames.
//
//   - MaxFramePayload (1420 bytes): the largest audio payload inside an
//     envelope, leaving room for the 52-byte fixed header.
//
//   - MaxStreamRecord (64 KiB): the largest record accepted off the
//     point-to-point stream. Lengths above this are treated as stream
//     corruption before any buffer is allocated.
//
//   - MaxChunkSamples (48000): the largest capture/render chunk the audio
//     engine supports (one second at the highest supported rate).
//
// # Validation Functions
//
// Each validation function checks for empty input and limit violations:
//
//	err := limits.ValidateFramePayload(chunk)
//	if err != nil {
//	    // ErrPayloadEmpty or ErrPayloadTooLarge
//	}
//
// For custom limits, use the generic ValidatePayloadSize function:
//
//	err := limits.ValidatePayloadSize(data, 4096)
//
// Errors wrap the package sentinels (ErrPayloadEmpty, ErrPayloadTooLarge,
// ErrChunkSizeInvalid) and are matched with errors.Is.
package limits
