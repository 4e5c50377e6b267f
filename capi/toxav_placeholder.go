// ToxAV C API bindings placeholder
//
// This file provides a placeholder for ToxAV C API bindings that will
// be implemented as part of Phase 1 completion. The C API will match
// the libtoxcore ToxAV interface exactly.
//
// Current Status: PLACEHOLDER - C API bindings deferred to Phase 1 completion
package main

// PLACEHOLDER: ToxAV C API functions will be implemented here
//
// The C API will provide functions that match libtoxcore exactly:
// - toxav_new()
// - toxav_kill()
// - toxav_call()
// - toxav_answer()
// - toxav_call_control()
// - toxav_audio_set_bit_rate()
// - toxav_video_set_bit_rate()
// - toxav_audio_send_frame()
// - toxav_video_send_frame()
// - All callback registration functions
//
// These functions will be implemented using CGO and will provide
// a bridge between the Go ToxAV implementation and C applications.

// Note: This placeholder ensures the package structure is complete
// while deferring the complex CGO implementation details.
