// Package jitter implements the adaptive reorder buffer for the paceline
// voice protocol.
//
// One Buffer smooths a single remote sender's stream: out-of-order frames go
// in tagged with their arrival time, strictly ordered frames come out, and
// gaps are waited on only briefly before being skipped for good. The prefill
// depth adapts to the jitter observed on the first few arrivals instead of
// using a fixed constant.
//
// Example:
//
//	buf := jitter.New()
//	buf.Insert(seq, frame)
//
//	if frame, ok := buf.Take(); ok {
//	    device.Write(frame)
//	}
package jitter

import (
	"container/heap"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultCeiling is the hard depth bound (clock-drift guard).
	DefaultCeiling = 20

	// DefaultMeasureWindow is how many arrivals feed the prefill estimate.
	DefaultMeasureWindow = 5

	// DefaultMinPrefill and DefaultMaxPrefill clamp the adaptive target.
	DefaultMinPrefill = 5
	DefaultMaxPrefill = 15

	// DefaultSmallGapLimit is the largest run of missing frames still treated
	// as likely reordering rather than loss.
	DefaultSmallGapLimit = 2

	// DefaultSmallGapWait and DefaultLargeGapWait bound how long Take holds
	// out for a missing frame, measured from the gap-head's arrival.
	DefaultSmallGapWait = 30 * time.Millisecond
	DefaultLargeGapWait = 10 * time.Millisecond
)

// Config carries the tuning knobs for a Buffer. Zero values are replaced by
// the package defaults, so Config{} behaves like DefaultConfig().
type Config struct {
	// Ceiling is the hard bound on queued depth. Exceeding it evicts the
	// oldest frame and advances the cursor past it.
	Ceiling int

	// MeasureWindow is the number of early arrivals used to estimate jitter.
	MeasureWindow int

	// MinPrefill and MaxPrefill clamp the adaptive prefill target.
	MinPrefill int
	MaxPrefill int

	// SmallGapLimit is the largest gap (missing frames) granted SmallGapWait;
	// larger gaps get only LargeGapWait.
	SmallGapLimit uint64
	SmallGapWait  time.Duration
	LargeGapWait  time.Duration
}

// DefaultConfig returns the standard tuning used by the transport sessions.
func DefaultConfig() *Config {
	return &Config{
		Ceiling:       DefaultCeiling,
		MeasureWindow: DefaultMeasureWindow,
		MinPrefill:    DefaultMinPrefill,
		MaxPrefill:    DefaultMaxPrefill,
		SmallGapLimit: DefaultSmallGapLimit,
		SmallGapWait:  DefaultSmallGapWait,
		LargeGapWait:  DefaultLargeGapWait,
	}
}

// fillDefaults replaces zero fields with package defaults.
func (c *Config) fillDefaults() {
	if c.Ceiling <= 0 {
		c.Ceiling = DefaultCeiling
	}
	if c.MeasureWindow <= 0 {
		c.MeasureWindow = DefaultMeasureWindow
	}
	if c.MinPrefill <= 0 {
		c.MinPrefill = DefaultMinPrefill
	}
	if c.MaxPrefill <= 0 {
		c.MaxPrefill = DefaultMaxPrefill
	}
	if c.SmallGapLimit == 0 {
		c.SmallGapLimit = DefaultSmallGapLimit
	}
	if c.SmallGapWait <= 0 {
		c.SmallGapWait = DefaultSmallGapWait
	}
	if c.LargeGapWait <= 0 {
		c.LargeGapWait = DefaultLargeGapWait
	}
}

// Stats is a snapshot of a buffer's counters.
type Stats struct {
	// Received counts every Insert call, including dropped frames.
	Received uint64
	// Stale counts frames below the cursor and duplicates of queued frames.
	Stale uint64
	// Evicted counts frames removed by the depth ceiling.
	Evicted uint64
	// Skipped counts missing sequences permanently skipped over gaps.
	Skipped uint64
	// Depth is the current queued frame count.
	Depth int
	// PrefillTarget is the adaptive target, 0 until measured.
	PrefillTarget int
}

// Buffer is a thread-safe adaptive reorder buffer for one remote stream.
//
// All operations share one internal lock: inserts arrive on transport reader
// goroutines while takes run on the render loop.
type Buffer struct {
	mu   sync.Mutex
	cfg  Config
	time TimeProvider

	pending frameHeap
	queued  map[uint64]struct{}

	nextSequence uint64
	haveCursor   bool

	arrivals []time.Time
	target   int
	started  bool

	received uint64
	stale    uint64
	evicted  uint64
	skipped  uint64
}

// New creates a buffer with the default configuration.
func New() *Buffer {
	return NewWithTimeProvider(DefaultConfig(), nil)
}

// NewWithConfig creates a buffer with a custom configuration.
func NewWithConfig(cfg *Config) *Buffer {
	return NewWithTimeProvider(cfg, nil)
}

// NewWithTimeProvider creates a buffer with a custom configuration and time
// provider. A nil provider falls back to system time.
func NewWithTimeProvider(cfg *Config, tp TimeProvider) *Buffer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if tp == nil {
		tp = defaultTimeProvider
	}
	c := *cfg
	c.fillDefaults()
	return &Buffer{
		cfg:    c,
		time:   tp,
		queued: make(map[uint64]struct{}),
	}
}

// Insert queues one received frame under its sequence number.
//
// The first call initializes the expected-sequence cursor and starts the
// prefill measurement window. Frames below the cursor, and duplicates of
// frames already queued, are dropped and counted, never propagated. When the
// queue exceeds the ceiling the oldest frame is evicted and the cursor
// advances past it, so a sender whose clock runs persistently fast cannot
// grow the buffer without bound.
func (b *Buffer) Insert(sequence uint64, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.time.Now()
	b.received++

	if !b.haveCursor {
		b.nextSequence = sequence
		b.haveCursor = true
	}

	if len(b.arrivals) < b.cfg.MeasureWindow {
		b.arrivals = append(b.arrivals, now)
		if len(b.arrivals) == b.cfg.MeasureWindow {
			b.computePrefill()
		}
	}

	if sequence < b.nextSequence {
		b.stale++
		return
	}
	if _, dup := b.queued[sequence]; dup {
		b.stale++
		return
	}

	heap.Push(&b.pending, &pendingFrame{sequence: sequence, data: data, arrival: now})
	b.queued[sequence] = struct{}{}

	if b.pending.Len() > b.cfg.Ceiling {
		oldest := heap.Pop(&b.pending).(*pendingFrame)
		delete(b.queued, oldest.sequence)
		b.evicted++
		if oldest.sequence >= b.nextSequence {
			b.nextSequence = oldest.sequence + 1
		}
		logrus.WithFields(logrus.Fields{
			"function": "Buffer.Insert",
			"evicted":  oldest.sequence,
			"cursor":   b.nextSequence,
		}).Debug("Jitter buffer ceiling reached, oldest frame evicted")
	}

	if b.target > 0 && !b.started && b.pending.Len() >= b.target {
		b.started = true
	}
}

// computePrefill derives the adaptive prefill target from the mean
// inter-arrival time of the measurement window:
// clamp(3 * mean_ms / 10, MinPrefill, MaxPrefill) frames.
func (b *Buffer) computePrefill() {
	first := b.arrivals[0]
	last := b.arrivals[len(b.arrivals)-1]
	intervals := int64(len(b.arrivals) - 1)

	meanMs := last.Sub(first).Milliseconds() / intervals
	target := int(3 * meanMs / 10)
	if target < b.cfg.MinPrefill {
		target = b.cfg.MinPrefill
	}
	if target > b.cfg.MaxPrefill {
		target = b.cfg.MaxPrefill
	}
	b.target = target

	logrus.WithFields(logrus.Fields{
		"function":        "Buffer.computePrefill",
		"mean_arrival_ms": meanMs,
		"prefill_target":  target,
	}).Debug("Adaptive prefill target computed")
}

// Take returns the next in-order frame if one is available.
//
// When the head frame matches the cursor it is returned immediately. When the
// head is ahead of the cursor, the missing frames are waited on from the
// head's arrival time: up to SmallGapWait for gaps of SmallGapLimit or fewer,
// only LargeGapWait for larger gaps (a large gap is more likely real loss
// than reordering). Once the wait elapses the cursor jumps to the head and
// the gap is skipped permanently. Otherwise Take reports no frame and the
// caller supplies silence to keep device timing continuous.
func (b *Buffer) Take() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	head := b.pending.Peek()
	if head == nil {
		return nil, false
	}

	if head.sequence == b.nextSequence {
		return b.popHead(), true
	}

	missing := head.sequence - b.nextSequence
	wait := b.cfg.LargeGapWait
	if missing <= b.cfg.SmallGapLimit {
		wait = b.cfg.SmallGapWait
	}
	if b.time.Since(head.arrival) < wait {
		return nil, false
	}

	b.skipped += missing
	b.nextSequence = head.sequence
	logrus.WithFields(logrus.Fields{
		"function": "Buffer.Take",
		"missing":  missing,
		"cursor":   head.sequence,
	}).Debug("Gap wait elapsed, sequences skipped")

	return b.popHead(), true
}

// popHead removes and returns the head frame, advancing the cursor past it.
// Caller holds the lock and has verified the head equals the cursor.
func (b *Buffer) popHead() []byte {
	head := heap.Pop(&b.pending).(*pendingFrame)
	delete(b.queued, head.sequence)
	b.nextSequence = head.sequence + 1
	return head.data
}

// IsReady reports whether playout may start. During the initial cold start it
// stays false until the queued depth reaches the adaptive prefill target;
// after that gate has been satisfied once, any queued data is enough.
func (b *Buffer) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return false
	}
	return b.pending.Len() > 0
}

// Clear resets the queue, the cursor, the prefill measurement, and all
// counters. Used when the owning engine restarts a stream.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = nil
	b.queued = make(map[uint64]struct{})
	b.haveCursor = false
	b.nextSequence = 0
	b.arrivals = nil
	b.target = 0
	b.started = false
	b.received = 0
	b.stale = 0
	b.evicted = 0
	b.skipped = 0
}

// Stats returns a snapshot of the buffer's counters.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		Received:      b.received,
		Stale:         b.stale,
		Evicted:       b.evicted,
		Skipped:       b.skipped,
		Depth:         b.pending.Len(),
		PrefillTarget: b.target,
	}
}

// Depth returns the current queued frame count.
func (b *Buffer) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending.Len()
}
