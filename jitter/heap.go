package jitter

import "time"

// pendingFrame is one queued audio frame tagged with its arrival time.
// The arrival stamp drives the bounded gap waits in Take.
type pendingFrame struct {
	sequence uint64
	data     []byte
	arrival  time.Time
}

// frameHeap is a min-heap of pending frames ordered by sequence number.
// It implements heap.Interface; callers go through container/heap.
type frameHeap []*pendingFrame

func (h frameHeap) Len() int           { return len(h) }
func (h frameHeap) Less(i, j int) bool { return h[i].sequence < h[j].sequence }
func (h frameHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *frameHeap) Push(x interface{}) {
	*h = append(*h, x.(*pendingFrame))
}

func (h *frameHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Peek returns the lowest-sequence frame without removing it.
func (h frameHeap) Peek() *pendingFrame {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
