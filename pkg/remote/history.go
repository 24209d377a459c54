package remote

import (
	"sync"
	"time"
)

// DefaultHistorySize is the number of frames kept for catch-up.
const DefaultHistorySize = 256

// HistoryEntry is one committed frame.
type HistoryEntry struct {
	Seq    uint64
	Frame  []byte
	SentAt time.Time
}

// History is a ring buffer of the most recent encoded frames. When full, the
// oldest frame is overwritten, so only a sliding window can be replayed.
type History struct {
	mu       sync.RWMutex
	entries  []HistoryEntry
	head     int // next write position
	count    int
	capacity int
}

// NewHistory creates a history holding up to capacity frames.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		entries:  make([]HistoryEntry, capacity),
		capacity: capacity,
	}
}

// Add stores a frame. Sequence numbers must increase by one per call.
// The frame is copied.
func (h *History) Add(seq uint64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = HistoryEntry{
		Seq:    seq,
		Frame:  append([]byte(nil), frame...),
		SentAt: time.Now(),
	}
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
}

// oldest returns the index of the oldest entry. h.count must be > 0.
func (h *History) oldest() int {
	return (h.head - h.count + h.capacity) % h.capacity
}

func (h *History) bounds() (minSeq, maxSeq uint64) {
	if h.count == 0 {
		return 0, 0
	}
	newest := (h.head - 1 + h.capacity) % h.capacity
	return h.entries[h.oldest()].Seq, h.entries[newest].Seq
}

// Frames returns the frames with sequence in (after, to], oldest first, or
// nil if any of them is no longer held.
func (h *History) Frames(after, to uint64) [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	minSeq, maxSeq := h.bounds()
	if h.count == 0 || after >= to || after+1 < minSeq || to > maxSeq {
		return nil
	}

	frames := make([][]byte, 0, to-after)
	start := h.oldest() + int(after+1-minSeq)
	for i := 0; i < int(to-after); i++ {
		frames = append(frames, h.entries[(start+i)%h.capacity].Frame)
	}
	return frames
}

// CanRecover reports whether every frame after lastSeq is held.
func (h *History) CanRecover(lastSeq uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return false
	}
	minSeq, maxSeq := h.bounds()
	return lastSeq+1 >= minSeq && lastSeq < maxSeq
}

// MinSeq returns the oldest sequence held, or 0 when empty.
func (h *History) MinSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	minSeq, _ := h.bounds()
	return minSeq
}

// MaxSeq returns the newest sequence held, or 0 when empty.
func (h *History) MaxSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, maxSeq := h.bounds()
	return maxSeq
}

// Count returns the number of frames held.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Clear removes all frames.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.entries)
	h.head = 0
	h.count = 0
}
