package store

// DefaultCapacity is the number of entries kept per device and class.
const DefaultCapacity = 100

// History is a fixed-capacity sequence that keeps the newest entries.
// Pushing beyond capacity evicts the oldest entry. It is not safe for
// concurrent use; Store serializes access.
type History[T any] struct {
	buf  []T
	head int // index of the newest entry
	size int
}

// NewHistory returns an empty History. A non-positive capacity falls back to
// DefaultCapacity.
func NewHistory[T any](capacity int) *History[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History[T]{buf: make([]T, capacity), head: -1}
}

// Push inserts v at the front.
func (h *History[T]) Push(v T) {
	h.head = (h.head + 1) % len(h.buf)
	h.buf[h.head] = v
	if h.size < len(h.buf) {
		h.size++
	}
}

// Front returns the newest entry.
func (h *History[T]) Front() (T, bool) {
	var zero T
	if h.size == 0 {
		return zero, false
	}
	return h.buf[h.head], true
}

// Len returns the number of stored entries.
func (h *History[T]) Len() int { return h.size }

// Cap returns the capacity.
func (h *History[T]) Cap() int { return len(h.buf) }

// Items copies up to limit entries, newest first. limit <= 0 means all.
func (h *History[T]) Items(limit int) []T {
	n := h.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = h.buf[(h.head-i+len(h.buf))%len(h.buf)]
	}
	return out
}
