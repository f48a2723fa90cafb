package dispatch

import "sync/atomic"

// AppendList is a bounded, append-only index list that many goroutines can
// push to concurrently. An atomic counter reserves a private slot in a
// pre-sized buffer; the write to the reserved slot needs no further
// coordination. Appending beyond capacity panics via the slice bounds
// check, since capacity is sized from the same count that bounds the
// producers.
type AppendList struct {
	buf []int32
	n   atomic.Int32
}

// NewAppendList creates a list with the given fixed capacity.
func NewAppendList(capacity int) *AppendList {
	return &AppendList{buf: make([]int32, capacity)}
}

// Append reserves the next slot, stores v there, and returns the reserved
// index.
func (l *AppendList) Append(v int32) int {
	idx := l.n.Add(1) - 1
	l.buf[idx] = v
	return int(idx)
}

// Len returns the number of appended entries. Callers must establish a
// happens-after relationship with all producers (e.g. a Pool.Run barrier)
// before pairing Len with At.
func (l *AppendList) Len() int {
	return int(l.n.Load())
}

// At returns the entry at position i.
func (l *AppendList) At(i int) int32 {
	return l.buf[i]
}

// Slice returns the appended entries as a view over the backing buffer.
func (l *AppendList) Slice() []int32 {
	return l.buf[:l.n.Load()]
}

// Reset empties the list, keeping the backing buffer.
func (l *AppendList) Reset() {
	l.n.Store(0)
}
