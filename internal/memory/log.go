package memory

// Log is a bounded FIFO of memories. It is not safe for concurrent use; the
// stream's store guards it.
type Log struct {
	capacity int
	entries  []Memory
}

// NewLog creates an empty log holding at most capacity entries. A capacity
// below 1 means DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity, entries: make([]Memory, 0, capacity)}
}

// Append adds m, evicting the oldest entry once the log is over capacity.
// It returns the evicted entry, if any.
func (l *Log) Append(m Memory) (evicted Memory, ok bool) {
	l.entries = append(l.entries, m.Clone())
	if len(l.entries) > l.capacity {
		evicted = l.entries[0]
		l.entries = append(l.entries[:0], l.entries[1:]...)
		return evicted, true
	}
	return Memory{}, false
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Cap returns the capacity.
func (l *Log) Cap() int { return l.capacity }

// Get returns the entry with the given id.
func (l *Log) Get(id int64) (Memory, bool) {
	for _, m := range l.entries {
		if m.ID == id {
			return m.Clone(), true
		}
	}
	return Memory{}, false
}

// Last returns up to n of the newest entries, oldest first. n <= 0 returns
// all entries.
func (l *Log) Last(n int) []Memory {
	start := 0
	if n > 0 && n < len(l.entries) {
		start = len(l.entries) - n
	}
	out := make([]Memory, 0, len(l.entries)-start)
	for _, m := range l.entries[start:] {
		out = append(out, m.Clone())
	}
	return out
}

// All returns a deep copy of every entry, oldest first.
func (l *Log) All() []Memory { return l.Last(0) }
