package sandbox

import (
	"strings"
	"sync"
)

// truncationMarker is appended once when output exceeds the configured cap.
const truncationMarker = "\n[output truncated]"

// boundedBuffer collects print output up to a byte cap. Writes past the cap
// are dropped rather than failing the execution; the payload keeps running
// and the result is flagged as truncated.
type boundedBuffer struct {
	mu        sync.Mutex
	buf       strings.Builder
	limit     int
	truncated bool
}

func newBoundedBuffer(limit int) *boundedBuffer {
	if limit <= 0 {
		limit = 64 * 1024
	}
	return &boundedBuffer{limit: limit}
}

// WriteLine appends a line of output, enforcing the byte cap.
func (b *boundedBuffer) WriteLine(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.truncated {
		return
	}

	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return
	}

	if b.buf.Len() > 0 {
		b.buf.WriteByte('\n')
		remaining--
	}
	if len(line) > remaining {
		b.buf.WriteString(line[:remaining])
		b.truncated = true
		return
	}
	b.buf.WriteString(line)
}

// String returns the captured output, with the truncation marker appended
// when the cap was hit.
func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.truncated {
		return b.buf.String() + truncationMarker
	}
	return b.buf.String()
}

// Truncated reports whether any output was dropped.
func (b *boundedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}
