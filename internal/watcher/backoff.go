package watcher

import (
	"math/rand"
	"time"
)

const (
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffMax  = 30 * time.Second
)

// Backoff produces exponentially growing delays with bounded jitter. There is
// no attempt cap: the monitor reconnects for as long as the process lives.
type Backoff struct {
	base time.Duration
	max  time.Duration
	next time.Duration
}

func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = defaultBackoffBase
	}
	if max <= 0 {
		max = defaultBackoffMax
	}
	if max < base {
		max = base
	}
	return &Backoff{base: base, max: max, next: base}
}

// Next returns the delay before the following attempt: the current step plus
// jitter of up to a quarter of it.
func (b *Backoff) Next() time.Duration {
	delay := b.next

	b.next *= 2
	if b.next > b.max {
		b.next = b.max
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}

// Reset rewinds to the base delay. Called after a successful subscribe.
func (b *Backoff) Reset() {
	b.next = b.base
}
