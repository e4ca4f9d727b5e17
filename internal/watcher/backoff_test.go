package watcher

import (
	"testing"
	"time"
)

func TestBackoffGrowsUntilCap(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Second)

	steps := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}

	prev := time.Duration(0)
	for i, step := range steps {
		delay := b.Next()
		if delay < step || delay > step+step/4 {
			t.Fatalf("attempt %d: delay %s outside [%s, %s]", i, delay, step, step+step/4)
		}
		if delay < prev && step != steps[len(steps)-1] {
			t.Fatalf("attempt %d: delay %s shrank below %s before the cap", i, delay, prev)
		}
		prev = delay
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Second)
	b.Next()
	b.Next()
	b.Reset()

	delay := b.Next()
	if delay < 100*time.Millisecond || delay > 125*time.Millisecond {
		t.Fatalf("delay after reset: %s", delay)
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(0, 0)
	if b.base != defaultBackoffBase || b.max != defaultBackoffMax {
		t.Fatalf("defaults not applied: base=%s max=%s", b.base, b.max)
	}

	b = NewBackoff(time.Minute, time.Second)
	if b.max != time.Minute {
		t.Fatalf("max below base must be raised to base, got %s", b.max)
	}
}
