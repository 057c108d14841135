package syncq

import (
	"math/rand/v2"
	"time"
)

// MaxRetries is the number of failed deliveries after which an entry is
// marked as permanently failed.
const MaxRetries = 8

// Backoff computes retry delays: min(Max, Base×2^retries) plus a random
// jitter in [0, MaxJitter).
type Backoff struct {
	Base      time.Duration
	Max       time.Duration
	MaxJitter time.Duration
}

// DefaultBackoff is used when no backoff is configured.
var DefaultBackoff = Backoff{
	Base:      2 * time.Second,
	Max:       10 * time.Minute,
	MaxJitter: time.Second,
}

// Delay returns the wait before the next attempt of an entry that has failed
// retries times, without jitter.
func (b Backoff) Delay(retries int) time.Duration {
	d := b.Base

	for range retries {
		if d >= b.Max {
			break
		}

		d *= 2
	}

	return min(d, b.Max)
}

func (b Backoff) jitter() time.Duration {
	if b.MaxJitter <= 0 {
		return 0
	}

	return rand.N(b.MaxJitter)
}
