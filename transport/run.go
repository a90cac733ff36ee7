package transport

import (
	"context"
	"errors"
	"time"

	"github.com/ystepanoff/rclink/channel"
)

// Sink consumes the result of each supervision cycle.
type Sink func(out channel.Output, status LinkStatus)

// Run calls UpdateCycle on r every period until ctx is done, passing each
// result to sink. now supplies the cycle timestamp; nil means time.Now.
// It returns ctx.Err().
func Run(ctx context.Context, r *LinkReceiver, period time.Duration, now func() time.Time, sink Sink) error {
	if period <= 0 {
		return errors.New("cycle period must be positive")
	}
	if now == nil {
		now = time.Now
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := r.UpdateCycle(now())
		if sink != nil {
			sink(out, r.Status())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
