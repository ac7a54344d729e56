package simulate

import (
	"time"

	"github.com/rshade/framebatch/internal/engine/batch"
)

// advancer is implemented by clocks that can be moved forward by hand.
type advancer interface {
	Advance(d time.Duration)
}

// SyntheticJob returns work that occupies d on clock. On a clock that can be
// advanced (batch.ManualClock) the clock is moved forward; otherwise the job
// spins until d has elapsed.
func SyntheticJob(clock batch.Clock, d time.Duration) batch.Work {
	return batch.WorkFunc(func() {
		if d <= 0 {
			return
		}
		if a, ok := clock.(advancer); ok {
			a.Advance(d)
			return
		}
		deadline := clock.Now().Add(d)
		for clock.Now().Before(deadline) { //nolint:revive // busy-wait models CPU-bound work
		}
	})
}
