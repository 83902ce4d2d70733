package sender

import (
	"context"
	"time"
)

// Pacer holds frame production to one frame per interval. Start marks when
// production of a frame began; Wait sleeps for whatever is left of the
// interval, never a negative duration.
type Pacer struct {
	interval time.Duration
	start    time.Time
	now      func() time.Time
}

// NewPacer returns a pacer for the given frame interval.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval, now: time.Now}
}

// Interval returns the target frame interval.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Start records the beginning of a frame.
func (p *Pacer) Start() {
	p.start = p.now()
}

// Remaining returns max(0, interval - elapsed since Start).
func (p *Pacer) Remaining() time.Duration {
	return max(0, p.interval-p.now().Sub(p.start))
}

// Wait sleeps for Remaining or until ctx is done, in which case it returns
// ctx.Err().
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Remaining()
	if d == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
