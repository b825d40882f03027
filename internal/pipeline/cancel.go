package pipeline

import "sync/atomic"

// cancelFlag is the process-wide cancellation flag from spec §4.4: "A
// process-wide cancellation flag causes each stage to drain and exit at
// a batch boundary. The flag is reset at the start of each pipeline
// run." One cancelFlag is shared by every stage goroutine of a single
// Run call; it is not itself shared across runs (a fresh one is
// allocated each call), which gives the reset-per-run behaviour for
// free.
type cancelFlag struct {
	v atomic.Bool
}

func (c *cancelFlag) set() {
	c.v.Store(true)
}

func (c *cancelFlag) isSet() bool {
	return c.v.Load()
}
