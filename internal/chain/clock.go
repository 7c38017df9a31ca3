package chain

import (
	"time"
)

// DefaultBlockInterval matches the settlement chain's target block time.
const DefaultBlockInterval = 13 * time.Second

// Clock derives block height from wall time against a fixed genesis.
// The pool never reads the wall clock itself; it sees only the height
// and the block timestamp, so replaying the same heights reproduces
// the same state.
type Clock struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time
}

func NewClock(genesis time.Time, interval time.Duration) *Clock {
	if interval <= 0 {
		interval = DefaultBlockInterval
	}
	return &Clock{
		genesis:  genesis.UTC(),
		interval: interval,
		now:      time.Now,
	}
}

// CurrentBlock returns the height of the latest sealed block. Before
// genesis the height is 0.
func (c *Clock) CurrentBlock() uint64 {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.interval)
}

// BlockTime returns the timestamp of the current block.
func (c *Clock) BlockTime() time.Time {
	return c.genesis.Add(time.Duration(c.CurrentBlock()) * c.interval)
}
