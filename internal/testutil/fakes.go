package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FakeOracle is a settable in-memory price source.
type FakeOracle struct {
	mu    sync.Mutex
	price int64
	valid bool
}

func NewFakeOracle(price int64) *FakeOracle {
	return &FakeOracle{price: price, valid: true}
}

func (o *FakeOracle) GetPrice() (int64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.price, o.valid
}

// SetPrice updates the reading; valid=false simulates a stale feed.
func (o *FakeOracle) SetPrice(price int64, valid bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.price = price
	o.valid = valid
}

// FakeCustody records collateral movements and can be armed to fail.
type FakeCustody struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64 // net movement per principal: in minus out
	poolHeld int64
	failNext bool
}

func NewFakeCustody() *FakeCustody {
	return &FakeCustody{balances: make(map[uuid.UUID]int64)}
}

func (c *FakeCustody) TransferIn(_ context.Context, from uuid.UUID, amount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		c.failNext = false
		return fmt.Errorf("custody transfer refused")
	}
	c.balances[from] -= amount
	c.poolHeld += amount
	return nil
}

func (c *FakeCustody) TransferOut(_ context.Context, to uuid.UUID, amount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		c.failNext = false
		return fmt.Errorf("custody transfer refused")
	}
	c.balances[to] += amount
	c.poolHeld -= amount
	return nil
}

// FailNext makes the next transfer (in or out) fail once.
func (c *FakeCustody) FailNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = true
}

// Net returns the principal's net movement: payouts minus deposits.
func (c *FakeCustody) Net(who uuid.UUID) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[who]
}

// PoolHeld returns the collateral currently held by the pool.
func (c *FakeCustody) PoolHeld() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poolHeld
}

// FakeDistributor quotes a settable external-yield balance and tracks
// what has been settled against it.
type FakeDistributor struct {
	mu    sync.Mutex
	yield int64
	err   error
}

func NewFakeDistributor(yield int64) *FakeDistributor {
	return &FakeDistributor{yield: yield}
}

func (d *FakeDistributor) PendingExternalYield(_ context.Context, _ uuid.UUID) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return 0, d.err
	}
	return d.yield, nil
}

func (d *FakeDistributor) SettleExternalYield(_ uuid.UUID, amount int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if amount > d.yield {
		return fmt.Errorf("settle %d exceeds quoted yield %d", amount, d.yield)
	}
	d.yield -= amount
	return nil
}

// Yield returns the unsettled yield balance.
func (d *FakeDistributor) Yield() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.yield
}

func (d *FakeDistributor) SetYield(yield int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.yield = yield
}

func (d *FakeDistributor) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// FakeBlocks is a manually advanced block clock. Block N maps to
// genesis + N * blockInterval so timestamps stay deterministic.
type FakeBlocks struct {
	mu      sync.Mutex
	height  uint64
	genesis time.Time
}

const blockInterval = 13 * time.Second

func NewFakeBlocks(height uint64) *FakeBlocks {
	return &FakeBlocks{
		height:  height,
		genesis: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (b *FakeBlocks) CurrentBlock() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.height
}

func (b *FakeBlocks) BlockTime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.genesis.Add(time.Duration(b.height) * blockInterval)
}

// Advance moves the chain forward n blocks.
func (b *FakeBlocks) Advance(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.height += n
}

// SetHeight jumps the chain to an absolute height.
func (b *FakeBlocks) SetHeight(h uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.height = h
}
