package custody

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// YieldAccount accrues external yield credited by an off-pool process
// (the venue reconciler) and pays it out when a hedger claims rewards.
// A claim quotes the accrued balance first and settles the quoted amount
// after the payout, so a credit is paid exactly once and a failed claim
// consumes nothing.
type YieldAccount struct {
	mu      sync.Mutex
	accrued map[uuid.UUID]int64
}

func NewYieldAccount() *YieldAccount {
	return &YieldAccount{
		accrued: make(map[uuid.UUID]int64),
	}
}

// Credit adds external yield for a hedger.
func (y *YieldAccount) Credit(hedger uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	y.mu.Lock()
	defer y.mu.Unlock()
	y.accrued[hedger] += amount
	return nil
}

// PendingExternalYield returns the hedger's accrued yield without
// consuming it.
func (y *YieldAccount) PendingExternalYield(ctx context.Context, hedger uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.accrued[hedger], nil
}

// SettleExternalYield consumes amount of previously quoted yield. The
// balance only grows between quote and settle, so a shortfall means the
// books disagree.
func (y *YieldAccount) SettleExternalYield(hedger uuid.UUID, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	y.mu.Lock()
	defer y.mu.Unlock()
	if amount > y.accrued[hedger] {
		return fmt.Errorf("settle %d exceeds accrued yield %d", amount, y.accrued[hedger])
	}
	y.accrued[hedger] -= amount
	if y.accrued[hedger] == 0 {
		delete(y.accrued, hedger)
	}
	return nil
}

// Accrued returns the unclaimed yield for a hedger.
func (y *YieldAccount) Accrued(hedger uuid.UUID) int64 {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.accrued[hedger]
}
