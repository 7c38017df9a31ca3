package custody

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrInsufficientBalance = errors.New("insufficient custody balance")
	ErrInvalidAmount       = errors.New("transfer amount must be positive")
)

// Vault is the in-process collateral custodian. Hedgers fund a custody
// balance by deposit, the pool pulls margin from it on open and pushes
// settlements back on close. Every transfer is all-or-nothing and pool
// holdings never go negative.
type Vault struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
	poolHeld int64
}

func NewVault() *Vault {
	return &Vault{
		balances: make(map[uuid.UUID]int64),
	}
}

// Deposit credits a hedger's custody balance from an external source.
func (v *Vault) Deposit(hedger uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[hedger] += amount
	return nil
}

// Withdraw debits a hedger's free custody balance back to the outside.
func (v *Vault) Withdraw(hedger uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.balances[hedger] < amount {
		return fmt.Errorf("%w: have=%d, need=%d", ErrInsufficientBalance, v.balances[hedger], amount)
	}
	v.balances[hedger] -= amount
	return nil
}

// TransferIn moves collateral from a hedger's custody balance into the pool.
func (v *Vault) TransferIn(ctx context.Context, from uuid.UUID, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.balances[from] < amount {
		return fmt.Errorf("%w: have=%d, need=%d", ErrInsufficientBalance, v.balances[from], amount)
	}
	v.balances[from] -= amount
	v.poolHeld += amount
	return nil
}

// TransferOut moves collateral from the pool back to a hedger's custody
// balance. The pool holding short is an accounting invariant violation,
// not a user error.
func (v *Vault) TransferOut(ctx context.Context, to uuid.UUID, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.poolHeld < amount {
		panic(fmt.Sprintf("FATAL: pool custody underflow: held=%d, payout=%d", v.poolHeld, amount))
	}
	v.poolHeld -= amount
	v.balances[to] += amount
	return nil
}

// Balance returns a hedger's free custody balance.
func (v *Vault) Balance(hedger uuid.UUID) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[hedger]
}

// PoolHeld returns the collateral currently held by the pool.
func (v *Vault) PoolHeld() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.poolHeld
}

// TotalCustody returns all collateral known to the vault. Deposits minus
// withdrawals must always equal this sum.
func (v *Vault) TotalCustody() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	total := v.poolHeld
	for _, b := range v.balances {
		total += b
	}
	return total
}
