package custody

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// ====================================================================
// Vault transfers
// ====================================================================

func TestVault_DepositTransferRoundTrip(t *testing.T) {
	v := NewVault()
	hedger := uuid.New()
	ctx := context.Background()

	if err := v.Deposit(hedger, 10_000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := v.TransferIn(ctx, hedger, 6_000); err != nil {
		t.Fatalf("TransferIn: %v", err)
	}

	if got := v.Balance(hedger); got != 4_000 {
		t.Errorf("balance = %d, want 4000", got)
	}
	if got := v.PoolHeld(); got != 6_000 {
		t.Errorf("poolHeld = %d, want 6000", got)
	}

	if err := v.TransferOut(ctx, hedger, 6_000); err != nil {
		t.Fatalf("TransferOut: %v", err)
	}
	if got := v.Balance(hedger); got != 10_000 {
		t.Errorf("balance after round trip = %d, want 10000", got)
	}
	if got := v.TotalCustody(); got != 10_000 {
		t.Errorf("total custody = %d, want 10000", got)
	}
}

func TestVault_InsufficientBalanceRejected(t *testing.T) {
	v := NewVault()
	hedger := uuid.New()
	ctx := context.Background()

	v.Deposit(hedger, 1_000)

	err := v.TransferIn(ctx, hedger, 1_001)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	// Failed transfer must leave both sides untouched.
	if got := v.Balance(hedger); got != 1_000 {
		t.Errorf("balance = %d, want 1000", got)
	}
	if got := v.PoolHeld(); got != 0 {
		t.Errorf("poolHeld = %d, want 0", got)
	}
}

func TestVault_WithdrawChecksFreeBalance(t *testing.T) {
	v := NewVault()
	hedger := uuid.New()
	ctx := context.Background()

	v.Deposit(hedger, 5_000)
	v.TransferIn(ctx, hedger, 4_000)

	if err := v.Withdraw(hedger, 2_000); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := v.Withdraw(hedger, 1_000); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if got := v.Balance(hedger); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

func TestVault_NonPositiveAmountsRejected(t *testing.T) {
	v := NewVault()
	hedger := uuid.New()
	ctx := context.Background()

	for _, amount := range []int64{0, -5} {
		if err := v.Deposit(hedger, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Deposit(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
		if err := v.TransferIn(ctx, hedger, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("TransferIn(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestVault_CancelledContextRejected(t *testing.T) {
	v := NewVault()
	hedger := uuid.New()
	v.Deposit(hedger, 1_000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := v.TransferIn(ctx, hedger, 500); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if got := v.PoolHeld(); got != 0 {
		t.Errorf("poolHeld = %d, want 0", got)
	}
}

// ==========================================================================
// Yield account
// ==========================================================================

func TestYieldAccount_QuoteThenSettle(t *testing.T) {
	y := NewYieldAccount()
	hedger := uuid.New()
	ctx := context.Background()

	if err := y.Credit(hedger, 7_777); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// Quoting consumes nothing.
	quoted, err := y.PendingExternalYield(ctx, hedger)
	if err != nil || quoted != 7_777 {
		t.Fatalf("quote = (%d, %v), want (7_777, nil)", quoted, err)
	}
	if got := y.Accrued(hedger); got != 7_777 {
		t.Errorf("accrued after quote = %d, want 7_777", got)
	}

	if err := y.SettleExternalYield(hedger, quoted); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if got := y.Accrued(hedger); got != 0 {
		t.Errorf("accrued after settle = %d, want 0", got)
	}
}

func TestYieldAccount_SettleBeyondAccruedRejected(t *testing.T) {
	y := NewYieldAccount()
	hedger := uuid.New()

	y.Credit(hedger, 100)
	if err := y.SettleExternalYield(hedger, 101); err == nil {
		t.Fatal("settle beyond accrued succeeded")
	}
	if got := y.Accrued(hedger); got != 100 {
		t.Errorf("accrued = %d after rejected settle, want 100", got)
	}
}

func TestYieldAccount_CreditsStackBetweenQuoteAndSettle(t *testing.T) {
	y := NewYieldAccount()
	hedger := uuid.New()
	ctx := context.Background()

	y.Credit(hedger, 100)
	quoted, _ := y.PendingExternalYield(ctx, hedger)

	// A credit arriving mid-claim survives settling the quoted amount.
	y.Credit(hedger, 40)
	if err := y.SettleExternalYield(hedger, quoted); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if got := y.Accrued(hedger); got != 40 {
		t.Errorf("accrued = %d, want 40", got)
	}
}
