package state

import (
	"crypto/sha256"

	"github.com/google/uuid"
)

// CommitmentPhase tracks a liquidation commitment through its lifecycle:
// Committed -> {Executed | Cancelled | Expired}. A slot is never reused;
// resolution deletes it from the book.
type CommitmentPhase int32

const (
	CommitmentCommitted CommitmentPhase = iota
	CommitmentExecuted
	CommitmentCancelled
	CommitmentExpired
)

func (cp CommitmentPhase) String() string {
	switch cp {
	case CommitmentCommitted:
		return "Committed"
	case CommitmentExecuted:
		return "Executed"
	case CommitmentCancelled:
		return "Cancelled"
	case CommitmentExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// LiquidationCommitment binds a liquidator to a (hedger, position) pair
// before the price path is known, via a salted hash revealed later.
type LiquidationCommitment struct {
	Hedger     uuid.UUID
	PositionID uint64
	Committer  uuid.UUID
	CommitHash [32]byte
	Block      uint64
	Phase      CommitmentPhase
}

type commitmentKey struct {
	hedger     uuid.UUID
	positionID uint64
}

// CommitmentBook enforces the at-most-one-live-commitment rule per
// (hedger, positionID) pair, the system's only explicit mutual-exclusion
// primitive. Cooldown and expiry are measured in blocks from the commit.
type CommitmentBook struct {
	commitments    map[commitmentKey]*LiquidationCommitment
	cooldownBlocks uint64
	expiryBlocks   uint64
}

const (
	// DefaultCommitCooldownBlocks is the delay between commit and reveal;
	// long enough to close the front-running window, short enough to
	// bound the liquidator's price risk.
	DefaultCommitCooldownBlocks uint64 = 10

	// DefaultCommitExpiryBlocks is the window after which an unrevealed
	// commitment goes stale and anyone may purge it.
	DefaultCommitExpiryBlocks uint64 = 100
)

func NewCommitmentBook(cooldownBlocks, expiryBlocks uint64) *CommitmentBook {
	if cooldownBlocks == 0 || expiryBlocks <= cooldownBlocks {
		panic("FATAL: commitment windows must satisfy 0 < cooldown < expiry")
	}
	return &CommitmentBook{
		commitments:    make(map[commitmentKey]*LiquidationCommitment),
		cooldownBlocks: cooldownBlocks,
		expiryBlocks:   expiryBlocks,
	}
}

// HashSalt is the reveal binding: sha256 over the raw salt bytes.
func HashSalt(salt []byte) [32]byte {
	return sha256.Sum256(salt)
}

// Commit records a new commitment. Fails if a live (unexpired, unresolved)
// commitment already occupies the pair; an expired one is displaced.
func (cb *CommitmentBook) Commit(
	committer uuid.UUID,
	hedger uuid.UUID,
	positionID uint64,
	commitHash [32]byte,
	currentBlock uint64,
) (*LiquidationCommitment, error) {
	key := commitmentKey{hedger: hedger, positionID: positionID}

	if existing, ok := cb.commitments[key]; ok {
		if !cb.isExpired(existing, currentBlock) {
			return nil, ErrCommitmentActive
		}
		delete(cb.commitments, key)
	}

	c := &LiquidationCommitment{
		Hedger:     hedger,
		PositionID: positionID,
		Committer:  committer,
		CommitHash: commitHash,
		Block:      currentBlock,
		Phase:      CommitmentCommitted,
	}
	cb.commitments[key] = c

	return c, nil
}

// Validate checks a reveal without consuming the commitment. The caller
// must be the original committer, the salt must hash to the committed
// value, and the current block must fall inside
// [commit+cooldown, commit+expiry). A failed reveal never burns the
// commitment.
func (cb *CommitmentBook) Validate(
	caller uuid.UUID,
	hedger uuid.UUID,
	positionID uint64,
	salt []byte,
	currentBlock uint64,
) error {
	c, ok := cb.commitments[commitmentKey{hedger: hedger, positionID: positionID}]
	if !ok {
		return ErrNoValidCommitment
	}
	if cb.isExpired(c, currentBlock) {
		return ErrNoValidCommitment
	}
	if currentBlock < c.Block+cb.cooldownBlocks {
		return ErrNoValidCommitment
	}
	if c.Committer != caller {
		return ErrNoValidCommitment
	}
	if HashSalt(salt) != c.CommitHash {
		return ErrNoValidCommitment
	}
	return nil
}

// Consume validates a reveal and removes the commitment.
func (cb *CommitmentBook) Consume(
	caller uuid.UUID,
	hedger uuid.UUID,
	positionID uint64,
	salt []byte,
	currentBlock uint64,
) (*LiquidationCommitment, error) {
	if err := cb.Validate(caller, hedger, positionID, salt, currentBlock); err != nil {
		return nil, err
	}

	key := commitmentKey{hedger: hedger, positionID: positionID}
	c := cb.commitments[key]
	c.Phase = CommitmentExecuted
	delete(cb.commitments, key)

	return c, nil
}

// Cancel removes a commitment before reveal; committer only.
func (cb *CommitmentBook) Cancel(
	caller uuid.UUID,
	hedger uuid.UUID,
	positionID uint64,
	currentBlock uint64,
) (*LiquidationCommitment, error) {
	key := commitmentKey{hedger: hedger, positionID: positionID}
	c, ok := cb.commitments[key]
	if !ok || cb.isExpired(c, currentBlock) {
		return nil, ErrNoValidCommitment
	}
	if c.Committer != caller {
		return nil, ErrUnauthorized
	}

	c.Phase = CommitmentCancelled
	delete(cb.commitments, key)

	return c, nil
}

// ClearExpired purges a stale commitment once the expiry window has
// passed without a reveal. Callable by anyone.
func (cb *CommitmentBook) ClearExpired(
	hedger uuid.UUID,
	positionID uint64,
	currentBlock uint64,
) (*LiquidationCommitment, error) {
	key := commitmentKey{hedger: hedger, positionID: positionID}
	c, ok := cb.commitments[key]
	if !ok {
		return nil, ErrNoValidCommitment
	}
	if !cb.isExpired(c, currentBlock) {
		return nil, ErrNoValidCommitment
	}

	c.Phase = CommitmentExpired
	delete(cb.commitments, key)

	return c, nil
}

// Drop removes a commitment unconditionally. Used when the underlying
// position terminates through another path (close of a healthy position).
func (cb *CommitmentBook) Drop(hedger uuid.UUID, positionID uint64) {
	delete(cb.commitments, commitmentKey{hedger: hedger, positionID: positionID})
}

// HasLive reports whether an unexpired commitment exists on the pair.
func (cb *CommitmentBook) HasLive(hedger uuid.UUID, positionID uint64, currentBlock uint64) bool {
	c, ok := cb.commitments[commitmentKey{hedger: hedger, positionID: positionID}]
	return ok && !cb.isExpired(c, currentBlock)
}

// Get returns the commitment on the pair, live or stale.
func (cb *CommitmentBook) Get(hedger uuid.UUID, positionID uint64) (*LiquidationCommitment, bool) {
	c, ok := cb.commitments[commitmentKey{hedger: hedger, positionID: positionID}]
	return c, ok
}

// All returns every outstanding commitment (for snapshots).
func (cb *CommitmentBook) All() []*LiquidationCommitment {
	out := make([]*LiquidationCommitment, 0, len(cb.commitments))
	for _, c := range cb.commitments {
		out = append(out, c)
	}
	return out
}

// Restore re-seats a commitment from a snapshot.
func (cb *CommitmentBook) Restore(c *LiquidationCommitment) {
	cb.commitments[commitmentKey{hedger: c.Hedger, positionID: c.PositionID}] = c
}

// CooldownBlocks returns the configured commit-to-reveal delay.
func (cb *CommitmentBook) CooldownBlocks() uint64 { return cb.cooldownBlocks }

// ExpiryBlocks returns the configured commitment lifetime.
func (cb *CommitmentBook) ExpiryBlocks() uint64 { return cb.expiryBlocks }

func (cb *CommitmentBook) isExpired(c *LiquidationCommitment, currentBlock uint64) bool {
	return currentBlock >= c.Block+cb.expiryBlocks
}
