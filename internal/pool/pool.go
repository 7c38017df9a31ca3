package pool

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"HedgePool/internal/event"
	"HedgePool/internal/observability"
	"HedgePool/internal/state"
)

// PriceOracle supplies the EUR/USD synthetic price. A false return means
// the current reading is unset or stale and the operation must fail with
// ErrInvalidOracleData.
type PriceOracle interface {
	GetPrice() (int64, bool)
}

// CollateralCustody moves collateral between hedgers and the pool.
// Transfers are all-or-nothing: an error means nothing moved.
type CollateralCustody interface {
	TransferIn(ctx context.Context, from uuid.UUID, amount int64) error
	TransferOut(ctx context.Context, to uuid.UUID, amount int64) error
}

// RewardDistributor supplies the external-yield share of a reward claim.
// PendingExternalYield quotes without consuming anything. SettleExternalYield
// consumes exactly the quoted amount; the pool calls it only after custody
// has paid out, so an error from it means the books disagree.
type RewardDistributor interface {
	PendingExternalYield(ctx context.Context, hedger uuid.UUID) (int64, error)
	SettleExternalYield(hedger uuid.UUID, amount int64) error
}

// BlockSource reports the current block height and its timestamp.
// The pool never reads the wall clock; all time comes from here.
type BlockSource interface {
	CurrentBlock() uint64
	BlockTime() time.Time
}

// Roles fixes the governance and admin principals at construction.
type Roles struct {
	Governance uuid.UUID
	Admin      uuid.UUID
}

// Output is what the pool emits per committed mutation.
type Output struct {
	Envelope *event.Envelope
}

// HedgingPool is the single-writer facade over all pool state. Mutations
// and reads are commands executed one at a time by the Run goroutine, so
// no caller ever observes a half-applied operation.
type HedgingPool struct {
	ledger      *state.PositionLedger
	aggregates  *state.PoolAggregates
	commitments *state.CommitmentBook
	rewards     *state.RewardBook
	margin      *state.MarginEngine
	pnl         *state.PnLEngine

	fees  state.FeeConfig
	risk  state.RiskConfig
	rates state.InterestRates

	roles       Roles
	liquidators map[uuid.UUID]bool
	paused      bool

	sequence int64
	hasher   *StateHasher

	oracle      PriceOracle
	custody     CollateralCustody
	distributor RewardDistributor
	blocks      BlockSource

	persistChan chan<- Output
	publishChan chan<- Output

	metrics *observability.Metrics
	log     zerolog.Logger

	commands chan command
}

type command struct {
	run  func()
	done chan struct{}
}

// Config carries the pool's construction parameters.
type Config struct {
	Fees  state.FeeConfig
	Risk  state.RiskConfig
	Rates state.InterestRates

	CommitCooldownBlocks uint64
	CommitExpiryBlocks   uint64

	Roles Roles

	// Optional; nil channels disable the corresponding emission.
	PersistChan chan<- Output
	PublishChan chan<- Output

	CommandBuffer int
}

func NewHedgingPool(
	cfg Config,
	oracle PriceOracle,
	custody CollateralCustody,
	distributor RewardDistributor,
	blocks BlockSource,
	metrics *observability.Metrics,
	log zerolog.Logger,
) (*HedgingPool, error) {
	if err := state.ValidateFeeConfig(cfg.Fees); err != nil {
		return nil, err
	}
	if err := state.ValidateRiskConfig(cfg.Risk); err != nil {
		return nil, err
	}
	if err := state.ValidateInterestRates(cfg.Rates); err != nil {
		return nil, err
	}

	cooldown := cfg.CommitCooldownBlocks
	expiry := cfg.CommitExpiryBlocks
	if cooldown == 0 {
		cooldown = state.DefaultCommitCooldownBlocks
	}
	if expiry == 0 {
		expiry = state.DefaultCommitExpiryBlocks
	}

	buffer := cfg.CommandBuffer
	if buffer <= 0 {
		buffer = 256
	}

	ledger := state.NewPositionLedger()
	aggregates := state.NewPoolAggregates()
	commitments := state.NewCommitmentBook(cooldown, expiry)

	return &HedgingPool{
		ledger:      ledger,
		aggregates:  aggregates,
		commitments: commitments,
		rewards:     state.NewRewardBook(),
		margin:      state.NewMarginEngine(ledger, aggregates, commitments),
		pnl:         state.NewPnLEngine(),
		fees:        cfg.Fees,
		risk:        cfg.Risk,
		rates:       cfg.Rates,
		roles:       cfg.Roles,
		liquidators: make(map[uuid.UUID]bool),
		hasher:      NewStateHasher(),
		oracle:      oracle,
		custody:     custody,
		distributor: distributor,
		blocks:      blocks,
		persistChan: cfg.PersistChan,
		publishChan: cfg.PublishChan,
		metrics:     metrics,
		log:         log,
		commands:    make(chan command, buffer),
	}, nil
}

// Run executes commands one at a time until ctx is cancelled. Exactly one
// Run goroutine may be active; all state is owned by it.
func (p *HedgingPool) Run(ctx context.Context) {
	p.log.Info().Msg("pool loop started")
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("pool loop stopped")
			return
		case cmd := <-p.commands:
			cmd.run()
			close(cmd.done)
		}
	}
}

// do submits fn to the pool loop and waits for it to finish. Submission
// respects ctx; once accepted, the command always runs to completion.
func (p *HedgingPool) do(ctx context.Context, fn func()) error {
	cmd := command{run: fn, done: make(chan struct{})}
	select {
	case p.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-cmd.done
	return nil
}

// readPrice reads the oracle once per operation.
func (p *HedgingPool) readPrice() (int64, error) {
	price, ok := p.oracle.GetPrice()
	if !ok || price <= 0 {
		if p.metrics != nil {
			p.metrics.OracleStaleReads.Inc()
		}
		return 0, state.ErrInvalidOracleData
	}
	return price, nil
}

// computeStateDigest builds canonical bytes over the aggregates and the
// position touched by the event, mirroring the event-scoped digest the
// hash chain is built over.
func (p *HedgingPool) computeStateDigest(affected *state.Position) []byte {
	digest := make([]byte, 0, 128)

	digest = appendInt64LE(digest, p.aggregates.TotalMargin)
	digest = appendInt64LE(digest, p.aggregates.TotalExposure)
	digest = appendInt64LE(digest, int64(p.aggregates.ActiveHedgerCount))

	if affected != nil {
		digest = append(digest, affected.CanonicalBytes()...)
	}

	return digest
}

func appendInt64LE(buf []byte, v int64) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
		byte(v>>32),
		byte(v>>40),
		byte(v>>48),
		byte(v>>56),
	)
}

// emit seals the mutation into the event log: hash chain, sequence,
// blocking persist send, non-blocking publish send.
func (p *HedgingPool) emit(
	evtType event.EventType,
	payload interface{},
	affected *state.Position,
	block uint64,
	ts time.Time,
) {
	prevHash := p.hasher.GetPrevHash()
	stateHash := p.hasher.ComputeHash(p.sequence, p.computeStateDigest(affected))

	env := &event.Envelope{
		Sequence:  p.sequence,
		EventType: evtType,
		Block:     block,
		Timestamp: ts,
		Payload:   payload,
		StateHash: stateHash,
		PrevHash:  prevHash,
	}
	p.sequence++

	output := Output{Envelope: env}

	// Blocking send: the pool stalls until the persistence worker drains,
	// guaranteeing no committed event is lost.
	if p.persistChan != nil {
		select {
		case p.persistChan <- output:
		default:
			if p.metrics != nil {
				p.metrics.PersistBackpressure.Inc()
			}
			p.persistChan <- output
		}
	}

	// Non-blocking send: downstream consumers rebuild from the event log
	// if they fall behind.
	if p.publishChan != nil {
		select {
		case p.publishChan <- output:
		default:
			if p.metrics != nil {
				p.metrics.PublishDrops.Inc()
			}
		}
	}

	if p.metrics != nil {
		p.metrics.PoolOpsApplied.WithLabelValues(evtType.String()).Inc()
		p.metrics.PoolSequence.Set(float64(p.sequence))
		p.metrics.TotalMargin.Set(float64(p.aggregates.TotalMargin))
		p.metrics.TotalExposure.Set(float64(p.aggregates.TotalExposure))
		p.metrics.ActiveHedgers.Set(float64(p.aggregates.ActiveHedgerCount))
		p.metrics.OpenPositions.Set(float64(len(p.ledger.ActivePositions())))
	}
}

func (p *HedgingPool) reject(op, reason string) {
	if p.metrics != nil {
		p.metrics.PoolOpsRejected.WithLabelValues(op, reason).Inc()
	}
}

// terminate runs the shared termination path: checkpoint and bank accrued
// rewards, drop any commitment, deactivate, and zero the aggregates. The
// position must be active; termination happens exactly once.
func (p *HedgingPool) terminate(pos *state.Position, reason state.TerminationReason, block uint64) {
	p.rewards.Checkpoint(pos, p.rates, block)
	p.rewards.Bank(pos)
	p.commitments.Drop(pos.Owner, pos.ID)

	if err := p.ledger.Deactivate(pos.ID); err != nil {
		panic("FATAL: terminating inactive position " + reason.String())
	}
	p.aggregates.RemovePosition(pos.Margin, pos.NotionalExposure)
}
