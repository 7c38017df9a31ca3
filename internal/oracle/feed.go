package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"HedgePool/internal/observability"
)

// DefaultStaleAfter is how long a price stays usable without a fresh tick.
const DefaultStaleAfter = 30 * time.Second

// PriceUpdate is the wire shape of an oracle tick. Price is the EUR/USD
// rate at 1e6 scale.
type PriceUpdate struct {
	Price     int64     `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed holds the latest oracle price and serves it to the pool. A price
// older than staleAfter, or one that never arrived, reads as invalid so
// the pool rejects rather than trades on stale data.
type Feed struct {
	mu        sync.RWMutex
	price     int64
	updatedAt time.Time

	staleAfter time.Duration
	now        func() time.Time

	metrics  *observability.Metrics
	log      zerolog.Logger
	consumer jetstream.ConsumeContext
}

func NewFeed(staleAfter time.Duration, metrics *observability.Metrics, log zerolog.Logger) *Feed {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Feed{
		staleAfter: staleAfter,
		now:        time.Now,
		metrics:    metrics,
		log:        log.With().Str("component", "oracle").Logger(),
	}
}

// GetPrice returns the latest price and whether it is usable.
func (f *Feed) GetPrice() (int64, bool) {
	f.mu.RLock()
	price, updatedAt := f.price, f.updatedAt
	f.mu.RUnlock()

	if price <= 0 {
		return 0, false
	}
	if f.now().Sub(updatedAt) > f.staleAfter {
		return 0, false
	}
	return price, true
}

// Apply records a tick. Out-of-order ticks older than the current one are
// ignored so a redelivered message cannot roll the price back.
func (f *Feed) Apply(update PriceUpdate) bool {
	if update.Price <= 0 {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if update.Timestamp.Before(f.updatedAt) {
		return false
	}
	f.price = update.Price
	f.updatedAt = update.Timestamp

	if f.metrics != nil {
		f.metrics.OraclePriceUpdates.Inc()
		f.metrics.OraclePrice.Set(float64(update.Price))
	}
	return true
}

// Subscribe attaches the feed to the price stream. Consumers use explicit
// ACK; a malformed tick is ACKed and dropped since redelivery cannot fix it.
func (f *Feed) Subscribe(ctx context.Context, js jetstream.JetStream) error {
	consumer, err := js.CreateOrUpdateConsumer(ctx, "HEDGE_PRICES", jetstream.ConsumerConfig{
		Durable:       "hedge-oracle",
		FilterSubject: "hedge.prices.>",
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("create oracle consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var update PriceUpdate
		if err := json.Unmarshal(msg.Data(), &update); err != nil {
			f.log.Warn().Err(err).Str("subject", msg.Subject()).Msg("malformed price tick")
			msg.Ack()
			return
		}
		if !f.Apply(update) {
			f.log.Debug().
				Int64("price", update.Price).
				Time("timestamp", update.Timestamp).
				Msg("ignored price tick")
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("consume prices: %w", err)
	}

	f.consumer = cc
	f.log.Info().Msg("subscribed to hedge.prices.>")
	return nil
}

// Stop detaches the price consumer.
func (f *Feed) Stop() {
	if f.consumer != nil {
		f.consumer.Stop()
	}
}

// EnsurePriceStream creates the price tick stream.
func EnsurePriceStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "HEDGE_PRICES",
		Subjects:  []string{"hedge.prices.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create price stream: %w", err)
	}
	return nil
}
