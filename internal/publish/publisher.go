package publish

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"HedgePool/internal/pool"
)

// Publisher drains the pool's publish channel and pushes events to NATS
// for downstream consumers. The pool sends on that channel without
// blocking and drops when it is full, so this path is best-effort; the
// event log in Postgres stays the source of truth.
// Subjects follow the pattern: hedge.pool.events.{event_type}
type Publisher struct {
	js    jetstream.JetStream
	input <-chan pool.Output
	log   zerolog.Logger
}

// OutboundEvent is the wire shape published to NATS.
type OutboundEvent struct {
	Sequence  int64       `json:"sequence"`
	EventType string      `json:"event_type"`
	Block     uint64      `json:"block"`
	Payload   interface{} `json:"payload"`
	StateHash string      `json:"state_hash"`
	PrevHash  string      `json:"prev_hash"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewPublisher(js jetstream.JetStream, input <-chan pool.Output, log zerolog.Logger) *Publisher {
	return &Publisher{
		js:    js,
		input: input,
		log:   log.With().Str("component", "publisher").Logger(),
	}
}

// Run starts the publisher loop. Blocks until ctx is cancelled or the
// input channel closes.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case out, ok := <-p.input:
			if !ok {
				return nil
			}

			if err := p.publish(ctx, out); err != nil {
				// Non-fatal: consumers can query the event log directly.
				p.log.Warn().
					Err(err).
					Int64("sequence", out.Envelope.Sequence).
					Msg("outbound publish failed")
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, out pool.Output) error {
	env := out.Envelope
	evt := OutboundEvent{
		Sequence:  env.Sequence,
		EventType: env.EventType.String(),
		Block:     env.Block,
		Payload:   env.Payload,
		StateHash: hex.EncodeToString(env.StateHash[:]),
		PrevHash:  hex.EncodeToString(env.PrevHash[:]),
		Timestamp: env.Timestamp,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := fmt.Sprintf("hedge.pool.events.%s", evt.EventType)
	_, err = p.js.Publish(ctx, subject, data)
	return err
}

// EnsureEventStream creates the outbound events stream.
func EnsureEventStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "HEDGE_POOL_EVENTS",
		Subjects:  []string{"hedge.pool.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create outbound stream: %w", err)
	}
	return nil
}

// Connect establishes a NATS connection and returns a JetStream context.
func Connect(url string, log zerolog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
