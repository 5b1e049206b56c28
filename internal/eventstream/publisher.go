package eventstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/google/uuid"

	"github.com/Allliance/content-rating/internal/config"
	"github.com/Allliance/content-rating/internal/logging"
)

// Publisher is the process-wide handle C5 publishes through (§9: never a
// per-request producer). It is created once at startup by NewPublisher,
// which connects immediately; it is not created on first use. It wraps a circuit breaker
// so a stalled broker degrades the publish call instead of blocking a
// commit that has already succeeded.
type Publisher struct {
	pub    message.Publisher
	topic  string
	cb     *gobreaker.CircuitBreaker[interface{}]
	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects to NATS and returns a ready-to-use Publisher.
// Construction happens once at process startup; Publish is safe for
// concurrent use by every request handler.
func NewPublisher(cfg config.StreamConfig) (*Publisher, error) {
	logger := watermillLogAdapter{}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("nats publisher disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("nats publisher reconnected")
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	wmPub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	cbSettings := gobreaker.Settings{
		Name:        "rating-event-publisher",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Publisher{
		pub:   wmPub,
		topic: cfg.Topic,
		cb:    gobreaker.NewCircuitBreaker[interface{}](cbSettings),
	}, nil
}

// Publish sends a RatingEvent, partitioned by ContentID, protected by a
// circuit breaker. Per §4.5, a publish failure after a successful DB
// commit is the caller's to log as a non-fatal warning — it is never
// escalated to a client-visible error.
func (p *Publisher) Publish(_ context.Context, event RatingEvent) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	data, err := Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set(natsgo.MsgIdHdr, fmt.Sprintf("%d:%s", event.ContentID, event.RatingID))
	msg.Metadata.Set("content_id", fmt.Sprintf("%d", event.ContentID))

	subject := event.Subject(p.topic)

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.pub.Publish(subject, msg)
	})
	return err
}

// Close shuts the publisher down. Safe to call once during process shutdown.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.pub.Close()
}

// watermillLogAdapter routes Watermill's internal logging through the
// shared zerolog logger instead of Watermill's own stdlib logger.
type watermillLogAdapter struct{}

func (watermillLogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	logging.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}
func (watermillLogAdapter) Info(msg string, fields watermill.LogFields) {
	logging.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}
func (watermillLogAdapter) Debug(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}
func (watermillLogAdapter) Trace(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}
func (l watermillLogAdapter) With(_ watermill.LogFields) watermill.LoggerAdapter {
	return l
}
