package eventstream

import (
	"context"
	"fmt"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/Allliance/content-rating/internal/config"
	"github.com/Allliance/content-rating/internal/logging"
	"github.com/Allliance/content-rating/internal/metrics"
)

// Subscriber is the durable JetStream consumer the Aggregation Worker (C6)
// runs on. One subscriber serves the whole wildcard subject; JetStream
// still preserves per-content (per-subject-suffix) ordering because all
// events for a content id share a partition key (§5).
type Subscriber struct {
	sub   message.Subscriber
	topic string
}

// NewSubscriber binds a durable, queue-grouped subscription. Construction
// retries per §4.6's startup policy: fixed delay, bounded attempts.
func NewSubscriber(ctx context.Context, cfg config.StreamConfig) (*Subscriber, error) {
	logger := watermillLogAdapter{}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(cfg.ReconnectWait),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(5),
		natsgo.MaxAckPending(1000),
		natsgo.AckWait(cfg.SessionTimeout),
		natsgo.DeliverAll(),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: cfg.ConsumerGroup,
		SubscribersCount: 1, // serialize per content id (§4.6 concurrency)
		AckWaitTimeout:   cfg.SessionTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    true,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	var (
		sub *Subscriber
		err error
	)
	maxAttempts := cfg.MaxStartupAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var wmSub message.Subscriber
		wmSub, err = wmNats.NewSubscriber(wmConfig, logger)
		if err == nil {
			sub = &Subscriber{sub: wmSub, topic: cfg.Topic + ".>"}
			return sub, nil
		}
		logging.Warn().Err(err).Int("attempt", attempt).Msg("nats subscriber connect failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ReconnectWait):
		}
	}
	return nil, fmt.Errorf("connect nats subscriber after %d attempts: %w", maxAttempts, err)
}

// Run consumes events until ctx is canceled, invoking handle for each one.
// Messages are acked on success, nacked on a transient store error (so
// JetStream redelivers), and acked-but-logged on a malformed payload
// (poison-event handling, §7).
func (s *Subscriber) Run(ctx context.Context, handle func(context.Context, RatingEvent) error) error {
	messages, err := s.sub.Subscribe(ctx, s.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.process(ctx, msg, handle)
		}
	}
}

func (s *Subscriber) process(ctx context.Context, msg *message.Message, handle func(context.Context, RatingEvent) error) {
	event, err := Unmarshal(msg.Payload)
	if err != nil {
		logging.Error().Err(err).Str("message_uuid", msg.UUID).Msg("poison event, acking and skipping")
		msg.Ack()
		return
	}

	if err := handle(ctx, event); err != nil {
		logging.Error().Err(err).Int64("content_id", event.ContentID).Msg("batch processing failed, nacking for redelivery")
		msg.Nack()
		return
	}

	metrics.EventsConsumedTotal.Inc()
	msg.Ack()
}

// Close gracefully shuts the subscriber down.
func (s *Subscriber) Close() error {
	return s.sub.Close()
}
