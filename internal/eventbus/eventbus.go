// Package eventbus provides the watermill publisher/subscriber pair shared by
// all modules. Production runs over NATS JetStream; tests and local
// development use an in-process channel.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventBus publishes and subscribes to topics.
type EventBus interface {
	message.Publisher
	message.Subscriber

	// Subscriber returns a subscriber in its own consumer group: each group
	// receives every message once, shared across instances.
	Subscriber(group string) (message.Subscriber, error)
	// BroadcastSubscriber returns a subscriber that receives every new message
	// on this instance only, without a durable consumer.
	BroadcastSubscriber() (message.Subscriber, error)
}

// Config controls the NATS connection.
type Config struct {
	URL         string
	ServiceName string
	StreamName  string
	Subjects    []string
}

// DefaultSubjects covers every topic published by the service.
var DefaultSubjects = []string{"user.>", "wallet.>", "game.>", "leaderboard.>", "promo.>"}

type natsEventBus struct {
	publisher  *wmnats.Publisher
	subscriber *wmnats.Subscriber
	conn       *nc.Conn
	logger     *slog.Logger

	cfg       Config
	options   []nc.Option
	marshaler wmnats.MarshalerUnmarshaler

	mu    sync.Mutex
	extra []*wmnats.Subscriber
}

// NewEventBus connects to NATS, ensures the JetStream stream exists and
// returns a watermill-backed EventBus.
func NewEventBus(ctx context.Context, cfg Config, logger *slog.Logger) (EventBus, error) {
	if cfg.StreamName == "" {
		cfg.StreamName = "DINGLEUP"
	}
	if len(cfg.Subjects) == 0 {
		cfg.Subjects = DefaultSubjects
	}

	options := []nc.Option{
		nc.Name(cfg.ServiceName),
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(1 * time.Second),
		nc.ErrorHandler(func(_ *nc.Conn, s *nc.Subscription, err error) {
			if s != nil {
				logger.Error("Error in NATS subscription", attr.String("subject", s.Subject), attr.Error(err))
				return
			}
			logger.Error("Error in NATS connection", attr.Error(err))
		}),
	}

	conn, err := nc.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  cfg.Subjects,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &wmnats.NATSMarshaler{}
	jsConfig := wmnats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: false,
		TrackMsgId:    true,
		DurablePrefix: cfg.ServiceName,
	}

	publisher, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: options,
		Marshaler:   marshaler,
		JetStream:   jsConfig,
	}, wmLogger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create watermill NATS publisher: %w", err)
	}

	bus := &natsEventBus{
		publisher: publisher,
		conn:      conn,
		logger:    logger,
		cfg:       cfg,
		options:   options,
		marshaler: marshaler,
	}

	subscriber, err := bus.newSubscriber(cfg.ServiceName, jsConfig)
	if err != nil {
		_ = publisher.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to create watermill NATS subscriber: %w", err)
	}

	logger.InfoContext(ctx, "Event bus connected",
		attr.String("nats_url", cfg.URL),
		attr.String("stream", cfg.StreamName),
	)

	bus.subscriber = subscriber
	return bus, nil
}

func (b *natsEventBus) newSubscriber(queueGroup string, jsConfig wmnats.JetStreamConfig) (*wmnats.Subscriber, error) {
	return wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              b.cfg.URL,
		QueueGroupPrefix: queueGroup,
		SubscribersCount: 4,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		NatsOptions:      b.options,
		Unmarshaler:      b.marshaler,
		JetStream:        jsConfig,
	}, watermill.NewSlogLogger(b.logger))
}

func (b *natsEventBus) track(sub *wmnats.Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.extra = append(b.extra, sub)
}

func (b *natsEventBus) Subscriber(group string) (message.Subscriber, error) {
	name := b.cfg.ServiceName + "-" + group
	sub, err := b.newSubscriber(name, wmnats.JetStreamConfig{
		AutoProvision: false,
		TrackMsgId:    true,
		DurablePrefix: name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s subscriber: %w", group, err)
	}
	b.track(sub)
	return sub, nil
}

func (b *natsEventBus) BroadcastSubscriber() (message.Subscriber, error) {
	sub, err := b.newSubscriber("", wmnats.JetStreamConfig{
		AutoProvision:    false,
		SubscribeOptions: []nc.SubOpt{nc.DeliverNew()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create broadcast subscriber: %w", err)
	}
	b.track(sub)
	return sub, nil
}

func (b *natsEventBus) Publish(topic string, messages ...*message.Message) error {
	return b.publisher.Publish(topic, messages...)
}

func (b *natsEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *natsEventBus) Close() error {
	var firstErr error
	b.mu.Lock()
	subs := append([]*wmnats.Subscriber{b.subscriber}, b.extra...)
	b.mu.Unlock()
	for _, sub := range subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close subscriber: %w", err)
		}
	}
	if err := b.publisher.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close publisher: %w", err)
	}
	b.conn.Close()
	return firstErr
}

type inMemoryEventBus struct {
	*gochannel.GoChannel
}

// NewInMemory returns an EventBus backed by a watermill gochannel. Every
// subscriber of a topic receives every message, so groups need no isolation.
func NewInMemory(logger *slog.Logger) EventBus {
	return inMemoryEventBus{gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, watermill.NewSlogLogger(logger))}
}

func (b inMemoryEventBus) Subscriber(string) (message.Subscriber, error) {
	return b.GoChannel, nil
}

func (b inMemoryEventBus) BroadcastSubscriber() (message.Subscriber, error) {
	return b.GoChannel, nil
}

// NewMessage marshals payload into a watermill message carrying the
// correlation id found on ctx.
func NewMessage(ctx context.Context, payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	correlationID := attr.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = watermill.NewUUID()
	}
	middleware.SetCorrelationID(correlationID, msg)
	return msg, nil
}

// PublishJSON marshals payload and publishes it on topic.
func PublishJSON(ctx context.Context, pub message.Publisher, topic string, payload any) error {
	if pub == nil {
		return nil
	}
	msg, err := NewMessage(ctx, payload)
	if err != nil {
		return err
	}
	if err := pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}
