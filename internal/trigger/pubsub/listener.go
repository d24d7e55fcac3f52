// Package pubsub starts invocations from Cloud Pub/Sub messages.
package pubsub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"digest-backend/internal/pipeline"
	"digest-backend/pkg/cache"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// DedupWindow is how long a delivered message id is remembered. Pub/Sub
// redelivers unacked or slow-acked messages well within this window.
const DedupWindow = 24 * time.Hour

// Invoker runs one invocation.
type Invoker interface {
	RunDue(ctx context.Context, trigger pipeline.Trigger) (*pipeline.InvocationResult, error)
}

// Listener receives trigger messages and runs the due schedules for each
// one not seen before.
type Listener struct {
	client    *pubsub.Client
	topicName string
	subName   string
	invoker   Invoker
	seen      *cache.TTL
	log       *zap.Logger
}

// NewListener connects to Pub/Sub. seen is shared with any other consumer
// that must not reprocess the same message id.
func NewListener(ctx context.Context, projectID, topicName, subName, credentialsFile string, invoker Invoker, seen *cache.TTL, log *zap.Logger) (*Listener, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Listener{
		client:    client,
		topicName: shortName(topicName),
		subName:   shortName(subName),
		invoker:   invoker,
		seen:      seen,
		log:       log.Named("pubsub"),
	}, nil
}

// shortName strips a full resource path such as
// projects/p/subscriptions/name down to name.
func shortName(name string) string {
	if parts := strings.Split(name, "/"); len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return name
}

// Start blocks receiving messages until ctx is done.
func (l *Listener) Start(ctx context.Context) error {
	sub := l.client.Subscription(l.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check subscription %s: %w", l.subName, err)
	}

	if !exists {
		topic := l.client.Topic(l.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check topic %s: %w", l.topicName, err)
		}
		if !topicExists {
			return fmt.Errorf("topic %s does not exist, cannot create subscription", l.topicName)
		}

		sub, err = l.client.CreateSubscription(ctx, l.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 60 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		l.log.Info("Created subscription", zap.String("subscription", l.subName))
	}

	// Invocations are sequential; one message at a time.
	sub.ReceiveSettings.NumGoroutines = 1
	sub.ReceiveSettings.MaxOutstandingMessages = 1

	l.log.Info("Listening for trigger messages", zap.String("subscription", l.subName))
	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		l.handle(ctx, msg.ID)
		msg.Ack()
	})
}

// handle runs one invocation for messageID unless it was already handled.
// It reports whether an invocation ran.
func (l *Listener) handle(ctx context.Context, messageID string) bool {
	if l.seen.SeenOrMark(messageID) {
		l.log.Info("Skipping redelivered message", zap.String("message_id", messageID))
		return false
	}

	result, err := l.invoker.RunDue(ctx, pipeline.TriggerPubSub)
	if err != nil {
		l.log.Error("Invocation failed", zap.String("message_id", messageID), zap.Error(err))
		return true
	}
	l.log.Info("Invocation complete",
		zap.String("message_id", messageID),
		zap.Int("due", result.Due),
		zap.Int("executed", result.Executed),
		zap.Int("skipped", result.Skipped))
	return true
}

// Close releases the Pub/Sub client.
func (l *Listener) Close() error {
	return l.client.Close()
}
