package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Shreyas165/Find-My-Teacher/internal/models"
)

// EventHandler processes one directory event. A returned error naks the message.
type EventHandler func(ctx context.Context, evt models.DirectoryEvent) error

// InstanceConsumerName returns a consumer name unique to this process. JetStream splits a
// consumer's messages between fetchers, so each API instance needs its own consumer to see
// every event. Abandoned consumers expire through InactiveThreshold.
func InstanceConsumerName(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

type Consumer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewConsumer(natsURL string) (*Consumer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{nc: nc, js: js}, nil
}

// ConsumeDirectoryEvents delivers new directory events to handler until ctx is done.
// Each API instance should use its own consumerName so every instance sees every event.
func (c *Consumer) ConsumeDirectoryEvents(ctx context.Context, consumerName string, handler EventHandler) error {
	stream, err := c.js.Stream(ctx, DirectoryStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", DirectoryStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:              consumerName,
		AckPolicy:         jetstream.AckExplicitPolicy,
		AckWait:           10 * time.Second,
		MaxDeliver:        3,
		FilterSubject:     DirectorySubjectBase + ".>",
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("fetch directory events", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				handleMessage(ctx, msg, handler)
			}
		}
	}()

	slog.Info("directory event consumer started", "consumer", consumerName)
	return nil
}

func handleMessage(ctx context.Context, msg jetstream.Msg, handler EventHandler) {
	var evt models.DirectoryEvent
	if err := json.Unmarshal(msg.Data(), &evt); err != nil {
		// Redelivery cannot fix a malformed payload.
		slog.Error("decode directory event", "subject", msg.Subject(), "error", err)
		_ = msg.Term()
		return
	}
	if err := handler(ctx, evt); err != nil {
		slog.Error("process directory event", "event_id", evt.ID, "error", err)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

func (c *Consumer) Close() {
	c.nc.Close()
}
