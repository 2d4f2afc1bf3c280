package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shreyas165/Find-My-Teacher/internal/models"
	"github.com/Shreyas165/Find-My-Teacher/internal/observability"
)

// Recorder receives an event for every directory write. It must not fail the write.
type Recorder interface {
	Record(ctx context.Context, evt models.DirectoryEvent)
}

// EventSink forwards directory events, e.g. to NATS or connected websocket clients.
type EventSink interface {
	Publish(ctx context.Context, evt models.DirectoryEvent) error
}

const publishTimeout = 3 * time.Second

// AuditLog writes an audit line for each event and fans it out to the configured sinks.
type AuditLog struct {
	logger *slog.Logger
	sinks  []EventSink
}

func NewAuditLog(logger *slog.Logger, sinks ...EventSink) *AuditLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLog{logger: logger.With("component", "audit"), sinks: sinks}
}

func (a *AuditLog) Record(ctx context.Context, evt models.DirectoryEvent) {
	a.logger.Info("directory change",
		"event_id", evt.ID,
		"action", evt.Action,
		"person_id", evt.PersonID,
		"name", evt.Name,
		"actor", evt.Actor,
	)

	for _, sink := range a.sinks {
		// The request may be finishing; publishing must outlive it briefly.
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		err := sink.Publish(pubCtx, evt)
		cancel()
		if err != nil {
			observability.AuditPublishFailures.Inc()
			a.logger.Warn("publish directory event", "event_id", evt.ID, "error", err)
		}
	}
}
