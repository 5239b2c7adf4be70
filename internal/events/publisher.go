package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/fieldline-ai/genie-bridge/internal/genie"
	"github.com/fieldline-ai/genie-bridge/internal/model"
	"github.com/fieldline-ai/genie-bridge/pkg/logger"
)

const (
	// StreamName is the JetStream stream holding question events.
	StreamName = "GENIE_EVENTS"

	// SubjectPrefix is the prefix for all question-event subjects.
	SubjectPrefix = "genie"
)

// EventType classifies a question lifecycle event.
type EventType string

const (
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventTimeout   EventType = "timeout"
)

// QuestionEvent is the published record of a finished (or abandoned)
// question turn.
type QuestionEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	SpaceID        string    `json:"space_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	MessageID      string    `json:"message_id,omitempty"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	RowCount       int       `json:"row_count,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Publisher emits question lifecycle events to JetStream. It implements
// genie.EventSink. Publish failures are logged, never propagated: events
// are telemetry, not part of the tool contract.
type Publisher struct {
	client *Client
	logger *logger.Logger
}

// NewPublisher creates a publisher on an established NATS client.
func NewPublisher(client *Client, log *logger.Logger) *Publisher {
	return &Publisher{client: client, logger: log}
}

// EnsureStream creates the events stream if it does not exist yet.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Genie question lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Subject returns the subject for an event in a space.
func Subject(spaceID string, typ EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, spaceID, typ)
}

// QuestionCompleted implements genie.EventSink.
func (p *Publisher) QuestionCompleted(ctx context.Context, ans *model.Answer) {
	p.publish(ctx, completedEvent(ans))
}

// QuestionFailed implements genie.EventSink.
func (p *Publisher) QuestionFailed(ctx context.Context, spaceID, conversationID, messageID string, cause error) {
	p.publish(ctx, failedEvent(spaceID, conversationID, messageID, cause))
}

func completedEvent(ans *model.Answer) *QuestionEvent {
	ev := &QuestionEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Type:           EventCompleted,
		SpaceID:        ans.SpaceID,
		ConversationID: ans.ConversationID,
		MessageID:      ans.MessageID,
		CreatedAt:      time.Now(),
	}
	if ans.Result != nil {
		ev.RowCount = len(ans.Result.Rows)
	}
	return ev
}

func failedEvent(spaceID, conversationID, messageID string, cause error) *QuestionEvent {
	ev := &QuestionEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Type:           EventFailed,
		SpaceID:        spaceID,
		ConversationID: conversationID,
		MessageID:      messageID,
		Reason:         cause.Error(),
		CreatedAt:      time.Now(),
	}
	if e := genie.AsError(cause); e != nil {
		ev.ErrorKind = string(e.Kind)
		if e.Kind == genie.KindTimeout {
			ev.Type = EventTimeout
		}
	}
	return ev
}

func (p *Publisher) publish(ctx context.Context, ev *QuestionEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	if _, err := p.client.JetStream().Publish(ctx, Subject(ev.SpaceID, ev.Type), data); err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("type", string(ev.Type)),
			zap.String("space_id", ev.SpaceID),
			zap.Error(err),
		)
	}
}
