package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/pkg/kafka/consumer"
)

// EventConsumer reads the workflow events the outbox relay publishes.
type EventConsumer struct {
	*consumer.Consumer
}

func NewEventConsumer(consumer *consumer.Consumer) *EventConsumer {
	return &EventConsumer{consumer}
}

// ReadEvent blocks for the next event and commits it once decoded. A
// payload that does not decode is committed too, so it is not read again.
func (ec *EventConsumer) ReadEvent(ctx context.Context) (entity.WorkflowEvent, error) {
	msg, err := ec.Reader.FetchMessage(ctx)
	if err != nil {
		return entity.WorkflowEvent{}, fmt.Errorf("EventConsumer - ReadEvent - ec.Reader.FetchMessage: %w", err)
	}

	var event entity.WorkflowEvent
	decodeErr := json.Unmarshal(msg.Value, &event)

	if err = ec.Reader.CommitMessages(ctx, msg); err != nil {
		return entity.WorkflowEvent{}, fmt.Errorf("EventConsumer - ReadEvent - ec.Reader.CommitMessages: %w", err)
	}

	if decodeErr != nil {
		return entity.WorkflowEvent{}, fmt.Errorf("EventConsumer - ReadEvent - json.Unmarshal offset %d: %w", msg.Offset, decodeErr)
	}

	return event, nil
}

func (ec *EventConsumer) Close() error {
	err := ec.Consumer.Close()
	if err != nil {
		return fmt.Errorf("EventConsumer - Close: %w", err)
	}

	return nil
}
