// Package notify carries notification events from the task service to their
// consumers: a durable per-user notification row and a live push.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mtlprog/tasktrail/internal/domain"
)

// ErrMalformedMessage is returned when a stream entry cannot be decoded.
var ErrMalformedMessage = errors.New("malformed notification message")

// Message is one event as read back by a consumer.
type Message struct {
	// ID is the transport id of the entry, empty for in-process delivery.
	ID    string
	Name  domain.EventName
	Event domain.NotificationEvent
}

// Handler processes one message. A non-nil error leaves the message
// unacknowledged where the transport supports it.
type Handler func(ctx context.Context, msg Message) error

// Source delivers every emitted message to each named group independently.
type Source interface {
	Consume(ctx context.Context, group string, handle Handler) error
}

// Stream entry field names.
const (
	fieldName    = "name"
	fieldPayload = "payload"
)

func encodeFields(name domain.EventName, event domain.NotificationEvent) (map[string]any, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return map[string]any{
		fieldName:    string(name),
		fieldPayload: string(payload),
	}, nil
}

func decodeFields(id string, values map[string]any) (Message, error) {
	name, _ := values[fieldName].(string)
	payload, _ := values[fieldPayload].(string)
	if !domain.EventName(name).IsValid() || payload == "" {
		return Message{}, fmt.Errorf("%w: entry %s has event %q", ErrMalformedMessage, id, name)
	}

	var event domain.NotificationEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return Message{}, fmt.Errorf("%w: entry %s: %w", ErrMalformedMessage, id, err)
	}
	return Message{ID: id, Name: domain.EventName(name), Event: event}, nil
}
