package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ExchangeName = "storefront.events"
	ExchangeType = "topic"

	// ContentPrefix starts every content routing key: content.<collection>.<action>.
	ContentPrefix = "content"

	eventVersion = "1.0.0"
)

// Event is the envelope published for every content change.
type Event struct {
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	EventVersion  string         `json:"event_version"`
	Timestamp     string         `json:"timestamp"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Payload       ContentPayload `json:"payload"`
}

type ContentPayload struct {
	Collection string `json:"collection"`
	Action     string `json:"action"`
	ID         string `json:"id"`
}

// RoutingKey returns the topic key for a change to collection.
func RoutingKey(collection, action string) string {
	return ContentPrefix + "." + collection + "." + action
}

// ParseRoutingKey splits content.<collection>.<action>.
func ParseRoutingKey(key string) (collection, action string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != ContentPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("not a content routing key: %q", key)
	}
	return parts[1], parts[2], nil
}

// NewContentEvent builds the envelope for one change.
func NewContentEvent(collection, action, id string, now time.Time) Event {
	return Event{
		EventID:      uuid.NewString(),
		EventType:    RoutingKey(collection, action),
		EventVersion: eventVersion,
		Timestamp:    now.UTC().Format(time.RFC3339),
		Payload:      ContentPayload{Collection: collection, Action: action, ID: id},
	}
}

// DecodeEvent parses a delivery body. The collection falls back to the
// routing key when the payload omits it.
func DecodeEvent(routingKey string, body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Payload.Collection == "" {
		collection, action, err := ParseRoutingKey(routingKey)
		if err != nil {
			return Event{}, err
		}
		event.Payload.Collection = collection
		event.Payload.Action = action
	}
	return event, nil
}
