package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Emitter wraps payloads in a v1 envelope and hands them to a publisher.
// A nil Emitter or one without a publisher drops events, which keeps the
// core usable without a broker.
type Emitter struct {
	Pub      Publisher
	Producer string
}

func (e *Emitter) Emit(eventType, correlationID string, payload any) error {
	if e == nil || e.Pub == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.Producer,
		CorrelationID: correlationID,
		Payload:       body,
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	e.Pub.Publish(PartitionKey(correlationID), value,
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(ev.EventVersion))},
	)
	return nil
}

// Decode unwraps a payload of a known type.
func Decode[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
