// Package audit consumes booking events and keeps an append-only trail of
// them per booking.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-rental-ledger/internal/events"
	"github.com/ariefcatur/go-rental-ledger/internal/logger"
	"github.com/ariefcatur/go-rental-ledger/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type Store interface {
	Append(ctx context.Context, e Entry) (bool, error)
}

type Service struct {
	Store       Store
	Redis       redis.Cmdable
	ServiceName string
	Log         *logger.Logger
}

type bookingRef struct {
	BookingID string `json:"booking_id"`
}

// HandleBookingEvent is installed as the consumer handler. Redelivered
// events are dropped by the redis claim; the table's primary key catches
// whatever slips past it.
func (s *Service) HandleBookingEvent(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Warn("dropping undecodable message", "offset", m.Offset, "error", err)
		return nil
	}
	if env.EventType != events.EventBookingCreated && env.EventType != events.EventBookingCancelled {
		return nil
	}

	bookingID := env.CorrelationID
	if bookingID == "" {
		if ref, err := events.Decode[bookingRef](env.Payload); err == nil {
			bookingID = ref.BookingID
		}
	}
	if _, err := uuid.Parse(env.EventID); err != nil {
		s.Log.Warn("dropping event without a valid id", "event_id", env.EventID)
		return nil
	}
	if _, err := uuid.Parse(bookingID); err != nil {
		s.Log.Warn("dropping event without a valid booking id", "event_id", env.EventID, "booking_id", bookingID)
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	claimed := true
	if s.Redis != nil {
		ok, err := redisx.Claim(ctx, s.Redis, dkey, redisx.TTLDedup)
		if err != nil {
			s.Log.Warn("dedup unavailable, relying on the table", "error", err)
		} else {
			claimed = ok
		}
	}
	if !claimed {
		return nil
	}

	payload := env.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	inserted, err := s.Store.Append(ctx, Entry{
		EventID:    env.EventID,
		BookingID:  bookingID,
		EventType:  env.EventType,
		Producer:   env.Producer,
		OccurredAt: env.OccurredAt,
		Payload:    payload,
	})
	if err != nil {
		if s.Redis != nil {
			_ = redisx.Release(ctx, s.Redis, dkey)
		}
		return err
	}
	if inserted {
		s.Log.Debug("booking event recorded", "booking_id", bookingID, "event_type", env.EventType)
	}
	return nil
}
