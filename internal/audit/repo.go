package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
	"github.com/google/uuid"
)

// Entry is one booking event as recorded in the audit trail.
type Entry struct {
	EventID    string          `json:"event_id"`
	BookingID  string          `json:"booking_id"`
	EventType  string          `json:"event_type"`
	Producer   string          `json:"producer"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type Repo struct{ DB postgres.Querier }

// Append records e once. It reports false when the event id is already in
// the trail.
func (r *Repo) Append(ctx context.Context, e Entry) (bool, error) {
	tag, err := r.DB.Exec(ctx, `
		INSERT INTO booking_events (event_id, booking_id, event_type, producer, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING`,
		e.EventID, e.BookingID, e.EventType, e.Producer, e.OccurredAt, []byte(e.Payload),
	)
	if err != nil {
		return false, fmt.Errorf("append booking event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// History lists the recorded events of a booking in the order they happened.
// A malformed id is reported as an unknown booking.
func (r *Repo) History(ctx context.Context, bookingID string) ([]Entry, error) {
	if _, err := uuid.Parse(bookingID); err != nil {
		return nil, apperr.NotFound("booking", bookingID)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT event_id, booking_id, event_type, producer, occurred_at, payload, recorded_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY occurred_at, recorded_at`, bookingID)
	if err != nil {
		return nil, apperr.Storage("failed to read booking history", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			payload []byte
		)
		if err := rows.Scan(&e.EventID, &e.BookingID, &e.EventType, &e.Producer, &e.OccurredAt, &payload, &e.RecordedAt); err != nil {
			return nil, apperr.Storage("failed to read booking history", err)
		}
		e.Payload = payload
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("failed to read booking history", err)
	}
	return out, nil
}
