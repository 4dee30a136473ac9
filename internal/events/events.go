package events

import (
	"encoding/json"
	"time"
)

const (
	EventBookingCreated   = "BookingCreated"
	EventBookingCancelled = "BookingCancelled"
	EventPropertyUpserted = "PropertyUpserted"
	EventPropertyDeleted  = "PropertyDeleted"
	EventPriceChanged     = "PriceChanged"
)

const (
	TopicBookings   = "rental.bookings"
	TopicProperties = "rental.properties"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // booking_id or property_id
	Payload       json.RawMessage `json:"payload"`
}

type BookingCreatedPayload struct {
	BookingID  string `json:"booking_id"`
	PropertyID string `json:"property_id"`
	RenterID   string `json:"renter_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Nights     int    `json:"nights"`
	TotalCents int64  `json:"total_cents"`
}

type BookingCancelledPayload struct {
	BookingID   string `json:"booking_id"`
	PropertyID  string `json:"property_id"`
	RenterID    string `json:"renter_id"`
	RefundCents int64  `json:"refund_cents"`
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason"` // REQUESTED | PROPERTY_DELETED
}

type PropertyPayload struct {
	PropertyID string `json:"property_id"`
	OwnerID    string `json:"owner_id"`
	Kind       string `json:"kind,omitempty"`
	PriceCents *int64 `json:"price_cents,omitempty"`
}

// Partition key = correlation id so every event of one booking stays ordered.
func PartitionKey(id string) []byte { return []byte(id) }
