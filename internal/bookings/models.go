package bookings

import (
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/money"
)

type Booking struct {
	ID          string      `json:"id"`
	PropertyID  string      `json:"property_id"`
	RenterID    string      `json:"renter_id"`
	CardID      string      `json:"card_id"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Status      Status      `json:"status"`
	TotalCost   money.Cents `json:"total_cost"`
	CreatedAt   time.Time   `json:"created_at"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty"`
}

// View is a booking joined with the property it is for, as listed to renters
// and agents. CurrentAmount is the nightly rate today, not what was charged.
type View struct {
	Booking
	Address       string       `json:"address"`
	City          string       `json:"city"`
	State         string       `json:"state"`
	CurrentAmount *money.Cents `json:"current_amount,omitempty"`
}

type CreateInput struct {
	PropertyID string
	RenterID   string
	CardID     string
	Start      time.Time
	End        time.Time
}

type Receipt struct {
	BookingID string      `json:"booking_id"`
	Nights    int         `json:"nights"`
	TotalCost money.Cents `json:"total_cost"`
}
