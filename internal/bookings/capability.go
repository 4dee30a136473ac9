package bookings

// Parties are the identities attached to a booking.
type Parties struct {
	RenterID string
	OwnerID  string // agent owning the property; empty if the property is gone
}

// Capability decides whether requesterID may act on a booking.
type Capability func(requesterID string, p Parties) bool

func RenterOrOwner(requesterID string, p Parties) bool {
	return RenterOnly(requesterID, p) || OwnerOnly(requesterID, p)
}

func RenterOnly(requesterID string, p Parties) bool {
	return requesterID != "" && requesterID == p.RenterID
}

func OwnerOnly(requesterID string, p Parties) bool {
	return requesterID != "" && requesterID == p.OwnerID
}
