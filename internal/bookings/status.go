package bookings

type Status string

const (
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusConfirmed: {StatusCancelled: true},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
