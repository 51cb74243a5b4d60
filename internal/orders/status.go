package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusServed    Status = "served"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing: {StatusReady: true, StatusCancelled: true},
	StatusReady:     {StatusServed: true, StatusCancelled: true},
	StatusServed:    {StatusCompleted: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusCancelled }

// Active statuses are the ones a table is still being served under.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusServed}

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentMobileMoney PaymentMethod = "mobile_money"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobileMoney:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)
