package tables

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/validation"
)

var (
	ErrNotFound            = errors.New("table not found")
	ErrDuplicateNumber     = errors.New("table number already exists")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrOverCapacity        = errors.New("guests count exceeds table capacity")
	ErrAlreadyBooked       = errors.New("table already reserved at this date and time")
	ErrAlreadyCancelled    = errors.New("reservation already cancelled")
	ErrInUse               = errors.New("table has orders or reservations")
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusOccupied  Status = "occupied"
	StatusReserved  Status = "reserved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusReserved:
		return true
	}
	return false
}

type Table struct {
	ID       string `json:"id"`
	Number   int    `json:"number"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
	Status   Status `json:"status"`
}

// Bookable reports whether a new order may be opened on the table.
func (t Table) Bookable() bool { return t.Status != StatusReserved }

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

// Active reservations block the slot for other bookings.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

type Reservation struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	TableID         string            `json:"table_id"`
	Date            string            `json:"date"` // YYYY-MM-DD
	Time            string            `json:"time"` // HH:MM
	GuestsCount     int               `json:"guests_count"`
	SpecialRequests string            `json:"special_requests,omitempty"`
	Status          ReservationStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

type ReservationFilter struct {
	UserID string
	Date   string
	Status ReservationStatus
}

func (f ReservationFilter) Match(r Reservation) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.Date != "" && r.Date != f.Date {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

type Store interface {
	Get(ctx context.Context, id string) (Table, error)
	// GetForUpdate locks the table row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (Table, error)
	List(ctx context.Context) ([]Table, error)
	ListByStatus(ctx context.Context, s Status) ([]Table, error)
	Create(ctx context.Context, t Table) (Table, error)
	Update(ctx context.Context, t Table) (Table, error)
	// Delete fails with ErrInUse once orders or reservations point at the table.
	Delete(ctx context.Context, id string) error

	CreateReservation(ctx context.Context, r Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error)
	SetReservationStatus(ctx context.Context, id string, s ReservationStatus) (Reservation, error)
	// SlotTaken reports an active reservation on the table at date+time.
	SlotTaken(ctx context.Context, tableID, date, at string) (bool, error)
}

func Validate(t Table) error {
	errs := validation.Errors{}
	if t.Number < 1 {
		errs.Add("number", "must be at least 1")
	}
	if t.Capacity < 1 {
		errs.Add("capacity", "must be at least 1")
	}
	if len(t.Location) > 255 {
		errs.Add("location", "must be at most 255 characters")
	}
	if t.Status != "" && !t.Status.Valid() {
		errs.Add("status", "must be one of available, occupied, reserved")
	}
	return errs.Err()
}
