package tables

import (
	"context"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/validation"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type BookingRequest struct {
	TableID         string `json:"table_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	GuestsCount     int    `json:"guests_count"`
	SpecialRequests string `json:"special_requests"`
}

// normalize validates req and returns it with date and time in their
// canonical layouts, so "9:05" and "09:05" name the same slot.
func (req BookingRequest) normalize(now time.Time) (BookingRequest, error) {
	errs := validation.Errors{}
	if req.TableID == "" {
		errs.Add("table_id", "is required")
	}
	if req.Date == "" {
		errs.Add("date", "is required")
	} else if day, err := time.ParseInLocation(dateLayout, req.Date, now.Location()); err != nil {
		errs.Add("date", "must be formatted YYYY-MM-DD")
	} else {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if !day.After(today) {
			errs.Add("date", "must be after today")
		}
		req.Date = day.Format(dateLayout)
	}
	if req.Time == "" {
		errs.Add("time", "is required")
	} else if at, err := time.Parse(timeLayout, req.Time); err != nil {
		errs.Add("time", "must be formatted HH:MM")
	} else {
		req.Time = at.Format(timeLayout)
	}
	if req.GuestsCount < 1 {
		errs.Add("guests_count", "must be at least 1")
	}
	if len(req.SpecialRequests) > 500 {
		errs.Add("special_requests", "must be at most 500 characters")
	}
	return req, errs.Err()
}

// Book creates a pending reservation for userID. Callers run it inside a
// transaction: the table row stays locked until commit so two bookings of
// one table run one after the other.
func Book(ctx context.Context, s Store, userID string, req BookingRequest, now time.Time) (Reservation, error) {
	req, err := req.normalize(now)
	if err != nil {
		return Reservation{}, err
	}
	t, err := s.GetForUpdate(ctx, req.TableID)
	if err != nil {
		return Reservation{}, err
	}
	if req.GuestsCount > t.Capacity {
		return Reservation{}, ErrOverCapacity
	}
	taken, err := s.SlotTaken(ctx, t.ID, req.Date, req.Time)
	if err != nil {
		return Reservation{}, err
	}
	if taken {
		return Reservation{}, ErrAlreadyBooked
	}
	return s.CreateReservation(ctx, Reservation{
		UserID:          userID,
		TableID:         t.ID,
		Date:            req.Date,
		Time:            req.Time,
		GuestsCount:     req.GuestsCount,
		SpecialRequests: req.SpecialRequests,
		Status:          ReservationPending,
		CreatedAt:       now,
	})
}

// CancelOwn cancels a reservation that belongs to userID.
func CancelOwn(ctx context.Context, s Store, userID, id string) (Reservation, error) {
	r, err := s.GetReservation(ctx, id)
	if err != nil {
		return Reservation{}, err
	}
	if r.UserID != userID {
		return Reservation{}, ErrReservationNotFound
	}
	if r.Status == ReservationCancelled {
		return Reservation{}, ErrAlreadyCancelled
	}
	return s.SetReservationStatus(ctx, id, ReservationCancelled)
}
