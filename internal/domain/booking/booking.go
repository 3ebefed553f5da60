package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/drivio/service-rental/internal/domain"
	"github.com/google/uuid"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the booking domain. It is created in
// pending state and never physically deleted; cancelled and confirmed
// bookings are retained for audit and dashboard aggregation.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	carID         uuid.UUID
	renterID      uuid.UUID
	status        BookingStatus
	period        DateRange
	priceCents    int64

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending. The price
// must already be computed (daily rate times billable days) and the creation
// instant is supplied by the caller's clock.
func NewBooking(carID, renterID uuid.UUID, period DateRange, priceCents int64, now time.Time) (*Booking, error) {
	if carID == uuid.Nil {
		return nil, domain.NewValidationError("car ID is required")
	}
	if renterID == uuid.Nil {
		return nil, domain.NewValidationError("renter ID is required")
	}
	if priceCents <= 0 {
		return nil, domain.NewValidationError("price must be positive")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	ts := now.UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		carID:         carID,
		renterID:      renterID,
		status:        StatusPending,
		period:        period,
		priceCents:    priceCents,
		version:       1,
		createdAt:     ts,
		updatedAt:     ts,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	carID uuid.UUID,
	renterID uuid.UUID,
	status BookingStatus,
	period DateRange,
	priceCents int64,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		bookingNumber: bookingNumber,
		carID:         carID,
		renterID:      renterID,
		status:        status,
		period:        period,
		priceCents:    priceCents,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// CarID returns the booked car's ID.
func (b *Booking) CarID() uuid.UUID { return b.carID }

// RenterID returns the renting user's ID.
func (b *Booking) RenterID() uuid.UUID { return b.renterID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Period returns the booked date range.
func (b *Booking) Period() DateRange { return b.period }

// PriceCents returns the total rental price in cents.
func (b *Booking) PriceCents() int64 { return b.priceCents }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// TransitionTo moves the booking to the target status if the state machine
// allows it. Confirming or cancelling anything other than a pending booking,
// and same-state no-ops, are rejected.
func (b *Booking) TransitionTo(target BookingStatus, now time.Time) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	b.status = target
	b.updatedAt = now.UTC()
	return nil
}

// Confirm transitions the booking from pending to confirmed.
func (b *Booking) Confirm(now time.Time) error {
	return b.TransitionTo(StatusConfirmed, now)
}

// Cancel transitions the booking from pending to cancelled, freeing its
// date range.
func (b *Booking) Cancel(now time.Time) error {
	return b.TransitionTo(StatusCancelled, now)
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion(now time.Time) {
	b.version++
	b.updatedAt = now.UTC()
}
