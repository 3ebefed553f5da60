package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
// It is the only component allowed to mutate booking records.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindOverlapping retrieves the bookings for a car whose inclusive date
	// range intersects the given period, excluding cancelled bookings.
	FindOverlapping(ctx context.Context, carID uuid.UUID, period DateRange) ([]*Booking, error)

	// FindByRenter retrieves a renter's bookings, newest first.
	FindByRenter(ctx context.Context, renterID uuid.UUID) ([]*Booking, error)

	// FindByOwnerCars retrieves bookings across all cars owned by the given
	// user (joined through car ownership), newest first.
	FindByOwnerCars(ctx context.Context, ownerID uuid.UUID) ([]*Booking, error)

	// Save persists a new booking. The insert is guarded by a database
	// constraint that rejects a second overlapping non-cancelled booking for
	// the same car with a conflict error.
	Save(ctx context.Context, b *Booking) error

	// Update persists a status change with optimistic locking; a stale write
	// fails with a conflict error.
	Update(ctx context.Context, b *Booking) error

	// CountByOwnerCars returns the number of bookings on the owner's cars.
	CountByOwnerCars(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// CountByOwnerCarsAndStatus returns the number of bookings on the
	// owner's cars in the given status.
	CountByOwnerCarsAndStatus(ctx context.Context, ownerID uuid.UUID, status BookingStatus) (int64, error)

	// RevenueByOwnerCars sums the price of confirmed bookings on the owner's
	// cars created within [from, to).
	RevenueByOwnerCars(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (int64, error)

	// RecentByOwnerCars retrieves the most recently created bookings on the
	// owner's cars, newest first.
	RecentByOwnerCars(ctx context.Context, ownerID uuid.UUID, limit int) ([]*Booking, error)
}
