package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/drivio/service-rental/internal/domain"
	"github.com/drivio/service-rental/internal/domain/booking"
	"github.com/drivio/service-rental/internal/domain/car"
)

// Availability check failure reasons, surfaced verbatim to callers.
const (
	ReasonInvalidRange   = "invalid range"
	ReasonCarNotFound    = "car not found"
	ReasonCarUnavailable = "car marked unavailable"
	ReasonDateConflict   = "date conflict"
)

// Availability is the outcome of an availability check.
type Availability struct {
	Available bool
	Reason    string
}

// AvailabilityService decides whether a car can be booked for a requested
// date range. It is read-only and safe to call repeatedly; the authoritative
// guard against the check-then-insert race lives in the repository's insert
// constraint.
type AvailabilityService struct {
	cars     car.CarRepository
	bookings booking.BookingRepository
	clock    Clock
	logger   *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	cars car.CarRepository,
	bookings booking.BookingRepository,
	clock Clock,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		cars:     cars,
		bookings: bookings,
		clock:    clock,
		logger:   logger,
	}
}

// Check validates the requested pickup/return dates against the car's
// global flag and its existing non-cancelled bookings. A non-available
// result carries one of the Reason constants; a returned error means
// infrastructure failure, not an unavailable car.
func (s *AvailabilityService) Check(ctx context.Context, carID uuid.UUID, pickup, ret time.Time) (Availability, error) {
	period, err := booking.NewDateRange(pickup, ret)
	if err != nil {
		return Availability{Reason: ReasonInvalidRange}, nil
	}
	if period.StartsBefore(s.clock.Now()) {
		return Availability{Reason: ReasonInvalidRange}, nil
	}

	c, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return Availability{Reason: ReasonCarNotFound}, nil
		}
		return Availability{}, err
	}
	if !c.IsAvailable() {
		return Availability{Reason: ReasonCarUnavailable}, nil
	}

	overlapping, err := s.bookings.FindOverlapping(ctx, carID, period)
	if err != nil {
		return Availability{}, err
	}
	if len(overlapping) > 0 {
		return Availability{Reason: ReasonDateConflict}, nil
	}

	return Availability{Available: true}, nil
}
