package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/drivio/service-rental/internal/domain"
	bookingDomain "github.com/drivio/service-rental/internal/domain/booking"
	carDomain "github.com/drivio/service-rental/internal/domain/car"
	"github.com/drivio/service-rental/internal/events"
)

const dateLayout = "2006-01-02"

// EventPublisher publishes booking lifecycle events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event events.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	CarID      uuid.UUID `json:"carId" binding:"required"`
	PickupDate string    `json:"pickupDate" binding:"required"`
	ReturnDate string    `json:"returnDate" binding:"required"`
}

// ChangeStatusRequest holds the data for an owner status transition.
type ChangeStatusRequest struct {
	BookingID uuid.UUID `json:"bookingId" binding:"required"`
	Status    string    `json:"status" binding:"required"`
}

// CarDTO is the response representation of a car listing.
type CarDTO struct {
	ID               uuid.UUID `json:"id"`
	OwnerID          uuid.UUID `json:"ownerId"`
	Brand            string    `json:"brand"`
	Model            string    `json:"model"`
	Year             int       `json:"year"`
	Category         string    `json:"category"`
	Location         string    `json:"location"`
	ImageURL         string    `json:"image,omitempty"`
	PricePerDayCents int64     `json:"pricePerDayCents"`
	IsAvailable      bool      `json:"isAvailable"`
}

// BookingDTO is the response representation of a booking, with the car
// denormalized for display.
type BookingDTO struct {
	ID            uuid.UUID `json:"id"`
	BookingNumber string    `json:"bookingNumber"`
	CarID         uuid.UUID `json:"carId"`
	RenterID      uuid.UUID `json:"renterId"`
	Status        string    `json:"status"`
	PickupDate    string    `json:"pickupDate"`
	ReturnDate    string    `json:"returnDate"`
	PriceCents    int64     `json:"priceCents"`
	CreatedAt     time.Time `json:"createdAt"`
	Car           *CarDTO   `json:"car,omitempty"`
}

// BookingService orchestrates the booking lifecycle: creation behind the
// availability check, and owner status transitions.
type BookingService struct {
	bookings     bookingDomain.BookingRepository
	cars         carDomain.CarRepository
	availability *AvailabilityService
	producer     EventPublisher
	clock        Clock
	logger       *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	cars carDomain.CarRepository,
	availability *AvailabilityService,
	producer EventPublisher,
	clock Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		cars:         cars,
		availability: availability,
		producer:     producer,
		clock:        clock,
		logger:       logger,
	}
}

// CreateBooking creates a pending booking for the renter after a successful
// availability check. The checker's failure reason is surfaced verbatim.
// Even after the check passes, the insert itself can lose the race against a
// concurrent overlapping booking; the repository surfaces that as a conflict.
func (s *BookingService) CreateBooking(ctx context.Context, renterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	pickup, err := time.Parse(dateLayout, req.PickupDate)
	if err != nil {
		return nil, domain.NewValidationError("invalid pickup date")
	}
	ret, err := time.Parse(dateLayout, req.ReturnDate)
	if err != nil {
		return nil, domain.NewValidationError("invalid return date")
	}

	avail, err := s.availability.Check(ctx, req.CarID, pickup, ret)
	if err != nil {
		return nil, fmt.Errorf("availability check failed: %w", err)
	}
	if !avail.Available {
		return nil, availabilityError(avail.Reason, req.CarID)
	}

	period, err := bookingDomain.NewDateRange(pickup, ret)
	if err != nil {
		return nil, err
	}

	c, err := s.cars.FindByID(ctx, req.CarID)
	if err != nil {
		return nil, err
	}

	priceCents := c.PricePerDayCents() * int64(period.Days())

	bk, err := bookingDomain.NewBooking(req.CarID, renterID, period, priceCents, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, err
	}

	s.publishBookingRequested(ctx, bk, c)

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("car_id", c.ID().String()),
		zap.Int64("price_cents", bk.PriceCents()),
	)

	result := toBookingDTO(bk, c)
	return &result, nil
}

// ChangeStatus performs an owner-gated status transition. Legality is
// re-validated against the freshly read booking, and the write is guarded by
// optimistic locking so a concurrent transition surfaces as a conflict.
func (s *BookingService) ChangeStatus(ctx context.Context, actingOwnerID uuid.UUID, req ChangeStatusRequest) (*BookingDTO, error) {
	target, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	c, err := s.cars.FindByID(ctx, bk.CarID())
	if err != nil {
		return nil, err
	}
	if !c.IsOwnedBy(actingOwnerID) {
		return nil, domain.NewForbiddenError("booking does not belong to this owner")
	}

	oldStatus := bk.Status()
	now := s.clock.Now()
	if err := bk.TransitionTo(target, now); err != nil {
		return nil, err
	}

	bk.IncrementVersion(now)
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, bk, c, oldStatus)

	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("from", oldStatus.String()),
		zap.String("to", bk.Status().String()),
	)

	result := toBookingDTO(bk, c)
	return &result, nil
}

// ListRenterBookings retrieves the renter's bookings, newest first, with car
// details attached.
func (s *BookingService) ListRenterBookings(ctx context.Context, renterID uuid.UUID) ([]BookingDTO, error) {
	bookings, err := s.bookings.FindByRenter(ctx, renterID)
	if err != nil {
		return nil, err
	}
	return s.attachCars(ctx, bookings)
}

// ListOwnerBookings retrieves the bookings across all of the owner's cars,
// newest first, with car details attached.
func (s *BookingService) ListOwnerBookings(ctx context.Context, ownerID uuid.UUID) ([]BookingDTO, error) {
	bookings, err := s.bookings.FindByOwnerCars(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.attachCars(ctx, bookings)
}

// --- Helpers ---

// availabilityError maps a checker reason to the matching domain error while
// keeping the reason text intact.
func availabilityError(reason string, carID uuid.UUID) error {
	switch reason {
	case ReasonCarNotFound:
		return domain.NewNotFoundError("car", carID.String())
	case ReasonDateConflict:
		return domain.NewConflictError(reason)
	default:
		return domain.NewValidationError(reason)
	}
}

func (s *BookingService) attachCars(ctx context.Context, bookings []*bookingDomain.Booking) ([]BookingDTO, error) {
	ids := make([]uuid.UUID, 0, len(bookings))
	seen := make(map[uuid.UUID]bool, len(bookings))
	for _, bk := range bookings {
		if !seen[bk.CarID()] {
			seen[bk.CarID()] = true
			ids = append(ids, bk.CarID())
		}
	}

	carsByID, err := s.cars.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk, carsByID[bk.CarID()])
	}
	return dtos, nil
}

func toBookingDTO(bk *bookingDomain.Booking, c *carDomain.Car) BookingDTO {
	dto := BookingDTO{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CarID:         bk.CarID(),
		RenterID:      bk.RenterID(),
		Status:        bk.Status().String(),
		PickupDate:    bk.Period().Pickup().Format(dateLayout),
		ReturnDate:    bk.Period().Return().Format(dateLayout),
		PriceCents:    bk.PriceCents(),
		CreatedAt:     bk.CreatedAt(),
	}
	if c != nil {
		carDTO := toCarDTO(c)
		dto.Car = &carDTO
	}
	return dto
}

func toCarDTO(c *carDomain.Car) CarDTO {
	return CarDTO{
		ID:               c.ID(),
		OwnerID:          c.OwnerID(),
		Brand:            c.Brand(),
		Model:            c.Model(),
		Year:             c.Year(),
		Category:         c.Category(),
		Location:         c.Location(),
		ImageURL:         c.ImageURL(),
		PricePerDayCents: c.PricePerDayCents(),
		IsAvailable:      c.IsAvailable(),
	}
}

func (s *BookingService) publishBookingRequested(ctx context.Context, bk *bookingDomain.Booking, c *carDomain.Car) {
	evt := events.BookingRequestedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CarID:         bk.CarID(),
		OwnerID:       c.OwnerID(),
		RenterID:      bk.RenterID(),
		PickupDate:    bk.Period().Pickup().Format(dateLayout),
		ReturnDate:    bk.Period().Return().Format(dateLayout),
		PriceCents:    bk.PriceCents(),
		OccurredAt:    s.clock.Now(),
	}
	s.publishEvent(ctx, events.BookingRequested, bk.ID().String(), evt)
}

func (s *BookingService) publishStatusChanged(ctx context.Context, bk *bookingDomain.Booking, c *carDomain.Car, oldStatus bookingDomain.BookingStatus) {
	eventType := events.BookingConfirmed
	if bk.Status() == bookingDomain.StatusCancelled {
		eventType = events.BookingCancelled
	}
	evt := events.BookingStatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CarID:         bk.CarID(),
		OwnerID:       c.OwnerID(),
		RenterID:      bk.RenterID(),
		OldStatus:     oldStatus.String(),
		NewStatus:     bk.Status().String(),
		OccurredAt:    s.clock.Now(),
	}
	s.publishEvent(ctx, eventType, bk.ID().String(), evt)
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	if s.producer == nil {
		return
	}
	cloudEvent, err := events.NewCloudEvent("service-rental", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
