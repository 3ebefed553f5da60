package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/drivio/service-rental/internal/domain"
	bookingDomain "github.com/drivio/service-rental/internal/domain/booking"
)

// Postgres SQLSTATE codes that indicate the insert lost the race against a
// concurrent overlapping booking.
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

// BookingModel is the GORM model for the bookings table. The schema carries
// an exclusion constraint on (car_id, daterange) for non-cancelled rows, so
// the availability check is authoritative at insert time (see migrations).
type BookingModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingNumber string    `gorm:"uniqueIndex;not null;size:20"`
	CarID         uuid.UUID `gorm:"type:uuid;index;not null"`
	RenterID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Status        string    `gorm:"not null;size:20;index"`
	PickupDate    time.Time `gorm:"type:date;not null"`
	ReturnDate    time.Time `gorm:"type:date;not null"`
	PriceCents    int64     `gorm:"not null"`
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null;index"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindOverlapping retrieves the non-cancelled bookings for a car whose
// inclusive range intersects the given period.
func (r *GormBookingRepository) FindOverlapping(ctx context.Context, carID uuid.UUID, period bookingDomain.DateRange) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	err := r.db.WithContext(ctx).
		Where("car_id = ?", carID).
		Where("status <> ?", bookingDomain.StatusCancelled.String()).
		Where("pickup_date <= ? AND return_date >= ?", period.Return(), period.Pickup()).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByRenter retrieves a renter's bookings, newest first.
func (r *GormBookingRepository) FindByRenter(ctx context.Context, renterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	err := r.db.WithContext(ctx).
		Where("renter_id = ?", renterID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find renter bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByOwnerCars retrieves bookings across the owner's cars, newest first.
func (r *GormBookingRepository) FindByOwnerCars(ctx context.Context, ownerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Joins("JOIN cars ON cars.id = bookings.car_id").
		Where("cars.owner_id = ?", ownerID).
		Order("bookings.created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find owner bookings: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking. A constraint violation from a concurrent
// overlapping insert surfaces as a conflict, not a double booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgExclusionViolation || pgErr.Code == pgUniqueViolation) {
			return domain.NewConflictError("date conflict")
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists a status change with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion ran before this call, so the row must still hold the
	// previous version.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// CountByOwnerCars returns the number of bookings on the owner's cars.
func (r *GormBookingRepository) CountByOwnerCars(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Joins("JOIN cars ON cars.id = bookings.car_id").
		Where("cars.owner_id = ?", ownerID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count owner bookings: %w", err)
	}
	return total, nil
}

// CountByOwnerCarsAndStatus returns the number of the owner's bookings in
// the given status.
func (r *GormBookingRepository) CountByOwnerCarsAndStatus(ctx context.Context, ownerID uuid.UUID, status bookingDomain.BookingStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Joins("JOIN cars ON cars.id = bookings.car_id").
		Where("cars.owner_id = ? AND bookings.status = ?", ownerID, status.String()).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count owner bookings by status: %w", err)
	}
	return total, nil
}

// RevenueByOwnerCars sums the price of confirmed bookings on the owner's
// cars created within [from, to).
func (r *GormBookingRepository) RevenueByOwnerCars(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (int64, error) {
	var revenue int64
	err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Select("COALESCE(SUM(bookings.price_cents), 0)").
		Joins("JOIN cars ON cars.id = bookings.car_id").
		Where("cars.owner_id = ?", ownerID).
		Where("bookings.status = ?", bookingDomain.StatusConfirmed.String()).
		Where("bookings.created_at >= ? AND bookings.created_at < ?", from, to).
		Scan(&revenue).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum owner revenue: %w", err)
	}
	return revenue, nil
}

// RecentByOwnerCars retrieves the most recently created bookings on the
// owner's cars.
func (r *GormBookingRepository) RecentByOwnerCars(ctx context.Context, ownerID uuid.UUID, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Joins("JOIN cars ON cars.id = bookings.car_id").
		Where("cars.owner_id = ?", ownerID).
		Order("bookings.created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recent owner bookings: %w", err)
	}
	return toDomainBookings(models)
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CarID:         bk.CarID(),
		RenterID:      bk.RenterID(),
		Status:        bk.Status().String(),
		PickupDate:    bk.Period().Pickup(),
		ReturnDate:    bk.Period().Return(),
		PriceCents:    bk.PriceCents(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	period, err := bookingDomain.NewDateRange(m.PickupDate, m.ReturnDate)
	if err != nil {
		return nil, fmt.Errorf("stored booking %s has invalid period: %w", m.ID, err)
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.CarID,
		m.RenterID,
		status,
		period,
		m.PriceCents,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
