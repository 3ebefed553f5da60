package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivio/service-rental/internal/domain"
	carDomain "github.com/drivio/service-rental/internal/domain/car"
)

// CarModel is the GORM model for the cars table. Listing writes happen in
// the owner console flows; this service only reads.
type CarModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID          uuid.UUID `gorm:"type:uuid;index;not null"`
	Brand            string    `gorm:"not null;size:100"`
	Model            string    `gorm:"not null;size:100"`
	Year             int       `gorm:"not null"`
	Category         string    `gorm:"size:50"`
	Location         string    `gorm:"size:200"`
	ImageURL         string    `gorm:"size:500"`
	PricePerDayCents int64     `gorm:"not null"`
	IsAvailable      bool      `gorm:"not null;default:true;index"`
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (CarModel) TableName() string {
	return "cars"
}

// GormCarRepository is the GORM-based implementation of CarRepository.
type GormCarRepository struct {
	db *gorm.DB
}

// NewGormCarRepository creates a new GormCarRepository.
func NewGormCarRepository(db *gorm.DB) *GormCarRepository {
	return &GormCarRepository{db: db}
}

// FindByID retrieves a car by its unique identifier.
func (r *GormCarRepository) FindByID(ctx context.Context, id uuid.UUID) (*carDomain.Car, error) {
	var model CarModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("car", id.String())
		}
		return nil, fmt.Errorf("failed to find car by ID: %w", err)
	}
	return toDomainCar(&model), nil
}

// FindByIDs retrieves the cars for the given IDs, keyed by ID. Missing IDs
// are simply absent from the result.
func (r *GormCarRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*carDomain.Car, error) {
	result := make(map[uuid.UUID]*carDomain.Car, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []CarModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find cars by IDs: %w", err)
	}
	for i := range models {
		c := toDomainCar(&models[i])
		result[c.ID()] = c
	}
	return result, nil
}

// FindAvailable retrieves all publicly listed cars, newest first.
func (r *GormCarRepository) FindAvailable(ctx context.Context) ([]*carDomain.Car, error) {
	var models []CarModel
	err := r.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find available cars: %w", err)
	}

	cars := make([]*carDomain.Car, len(models))
	for i := range models {
		cars[i] = toDomainCar(&models[i])
	}
	return cars, nil
}

// CountByOwner returns the number of cars owned by the given user.
func (r *GormCarRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&CarModel{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count owner cars: %w", err)
	}
	return total, nil
}

func toDomainCar(m *CarModel) *carDomain.Car {
	return carDomain.ReconstructCar(
		m.ID,
		m.OwnerID,
		m.Brand,
		m.Model,
		m.Year,
		m.Category,
		m.Location,
		m.ImageURL,
		m.PricePerDayCents,
		m.IsAvailable,
		m.CreatedAt,
	)
}
