package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	carDomain "github.com/drivio/service-rental/internal/domain/car"
)

// CarService serves the public read side of car listings.
type CarService struct {
	cars   carDomain.CarRepository
	logger *zap.Logger
}

// NewCarService creates a new CarService.
func NewCarService(cars carDomain.CarRepository, logger *zap.Logger) *CarService {
	return &CarService{cars: cars, logger: logger}
}

// ListAvailable retrieves all publicly listed cars.
func (s *CarService) ListAvailable(ctx context.Context) ([]CarDTO, error) {
	cars, err := s.cars.FindAvailable(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]CarDTO, len(cars))
	for i, c := range cars {
		dtos[i] = toCarDTO(c)
	}
	return dtos, nil
}

// GetCar retrieves a single car listing.
func (s *CarService) GetCar(ctx context.Context, id uuid.UUID) (*CarDTO, error) {
	c, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toCarDTO(c)
	return &dto, nil
}
