package car

import (
	"context"

	"github.com/google/uuid"
)

// CarRepository defines the read-side persistence contract for car listings.
type CarRepository interface {
	// FindByID retrieves a car by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Car, error)

	// FindByIDs retrieves the cars for the given IDs, keyed by ID.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Car, error)

	// FindAvailable retrieves all publicly listed cars, newest first.
	FindAvailable(ctx context.Context) ([]*Car, error)

	// CountByOwner returns the number of cars owned by the given user.
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}
