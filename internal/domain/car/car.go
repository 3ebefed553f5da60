// Package car holds the car listing read model. Listings are created and
// edited by owner CRUD flows that live outside this service's core; the
// booking engine only reads them, including the owner-toggled availability
// flag it shares with those flows.
package car

import (
	"time"

	"github.com/google/uuid"
)

// Car is the listing as the booking engine sees it.
type Car struct {
	id               uuid.UUID
	ownerID          uuid.UUID
	brand            string
	model            string
	year             int
	category         string
	location         string
	imageURL         string
	pricePerDayCents int64
	isAvailable      bool
	createdAt        time.Time
}

// ReconstructCar rebuilds a Car from persistence data.
func ReconstructCar(
	id uuid.UUID,
	ownerID uuid.UUID,
	brand string,
	model string,
	year int,
	category string,
	location string,
	imageURL string,
	pricePerDayCents int64,
	isAvailable bool,
	createdAt time.Time,
) *Car {
	return &Car{
		id:               id,
		ownerID:          ownerID,
		brand:            brand,
		model:            model,
		year:             year,
		category:         category,
		location:         location,
		imageURL:         imageURL,
		pricePerDayCents: pricePerDayCents,
		isAvailable:      isAvailable,
		createdAt:        createdAt,
	}
}

// ID returns the car's unique identifier.
func (c *Car) ID() uuid.UUID { return c.id }

// OwnerID returns the listing owner's user ID.
func (c *Car) OwnerID() uuid.UUID { return c.ownerID }

// Brand returns the car's brand.
func (c *Car) Brand() string { return c.brand }

// Model returns the car's model.
func (c *Car) Model() string { return c.model }

// Year returns the model year.
func (c *Car) Year() int { return c.year }

// Category returns the listing category.
func (c *Car) Category() string { return c.category }

// Location returns the pickup location.
func (c *Car) Location() string { return c.location }

// ImageURL returns the listing image URL.
func (c *Car) ImageURL() string { return c.imageURL }

// PricePerDayCents returns the daily rental price in cents.
func (c *Car) PricePerDayCents() int64 { return c.pricePerDayCents }

// IsAvailable returns the owner-toggled global availability flag. It is
// independent of existing bookings.
func (c *Car) IsAvailable() bool { return c.isAvailable }

// CreatedAt returns the listing creation timestamp.
func (c *Car) CreatedAt() time.Time { return c.createdAt }

// IsOwnedBy reports whether the given user owns this listing.
func (c *Car) IsOwnedBy(userID uuid.UUID) bool { return c.ownerID == userID }
