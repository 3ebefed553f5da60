package application

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/drivio/service-rental/internal/domain"
	bookingDomain "github.com/drivio/service-rental/internal/domain/booking"
	carDomain "github.com/drivio/service-rental/internal/domain/car"
	"github.com/drivio/service-rental/internal/events"
)

// fixedClock pins the current time for deterministic date-boundary tests.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// fakeCarRepo is an in-memory CarRepository.
type fakeCarRepo struct {
	cars map[uuid.UUID]*carDomain.Car
}

func newFakeCarRepo() *fakeCarRepo {
	return &fakeCarRepo{cars: make(map[uuid.UUID]*carDomain.Car)}
}

func (r *fakeCarRepo) add(c *carDomain.Car) {
	r.cars[c.ID()] = c
}

func (r *fakeCarRepo) FindByID(_ context.Context, id uuid.UUID) (*carDomain.Car, error) {
	c, ok := r.cars[id]
	if !ok {
		return nil, domain.NewNotFoundError("car", id.String())
	}
	return c, nil
}

func (r *fakeCarRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*carDomain.Car, error) {
	result := make(map[uuid.UUID]*carDomain.Car, len(ids))
	for _, id := range ids {
		if c, ok := r.cars[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}

func (r *fakeCarRepo) FindAvailable(_ context.Context) ([]*carDomain.Car, error) {
	var out []*carDomain.Car
	for _, c := range r.cars {
		if c.IsAvailable() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

func (r *fakeCarRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	for _, c := range r.cars {
		if c.OwnerID() == ownerID {
			n++
		}
	}
	return n, nil
}

// fakeBookingRepo is an in-memory BookingRepository. Save enforces the same
// no-overlap guarantee the Postgres exclusion constraint provides.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	cars     *fakeCarRepo
}

func newFakeBookingRepo(cars *fakeCarRepo) *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		cars:     cars,
	}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindOverlapping(_ context.Context, carID uuid.UUID, period bookingDomain.DateRange) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlappingLocked(carID, period), nil
}

func (r *fakeBookingRepo) overlappingLocked(carID uuid.UUID, period bookingDomain.DateRange) []*bookingDomain.Booking {
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.CarID() == carID && bk.Status().BlocksCalendar() && bk.Period().Overlaps(period) {
			out = append(out, bk)
		}
	}
	return out
}

func (r *fakeBookingRepo) FindByRenter(_ context.Context, renterID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.RenterID() == renterID {
			out = append(out, bk)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *fakeBookingRepo) FindByOwnerCars(_ context.Context, ownerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.ownerBookingsLocked(ownerID)
	sortNewestFirst(out)
	return out, nil
}

func (r *fakeBookingRepo) ownerBookingsLocked(ownerID uuid.UUID) []*bookingDomain.Booking {
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if c, ok := r.cars.cars[bk.CarID()]; ok && c.OwnerID() == ownerID {
			out = append(out, bk)
		}
	}
	return out
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.overlappingLocked(bk.CarID(), bk.Period())) > 0 {
		return domain.NewConflictError("date conflict")
	}
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[bk.ID()]; !ok {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) CountByOwnerCars(_ context.Context, ownerID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.ownerBookingsLocked(ownerID))), nil
}

func (r *fakeBookingRepo) CountByOwnerCarsAndStatus(_ context.Context, ownerID uuid.UUID, status bookingDomain.BookingStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, bk := range r.ownerBookingsLocked(ownerID) {
		if bk.Status() == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) RevenueByOwnerCars(_ context.Context, ownerID uuid.UUID, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, bk := range r.ownerBookingsLocked(ownerID) {
		if bk.Status() != bookingDomain.StatusConfirmed {
			continue
		}
		if bk.CreatedAt().Before(from) || !bk.CreatedAt().Before(to) {
			continue
		}
		sum += bk.PriceCents()
	}
	return sum, nil
}

func (r *fakeBookingRepo) RecentByOwnerCars(_ context.Context, ownerID uuid.UUID, limit int) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.ownerBookingsLocked(ownerID)
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(bookings []*bookingDomain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt().After(bookings[j].CreatedAt())
	})
}

// fakePublisher records published events.
type fakePublisher struct {
	mu        sync.Mutex
	published []events.CloudEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, _ string, event events.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.published))
	for i, e := range p.published {
		types[i] = e.Type
	}
	return types
}

// fakeSnapshotCache is an in-memory SnapshotCache.
type fakeSnapshotCache struct {
	data map[string][]byte
	sets int
	hits int
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{data: make(map[string][]byte)}
}

func (c *fakeSnapshotCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeSnapshotCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}
