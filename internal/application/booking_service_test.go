package application

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drivio/service-rental/internal/domain"
	bookingDomain "github.com/drivio/service-rental/internal/domain/booking"
	"github.com/drivio/service-rental/internal/events"
)

type bookingServiceFixture struct {
	cars      *fakeCarRepo
	bookings  *fakeBookingRepo
	publisher *fakePublisher
	service   *BookingService
}

func newBookingServiceFixture() *bookingServiceFixture {
	cars := newFakeCarRepo()
	bookings := newFakeBookingRepo(cars)
	publisher := &fakePublisher{}
	clock := fixedClock{now: checkerNow}
	logger := zap.NewNop()
	availability := NewAvailabilityService(cars, bookings, clock, logger)
	service := NewBookingService(bookings, cars, availability, publisher, clock, logger)
	return &bookingServiceFixture{
		cars:      cars,
		bookings:  bookings,
		publisher: publisher,
		service:   service,
	}
}

func TestCreateBooking_PendingWithComputedPrice(t *testing.T) {
	fx := newBookingServiceFixture()
	c := newTestCar(uuid.New(), 5000, true)
	fx.cars.add(c)
	renterID := uuid.New()

	dto, err := fx.service.CreateBooking(context.Background(), renterID, CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)

	// Three billable days at 5000 cents each.
	assert.Equal(t, int64(15000), dto.PriceCents)
	assert.Equal(t, "pending", dto.Status)
	assert.Equal(t, renterID, dto.RenterID)
	assert.Equal(t, "2024-03-10", dto.PickupDate)
	assert.Equal(t, "2024-03-12", dto.ReturnDate)
	require.NotNil(t, dto.Car)
	assert.Equal(t, c.ID(), dto.Car.ID)

	assert.Equal(t, []string{events.BookingRequested}, fx.publisher.eventTypes())
}

func TestCreateBooking_OverlapRejected(t *testing.T) {
	fx := newBookingServiceFixture()
	c := newTestCar(uuid.New(), 5000, true)
	fx.cars.add(c)

	_, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)

	_, err = fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-11",
		ReturnDate: "2024-03-13",
	})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "date conflict", conflict.Error())
}

func TestCreateBooking_AdjacentRangeSucceeds(t *testing.T) {
	fx := newBookingServiceFixture()
	c := newTestCar(uuid.New(), 5000, true)
	fx.cars.add(c)

	_, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)

	dto, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-13",
		ReturnDate: "2024-03-15",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", dto.Status)
}

func TestCreateBooking_CancelFreesTheSlot(t *testing.T) {
	fx := newBookingServiceFixture()
	ownerID := uuid.New()
	c := newTestCar(ownerID, 5000, true)
	fx.cars.add(c)

	first, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)

	_, err = fx.service.ChangeStatus(context.Background(), ownerID, ChangeStatusRequest{
		BookingID: first.ID,
		Status:    "cancelled",
	})
	require.NoError(t, err)

	dto, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", dto.Status)
}

func TestCreateBooking_CarNotFound(t *testing.T) {
	fx := newBookingServiceFixture()

	_, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      uuid.New(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCreateBooking_CarMarkedUnavailable(t *testing.T) {
	fx := newBookingServiceFixture()
	c := newTestCar(uuid.New(), 5000, false)
	fx.cars.add(c)

	_, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "car marked unavailable", validation.Error())
}

func TestCreateBooking_MalformedDate(t *testing.T) {
	fx := newBookingServiceFixture()
	c := newTestCar(uuid.New(), 5000, true)
	fx.cars.add(c)

	_, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "10-03-2024",
		ReturnDate: "2024-03-12",
	})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "invalid pickup date", validation.Error())
}

func TestCreateBooking_PastPickup(t *testing.T) {
	fx := newBookingServiceFixture()
	c := newTestCar(uuid.New(), 5000, true)
	fx.cars.add(c)

	_, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-02-28",
		ReturnDate: "2024-03-02",
	})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "invalid range", validation.Error())
}

func TestChangeStatus_ConfirmPublishesEvent(t *testing.T) {
	fx := newBookingServiceFixture()
	ownerID := uuid.New()
	c := newTestCar(ownerID, 5000, true)
	fx.cars.add(c)

	created, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)

	dto, err := fx.service.ChangeStatus(context.Background(), ownerID, ChangeStatusRequest{
		BookingID: created.ID,
		Status:    "confirmed",
	})
	require.NoError(t, err)

	assert.Equal(t, "confirmed", dto.Status)
	assert.Equal(t, []string{events.BookingRequested, events.BookingConfirmed}, fx.publisher.eventTypes())
}

func TestChangeStatus_TerminalBookingRejected(t *testing.T) {
	fx := newBookingServiceFixture()
	ownerID := uuid.New()
	c := newTestCar(ownerID, 5000, true)
	fx.cars.add(c)

	created, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)

	_, err = fx.service.ChangeStatus(context.Background(), ownerID, ChangeStatusRequest{
		BookingID: created.ID,
		Status:    "confirmed",
	})
	require.NoError(t, err)

	_, err = fx.service.ChangeStatus(context.Background(), ownerID, ChangeStatusRequest{
		BookingID: created.ID,
		Status:    "pending",
	})
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestChangeStatus_SameStateRejected(t *testing.T) {
	fx := newBookingServiceFixture()
	ownerID := uuid.New()
	c := newTestCar(ownerID, 5000, true)
	fx.cars.add(c)

	created, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)

	_, err = fx.service.ChangeStatus(context.Background(), ownerID, ChangeStatusRequest{
		BookingID: created.ID,
		Status:    "pending",
	})
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	fx := newBookingServiceFixture()

	_, err := fx.service.ChangeStatus(context.Background(), uuid.New(), ChangeStatusRequest{
		BookingID: uuid.New(),
		Status:    "delivered",
	})
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestChangeStatus_ForbiddenForNonOwner(t *testing.T) {
	fx := newBookingServiceFixture()
	c := newTestCar(uuid.New(), 5000, true)
	fx.cars.add(c)

	created, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)

	_, err = fx.service.ChangeStatus(context.Background(), uuid.New(), ChangeStatusRequest{
		BookingID: created.ID,
		Status:    "confirmed",
	})
	var forbidden *domain.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	// The booking is untouched.
	bk, err := fx.bookings.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusPending, bk.Status())
}

func TestChangeStatus_BookingNotFound(t *testing.T) {
	fx := newBookingServiceFixture()

	_, err := fx.service.ChangeStatus(context.Background(), uuid.New(), ChangeStatusRequest{
		BookingID: uuid.New(),
		Status:    "confirmed",
	})
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestListRenterBookings_AttachesCars(t *testing.T) {
	fx := newBookingServiceFixture()
	c := newTestCar(uuid.New(), 5000, true)
	fx.cars.add(c)
	renterID := uuid.New()

	_, err := fx.service.CreateBooking(context.Background(), renterID, CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)

	list, err := fx.service.ListRenterBookings(context.Background(), renterID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Car)
	assert.Equal(t, "Toyota", list[0].Car.Brand)

	other, err := fx.service.ListRenterBookings(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListOwnerBookings_ScopedToOwnerCars(t *testing.T) {
	fx := newBookingServiceFixture()
	ownerID := uuid.New()
	mine := newTestCar(ownerID, 5000, true)
	theirs := newTestCar(uuid.New(), 7000, true)
	fx.cars.add(mine)
	fx.cars.add(theirs)

	_, err := fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      mine.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)
	_, err = fx.service.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		CarID:      theirs.ID(),
		PickupDate: "2024-03-10",
		ReturnDate: "2024-03-12",
	})
	require.NoError(t, err)

	list, err := fx.service.ListOwnerBookings(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID(), list[0].CarID)
}

// Concurrent attempts to book overlapping ranges on the same car must yield
// exactly one pending booking per overlap cluster.
func TestCreateBooking_ConcurrentOverlapsAdmitOne(t *testing.T) {
	fx := newBookingServiceFixture()
	c := newTestCar(uuid.New(), 5000, true)
	fx.cars.add(c)

	rng := rand.New(rand.NewSource(42))
	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		day := 10 + rng.Intn(3)
		req := CreateBookingRequest{
			CarID:      c.ID(),
			PickupDate: fmt.Sprintf("2024-03-%02d", day),
			ReturnDate: fmt.Sprintf("2024-03-%02d", day+2),
		}
		wg.Add(1)
		go func(i int, req CreateBookingRequest) {
			defer wg.Done()
			_, err := fx.service.CreateBooking(context.Background(), uuid.New(), req)
			errs[i] = err
		}(i, req)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
	}

	// Every generated range overlaps March 12, so at most one insert can win.
	assert.Equal(t, 1, succeeded)

	saved, err := fx.bookings.FindOverlapping(context.Background(), c.ID(),
		mustPeriod(t, testDate(2024, 3, 1), testDate(2024, 3, 31)))
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func mustPeriod(t *testing.T, pickup, ret time.Time) bookingDomain.DateRange {
	t.Helper()
	period, err := bookingDomain.NewDateRange(pickup, ret)
	require.NoError(t, err)
	return period
}
