package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/drivio/service-rental/internal/domain/booking"
	carDomain "github.com/drivio/service-rental/internal/domain/car"
)

const (
	recentBookingsLimit = 3
	snapshotTTL         = 30 * time.Second
)

// SnapshotCache caches computed dashboard snapshots. A nil cache disables
// caching entirely.
type SnapshotCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardSnapshot is a point-in-time aggregate view of an owner's cars
// and bookings.
type DashboardSnapshot struct {
	TotalCars           int64        `json:"totalCars"`
	TotalBookings       int64        `json:"totalBookings"`
	PendingBookings     int64        `json:"pendingBookings"`
	CompletedBookings   int64        `json:"completedBookings"`
	MonthlyRevenueCents int64        `json:"monthlyRevenueCents"`
	RecentBookings      []BookingDTO `json:"recentBookings"`
}

// DashboardService computes owner dashboard metrics. Pure read; revenue is
// summed over confirmed bookings created within the current UTC calendar
// month.
type DashboardService struct {
	bookings bookingDomain.BookingRepository
	cars     carDomain.CarRepository
	cache    SnapshotCache
	clock    Clock
	logger   *zap.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(
	bookings bookingDomain.BookingRepository,
	cars carDomain.CarRepository,
	cache SnapshotCache,
	clock Clock,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		bookings: bookings,
		cars:     cars,
		cache:    cache,
		clock:    clock,
		logger:   logger,
	}
}

// Dashboard computes the owner's dashboard snapshot. An owner with no cars
// or bookings gets a zeroed snapshot with an empty recent list. Cache
// failures are logged and never fail the request.
func (s *DashboardService) Dashboard(ctx context.Context, ownerID uuid.UUID) (*DashboardSnapshot, error) {
	cacheKey := fmt.Sprintf("dashboard:%s", ownerID)
	if s.cache != nil {
		var cached DashboardSnapshot
		hit, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	totalCars, err := s.cars.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count cars: %w", err)
	}

	totalBookings, err := s.bookings.CountByOwnerCars(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	pending, err := s.bookings.CountByOwnerCarsAndStatus(ctx, ownerID, bookingDomain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending bookings: %w", err)
	}

	confirmed, err := s.bookings.CountByOwnerCarsAndStatus(ctx, ownerID, bookingDomain.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}

	monthStart, monthEnd := currentMonthWindow(s.clock.Now())
	revenue, err := s.bookings.RevenueByOwnerCars(ctx, ownerID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to sum monthly revenue: %w", err)
	}

	recent, err := s.bookings.RecentByOwnerCars(ctx, ownerID, recentBookingsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent bookings: %w", err)
	}
	recentDTOs, err := s.attachCars(ctx, recent)
	if err != nil {
		return nil, err
	}

	snapshot := &DashboardSnapshot{
		TotalCars:           totalCars,
		TotalBookings:       totalBookings,
		PendingBookings:     pending,
		CompletedBookings:   confirmed,
		MonthlyRevenueCents: revenue,
		RecentBookings:      recentDTOs,
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, snapshot, snapshotTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	return snapshot, nil
}

func (s *DashboardService) attachCars(ctx context.Context, bookings []*bookingDomain.Booking) ([]BookingDTO, error) {
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

// currentMonthWindow returns [first instant of the current UTC month, first
// instant of the next month).
func currentMonthWindow(now time.Time) (time.Time, time.Time) {
	u := now.UTC()
	start := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
