//go:build integration

package main_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/drivio/service-rental/internal/application"
	"github.com/drivio/service-rental/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB      *gorm.DB
	Cleanup func()
}

// rentalStack holds wired-up booking service components backed by real
// Postgres.
type rentalStack struct {
	Bookings *repository.GormBookingRepository
	Cars     *repository.GormCarRepository
	Service  *application.BookingService
}

// setupPostgres starts a PostgreSQL testcontainer, connects GORM and applies
// the schema migrations, exclusion constraint included.
func setupPostgres(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_rental",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_rental sslmode=disable",
		pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var openErr error
		db, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if openErr != nil {
			return false
		}
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 500*time.Millisecond, "database never became reachable")

	applyMigrations(t, db)

	return &testInfra{
		DB: db,
		Cleanup: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			_ = pgContainer.Terminate(ctx)
		},
	}
}

// applyMigrations runs the init migration statement by statement so the
// exclusion constraint exists exactly as in production.
func applyMigrations(t *testing.T, db *gorm.DB) {
	t.Helper()

	raw, err := os.ReadFile("migrations/000001_init.up.sql")
	require.NoError(t, err, "failed to read migration file")

	for _, stmt := range strings.Split(string(raw), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		require.NoError(t, db.Exec(stmt).Error, "migration statement failed: %s", stmt)
	}
}

// setupRentalStack wires repositories and the booking service against the
// given DB. Events stay off; these tests exercise the persistence guarantees.
func setupRentalStack(t *testing.T, db *gorm.DB) *rentalStack {
	t.Helper()

	logger := zap.NewNop()
	bookings := repository.NewGormBookingRepository(db)
	cars := repository.NewGormCarRepository(db)
	clock := application.SystemClock{}

	availability := application.NewAvailabilityService(cars, bookings, clock, logger)
	service := application.NewBookingService(bookings, cars, availability, nil, clock, logger)

	return &rentalStack{Bookings: bookings, Cars: cars, Service: service}
}

// seedCar inserts a car listing directly.
func seedCar(t *testing.T, db *gorm.DB, ownerID uuid.UUID, pricePerDayCents int64, available bool) uuid.UUID {
	t.Helper()

	model := repository.CarModel{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Brand:            "Toyota",
		Model:            "Yaris",
		Year:             2023,
		Category:         "hatchback",
		Location:         "Kuala Lumpur",
		PricePerDayCents: pricePerDayCents,
		IsAvailable:      available,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, db.Create(&model).Error)
	return model.ID
}

// futureDate returns a date string n days from now, in the request format.
func futureDate(n int) string {
	return time.Now().UTC().AddDate(0, 0, n).Format("2006-01-02")
}
