package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/chachabrian/courier-backend/internal/config"
	"github.com/chachabrian/courier-backend/internal/database"
	"github.com/chachabrian/courier-backend/internal/mocks"
	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/chachabrian/courier-backend/internal/services"
)

type testEnv struct {
	repo     *database.Repository
	parcels  *flakyParcelStore
	sessions *services.MemorySessionStore
	gateway  *mocks.MockPaymentGateway
	mailer   *mocks.MockMailer
	booking  *services.BookingService
	auth     *services.AuthService
}

// flakyParcelStore fails CreateParcel while failCreate is set.
type flakyParcelStore struct {
	*database.Repository
	failCreate bool
}

func (s *flakyParcelStore) CreateParcel(ctx context.Context, parcel *models.Parcel) error {
	if s.failCreate {
		return errors.New("database unavailable")
	}
	return s.Repository.CreateParcel(ctx, parcel)
}

// lossySessionStore drops the write that records a charge on a staged booking.
type lossySessionStore struct {
	*services.MemorySessionStore
}

func (s *lossySessionStore) StageBooking(ctx context.Context, sessionID string, booking *models.StagedBooking) error {
	if booking.IsCharged() {
		return errors.New("redis: connection refused")
	}
	return s.MemorySessionStore.StageBooking(ctx, sessionID, booking)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.InitDB(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "courier.db"),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	ctrl := gomock.NewController(t)
	repo := database.NewRepository(db)
	parcels := &flakyParcelStore{Repository: repo}
	sessions := services.NewMemorySessionStore(time.Hour)
	gateway := mocks.NewMockPaymentGateway(ctrl)
	mailer := mocks.NewMockMailer(ctrl)

	notifier := services.NewNotifier(mailer, nil)
	return &testEnv{
		repo:     repo,
		parcels:  parcels,
		sessions: sessions,
		gateway:  gateway,
		mailer:   mailer,
		booking:  services.NewBookingService(parcels, repo, sessions, gateway, notifier, "usd"),
		auth:     services.NewAuthService(repo, sessions, "test-secret", time.Hour),
	}
}

func (e *testEnv) createUser(t *testing.T, id, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{ID: id, Username: id, Email: email, Role: role, PasswordHash: "unused"}
	require.NoError(t, e.repo.CreateUser(context.Background(), user))
	return user
}

func validForm() services.BookingForm {
	return services.BookingForm{
		SenderName:           "Ada Obi",
		SenderAddress:        "1 Marina Road, Lagos",
		SenderPhone:          "08030000000",
		RecipientName:        "Bola Ade",
		RecipientAddress:     "2 Allen Avenue, Ikeja",
		RecipientPhone:       "08040000000",
		ParcelWeight:         2,
		ParcelSize:           "10",
		DeliveryInstructions: "Leave at the gate",
	}
}
