package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachabrian/courier-backend/internal/config"
	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/chachabrian/courier-backend/internal/services"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := InitDB(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "courier.db"),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewRepository(db)
}

func testParcel(trackingNumber, senderID string) *models.Parcel {
	return &models.Parcel{
		TrackingNumber:   trackingNumber,
		SenderID:         senderID,
		SenderEmail:      "sender@example.com",
		SenderName:       "Ada",
		SenderAddress:    "1 Marina Road",
		SenderPhone:      "08030000000",
		RecipientName:    "Bola",
		RecipientAddress: "2 Allen Avenue",
		RecipientPhone:   "08040000000",
		ParcelWeight:     2,
		ParcelSize:       "10",
		DateAndTime:      "March 05, 2024 at 11:30:15 PM",
		Cost:             13.50,
		Status:           models.ParcelStatusReceived,
		ChargeID:         "ch_1",
	}
}

func TestRepositoryUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	user := &models.User{ID: "u-1", Username: "ada", Email: "ada@example.com", Role: models.RoleUser}
	require.NoError(t, user.SetPassword("secret1"))
	require.NoError(t, repo.CreateUser(ctx, user))

	dup := &models.User{ID: "u-2", Username: "ada2", Email: "ada@example.com", Role: models.RoleUser, PasswordHash: "x"}
	assert.ErrorIs(t, repo.CreateUser(ctx, dup), services.ErrEmailTaken)

	found, err := repo.FindUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", found.ID)
	assert.NoError(t, found.CheckPassword("secret1"))

	_, err = repo.FindUserByID(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)

	require.NoError(t, repo.UpdateUserRole(ctx, "ada@example.com", models.RoleAdmin))
	found, err = repo.FindUserByID(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, found.IsAdmin())

	assert.ErrorIs(t, repo.UpdateUserRole(ctx, "nobody@example.com", models.RoleAdmin), services.ErrNotFound)
}

func TestRepositoryParcelLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.CreateParcel(ctx, testParcel("0123456789abcdef", "u-1")))

	parcel, err := repo.FindParcel(ctx, "0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, models.ParcelStatusReceived, parcel.Status)
	assert.Equal(t, 13.50, parcel.Cost)
	assert.Equal(t, "ch_1", parcel.ChargeID)

	require.NoError(t, repo.UpdateParcelStatus(ctx, "0123456789abcdef", models.ParcelStatusDispatched, "admin-1"))

	parcel, err = repo.FindParcel(ctx, "0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, models.ParcelStatusDispatched, parcel.Status)

	events, err := repo.ListStatusEvents(ctx, "0123456789abcdef")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.ParcelStatusReceived, events[0].Status)
	assert.Equal(t, "u-1", events[0].ChangedBy)
	assert.Equal(t, models.ParcelStatusDispatched, events[1].Status)
	assert.Equal(t, "admin-1", events[1].ChangedBy)
}

func TestRepositoryParcelErrors(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.FindParcel(ctx, "ffffffffffffffff")
	assert.ErrorIs(t, err, services.ErrNotFound)

	err = repo.UpdateParcelStatus(ctx, "ffffffffffffffff", models.ParcelStatusDispatched, "admin-1")
	assert.ErrorIs(t, err, services.ErrNotFound)

	events, err := repo.ListStatusEvents(ctx, "ffffffffffffffff")
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, repo.CreateParcel(ctx, testParcel("aaaaaaaaaaaaaaaa", "u-1")))
	assert.Error(t, repo.CreateParcel(ctx, testParcel("aaaaaaaaaaaaaaaa", "u-2")))

	events, err = repo.ListStatusEvents(ctx, "aaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	assert.Len(t, events, 1, "failed insert must not leave a status event behind")
}

func TestRepositoryListParcels(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.CreateParcel(ctx, testParcel("1111111111111111", "u-1")))
	require.NoError(t, repo.CreateParcel(ctx, testParcel("2222222222222222", "u-2")))
	require.NoError(t, repo.CreateParcel(ctx, testParcel("3333333333333333", "u-1")))

	mine, err := repo.ListParcelsBySender(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, p := range mine {
		assert.Equal(t, "u-1", p.SenderID)
	}

	all, err := repo.ListParcels(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := repo.ListParcelsBySender(ctx, "u-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}
