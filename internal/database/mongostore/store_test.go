package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/chachabrian/courier-backend/internal/services"
)

// Set MONGO_TEST_URI (for example mongodb://localhost:27017) to run these.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := fmt.Sprintf("courier_test_%d", time.Now().UnixNano())
	store, err := Connect(ctx, uri, dbName)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		store.client.Database(dbName).Drop(ctx)
		store.Close(ctx)
	})
	return store
}

func TestStoreUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &models.User{ID: "u-1", Username: "ada", Email: "ada@example.com", Role: models.RoleUser, PasswordHash: "hash"}
	require.NoError(t, store.CreateUser(ctx, user))

	dup := &models.User{ID: "u-2", Username: "ada", Email: "ada@example.com", Role: models.RoleUser, PasswordHash: "hash"}
	assert.ErrorIs(t, store.CreateUser(ctx, dup), services.ErrEmailTaken)

	found, err := store.FindUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", found.ID)

	require.NoError(t, store.UpdateUserRole(ctx, "ada@example.com", models.RoleAdmin))
	found, err = store.FindUserByID(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, found.IsAdmin())

	_, err = store.FindUserByID(ctx, "u-404")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestStoreParcels(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	parcel := &models.Parcel{
		TrackingNumber: "0123456789abcdef",
		SenderID:       "u-1",
		SenderEmail:    "ada@example.com",
		ParcelWeight:   2,
		ParcelSize:     "10",
		Cost:           13.50,
		Status:         models.ParcelStatusReceived,
	}
	require.NoError(t, store.CreateParcel(ctx, parcel))
	require.NoError(t, store.UpdateParcelStatus(ctx, "0123456789abcdef", models.ParcelStatusDispatched, "admin-1"))

	found, err := store.FindParcel(ctx, "0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, models.ParcelStatusDispatched, found.Status)

	events, err := store.ListStatusEvents(ctx, "0123456789abcdef")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.ParcelStatusReceived, events[0].Status)
	assert.Equal(t, models.ParcelStatusDispatched, events[1].Status)

	mine, err := store.ListParcelsBySender(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	assert.ErrorIs(t, store.UpdateParcelStatus(ctx, "ffffffffffffffff", models.ParcelStatusDelivered, "admin-1"), services.ErrNotFound)
}
