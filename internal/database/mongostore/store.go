// Package mongostore keeps users and parcels in MongoDB, the document store
// the service was first deployed on. Select it with DB_DRIVER=mongo.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/chachabrian/courier-backend/internal/services"
)

const (
	usersCollection   = "users"
	parcelsCollection = "parcels"
	eventsCollection  = "parcel_status_events"
)

type Store struct {
	client  *mongo.Client
	users   *mongo.Collection
	parcels *mongo.Collection
	events  *mongo.Collection
}

// Connect opens a client for uri, pings it and ensures the lookup indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:  client,
		users:   db.Collection(usersCollection),
		parcels: db.Collection(parcelsCollection),
		events:  db.Collection(eventsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	log.Printf("Connected to MongoDB database %s", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.parcels, mongo.IndexModel{Keys: bson.D{{Key: "tracking_number", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.parcels, mongo.IndexModel{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "created_at", Value: -1}}}},
		{s.events, mongo.IndexModel{Keys: bson.D{{Key: "tracking_number", Value: 1}, {Key: "created_at", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return services.ErrNotFound
	}
	return err
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return services.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) UpdateUserRole(ctx context.Context, email string, role models.Role) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

// CreateParcel inserts parcel and then its first status event. A standalone
// server has no multi-document transactions, so a failed event insert leaves
// the parcel in place and returns the error.
func (s *Store) CreateParcel(ctx context.Context, parcel *models.Parcel) error {
	now := time.Now().UTC()
	parcel.CreatedAt, parcel.UpdatedAt = now, now

	if _, err := s.parcels.InsertOne(ctx, parcel); err != nil {
		return fmt.Errorf("failed to create parcel %s: %w", parcel.TrackingNumber, err)
	}
	return s.recordEvent(ctx, parcel.TrackingNumber, parcel.Status, parcel.SenderID, now)
}

func (s *Store) FindParcel(ctx context.Context, trackingNumber string) (*models.Parcel, error) {
	var parcel models.Parcel
	if err := s.parcels.FindOne(ctx, bson.M{"tracking_number": trackingNumber}).Decode(&parcel); err != nil {
		return nil, notFound(err)
	}
	return &parcel, nil
}

func (s *Store) UpdateParcelStatus(ctx context.Context, trackingNumber string, status models.ParcelStatus, changedBy string) error {
	now := time.Now().UTC()
	res, err := s.parcels.UpdateOne(ctx,
		bson.M{"tracking_number": trackingNumber},
		bson.M{"$set": bson.M{"status": status, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return s.recordEvent(ctx, trackingNumber, status, changedBy, now)
}

func (s *Store) recordEvent(ctx context.Context, trackingNumber string, status models.ParcelStatus, changedBy string, at time.Time) error {
	_, err := s.events.InsertOne(ctx, models.ParcelStatusEvent{
		TrackingNumber: trackingNumber,
		Status:         status,
		ChangedBy:      changedBy,
		CreatedAt:      at,
	})
	return err
}

func (s *Store) ListParcelsBySender(ctx context.Context, senderID string) ([]models.Parcel, error) {
	return s.findParcels(ctx, bson.M{"sender_id": senderID})
}

func (s *Store) ListParcels(ctx context.Context) ([]models.Parcel, error) {
	return s.findParcels(ctx, bson.M{})
}

func (s *Store) findParcels(ctx context.Context, filter bson.M) ([]models.Parcel, error) {
	cursor, err := s.parcels.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	parcels := []models.Parcel{}
	if err := cursor.All(ctx, &parcels); err != nil {
		return nil, err
	}
	return parcels, nil
}

func (s *Store) ListStatusEvents(ctx context.Context, trackingNumber string) ([]models.ParcelStatusEvent, error) {
	cursor, err := s.events.Find(ctx,
		bson.M{"tracking_number": trackingNumber},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	events := []models.ParcelStatusEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
