package services

import (
	"context"
	"time"

	"github.com/chachabrian/courier-backend/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_services.go -package=mocks github.com/chachabrian/courier-backend/internal/services PaymentGateway,Mailer

// UserStore persists user accounts. Lookups return ErrNotFound when no user matches.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserRole(ctx context.Context, email string, role models.Role) error
}

// ParcelStore persists parcels and their status history.
// CreateParcel records the initial status event and UpdateParcelStatus
// records one event per call.
type ParcelStore interface {
	CreateParcel(ctx context.Context, parcel *models.Parcel) error
	FindParcel(ctx context.Context, trackingNumber string) (*models.Parcel, error)
	UpdateParcelStatus(ctx context.Context, trackingNumber string, status models.ParcelStatus, changedBy string) error
	ListParcelsBySender(ctx context.Context, senderID string) ([]models.Parcel, error)
	ListParcels(ctx context.Context) ([]models.Parcel, error)
	ListStatusEvents(ctx context.Context, trackingNumber string) ([]models.ParcelStatusEvent, error)
}

// SessionStore is the key-value scope of one login session.
// StagedBooking returns nil, nil when nothing is staged. A charged staged
// booking never expires.
type SessionStore interface {
	StageBooking(ctx context.Context, sessionID string, booking *models.StagedBooking) error
	StagedBooking(ctx context.Context, sessionID string) (*models.StagedBooking, error)
	ClearStagedBooking(ctx context.Context, sessionID string) error
	RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

type ChargeRequest struct {
	CustomerID     string
	AmountMinor    int64
	Currency       string
	Description    string
	IdempotencyKey string
}

type ChargeResult struct {
	ID   string
	Paid bool
}

// PaymentGateway charges cards. Failures are reported as *GatewayError.
// Calls repeated with the same idempotency key return the first result.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, email, cardToken, idempotencyKey string) (string, error)
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// StatusPublisher pushes parcel status changes to live subscribers.
type StatusPublisher interface {
	PublishStatus(update ParcelStatusUpdate)
}
