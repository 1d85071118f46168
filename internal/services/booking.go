package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"

	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/chachabrian/courier-backend/pkg/utils"
)

const maxDeliveryInstructions = 200

// BookingForm is the parcel detail submitted by the sender.
type BookingForm struct {
	SenderName           string  `json:"senderName"`
	SenderAddress        string  `json:"senderAddress"`
	SenderPhone          string  `json:"senderPhone"`
	RecipientName        string  `json:"recipientName"`
	RecipientAddress     string  `json:"recipientAddress"`
	RecipientPhone       string  `json:"recipientPhone"`
	ParcelWeight         float64 `json:"parcelWeight"`
	ParcelSize           string  `json:"parcelSize"`
	DeliveryInstructions string  `json:"deliveryInstructions"`
}

type TrackingResult struct {
	Parcel  *models.Parcel             `json:"parcel"`
	History []models.ParcelStatusEvent `json:"history"`
}

type AdminOverview struct {
	Parcels     []models.Parcel             `json:"parcels"`
	ByStatus    map[models.ParcelStatus]int `json:"byStatus"`
	BookedToday int                         `json:"bookedToday"`
	GeneratedAt string                      `json:"generatedAt"`
}

// BookingService runs the booking flow: stage, pay, track and status transitions.
type BookingService struct {
	parcels  ParcelStore
	users    UserStore
	sessions SessionStore
	gateway  PaymentGateway
	notifier *Notifier
	currency string

	now               func() time.Time
	newTrackingNumber func() (string, error)
}

func NewBookingService(parcels ParcelStore, users UserStore, sessions SessionStore, gateway PaymentGateway, notifier *Notifier, currency string) *BookingService {
	return &BookingService{
		parcels:           parcels,
		users:             users,
		sessions:          sessions,
		gateway:           gateway,
		notifier:          notifier,
		currency:          currency,
		now:               time.Now,
		newTrackingNumber: utils.GenerateTrackingNumber,
	}
}

// Stage validates form, prices it and stores it as the session's only staged booking.
func (s *BookingService) Stage(ctx context.Context, sessionID string, sender *models.User, form BookingForm) (*models.StagedBooking, error) {
	if sessionID == "" || sender == nil {
		return nil, invalidInput("missing session")
	}
	if err := validateForm(&form); err != nil {
		return nil, err
	}

	cost, err := utils.CalculateParcelCost(form.ParcelWeight, form.ParcelSize)
	if err != nil {
		return nil, invalidInput("%v", err)
	}

	stamp := s.now()
	booking := &models.StagedBooking{
		ID:                   uuid.NewString(),
		SenderID:             sender.ID,
		SenderEmail:          sender.Email,
		SenderName:           form.SenderName,
		SenderAddress:        form.SenderAddress,
		SenderPhone:          form.SenderPhone,
		RecipientName:        form.RecipientName,
		RecipientAddress:     form.RecipientAddress,
		RecipientPhone:       form.RecipientPhone,
		ParcelWeight:         form.ParcelWeight,
		ParcelSize:           form.ParcelSize,
		DeliveryInstructions: form.DeliveryInstructions,
		Cost:                 cost.Total,
		DateAndTime:          utils.FormatBookingTime(stamp),
		CreatedAt:            stamp,
	}

	if err := s.sessions.StageBooking(ctx, sessionID, booking); err != nil {
		return nil, fmt.Errorf("failed to stage booking: %w", err)
	}
	return booking, nil
}

func validateForm(form *BookingForm) error {
	required := []struct {
		name  string
		value *string
	}{
		{"senderName", &form.SenderName},
		{"senderAddress", &form.SenderAddress},
		{"senderPhone", &form.SenderPhone},
		{"recipientName", &form.RecipientName},
		{"recipientAddress", &form.RecipientAddress},
		{"recipientPhone", &form.RecipientPhone},
		{"parcelSize", &form.ParcelSize},
	}
	var missing []string
	for _, f := range required {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return invalidInput("missing required fields: %s", strings.Join(missing, ", "))
	}
	if form.ParcelWeight <= 0 {
		return invalidInput("parcelWeight must be greater than zero")
	}
	if len([]rune(form.DeliveryInstructions)) > maxDeliveryInstructions {
		return invalidInput("deliveryInstructions must be at most %d characters", maxDeliveryInstructions)
	}
	return nil
}

// PeekStaged returns the session's staged booking or ErrNoStagedBooking.
func (s *BookingService) PeekStaged(ctx context.Context, sessionID string) (*models.StagedBooking, error) {
	booking, err := s.sessions.StagedBooking(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrNoStagedBooking
	}
	return booking, nil
}

// ClearStaged drops the session's staged booking. A booking that has
// already been charged is kept so its payment can still be completed.
func (s *BookingService) ClearStaged(ctx context.Context, sessionID string) error {
	staged, err := s.sessions.StagedBooking(ctx, sessionID)
	if err != nil {
		return err
	}
	if staged != nil && staged.IsCharged() {
		return invalidInput("booking %s has already been paid; complete the payment to save it", staged.ID)
	}
	return s.sessions.ClearStagedBooking(ctx, sessionID)
}

// Pay charges the staged booking and turns it into a Received parcel.
//
// A gateway failure leaves the staged booking untouched. Once charged, the
// charge id and tracking number are written back to the staged booking before
// the parcel is saved, so a failed save returns *ChargedNotBookedError and a
// later call books the parcel without charging again. If that write-back
// fails too, the retry repeats the gateway calls with the same idempotency
// keys and gets the original charge back. A failed notification
// does not undo the booking: the parcel is returned with an error wrapping
// ErrNotificationFailed.
func (s *BookingService) Pay(ctx context.Context, sessionID, cardToken string) (*models.Parcel, error) {
	staged, err := s.PeekStaged(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !staged.IsCharged() {
		if strings.TrimSpace(cardToken) == "" {
			return nil, invalidInput("missing card token")
		}
		if err := s.charge(ctx, sessionID, staged, cardToken); err != nil {
			return nil, err
		}
	} else {
		log.Printf("Staged booking %s already charged (%s), retrying save of parcel %s", staged.ID, staged.ChargeID, staged.TrackingNumber)
	}

	parcel := staged.ToParcel(staged.TrackingNumber)
	if err := s.persist(ctx, parcel); err != nil {
		log.Printf("Charge %s succeeded but parcel %s was not saved: %v", staged.ChargeID, staged.TrackingNumber, err)
		return nil, &ChargedNotBookedError{ChargeID: staged.ChargeID, TrackingNumber: staged.TrackingNumber, Err: err}
	}
	log.Printf("Parcel %s booked for sender %s", parcel.TrackingNumber, parcel.SenderID)

	if err := s.sessions.ClearStagedBooking(ctx, sessionID); err != nil {
		log.Printf("Failed to clear staged booking for parcel %s: %v", parcel.TrackingNumber, err)
	}

	if err := s.notifier.Notify(ctx, models.ParcelStatusReceived, parcel); err != nil {
		return parcel, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return parcel, nil
}

func (s *BookingService) charge(ctx context.Context, sessionID string, staged *models.StagedBooking, cardToken string) error {
	trackingNumber, err := s.newTrackingNumber()
	if err != nil {
		return err
	}

	customerID, err := s.gateway.CreateCustomer(ctx, staged.SenderEmail, cardToken, CustomerIdempotencyKey(staged))
	if err != nil {
		return asGatewayError(err)
	}

	result, err := s.gateway.Charge(ctx, ChargeRequest{
		CustomerID:     customerID,
		AmountMinor:    utils.ToMinorUnits(staged.Cost),
		Currency:       s.currency,
		Description:    ChargeDescription,
		IdempotencyKey: ChargeIdempotencyKey(staged),
	})
	if err != nil {
		return asGatewayError(err)
	}

	staged.ChargeID = result.ID
	staged.TrackingNumber = trackingNumber
	if err := s.sessions.StageBooking(ctx, sessionID, staged); err != nil {
		log.Printf("Failed to record charge %s on staged booking %s: %v", result.ID, staged.ID, err)
	}
	return nil
}

// persist saves parcel, treating an already saved parcel with the same charge as success.
func (s *BookingService) persist(ctx context.Context, parcel *models.Parcel) error {
	err := s.parcels.CreateParcel(ctx, parcel)
	if err == nil {
		return nil
	}
	existing, findErr := s.parcels.FindParcel(ctx, parcel.TrackingNumber)
	if findErr == nil && existing.ChargeID == parcel.ChargeID {
		*parcel = *existing
		return nil
	}
	return err
}

// CustomerIdempotencyKey and ChargeIdempotencyKey are stable for a staged
// booking, so a repeated payment attempt gets back the first customer and charge.
func CustomerIdempotencyKey(staged *models.StagedBooking) string {
	return staged.ID + ":customer"
}

func ChargeIdempotencyKey(staged *models.StagedBooking) string {
	return staged.ID
}

func asGatewayError(err error) error {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return &GatewayError{Message: "The payment could not be processed. Please try again.", Err: err}
}

// Transition moves a parcel to target on behalf of an admin and notifies the sender.
// Re-applying the current status is allowed and notifies again.
func (s *BookingService) Transition(ctx context.Context, actorID, trackingNumber string, target models.ParcelStatus) (*models.Parcel, error) {
	if err := RequireAdmin(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	if !target.IsValid() {
		return nil, invalidInput("unknown status %q", target)
	}

	parcel, err := s.parcels.FindParcel(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if !parcel.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, parcel.Status, target)
	}

	if err := s.parcels.UpdateParcelStatus(ctx, trackingNumber, target, actorID); err != nil {
		return nil, fmt.Errorf("failed to update parcel %s: %w", trackingNumber, err)
	}
	parcel.Status = target
	log.Printf("Parcel %s marked %s by %s", trackingNumber, target, actorID)

	if err := s.notifier.Notify(ctx, target, parcel); err != nil {
		return parcel, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return parcel, nil
}

// Track returns the parcel and its status history, or nil when the tracking
// number is unknown.
func (s *BookingService) Track(ctx context.Context, trackingNumber string) (*TrackingResult, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, nil
	}

	parcel, err := s.parcels.FindParcel(ctx, trackingNumber)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	history, err := s.parcels.ListStatusEvents(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	return &TrackingResult{Parcel: parcel, History: history}, nil
}

// Dashboard lists the parcels sent by userID, newest first.
func (s *BookingService) Dashboard(ctx context.Context, userID string) ([]models.Parcel, error) {
	return s.parcels.ListParcelsBySender(ctx, userID)
}

// AdminOverview lists every parcel with per-status counts and the number
// booked since midnight UTC+1.
func (s *BookingService) AdminOverview(ctx context.Context, actorID string) (*AdminOverview, error) {
	if err := RequireAdmin(ctx, s.users, actorID); err != nil {
		return nil, err
	}

	parcels, err := s.parcels.ListParcels(ctx)
	if err != nil {
		return nil, err
	}

	current := s.now()
	startOfDay := now.New(current.In(utils.BookingLocation)).BeginningOfDay()

	overview := &AdminOverview{
		Parcels:     parcels,
		ByStatus:    make(map[models.ParcelStatus]int),
		GeneratedAt: utils.FormatBookingTime(current),
	}
	for _, status := range models.GetAllParcelStatuses() {
		overview.ByStatus[status] = 0
	}
	for _, p := range parcels {
		overview.ByStatus[p.Status]++
		if !p.CreatedAt.Before(startOfDay) {
			overview.BookedToday++
		}
	}
	return overview, nil
}
