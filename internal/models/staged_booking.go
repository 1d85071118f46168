package models

import "time"

// StagedBooking holds parcel details between the booking form and payment.
// It lives in the session scope only and is never written to the parcel store.
type StagedBooking struct {
	ID                   string    `json:"id"`
	SenderID             string    `json:"senderId"`
	SenderEmail          string    `json:"senderEmail"`
	SenderName           string    `json:"senderName"`
	SenderAddress        string    `json:"senderAddress"`
	SenderPhone          string    `json:"senderPhone"`
	RecipientName        string    `json:"recipientName"`
	RecipientAddress     string    `json:"recipientAddress"`
	RecipientPhone       string    `json:"recipientPhone"`
	ParcelWeight         float64   `json:"parcelWeight"`
	ParcelSize           string    `json:"parcelSize"`
	DeliveryInstructions string    `json:"deliveryInstructions"`
	Cost                 float64   `json:"cost"`
	DateAndTime          string    `json:"dateAndTime"`
	CreatedAt            time.Time `json:"createdAt"`

	// ChargeID and TrackingNumber are set once the gateway has accepted
	// payment, so a retry after a failed save persists without charging again.
	ChargeID       string `json:"chargeId,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

// IsCharged reports whether payment has already been taken for this booking.
func (b *StagedBooking) IsCharged() bool {
	return b.ChargeID != ""
}

// ToParcel builds the durable record for a paid booking.
func (b *StagedBooking) ToParcel(trackingNumber string) *Parcel {
	return &Parcel{
		TrackingNumber:       trackingNumber,
		SenderID:             b.SenderID,
		SenderEmail:          b.SenderEmail,
		SenderName:           b.SenderName,
		SenderAddress:        b.SenderAddress,
		SenderPhone:          b.SenderPhone,
		RecipientName:        b.RecipientName,
		RecipientAddress:     b.RecipientAddress,
		RecipientPhone:       b.RecipientPhone,
		ParcelWeight:         b.ParcelWeight,
		ParcelSize:           b.ParcelSize,
		DeliveryInstructions: b.DeliveryInstructions,
		DateAndTime:          b.DateAndTime,
		Cost:                 b.Cost,
		Status:               ParcelStatusReceived,
		ChargeID:             b.ChargeID,
	}
}
