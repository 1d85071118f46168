package models

import "time"

type ParcelStatus string

const (
	ParcelStatusReceived   ParcelStatus = "Received"
	ParcelStatusDispatched ParcelStatus = "Dispatched"
	ParcelStatusDelivered  ParcelStatus = "Delivered"
)

func (s ParcelStatus) String() string {
	return string(s)
}

func (s ParcelStatus) IsValid() bool {
	switch s {
	case ParcelStatusReceived, ParcelStatusDispatched, ParcelStatusDelivered:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a parcel in status s may move to next.
// Re-applying the current status is allowed; skips and reversals are not.
func (s ParcelStatus) CanTransitionTo(next ParcelStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case ParcelStatusReceived:
		return next == ParcelStatusDispatched
	case ParcelStatusDispatched:
		return next == ParcelStatusDelivered
	default:
		return false
	}
}

// GetAllParcelStatuses returns the statuses in lifecycle order.
func GetAllParcelStatuses() []ParcelStatus {
	return []ParcelStatus{
		ParcelStatusReceived,
		ParcelStatusDispatched,
		ParcelStatusDelivered,
	}
}

type Parcel struct {
	TrackingNumber       string       `gorm:"primaryKey;size:16" bson:"tracking_number" json:"trackingNumber"`
	SenderID             string       `gorm:"column:sender_id;index;not null" bson:"sender_id" json:"senderId"`
	SenderEmail          string       `gorm:"column:sender_email;not null" bson:"sender_email" json:"senderEmail"`
	SenderName           string       `gorm:"column:sender_name;not null" bson:"sender_name" json:"senderName"`
	SenderAddress        string       `gorm:"column:sender_address;not null" bson:"sender_address" json:"senderAddress"`
	SenderPhone          string       `gorm:"column:sender_phone;not null" bson:"sender_phone" json:"senderPhone"`
	RecipientName        string       `gorm:"column:recipient_name;not null" bson:"recipient_name" json:"recipientName"`
	RecipientAddress     string       `gorm:"column:recipient_address;not null" bson:"recipient_address" json:"recipientAddress"`
	RecipientPhone       string       `gorm:"column:recipient_phone;not null" bson:"recipient_phone" json:"recipientPhone"`
	ParcelWeight         float64      `gorm:"column:parcel_weight;not null" bson:"parcel_weight" json:"parcelWeight"`
	ParcelSize           string       `gorm:"column:parcel_size;not null" bson:"parcel_size" json:"parcelSize"`
	DeliveryInstructions string       `gorm:"column:delivery_instructions;size:200" bson:"delivery_instructions" json:"deliveryInstructions"`
	DateAndTime          string       `gorm:"column:date_and_time;not null" bson:"date_and_time" json:"dateAndTime"`
	Cost                 float64      `gorm:"column:cost;not null" bson:"cost" json:"cost"`
	Status               ParcelStatus `gorm:"column:status;size:20;not null;index" bson:"status" json:"status"`
	ChargeID             string       `gorm:"column:charge_id" bson:"charge_id" json:"-"`
	CreatedAt            time.Time    `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time    `bson:"updated_at" json:"updatedAt"`
}

func (Parcel) TableName() string {
	return "parcels"
}

// ParcelStatusEvent records every status a parcel has been given.
type ParcelStatusEvent struct {
	ID             uint         `gorm:"primaryKey;autoIncrement" bson:"-" json:"-"`
	TrackingNumber string       `gorm:"column:tracking_number;size:16;not null;index" bson:"tracking_number" json:"trackingNumber"`
	Status         ParcelStatus `gorm:"column:status;size:20;not null" bson:"status" json:"status"`
	ChangedBy      string       `gorm:"column:changed_by;not null" bson:"changed_by" json:"changedBy"`
	CreatedAt      time.Time    `bson:"created_at" json:"createdAt"`
}

func (ParcelStatusEvent) TableName() string {
	return "parcel_status_events"
}
