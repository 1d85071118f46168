package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/chachabrian/courier-backend/internal/services"
)

// Repository stores users and parcels in a gorm database.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return services.ErrEmailTaken
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *Repository) UpdateUserRole(ctx context.Context, email string, role models.Role) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

// CreateParcel saves parcel together with its first status event.
func (r *Repository) CreateParcel(ctx context.Context, parcel *models.Parcel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(parcel).Error; err != nil {
			return fmt.Errorf("failed to create parcel %s: %w", parcel.TrackingNumber, err)
		}
		event := models.ParcelStatusEvent{
			TrackingNumber: parcel.TrackingNumber,
			Status:         parcel.Status,
			ChangedBy:      parcel.SenderID,
		}
		return tx.Create(&event).Error
	})
}

func (r *Repository) FindParcel(ctx context.Context, trackingNumber string) (*models.Parcel, error) {
	var parcel models.Parcel
	if err := r.db.WithContext(ctx).First(&parcel, "tracking_number = ?", trackingNumber).Error; err != nil {
		return nil, notFound(err)
	}
	return &parcel, nil
}

func (r *Repository) UpdateParcelStatus(ctx context.Context, trackingNumber string, status models.ParcelStatus, changedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Parcel{}).
			Where("tracking_number = ?", trackingNumber).
			Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return services.ErrNotFound
		}

		event := models.ParcelStatusEvent{
			TrackingNumber: trackingNumber,
			Status:         status,
			ChangedBy:      changedBy,
		}
		return tx.Create(&event).Error
	})
}

func (r *Repository) ListParcelsBySender(ctx context.Context, senderID string) ([]models.Parcel, error) {
	var parcels []models.Parcel
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Find(&parcels).Error
	return parcels, err
}

func (r *Repository) ListParcels(ctx context.Context) ([]models.Parcel, error) {
	var parcels []models.Parcel
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&parcels).Error
	return parcels, err
}

func (r *Repository) ListStatusEvents(ctx context.Context, trackingNumber string) ([]models.ParcelStatusEvent, error) {
	var events []models.ParcelStatusEvent
	err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}
