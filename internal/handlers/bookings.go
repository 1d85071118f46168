package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/courier-backend/internal/middleware"
	"github.com/chachabrian/courier-backend/internal/services"
)

type BookParcelInput struct {
	SenderName           string  `json:"senderName" binding:"required"`
	SenderAddress        string  `json:"senderAddress" binding:"required"`
	SenderPhone          string  `json:"senderPhone" binding:"required"`
	RecipientName        string  `json:"recipientName" binding:"required"`
	RecipientAddress     string  `json:"recipientAddress" binding:"required"`
	RecipientPhone       string  `json:"recipientPhone" binding:"required"`
	ParcelWeight         float64 `json:"parcelWeight" binding:"required,gt=0"`
	ParcelSize           string  `json:"parcelSize" binding:"required"`
	DeliveryInstructions string  `json:"deliveryInstructions" binding:"max=200"`
}

// BookParcel stages the submitted parcel for payment, replacing any earlier one.
func BookParcel(booking *services.BookingService, users services.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input BookParcelInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sender, err := users.FindUserByID(c.Request.Context(), c.GetString(middleware.UserIDKey))
		if err != nil {
			respondError(c, err)
			return
		}

		staged, err := booking.Stage(c.Request.Context(), c.GetString(middleware.SessionIDKey), sender, services.BookingForm{
			SenderName:           input.SenderName,
			SenderAddress:        input.SenderAddress,
			SenderPhone:          input.SenderPhone,
			RecipientName:        input.RecipientName,
			RecipientAddress:     input.RecipientAddress,
			RecipientPhone:       input.RecipientPhone,
			ParcelWeight:         input.ParcelWeight,
			ParcelSize:           input.ParcelSize,
			DeliveryInstructions: input.DeliveryInstructions,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"booking":  staged,
			"redirect": "/api/payment",
		})
	}
}

func GetStagedBooking(booking *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		staged, err := booking.PeekStaged(c.Request.Context(), c.GetString(middleware.SessionIDKey))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"booking": staged})
	}
}

func CancelStagedBooking(booking *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := booking.ClearStaged(c.Request.Context(), c.GetString(middleware.SessionIDKey)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled"})
	}
}
