package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/courier-backend/internal/middleware"
	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/chachabrian/courier-backend/internal/services"
	"github.com/chachabrian/courier-backend/pkg/utils"
)

type PaymentInput struct {
	StripeToken string `json:"stripeToken"`
}

// GetPayment returns the booking awaiting payment and the key the client
// needs to tokenize a card.
func GetPayment(booking *services.BookingService, publicKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		staged, err := booking.PeekStaged(c.Request.Context(), c.GetString(middleware.SessionIDKey))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"booking":   staged,
			"amount":    utils.ToMinorUnits(staged.Cost),
			"publicKey": publicKey,
		})
	}
}

func Pay(booking *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input PaymentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		parcel, err := booking.Pay(c.Request.Context(), c.GetString(middleware.SessionIDKey), input.StripeToken)
		if err != nil && !errors.Is(err, services.ErrNotificationFailed) {
			respondError(c, err)
			return
		}

		response := gin.H{
			"message":        "Payment successful",
			"trackingNumber": parcel.TrackingNumber,
			"parcel":         parcel,
		}
		if err != nil {
			log.Printf("Parcel %s booked without confirmation email: %v", parcel.TrackingNumber, err)
			response["warning"] = "Your parcel is booked but the confirmation email could not be sent."
		}
		c.JSON(http.StatusCreated, response)
	}
}

// TrackParcel is public. An unknown tracking number is not an error.
func TrackParcel(booking *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackingNumber := c.Query("tracking_number")

		result, err := booking.Track(c.Request.Context(), trackingNumber)
		if err != nil {
			respondError(c, err)
			return
		}
		if result == nil {
			c.JSON(http.StatusOK, gin.H{
				"parcel":  nil,
				"message": "No parcel found with that tracking number.",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"parcel":  result.Parcel,
			"history": result.History,
		})
	}
}

func Dashboard(booking *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		parcels, err := booking.Dashboard(c.Request.Context(), c.GetString(middleware.UserIDKey))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"parcels":     parcels,
			"currentTime": utils.FormatBookingTime(time.Now()),
		})
	}
}

func AdminDashboard(booking *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		overview, err := booking.AdminOverview(c.Request.Context(), c.GetString(middleware.UserIDKey))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, overview)
	}
}

// UpdateParcelStatus moves the parcel named in the path to target.
func UpdateParcelStatus(booking *services.BookingService, target models.ParcelStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackingNumber := c.Param("trackingNumber")

		parcel, err := booking.Transition(c.Request.Context(), c.GetString(middleware.UserIDKey), trackingNumber, target)
		if err != nil && !errors.Is(err, services.ErrNotificationFailed) {
			respondError(c, err)
			return
		}

		response := gin.H{
			"message": "Parcel marked as " + string(target),
			"parcel":  parcel,
		}
		if err != nil {
			response["warning"] = "The sender could not be notified by email."
		}
		c.JSON(http.StatusOK, response)
	}
}
