package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/courier-backend/internal/services"
)

// respondError writes the JSON error response for err.
func respondError(c *gin.Context, err error) {
	var gwErr *services.GatewayError
	var cnbErr *services.ChargedNotBookedError

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")})
	case errors.Is(err, services.ErrNoStagedBooking):
		c.JSON(http.StatusConflict, gin.H{
			"error":    "No booking in progress. Please book a parcel first.",
			"redirect": "/api/parcels/book",
		})
	case errors.As(err, &gwErr):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": gwErr.Message})
	case errors.As(err, &cnbErr):
		log.Printf("Payment taken but booking not saved: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":          "Your payment was received but the booking could not be saved. Please retry the payment; you will not be charged again.",
			"trackingNumber": cnbErr.TrackingNumber,
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
