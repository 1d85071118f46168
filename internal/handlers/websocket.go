package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/courier-backend/internal/services"
)

// TrackParcelLive streams status changes for one parcel over a websocket.
func TrackParcelLive(booking *services.BookingService, hub *services.TrackingHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackingNumber := c.Param("trackingNumber")

		result, err := booking.Track(c.Request.Context(), trackingNumber)
		if err != nil {
			respondError(c, err)
			return
		}
		if result == nil {
			c.JSON(404, gin.H{"error": "Parcel not found"})
			return
		}

		hub.ServeTracking(c.Writer, c.Request, trackingNumber, &services.ParcelStatusUpdate{
			TrackingNumber: result.Parcel.TrackingNumber,
			Status:         result.Parcel.Status,
			DateAndTime:    result.Parcel.DateAndTime,
		})
	}
}
