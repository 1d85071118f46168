package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/courier-backend/internal/middleware"
	"github.com/chachabrian/courier-backend/internal/services"
)

// GetProfile retrieves the logged-in user's profile
func GetProfile(users services.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.FindUserByID(c.Request.Context(), c.GetString(middleware.UserIDKey))
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, userResponse(user))
	}
}
