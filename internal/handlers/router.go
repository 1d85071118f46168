package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/courier-backend/internal/middleware"
	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/chachabrian/courier-backend/internal/services"
)

type RouterDeps struct {
	Auth            *services.AuthService
	Booking         *services.BookingService
	Users           services.UserStore
	Hub             *services.TrackingHub
	StripePublicKey string
	CORSOrigins     []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = deps.CORSOrigins
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"*"}
	}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	authRequired := middleware.AuthMiddleware(deps.Auth)

	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", Register(deps.Auth))
			auth.POST("/login", Login(deps.Auth))
			auth.POST("/logout", authRequired, Logout(deps.Auth))
		}

		api.GET("/track", TrackParcel(deps.Booking))
		api.GET("/track/:trackingNumber/live", TrackParcelLive(deps.Booking, deps.Hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(authRequired)
		{
			protected.GET("/profile", GetProfile(deps.Users))
			protected.GET("/dashboard", Dashboard(deps.Booking))

			parcels := protected.Group("/parcels")
			{
				parcels.POST("/book", BookParcel(deps.Booking, deps.Users))
				parcels.GET("/book", GetStagedBooking(deps.Booking))
				parcels.DELETE("/book", CancelStagedBooking(deps.Booking))
			}

			protected.GET("/payment", GetPayment(deps.Booking, deps.StripePublicKey))
			protected.POST("/payment", Pay(deps.Booking))

			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin(deps.Users))
			{
				admin.GET("/dashboard", AdminDashboard(deps.Booking))
				admin.POST("/parcels/:trackingNumber/dispatch", UpdateParcelStatus(deps.Booking, models.ParcelStatusDispatched))
				admin.POST("/parcels/:trackingNumber/deliver", UpdateParcelStatus(deps.Booking, models.ParcelStatusDelivered))
			}
		}
	}

	return r
}
