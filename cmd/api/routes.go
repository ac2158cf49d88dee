package main

import (
	"carecall-backend/internal/calls"
	"carecall-backend/internal/emergency"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, callHandlers calls.Handlers, emergencyHandlers emergency.Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider-facing endpoints (public).
	// NOTE: The callback endpoint should be protected by provider signature
	// validation in production; Exotel supports IP allow-listing as a stopgap.
	appointments := r.Group("/appointments")
	{
		appointments.POST("/book", callHandlers.Book)
		appointments.GET("/status/:callId", callHandlers.Status)

		// Exotel fetches the voice script when the call is answered and
		// delivers the terminal callback when it ends (GET or POST).
		appointments.GET("/exoml/:callId", callHandlers.ExoML)
		appointments.GET("/callback", callHandlers.Callback)
		appointments.POST("/callback", callHandlers.Callback)
	}

	em := r.Group("/emergency")
	{
		em.POST("/trigger", emergencyHandlers.Trigger)
		em.POST("/cancel", emergencyHandlers.Cancel)
	}
}
