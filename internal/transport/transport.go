package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/eventwaitlist/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

func InitRoutes(waitlistHandler *WaitlistHandler, eventHandler *EventHandler, requestTimeout time.Duration) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	// API routes
	api := router.Group("/api/v1")
	{
		// Waitlist routes
		waitlist := api.Group("/waitlist/:eventId")
		{
			waitlist.POST("", waitlistHandler.Join)
			waitlist.DELETE("", waitlistHandler.Leave)
			waitlist.GET("/status", waitlistHandler.Status)
			waitlist.GET("/size", waitlistHandler.Size)
		}

		// Event routes
		events := api.Group("/events")
		{
			events.GET("", eventHandler.GetAllEvents)
			events.GET("/:id", eventHandler.GetEvent)
			events.POST("/:id/register", eventHandler.Register)
		}

		// Admin routes
		admin := api.Group("/admin")
		{
			admin.GET("/waitlists", waitlistHandler.Dump)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})

	return router
}
