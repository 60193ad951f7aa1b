package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hms-backend/controllers"
	"hms-backend/metrics"
	"hms-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SetupRouter wires controllers onto the HTTP surface.
func SetupRouter(
	rc *controllers.ReservationController,
	roomc *controllers.RoomController,
	fc *controllers.FloorController,
	cc *controllers.ClientController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(metrics.Middleware())
	r.Use(middleware.Identity())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Client-ID", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		reservations := api.Group("/reservations")
		{
			// Payment callbacks before /:id so they don't collide.
			reservations.GET("/payment/success", rc.PaymentSuccess)
			reservations.GET("/payment/cancel", rc.PaymentCancel)

			reservations.GET("", rc.GetReservations)
			reservations.POST("", rc.CreateReservation)
			reservations.GET("/:id", rc.GetReservationDetails)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", roomc.GetRooms)
			rooms.GET("/available", roomc.GetAvailableRooms)
			rooms.POST("", roomc.CreateRoom)
			rooms.PATCH("/:number", roomc.UpdateRoom)
			rooms.PUT("/:number", roomc.UpdateRoom)
			rooms.PATCH("/:number/state", roomc.UpdateRoomState)
			rooms.DELETE("/:number", roomc.DeleteRoom)
		}

		floors := api.Group("/floors")
		{
			floors.GET("", fc.GetFloors)
			floors.POST("", fc.CreateFloor)
			floors.PUT("/:number", fc.UpdateFloor)
			floors.DELETE("/:number", fc.DeleteFloor)
		}

		clients := api.Group("/clients")
		{
			clients.GET("", cc.GetClients)
			clients.POST("", cc.CreateClient)
			clients.POST("/:id/approve", cc.ApproveClient)
			clients.DELETE("/:id", cc.DeleteClient)
		}
	}

	return r
}
