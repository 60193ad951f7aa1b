package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"hms-backend/config"
	"hms-backend/controllers"
	"hms-backend/payment"
	"hms-backend/queue"
	"hms-backend/routes"
	"hms-backend/services"
	"hms-backend/utils"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Info(".env not found or couldn't load it; continuing with environment variables")
	}

	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	// Payment gateway is required: the reservation workflow cannot run
	// without it.
	gatewayURL := os.Getenv("PAYMENT_GATEWAY_URL")
	if gatewayURL == "" {
		log.Fatal("PAYMENT_GATEWAY_URL environment variable is not set")
	}
	gateway := payment.NewHTTPGateway(payment.Config{
		BaseURL: gatewayURL,
		APIKey:  os.Getenv("PAYMENT_GATEWAY_KEY"),
	})

	// Connect database
	if err := config.ConnectDatabase(); err != nil {
		log.WithError(err).Fatal("database connect failed")
	}
	db := config.DB
	log.Info("Database connection established and migrations applied")

	// Optional infrastructure: room cache and event publisher both degrade
	// to disabled when unconfigured.
	cache := services.NewRoomCache(config.ConnectRedis(), utils.EnvDurationOrDefault("ROOM_CACHE_TTL", 30*time.Second))

	events, err := queue.NewPublisher(os.Getenv("AMQP_URL"))
	if err != nil {
		log.WithError(err).Warn("event publisher disabled: broker unreachable")
	}
	defer events.Close()

	// Initialize services
	inventoryService := services.NewInventoryService(db, cache)
	sessionService := services.NewCheckoutSessionService(db)
	approvalService := services.NewApprovalService(db)
	roomService := services.NewRoomService(db, cache)
	floorService := services.NewFloorService(db)
	clientService := services.NewClientService(db)

	reservationService := services.NewReservationService(
		db,
		inventoryService,
		sessionService,
		approvalService,
		gateway,
		events,
		services.ReservationConfig{
			HoldWindow:      utils.EnvDurationOrDefault("RESERVATION_HOLD_WINDOW", services.DefaultHoldWindow),
			Currency:        utils.EnvOrDefault("PAYMENT_CURRENCY", "usd"),
			CallbackBaseURL: utils.EnvOrDefault("CALLBACK_BASE_URL", "http://localhost:8080/api"),
		},
	)

	// Initialize controllers
	reservationController := controllers.NewReservationController(reservationService)
	roomController := controllers.NewRoomController(roomService, inventoryService)
	floorController := controllers.NewFloorController(floorService)
	clientController := controllers.NewClientController(clientService, approvalService)

	// Build router
	router := routes.SetupRouter(reservationController, roomController, floorController, clientController)

	// Background reconciliation sweep for stale holds
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go reservationService.RunReconciliationSweep(sweepCtx, utils.EnvDurationOrDefault("SWEEP_INTERVAL", time.Minute))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
		// useful timeouts
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("addr", addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received, shutting down server")

	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server stopped gracefully")
}
