// File: bookmytime/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bookmytime/config"
	"bookmytime/cron"
	"bookmytime/database"
	appointmentRepo "bookmytime/database/repository/appointment"
	providerRepo "bookmytime/database/repository/provider"
	reviewRepo "bookmytime/database/repository/review"
	serviceRepo "bookmytime/database/repository/service"
	slotRepo "bookmytime/database/repository/slot"
	"bookmytime/handlers"
	"bookmytime/routes"
	"bookmytime/services/booking"
	"bookmytime/services/discovery"
	"bookmytime/services/provider"
	"bookmytime/services/review"
	"bookmytime/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	slots := slotRepo.NewMongoSlotRepo()
	appointments := appointmentRepo.NewMongoAppointmentRepo()
	providers := providerRepo.NewMongoProviderRepo()
	services := serviceRepo.NewMongoServiceRepo()
	reviews := reviewRepo.NewMongoReviewRepo()

	// services.
	coordinator := &booking.DefaultCoordinator{
		Slots:              slots,
		Appointments:       appointments,
		Providers:          providers,
		Services:           services,
		CancelReleaseGrace: time.Duration(config.AppConfig.CancelReleaseGraceMin) * time.Minute,
		Scheduler:          cron.NewAsynqReleaseScheduler(),
		PendingExpiry:      time.Duration(config.AppConfig.PendingExpiryMin) * time.Minute,
		ReconcileAfter:     10 * time.Minute,
	}

	discoveryService := &discovery.DefaultDiscoveryService{
		Providers: providers,
		Slots:     slots,
		Cache:     utils.GetCacheClient(),
		CacheTTL:  time.Duration(config.AppConfig.AvailabilityCacheTTL) * time.Second,
	}

	providerService := &provider.DefaultProviderService{
		Repo:     providers,
		Services: services,
		Slots:    slots,
	}

	reviewService := &review.DefaultReviewService{
		Reviews:      reviews,
		Appointments: appointments,
		Providers:    providers,
	}

	handlers.BookingService = coordinator
	handlers.DiscoveryService = discoveryService
	handlers.ProviderService = providerService
	handlers.ReviewService = reviewService

	routes.RegisterRoutes(router)

	// Background worker: deferred releases and the maintenance sweep.
	cron.InitBookingWorker(coordinator, slots)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
