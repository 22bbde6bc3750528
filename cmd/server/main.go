package main

import (
	"context"
	"log"
	"time"

	"eventrix-booking/config"
	"eventrix-booking/internal/cache"
	"eventrix-booking/internal/database"
	"eventrix-booking/internal/handler"
	"eventrix-booking/internal/middleware"
	"eventrix-booking/internal/notification"
	"eventrix-booking/internal/queue"
	"eventrix-booking/internal/repository"
	"eventrix-booking/internal/service"
	"eventrix-booking/internal/worker"
	"eventrix-booking/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	defer logger.Sync()

	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	// Repositories
	eventRepo := repository.NewEventRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	waitlistRepo := repository.NewWaitlistRepository(pool)

	availabilityCache := cache.NewEventAvailabilityCache(rdb)

	promotionQueue, err := queue.NewRedisStreamPromotionQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize promotion queue: %v", err)
	}

	notifier := notification.NewEmailNotifier(notification.NewMailer(cfg.SMTP))

	// Services
	eventService := service.NewEventService(eventRepo, waitlistRepo, availabilityCache)
	bookingService := service.NewBookingService(pool, bookingRepo, eventRepo, waitlistRepo, availabilityCache, promotionQueue, notifier)
	promotionService := service.NewPromotionService(pool, bookingRepo, eventRepo, waitlistRepo, availabilityCache, notifier)

	// 候補遞補在背景 worker 消化，取消請求不等遞補跑完
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	promotionWorker := worker.NewPromotionWorker(promotionService, promotionQueue)
	if err := promotionWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start promotion worker: %v", err)
	}

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "Booking service is running",
			"timestamp": time.Now().UTC(),
		})
	})

	router.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	handler.NewEventHandler(eventService, bookingService).RegisterRoutes(router)
	handler.NewBookingHandler(bookingService).RegisterRoutes(router)

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
