package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"junktrunk-api/internal/handler"
	"junktrunk-api/internal/metrics"
	"junktrunk-api/internal/middleware"
	"junktrunk-api/internal/model"
	"junktrunk-api/internal/repository"
	"junktrunk-api/internal/resolver"
	"junktrunk-api/internal/service"
	"junktrunk-api/internal/ws"
	"junktrunk-api/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to init logger: ", err)
	}
	defer zlog.Sync()

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(&model.Product{}, &model.ScanEvent{}, &model.User{})

	// 3. Setup WebSocket Hub (live scan feed)
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 4. Resolution pipeline against the external sources
	pipeline := resolver.FromConfig(resolver.Config{
		EbayAppID:    os.Getenv("EBAY_APP_ID"),
		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		GoogleCX:     os.Getenv("GOOGLE_CX"),
	}, zlog)

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	scanRepo := repository.NewScanRepo(db)
	userRepo := repository.NewUserRepo(db)

	scanService := service.NewScanService(productRepo, scanRepo, pipeline, wsHub, zlog)
	statsService := service.NewStatsService(productRepo, scanRepo)

	productHandler := handler.NewProductHandler(scanService)
	dashHandler := handler.NewDashboardHandler(statsService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "JunkTrunk API v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "message": "JunkTrunk API is running"})
	})

	// Product routes. Auth is optional: scans without a token are anonymous.
	products := api.Group("/products", middleware.OptionalAuth(userRepo))
	products.Post("/scan", productHandler.Scan)
	products.Get("/history/today", productHandler.HistoryToday)
	products.Get("/:id", productHandler.GetProduct)
	products.Put("/:id", productHandler.UpdateProduct)

	// Dashboard routes
	api.Get("/dashboard/stats", dashHandler.GetStats)
	api.Get("/dashboard/scan-activity", dashHandler.GetScanActivity)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
