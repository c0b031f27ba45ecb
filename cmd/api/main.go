package main

import (
	"fleet-backend/internal/database"
	"fleet-backend/internal/handler"
	"fleet-backend/internal/repository"
	"fleet-backend/internal/service"
	"fleet-backend/internal/websocket"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Fleet Management API
// @version         1.0
// @description     Transport request, fleet and maintenance management backend.
// @host            localhost:8080
// @BasePath        /
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	requestRepo := repository.NewRequestRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	driverRepo := repository.NewDriverRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, wsHub)
	assignmentService := service.NewAssignmentService(requestRepo, vehicleRepo, driverRepo, surveyRepo, auditRepo, txManager, notificationService)
	requestService := service.NewRequestService(requestRepo, auditRepo, txManager, assignmentService)
	vehicleService := service.NewVehicleService(vehicleRepo, requestRepo, auditRepo, txManager)
	driverService := service.NewDriverService(driverRepo, requestRepo, auditRepo, txManager)
	surveyService := service.NewSurveyService(surveyRepo, requestRepo, auditRepo, txManager)
	maintenanceService := service.NewMaintenanceService(maintenanceRepo, vehicleRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	requestHandler := handler.NewRequestHandler(requestService, assignmentService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	driverHandler := handler.NewDriverHandler(driverService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	surveyHandler := handler.NewSurveyHandler(surveyService)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	// Register API Routes
	requestHandler.RegisterRoutes(router.Group(""))
	vehicleHandler.RegisterRoutes(router.Group(""))
	driverHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))
	surveyHandler.RegisterRoutes(router.Group(""))
	maintenanceHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
