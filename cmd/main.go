package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hibiken/asynq"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"gymflow/internal/analytics"
	"gymflow/internal/caching"
	"gymflow/internal/config"
	"gymflow/internal/handlers"
	"gymflow/internal/jobs"
	"gymflow/internal/jobs/background"
	"gymflow/internal/middleware"
	"gymflow/internal/repositories"
	"gymflow/internal/services"
	"gymflow/internal/voice"
	"gymflow/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// Voice integration configuration, TOML file with env fallbacks
	voiceCfg := &config.VoiceConfig{}
	if cfgPath := os.Getenv("VOICE_CONFIG"); cfgPath != "" {
		voiceCfg, err = config.LoadVoiceConfig(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load voice config: %v", err)
		}
	}
	if voiceCfg.Provider.APIEndpoint == "" {
		voiceCfg.Provider.APIEndpoint = os.Getenv("VOICE_API_ENDPOINT")
	}
	if voiceCfg.Provider.APIKey == "" {
		voiceCfg.Provider.APIKey = os.Getenv("VOICE_API_KEY")
	}
	if voiceCfg.Provider.WebhookSecret == "" {
		voiceCfg.Provider.WebhookSecret = os.Getenv("VOICE_WEBHOOK_SECRET")
	}
	if voiceCfg.Provider.WebhookSecret == "" {
		voiceCfg.Provider.WebhookSecret = random.String(32)
		log.Printf("WARNING: Using generated webhook secret")
	}
	if voiceCfg.Queuing.RedisAddr == "" {
		voiceCfg.Queuing.RedisAddr = redisAddr
		voiceCfg.Queuing.RedisPassword = redisPassword
		voiceCfg.Queuing.RedisDB = redisDB
	}
	if voiceCfg.Queuing.Concurrency <= 0 {
		voiceCfg.Queuing.Concurrency = 10
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	storageSvc, err := services.NewStorageService(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}
	if err := storageSvc.EnsureBuckets(context.Background()); err != nil {
		log.Printf("WARNING: Failed to ensure storage buckets: %v", err)
	}

	// Repositories
	gymRepo := repositories.NewGymRepository(pool)
	branchRepo := repositories.NewBranchRepository(pool)
	leadRepo := repositories.NewLeadRepository(pool)
	callRepo := repositories.NewCallLogRepository(pool)
	appointmentRepo := repositories.NewAppointmentRepository(pool)
	tagRepo := repositories.NewTagRepository(pool)
	knowledgeRepo := repositories.NewKnowledgeRepository(pool)
	campaignRepo := repositories.NewCampaignRepository(pool)

	// Cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Task queue client
	queueOpt := asynq.RedisClientOpt{
		Addr:     voiceCfg.Queuing.RedisAddr,
		Password: voiceCfg.Queuing.RedisPassword,
		DB:       voiceCfg.Queuing.RedisDB,
	}
	queueClient := asynq.NewClient(queueOpt)
	defer queueClient.Close()

	// Voice gateway
	gateway := voice.NewHTTPGateway(voiceCfg.Provider.APIEndpoint, voiceCfg.Provider.APIKey)

	// Services
	analyticsSvc := analytics.NewService(leadRepo, callRepo, appointmentRepo, cacheSvc)
	leadSvc := services.NewLeadService(leadRepo, cacheSvc)
	appointmentSvc := services.NewAppointmentService(pool, appointmentRepo, leadRepo, cacheSvc)
	callSvc := services.NewCallService(callRepo, leadRepo, cacheSvc, queueClient, voiceCfg.Calling)
	campaignSvc := services.NewCampaignService(campaignRepo, callSvc, cacheSvc)
	gymSvc := services.NewGymService(gymRepo, cacheSvc)
	tagSvc := services.NewTagService(tagRepo, cacheSvc)
	branchSvc := services.NewBranchService(branchRepo, cacheSvc)
	knowledgeSvc := services.NewKnowledgeService(knowledgeRepo, branchRepo, storageSvc, cacheSvc)

	// Task queue workers
	callWorker := jobs.NewCallWorker(callRepo, leadRepo, gateway, cacheSvc)
	reportWorker := jobs.NewReportWorker(analyticsSvc, storageSvc)
	queueServer := asynq.NewServer(queueOpt, asynq.Config{
		Concurrency: voiceCfg.Queuing.Concurrency,
		Queues:      voiceCfg.Queuing.QueueMap(),
	})
	go func() {
		if err := queueServer.Run(jobs.NewMux(callWorker, reportWorker)); err != nil {
			log.Fatalf("Task queue server failed: %v", err)
		}
	}()

	// Background scheduler
	scheduler, err := background.NewJobScheduler(analyticsSvc, campaignSvc, gymRepo, callRepo)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	// Handlers
	gymHandlers := handlers.NewGymHandlers(gymSvc)
	leadHandlers := handlers.NewLeadHandlers(leadSvc)
	appointmentHandlers := handlers.NewAppointmentHandlers(appointmentSvc)
	callHandlers := handlers.NewCallHandlers(callSvc)
	campaignHandlers := handlers.NewCampaignHandlers(campaignSvc)
	tagHandlers := handlers.NewTagHandlers(tagSvc)
	branchHandlers := handlers.NewBranchHandlers(branchSvc)
	knowledgeHandlers := handlers.NewKnowledgeHandlers(knowledgeSvc, storageSvc)
	analyticsHandlers := handlers.NewAnalyticsHandlers(analyticsSvc, queueClient)
	webhookHandlers := handlers.NewWebhookHandlers(callSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, version)

	e := echo.New()
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())

	// Health, unauthenticated
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// Provider callbacks, shared-secret auth
	webhooks := e.Group("/v1/webhooks")
	webhooks.Use(middleware.WebhookAuth(voiceCfg.Provider.WebhookSecret))
	webhooks.POST("/voice", webhookHandlers.VoiceCallResult)

	// Tenant API, JWT auth
	api := e.Group("/v1")
	api.Use(echojwt.WithConfig(middleware.JWTConfig(jwtSecret)))
	api.Use(middleware.TenantContext())

	api.POST("/gyms", gymHandlers.CreateGym)
	api.GET("/gym", gymHandlers.GetGym)
	api.PUT("/gym", gymHandlers.UpdateGym)
	api.DELETE("/gym", gymHandlers.DeactivateGym)

	api.POST("/leads", leadHandlers.CreateLead)
	api.GET("/leads", leadHandlers.ListLeads)
	api.GET("/leads/prioritized", leadHandlers.PrioritizedLeads)
	api.GET("/leads/:id", leadHandlers.GetLeadByID)
	api.PUT("/leads/:id", leadHandlers.UpdateLead)
	api.PATCH("/leads/:id/status", leadHandlers.UpdateLeadStatus)
	api.DELETE("/leads/:id", leadHandlers.DeleteLead)
	api.GET("/leads/:id/tags", leadHandlers.ListLeadTags)
	api.POST("/leads/:id/tags/:tagId", leadHandlers.AttachTag)
	api.DELETE("/leads/:id/tags/:tagId", leadHandlers.DetachTag)

	api.POST("/appointments", appointmentHandlers.CreateAppointment)
	api.GET("/appointments", appointmentHandlers.ListAppointments)
	api.GET("/appointments/:id", appointmentHandlers.GetAppointmentByID)
	api.PUT("/appointments/:id", appointmentHandlers.RescheduleAppointment)
	api.PATCH("/appointments/:id/status", appointmentHandlers.UpdateAppointmentStatus)
	api.DELETE("/appointments/:id", appointmentHandlers.DeleteAppointment)

	api.POST("/calls", callHandlers.ScheduleCall)
	api.GET("/calls", callHandlers.ListCalls)
	api.GET("/calls/:id", callHandlers.GetCallByID)
	api.PATCH("/calls/:id/status", callHandlers.UpdateCallStatus)
	api.POST("/calls/:id/complete", callHandlers.CompleteCall)
	api.PATCH("/calls/:id/notes", callHandlers.AmendCallNotes)
	api.POST("/calls/:id/cancel", callHandlers.CancelCall)

	api.POST("/campaigns", campaignHandlers.CreateCampaign)
	api.GET("/campaigns", campaignHandlers.ListCampaigns)
	api.GET("/campaigns/:id", campaignHandlers.GetCampaignByID)
	api.PUT("/campaigns/:id", campaignHandlers.UpdateCampaign)
	api.PATCH("/campaigns/:id/status", campaignHandlers.UpdateCampaignStatus)
	api.DELETE("/campaigns/:id", campaignHandlers.DeleteCampaign)
	api.POST("/campaigns/:id/leads", campaignHandlers.AddCampaignLeads)
	api.DELETE("/campaigns/:id/leads/:leadId", campaignHandlers.RemoveCampaignLead)
	api.GET("/campaigns/:id/metrics", campaignHandlers.CampaignMetrics)

	api.POST("/tags", tagHandlers.CreateTag)
	api.GET("/tags", tagHandlers.ListTags)
	api.PUT("/tags/:id", tagHandlers.UpdateTag)
	api.DELETE("/tags/:id", tagHandlers.DeleteTag)

	api.POST("/branches", branchHandlers.CreateBranch)
	api.GET("/branches", branchHandlers.ListBranches)
	api.GET("/branches/:id", branchHandlers.GetBranchByID)
	api.PUT("/branches/:id", branchHandlers.UpdateBranch)
	api.DELETE("/branches/:id", branchHandlers.DeleteBranch)

	api.POST("/knowledge", knowledgeHandlers.CreateKnowledgeItem)
	api.POST("/knowledge/upload", knowledgeHandlers.UploadKnowledgePDF)
	api.GET("/knowledge", knowledgeHandlers.ListKnowledgeItems)
	api.GET("/knowledge/:id", knowledgeHandlers.GetKnowledgeItemByID)
	api.GET("/knowledge/:id/document", knowledgeHandlers.GetKnowledgeDocumentURL)
	api.PUT("/knowledge/:id", knowledgeHandlers.UpdateKnowledgeItem)
	api.DELETE("/knowledge/:id", knowledgeHandlers.DeleteKnowledgeItem)

	api.GET("/analytics/leads", analyticsHandlers.LeadFunnel)
	api.GET("/analytics/calls", analyticsHandlers.CallStats)
	api.GET("/analytics/appointments", analyticsHandlers.AppointmentStats)
	api.GET("/analytics/dashboard", analyticsHandlers.Dashboard)
	api.POST("/analytics/reports", analyticsHandlers.GenerateReport)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	queueServer.Shutdown()
	if err := e.Shutdown(context.Background()); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
