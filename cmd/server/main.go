package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyobodev/fc-onboarding-backend/internal/config"
	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/handlers"
	"github.com/kyobodev/fc-onboarding-backend/internal/middleware"
	"github.com/kyobodev/fc-onboarding-backend/internal/services"
	"github.com/kyobodev/fc-onboarding-backend/internal/utils"
	"github.com/kyobodev/fc-onboarding-backend/pkg/jwt"
	"github.com/kyobodev/fc-onboarding-backend/pkg/mailer"
	"github.com/kyobodev/fc-onboarding-backend/pkg/push"
	"github.com/kyobodev/fc-onboarding-backend/pkg/validator"
	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting FC Onboarding Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize repositories
	profileRepo := database.NewProfileRepository(db)
	documentRepo := database.NewDocumentRepository(db)
	notificationRepo := database.NewNotificationRepository(db)
	messageRepo := database.NewMessageRepository(db)
	deviceTokenRepo := database.NewDeviceTokenRepository(db)
	examRepo := database.NewExamRegistrationRepository(db)
	identityRepo := database.NewIdentitySecureRepository(db)
	adminUserRepo := database.NewAdminUserRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	phoneValidator := validator.NewPhoneValidator()
	rateLimitService := services.NewRateLimitService(db, cfg.RateLimit)
	auditService := services.NewAuditService(db)

	policy := workflow.Policy{RequireBothAppointments: cfg.Workflow.RequireBothAppointments}

	onboardingService := services.NewOnboardingService(profileRepo, phoneValidator, logger)
	documentService := services.NewDocumentService(profileRepo, documentRepo, logger)
	appointmentService := services.NewAppointmentService(profileRepo, phoneValidator, logger)
	accountService := services.NewAccountService(
		profileRepo,
		documentRepo,
		messageRepo,
		examRepo,
		notificationRepo,
		deviceTokenRepo,
		identityRepo,
		&services.LoggingObjectRemover{Logger: logger},
		phoneValidator,
		logger,
	)

	// Resident registration number encryption at rest
	var encryptor *utils.Encryptor
	if cfg.Security.EncryptionKey != "" {
		encryptor, err = utils.NewEncryptor(cfg.Security.EncryptionKey)
		if err != nil {
			logger.Fatalf("Failed to initialize identity encryption: %v", err)
		}
		logger.Info("Identity encryption enabled")
	} else {
		logger.Warn("DATA_ENCRYPTION_KEY not set - full resident IDs will not be stored")
	}

	// Push gateway: FCM in production, logging gateway otherwise
	var pushGateway push.Gateway
	if cfg.Push.Mode == "production" {
		pushGateway = push.NewFCMGateway(push.FCMConfig{
			APIURL:    cfg.Push.APIURL,
			ServerKey: cfg.Push.ServerKey,
		})
		logger.Info("FCM push gateway initialized")
	} else {
		pushGateway = push.NewDevGateway(logger)
		logger.Info("Push gateway in development mode (notifications logged, not delivered)")
	}

	// Mailer: SMTP when configured, dev capture otherwise
	var mail mailer.Mailer
	if cfg.Mail.Host != "" {
		mail, err = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:          cfg.Mail.Host,
			Port:          cfg.Mail.Port,
			Username:      cfg.Mail.Username,
			Password:      cfg.Mail.Password,
			From:          cfg.Mail.From,
			SkipTLSVerify: cfg.Mail.SkipTLSVerify,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize SMTP mailer: %v", err)
		}
		logger.Info("SMTP mailer initialized")
	} else {
		mail = mailer.NewDevMailer()
		logger.Info("Mailer in development mode (mail captured, not delivered)")
	}

	reminderService := services.NewReminderService(
		profileRepo,
		notificationRepo,
		deviceTokenRepo,
		pushGateway,
		mail,
		cfg.Reminder,
		nil, // system clock
		logger,
	)

	// Initialize and start cron service
	cronService := services.NewCronService(reminderService, rateLimitService, cfg.Reminder, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(jwtService, onboardingService, rateLimitService, auditService)
	adminAuthHandler := handlers.NewAdminAuthHandler(jwtService, adminUserRepo, auditService)
	profileHandler := handlers.NewProfileHandler(
		onboardingService,
		appointmentService,
		accountService,
		documentRepo,
		identityRepo,
		auditService,
		encryptor,
		policy,
	)
	documentHandler := handlers.NewDocumentHandler(onboardingService, documentService, auditService)
	notificationHandler := handlers.NewNotificationHandler(
		onboardingService,
		notificationRepo,
		messageRepo,
		deviceTokenRepo,
		examRepo,
	)
	adminHandler := handlers.NewAdminHandler(
		onboardingService,
		documentService,
		appointmentService,
		cronService,
		profileRepo,
		documentRepo,
		messageRepo,
		auditService,
		policy,
	)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// FC authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// FC applicant routes (protected)
		fc := v1.Group("/fc")
		fc.Use(middleware.AuthMiddleware(jwtService))
		fc.Use(middleware.RequireRole(jwt.RoleFC))
		{
			fc.GET("/profile", profileHandler.GetProfile)
			fc.PUT("/profile", profileHandler.UpdateProfile)
			fc.GET("/step", profileHandler.GetStep)
			fc.POST("/allowance/consent", profileHandler.SubmitAllowanceConsent)
			fc.POST("/appointment", profileHandler.SubmitAppointment)
			fc.DELETE("/account", profileHandler.DeleteAccount)

			fc.GET("/documents", documentHandler.ListDocuments)
			fc.POST("/documents", documentHandler.UploadDocument)
			fc.DELETE("/documents/:id", documentHandler.RemoveDocument)

			fc.GET("/notifications", notificationHandler.ListNotifications)
			fc.PUT("/notifications/:id/read", notificationHandler.MarkNotificationRead)
			fc.GET("/messages", notificationHandler.ListMessages)
			fc.POST("/messages", notificationHandler.SendMessage)
			fc.POST("/device-token", notificationHandler.RegisterDeviceToken)
			fc.DELETE("/device-token/:token", notificationHandler.RemoveDeviceToken)
			fc.GET("/exams", notificationHandler.ListExamRegistrations)
			fc.POST("/exams", notificationHandler.RegisterExam)
		}

		// Admin authentication (public)
		adminAuth := v1.Group("/admin/auth")
		{
			adminAuth.POST("/login", adminAuthHandler.Login)
			adminAuth.POST("/refresh", adminAuthHandler.Refresh)
		}

		// Admin dashboard routes (protected)
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		admin.Use(middleware.RequireRole(jwt.RoleAdmin))
		{
			admin.GET("/profiles", adminHandler.ListProfiles)
			admin.POST("/profiles/bulk", adminHandler.BulkCreateProfiles)
			admin.GET("/profiles/:phone", adminHandler.GetProfile)
			admin.POST("/profiles/:phone/temp-id", adminHandler.IssueTempID)
			admin.POST("/profiles/:phone/allowance/approve", adminHandler.ApproveAllowance)
			admin.POST("/profiles/:phone/allowance/reject", adminHandler.RejectAllowance)
			admin.POST("/profiles/:phone/documents/request", adminHandler.RequestDocuments)
			admin.POST("/profiles/:phone/appointment/confirm", adminHandler.ConfirmAppointment)
			admin.POST("/profiles/:phone/appointment/reject", adminHandler.RejectAppointment)
			admin.POST("/profiles/:phone/final-link", adminHandler.SendFinalLink)
			admin.GET("/profiles/:phone/messages", adminHandler.ListMessages)
			admin.POST("/profiles/:phone/messages", adminHandler.SendMessage)

			admin.POST("/documents/:id/approve", adminHandler.ApproveDocument)
			admin.POST("/documents/:id/reject", adminHandler.RejectDocument)

			admin.POST("/reminders/sweep", adminHandler.TriggerReminderSweep)
			admin.GET("/jobs", adminHandler.GetJobStatus)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop cron service
	logger.Info("Stopping cron service...")
	cronService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		// Add user context if available
		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["profile_id"] = userCtx.ProfileID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		if err := db.Ping(); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
