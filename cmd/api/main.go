package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"vendor-onboarding-api/clients"
	"vendor-onboarding-api/config"
	"vendor-onboarding-api/controllers"
	"vendor-onboarding-api/middleware"
	"vendor-onboarding-api/routes"
	"vendor-onboarding-api/services"
	"vendor-onboarding-api/storage"
	"vendor-onboarding-api/store"
)

func main() {
	settings := config.Load()

	logCloser, logWriter := config.InitLogging(settings.LogFile)
	defer logCloser.Close()

	if settings.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := openStore(settings)
	files, local := openStorage(ctx, settings)

	if created, err := controllers.EnsureAdmin(ctx, st, settings.AdminEmail, settings.AdminPassword); err != nil {
		log.Printf("Warning: admin seed failed: %v", err)
	} else if created {
		log.Printf("Seeded admin account %s", settings.AdminEmail)
	}

	// External clients
	var emailSender services.EmailSender
	if mailer := config.NewMailer(settings.SMTP); mailer.Configured() {
		emailSender = mailer
	} else {
		log.Println("SMTP not configured; email notifications will be skipped")
	}
	var smsSender services.SMSSender
	if twilio := clients.NewTwilio(settings.Twilio.BaseURL, settings.Twilio.AccountSID, settings.Twilio.AuthToken, settings.Twilio.FromNumber); twilio.Configured() {
		smsSender = twilio
	} else {
		log.Println("Twilio not configured; SMS notifications will be skipped")
	}
	gateway := clients.NewRazorpay(settings.RazorpayBaseURL, settings.RazorpayKeyID, settings.RazorpayKeySecret)
	kafka := clients.NewKafkaPublisher(settings.KafkaBrokers, settings.KafkaTopic)
	var events services.EventPublisher
	if kafka != nil {
		events = kafka
		defer kafka.Close()
	} else {
		log.Println("Kafka not configured; status events will not be published")
	}

	// Services
	notifier := services.NewNotificationService(st, emailSender, smsSender, services.NotificationConfig{
		DefaultCountryCode: settings.DefaultCountryCode,
		Timeout:            settings.NotifyTimeout,
	})
	workflow := services.NewWorkflow(st, services.NewStateMachine(), notifier, events)
	apps := services.NewApplicationService(st, workflow)
	payments := services.NewPaymentService(st, workflow, gateway, services.PaymentConfig{
		Fee:      settings.ApplicationFee,
		Currency: settings.PaymentCurrency,
	})
	docs := services.NewDocumentService(st, files, settings.MaxUploadBytes)
	templates := services.NewTemplateService(st)

	// Set Gin mode
	if settings.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logWriter
	binding.EnableDecoderDisallowUnknownFields = true

	// Create Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders(settings.IsProduction()))
	router.Use(middleware.CORSMiddleware(settings.CORSAllowedOrigins))
	router.MaxMultipartMemory = settings.MaxUploadBytes

	if local != nil && !settings.IsProduction() {
		router.Static(local.PublicPrefix, local.Root)
	}

	routes.SetupRoutes(router, routes.Handlers{
		Auth:         controllers.NewAuthController(st, settings.JWTSecret, settings.JWTExpireHours),
		Applications: controllers.NewApplicationController(apps, docs),
		Payments:     controllers.NewPaymentController(payments),
		Admin:        controllers.NewAdminController(apps),
		Templates:    controllers.NewNotificationTemplateController(templates),
		Authenticate: middleware.AuthMiddleware(settings.JWTSecret, st),
		LoginLimiter: middleware.NewIPRateLimiter(settings.LoginRatePerMinute),
		HealthDetails: func() gin.H {
			return gin.H{
				"database": settings.DBDriver,
				"storage":  settings.StorageDriver,
				"payments": gateway.Configured(),
			}
		},
	})

	srv := &http.Server{
		Addr:              ":" + settings.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", settings.ServerPort)
		if settings.IsProduction() {
			log.Printf("Running in production mode")
		} else {
			log.Printf("Running in development mode")
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}

func openStore(settings *config.Settings) store.Store {
	if settings.DBDriver == "memory" {
		log.Println("Using in-memory store; data is lost on restart")
		return store.NewMemoryStore()
	}

	db, err := config.InitDB(settings)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}
	return store.NewGormStore(db)
}

// openStorage returns the configured file store; local is non-nil only for
// the disk backend.
func openStorage(ctx context.Context, settings *config.Settings) (services.FileStorage, *storage.Local) {
	if settings.StorageDriver == "s3" {
		s3, err := storage.NewS3(ctx, storage.S3Options{
			Bucket:          settings.S3Bucket,
			Region:          settings.S3Region,
			Endpoint:        settings.S3Endpoint,
			AccessKeyID:     settings.AWSAccessKeyID,
			SecretAccessKey: settings.AWSSecretAccessKey,
		})
		if err != nil {
			log.Fatal("Failed to configure S3 storage: ", err)
		}
		return s3, nil
	}

	local, err := storage.NewLocal(settings.UploadPath, "/uploads")
	if err != nil {
		log.Fatal("Failed to prepare upload directory: ", err)
	}
	return local, local
}
