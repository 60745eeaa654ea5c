package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-journal-backend/internal/barcode"
	"photo-journal-backend/internal/config"
	"photo-journal-backend/internal/handlers"
	"photo-journal-backend/internal/metrics"
	"photo-journal-backend/internal/middleware"
	"photo-journal-backend/internal/push"
	"photo-journal-backend/internal/repository"
	"photo-journal-backend/internal/services"
	"photo-journal-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const objectsPath = "/objects"

func Run() {
	// Load configuration
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Initialize repositories
	var store *repository.Store
	if cfg.Database.InMemory {
		store = repository.NewMemory()
		log.Warn().Msg("Using in-memory repositories; data is lost on restart")
	} else {
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping database")
		}
		log.Info().Msg("Database connection established")

		if err := repository.ApplyMigrations(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		store = repository.New(db)
	}

	// Initialize object storage
	var objects services.ObjectStore
	var memoryObjects *storage.MemoryStore
	if cfg.AWS.S3Bucket == "" {
		memoryObjects = storage.NewMemoryStore(fmt.Sprintf("http://%s%s", localAddr(cfg.Server), objectsPath))
		objects = memoryObjects
		log.Warn().Msg("No S3 bucket configured; objects are kept in memory")
	} else {
		s3Store, err := storage.NewS3Store(ctx, cfg.AWS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create object store")
		}
		objects = s3Store
	}

	// Initialize push notifications
	var pusher services.PushNotifier = push.NoopNotifier{}
	if cfg.APNs.Enabled() {
		apns, err := push.NewAPNsNotifier(cfg.APNs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		pusher = apns
	}

	// Initialize services
	wsHub := services.NewWSHub()
	userService := services.NewUserService(store.Users, cfg.JWT.Secret)
	barcodeService := services.NewBarcodeService(
		store.Barcodes,
		objects,
		barcode.NewGenerator(cfg.Barcode),
		cfg.Barcode.WorkDir,
		cfg.AWS.BarcodeDir,
	)
	eventService := services.NewEventService(store, barcodeService, wsHub, pusher)
	photoService := services.NewPhotoService(store.Users, store.Events, store.EventPhotos, objects, cfg.AWS.EventImageDir)
	dayService := services.NewDayService(store, barcodeService, objects, cfg.AWS.DayImageDir)
	checkInService := services.NewCheckInService(store.Users, store.Events, wsHub)

	// Initialize handlers
	maxUpload := cfg.Server.MaxUploadMB << 20
	userHandler := handlers.NewUserHandler(userService, eventService)
	eventHandler := handlers.NewEventHandler(eventService)
	photoHandler := handlers.NewPhotoHandler(photoService, maxUpload)
	dayHandler := handlers.NewDayHandler(dayService, maxUpload)
	barcodeHandler := handlers.NewBarcodeHandler(barcodeService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, eventService, checkInService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
		r.Handle("/metrics", metrics.Handler())
	}

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Put("/users/me/push-token", userHandler.UpdatePushToken)
			r.Get("/users/me/event", userHandler.GetEventStatus)

			r.Post("/events", eventHandler.CreateEvent)
			r.Route("/events/{event_id}", func(r chi.Router) {
				r.Get("/", eventHandler.GetEvent)
				r.Patch("/name", eventHandler.RenameEvent)
				r.Patch("/date", eventHandler.RescheduleEvent)
				r.Post("/barcode", eventHandler.GenerateBarcode)
				r.Put("/photos", photoHandler.ReplacePhotos)
				r.Delete("/photos", photoHandler.DeletePhotos)
			})

			r.Get("/days/calendar", dayHandler.GetCalendar)
			r.Post("/days/barcode", dayHandler.CreateMonthBarcode)
			r.Get("/days/{date}", dayHandler.GetDay)
			r.Put("/days/{date}", dayHandler.ReplaceDay)

			r.Get("/barcodes", barcodeHandler.ListBarcodes)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	if memoryObjects != nil {
		r.Handle(objectsPath+"/*", http.StripPrefix(objectsPath+"/", memoryObjects))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	wsHub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// localAddr is the address clients use to reach in-memory objects
func localAddr(cfg config.ServerConfig) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("%s:%d", host, cfg.Port)
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
