package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"togetherly/internal/adapter/api"
	"togetherly/internal/adapter/api/handler"
	apimiddleware "togetherly/internal/adapter/api/middleware"
	"togetherly/internal/adapter/api/router"
	"togetherly/internal/adapter/repository"
	"togetherly/internal/domain/service"
	"togetherly/internal/infrastructure/firebase"
	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/internal/infrastructure/session"
	"togetherly/internal/infrastructure/storage"
	"togetherly/internal/infrastructure/tracing"
	"togetherly/internal/infrastructure/trigger"
	"togetherly/internal/infrastructure/websocket"
	"togetherly/internal/usecase"
	"togetherly/pkg/config"
	"togetherly/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	if err := logger.Init(cfg.Environment); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Init(ctx, cfg.ServiceName, cfg.Environment)

	opts, err := firebase.ClientOptions(cfg)
	if err != nil {
		logger.Fatal("Invalid Firebase credentials: %v", err)
	}

	firebaseApp, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		logger.Fatal("%v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		logger.Fatal("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	var fileService service.FileUploadService
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			logger.Fatal("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		fileService = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET not set, media uploads are disabled")
	}

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	pendingRepo := repository.NewFirestorePendingContentRepository(firestoreClient)
	presenceRepo := repository.NewFirestorePresenceRepository(firestoreClient)
	appLockRepo := repository.NewFirestoreAppLockRepository(firestoreClient)
	mediaRepo := repository.NewFirestoreMediaRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine(ctx.Done())

	scorer := service.NewPerspectiveScorer(cfg.PerspectiveAPIKey, cfg.PerspectiveURL, cfg.PerspectiveTimeout)
	if !scorer.Configured() {
		logger.Warn("PERSPECTIVE_API_KEY not set, moderation runs in auto-approve mode")
	}

	userUseCase := usecase.NewUserUseCase(userRepo, firebaseAuthClient)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, rateLimiter)
	moderationUseCase := usecase.NewModerationUseCase(pendingRepo, chatRepo, scorer, cfg.Thresholds, rateLimiter)
	presenceUseCase := usecase.NewPresenceUseCase(presenceRepo, chatRepo, rateLimiter, cfg.PresenceThreshold)
	appLockUseCase := usecase.NewAppLockUseCase(appLockRepo, session.NewIssuer(cfg.JWTSecret, cfg.AppLockSessionTTL), rateLimiter)
	mediaUseCase := usecase.NewMediaUseCase(fileService, mediaRepo, rateLimiter)

	wsManager := websocket.NewManager()
	wsManager.SetStreams(chatUseCase, presenceUseCase)
	wsManager.Start(ctx)
	moderationUseCase.SetNotifier(wsManager)

	if cfg.ModerationWorkerEnabled {
		listener := trigger.NewPendingListener(pendingRepo, moderationUseCase, 0)
		go func() {
			if err := listener.Run(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
				logger.Error("In-process moderation worker stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	} else {
		e.Use(middleware.CORS())
	}
	e.Use(apimiddleware.RateLimit(rateLimiter))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	appLockMiddleware := apimiddleware.NewAppLockMiddleware(appLockUseCase)

	router.Setup(e, router.Handlers{
		Health:     handler.NewHealthHandler(firebaseAuthClient),
		User:       handler.NewUserHandler(userUseCase),
		Chat:       handler.NewChatHandler(chatUseCase),
		Moderation: handler.NewModerationHandler(moderationUseCase),
		Presence:   handler.NewPresenceHandler(presenceUseCase),
		AppLock:    handler.NewAppLockHandler(appLockUseCase),
		Media:      handler.NewMediaHandler(mediaUseCase),
		WebSocket:  handler.NewWebSocketHandler(wsManager, cfg.AllowedOrigins),
		DevToken:   handler.NewDevTokenHandler(firebaseAuthClient, userRepo),
	}, cfg.Environment, authMiddleware, appLockMiddleware)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown failed: %v", err)
	}
}
