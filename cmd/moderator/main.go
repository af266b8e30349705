// Command moderator runs the moderation gate against newly created
// pending_content documents.
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

	"togetherly/internal/adapter/api/handler"
	"togetherly/internal/adapter/api/router"
	"togetherly/internal/adapter/repository"
	"togetherly/internal/domain/service"
	"togetherly/internal/infrastructure/firebase"
	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/internal/infrastructure/tracing"
	"togetherly/internal/infrastructure/trigger"
	"togetherly/internal/usecase"
	"togetherly/pkg/config"
	"togetherly/pkg/logger"
)

const workers = 8

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

	shutdownTracing := tracing.Init(ctx, cfg.ServiceName+"-moderator", cfg.Environment)

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

	pendingRepo := repository.NewFirestorePendingContentRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)

	scorer := service.NewPerspectiveScorer(cfg.PerspectiveAPIKey, cfg.PerspectiveURL, cfg.PerspectiveTimeout)
	if !scorer.Configured() {
		logger.Warn("PERSPECTIVE_API_KEY not set, every submission will be approved")
	}

	moderationUseCase := usecase.NewModerationUseCase(pendingRepo, chatRepo, scorer, cfg.Thresholds, ratelimit.NewRateLimiter())
	listener := trigger.NewPendingListener(pendingRepo, moderationUseCase, workers)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	router.SetupHealthRouter(e, handler.NewHealthHandler(firebase.NewFirebaseAuthClient(authClient)))

	go func() {
		logger.Info("Moderator health endpoint on port %s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server failed: %v", err)
		}
	}()

	runErr := listener.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = e.Shutdown(shutdownCtx)
	_ = shutdownTracing(shutdownCtx)

	if runErr != nil && !stderrors.Is(runErr, context.Canceled) {
		// Exit non-zero so the supervisor restarts us; the backlog replays.
		logger.Fatal("Moderation listener stopped: %v", runErr)
	}
}
